// Package store provides persistence for the engine's records.
//
// It contains concrete implementations of the domain storage interfaces:
//   - IdentityFileStore: the encrypted identity record as JSON on disk,
//     written atomically with restrictive permissions.
//   - Notebook: note bodies and per-note publish records in a bolt
//     database; it doubles as the CLI's document source.
//
// All methods are concurrency-safe via internal locking.
package store
