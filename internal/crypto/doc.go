// Package crypto implements the key vault: passphrase-based key derivation
// and authenticated encryption for the private key at rest, plus helpers for
// the secp256k1 signing key pair and best-effort zeroing of key material.
//
// It has no knowledge of the network or of documents.
package crypto
