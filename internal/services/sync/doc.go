// Package sync keeps locally edited notes aligned with their published
// events. It decides when a republish is required via content hashing,
// turns delete and unshare intents into retraction events, and reconciles
// inbound retraction notices against local publish records.
package sync
