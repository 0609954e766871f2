// Package identity owns the local signing identity's lifecycle: setup,
// unlock, lock, clear, and signing. It is the sole holder of decrypted key
// material, enforces the passphrase policy, and runs the inactivity
// auto-lock timer.
package identity
