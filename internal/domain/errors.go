package domain

import "errors"

var (
	// ErrInvalidKeyFormat is returned when a raw private key fails format
	// validation at setup.
	ErrInvalidKeyFormat = errors.New("invalid private key format")

	// ErrDecryptionFailed is returned when the passphrase is incorrect or
	// the stored record has been modified or corrupted. The two cases are
	// indistinguishable and are reported identically.
	ErrDecryptionFailed = errors.New("wrong passphrase or corrupted identity")

	// ErrPublicKeyMismatch means the decrypted private key does not derive
	// the stored public key. Callers of Unlock observe it as
	// ErrDecryptionFailed; the sentinel exists for logging and tests.
	ErrPublicKeyMismatch = errors.New("decrypted key does not match stored public key")

	// ErrIdentityLocked is returned when signing is attempted without an
	// unlocked identity.
	ErrIdentityLocked = errors.New("identity is locked")

	// ErrNotConnected is returned by network operations when the relay pool
	// is not connected.
	ErrNotConnected = errors.New("relay pool not connected")

	// ErrNoEndpoints is returned by connect when no relay endpoints are
	// configured.
	ErrNoEndpoints = errors.New("no relay endpoints configured")

	// ErrHashingFailed means the content hash could not be computed, which
	// blocks a republish decision without corrupting state.
	ErrHashingFailed = errors.New("content hash computation failed")

	// ErrWeakPassphrase is a policy gate, not a hard failure: setup with a
	// weak or empty passphrase requires explicit confirmation to proceed.
	ErrWeakPassphrase = errors.New("passphrase is empty or too weak; confirm to save anyway")

	// ErrNotConfirmed is returned when a destructive operation is invoked
	// without its confirmation signal.
	ErrNotConfirmed = errors.New("operation requires explicit confirmation")

	// ErrNoIdentity is returned when an operation needs a persisted
	// identity record and none exists.
	ErrNoIdentity = errors.New("no identity record")
)
