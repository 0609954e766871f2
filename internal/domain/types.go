package domain

import "time"

// IdentityStatus is the lifecycle state of the local signing identity.
type IdentityStatus string

const (
	IdentityAbsent   IdentityStatus = "absent"
	IdentityLoading  IdentityStatus = "loading"
	IdentityLocked   IdentityStatus = "locked"
	IdentityUnlocked IdentityStatus = "unlocked"
	IdentityError    IdentityStatus = "error"
)

// ConnectionStatus is the lifecycle state of the relay pool.
type ConnectionStatus string

const (
	ConnDisconnected ConnectionStatus = "disconnected"
	ConnConnecting   ConnectionStatus = "connecting"
	ConnConnected    ConnectionStatus = "connected"
	ConnError        ConnectionStatus = "error"
)

// LockReason distinguishes a user-initiated lock from an inactivity timeout.
type LockReason string

const (
	LockManual  LockReason = "manual"
	LockTimeout LockReason = "timeout"
)

// EncryptedKey holds a private key sealed under a passphrase-derived key,
// together with the parameters needed to derive that key again. Binary
// fields are base64 in the persisted JSON form.
type EncryptedKey struct {
	Ciphertext      []byte `json:"ciphertext"`
	IV              []byte `json:"iv"`
	Salt            []byte `json:"salt"`
	KDFIterations   int    `json:"kdfIterations"`
	CipherAlgorithm string `json:"cipherAlgorithm"`
}

// IdentityRecord is the persisted form of the local identity. PublicKey must
// equal the public key derivable from the decrypted private key; unlock
// verifies this on every attempt.
type IdentityRecord struct {
	Version             int          `json:"version"`
	PublicKey           string       `json:"publicKey"`
	EncryptedPrivateKey EncryptedKey `json:"encryptedPrivateKey"`
}

// PublishRecord tracks a note's published representation on the network.
// ContentHash changes only on publish success. IsRetractedRemotely is set by
// an inbound retraction matching MessageID and is never cleared
// automatically.
type PublishRecord struct {
	MessageID           string    `json:"messageId,omitempty"`
	PublishedAt         time.Time `json:"publishedAt,omitempty"`
	ContentHash         string    `json:"contentHash,omitempty"`
	IsShared            bool      `json:"isShared"`
	IsRetractedRemotely bool      `json:"isRetractedRemotely"`
}

// Note is a local document as the sync engine sees it: an opaque id and the
// current text. The editor surface that produces notes is out of scope.
type Note struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// SubscriptionStatus reflects whether the stored-message backlog has been
// fully delivered for a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive      SubscriptionStatus = "active"
	SubscriptionEOSEReached SubscriptionStatus = "eoseReached"
)
