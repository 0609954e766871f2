package domain

import (
	"context"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// IdentityStore persists the encrypted identity record.
type IdentityStore interface {
	SaveIdentity(rec IdentityRecord) error
	LoadIdentity() (IdentityRecord, bool, error)
	DeleteIdentity() error
}

// RecordStore persists one PublishRecord per note id.
type RecordStore interface {
	PutRecord(noteID string, rec PublishRecord) error
	GetRecord(noteID string) (PublishRecord, bool, error)
	DeleteRecord(noteID string) error
	// Records returns all publish records keyed by note id.
	Records() (map[string]PublishRecord, error)
}

// DocumentSource resolves note content by id. The note-taking application
// provides this; the bundled CLI backs it with the notebook store.
type DocumentSource interface {
	Document(noteID string) (Note, bool, error)
}

// Settings is the external key/value configuration consumed by the engine.
type Settings interface {
	// Relays returns the configured relay endpoint URLs.
	Relays() []string
	// AutoLockMinutes returns the inactivity window before the identity
	// locks itself. Zero disables the auto-lock.
	AutoLockMinutes() uint
	// SubscriptionTimeout bounds the wait for end-of-stored-messages.
	SubscriptionTimeout() time.Duration
}

// Signer gates signing on the identity lifecycle. Sign fails with
// ErrIdentityLocked unless the identity is unlocked.
type Signer interface {
	Sign(ev *nostr.Event) error
	Status() IdentityStatus
	PublicKey() string
}

// Publisher is the narrow view of the relay pool the sync engine needs.
type Publisher interface {
	Publish(ctx context.Context, ev *nostr.Event) error
	ConnectionStatus() ConnectionStatus
}

// ConnectionManager is the narrow view of the relay pool the identity
// controller drives on unlock and lock.
type ConnectionManager interface {
	Connect(ctx context.Context) error
	Disconnect()
}
