package domain

import "github.com/nbd-wtf/go-nostr"

// Event is a status-change notification emitted to the host. The set is
// closed: every implementation lives in this file, so consumers can switch
// over the concrete types exhaustively.
type Event interface {
	isEvent()
}

// IdentityStatusChanged reports a transition of the identity lifecycle.
// Err is empty unless Status is IdentityError or the transition was caused
// by a failed operation.
type IdentityStatusChanged struct {
	Status    IdentityStatus
	PublicKey string
	Reason    LockReason // set on lock transitions
	Err       string
}

// ConnectionStatusChanged reports a transition of the relay pool.
type ConnectionStatusChanged struct {
	Status ConnectionStatus
}

// PublishResult reports the outcome of a publish attempt for one note.
type PublishResult struct {
	NoteID    string
	MessageID string
	Err       string
}

// RetractResult reports the outcome of a retraction attempt for one note.
type RetractResult struct {
	NoteID string
	Err    string
}

// MessageReceived reports an inbound message delivered on a subscription.
type MessageReceived struct {
	SubscriptionID string
	Endpoint       string
	Message        *nostr.Event
}

// EndOfStored reports that one endpoint has finished delivering stored
// messages for a subscription.
type EndOfStored struct {
	SubscriptionID string
	Endpoint       string
}

func (IdentityStatusChanged) isEvent()   {}
func (ConnectionStatusChanged) isEvent() {}
func (PublishResult) isEvent()           {}
func (RetractResult) isEvent()           {}
func (MessageReceived) isEvent()         {}
func (EndOfStored) isEvent()             {}

// Notifier receives engine events. Implementations must not block.
type Notifier interface {
	Notify(Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}

var _ Notifier = NopNotifier{}
