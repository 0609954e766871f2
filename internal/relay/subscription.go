package relay

import (
	"context"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"notewire/internal/domain"
)

const eventBuffer = 64

// Subscription is a logical subscription spanning every pool endpoint.
// Events carries matching inbound events; EndOfStored carries the endpoint
// name each time one endpoint finishes delivering its stored backlog.
// Delivery is at-least-once and may duplicate across endpoints; consumers
// deduplicate by event id.
type Subscription struct {
	ID      string
	Filters nostr.Filters

	Events      chan *nostr.Event
	EndOfStored chan string

	timeout time.Duration

	mu     sync.Mutex
	status domain.SubscriptionStatus
	closed bool
	eose   chan struct{} // closed on the first EOSE from any endpoint
}

func newSubscription(id string, filters nostr.Filters, timeout time.Duration) *Subscription {
	return &Subscription{
		ID:          id,
		Filters:     filters,
		Events:      make(chan *nostr.Event, eventBuffer),
		EndOfStored: make(chan string, eventBuffer),
		timeout:     timeout,
		status:      domain.SubscriptionActive,
		eose:        make(chan struct{}),
	}
}

// Status reports whether end-of-stored-messages has been reached.
func (s *Subscription) Status() domain.SubscriptionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// WaitEOSE blocks until any endpoint signals end of stored messages, the
// context is cancelled, or the subscription timeout elapses. It reports
// whether EOSE was reached.
func (s *Subscription) WaitEOSE(ctx context.Context) bool {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case <-s.eose:
		return true
	case <-ctx.Done():
		return false
	case <-timer.C:
		return false
	}
}

// deliver hands an event to the consumer without blocking the read loop.
// Reports false when the buffer is full or the subscription is closed.
func (s *Subscription) deliver(ev *nostr.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.Events <- ev:
		return true
	default:
		return false
	}
}

// markEOSE flips the subscription status and records the endpoint on
// EndOfStored.
func (s *Subscription) markEOSE(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.status != domain.SubscriptionEOSEReached {
		s.status = domain.SubscriptionEOSEReached
		close(s.eose)
	}
	select {
	case s.EndOfStored <- endpoint:
	default:
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.Events)
	close(s.EndOfStored)
}
