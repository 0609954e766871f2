package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sirupsen/logrus"

	"notewire/internal/crypto"
	"notewire/internal/domain"
)

// Engine owns one PublishRecord per note and performs the outbound
// republish decision, share, retraction, and inbound reconciliation flows.
// It reads the identity and the pool only through narrow interfaces and
// never holds key material.
//
// All operations serialize on the engine mutex, so the hash comparison in
// HandleEdit always runs against the latest persisted record, never a
// captured snapshot.
type Engine struct {
	signer  domain.Signer
	pool    domain.Publisher
	records domain.RecordStore
	docs    domain.DocumentSource
	notify  domain.Notifier
	log     *logrus.Logger

	mu      sync.Mutex
	seen    map[string]struct{} // inbound retraction event ids already applied
	lastErr map[string]string   // per-note last failure, to suppress duplicate notifications
	pending map[string]struct{} // notes with an operation in flight
}

// New constructs the sync engine.
func New(
	signer domain.Signer,
	pool domain.Publisher,
	records domain.RecordStore,
	docs domain.DocumentSource,
	notify domain.Notifier,
	log *logrus.Logger,
) *Engine {
	return &Engine{
		signer:  signer,
		pool:    pool,
		records: records,
		docs:    docs,
		notify:  notify,
		log:     log,
		seen:    make(map[string]struct{}),
		lastErr: make(map[string]string),
		pending: make(map[string]struct{}),
	}
}

// Share publishes a note as a text event, signing it via the identity
// controller. Requires an unlocked identity and a connected pool; on
// failure the publish record is left unchanged.
func (e *Engine) Share(ctx context.Context, noteID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, ok, err := e.docs.Document(noteID)
	if err != nil {
		return fmt.Errorf("load note %s: %w", noteID, err)
	}
	if !ok {
		return fmt.Errorf("note %s not found", noteID)
	}

	rec, _, err := e.records.GetRecord(noteID)
	if err != nil {
		return err
	}
	if err := e.publishNoteLocked(ctx, noteID, doc.Content, &rec); err != nil {
		return err
	}
	return nil
}

// HandleEdit runs the republish decision for a changed note. A note with no
// publish record was never shared and is ignored. A shared, not remotely
// retracted note is republished only when the current content hash differs
// from the last successfully published one.
func (e *Engine) HandleEdit(ctx context.Context, noteID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok, err := e.records.GetRecord(noteID)
	if err != nil {
		return err
	}
	if !ok || !rec.IsShared || rec.IsRetractedRemotely {
		return nil
	}

	doc, found, err := e.docs.Document(noteID)
	if err != nil || !found {
		// Cannot hash what we cannot read; the decision is blocked but no
		// state is touched.
		return fmt.Errorf("%w: note %s", domain.ErrHashingFailed, noteID)
	}
	if crypto.ContentHash(doc.Content) == rec.ContentHash {
		return nil
	}
	return e.publishNoteLocked(ctx, noteID, doc.Content, &rec)
}

// Retract unshares a note by publishing a deletion event referencing its
// message id. A note that was never published is a local no-op that still
// clears the pending-operation flag. On success the record keeps its
// message id for audit but drops shared state and the content hash.
func (e *Engine) Retract(ctx context.Context, noteID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok, err := e.records.GetRecord(noteID)
	if err != nil {
		return err
	}
	if !ok || rec.MessageID == "" {
		delete(e.pending, noteID)
		return nil
	}

	e.pending[noteID] = struct{}{}
	defer delete(e.pending, noteID)

	if err := e.publishRetraction(ctx, rec.MessageID); err != nil {
		e.notifyRetractLocked(noteID, err)
		return err
	}

	rec.IsShared = false
	rec.IsRetractedRemotely = true
	rec.ContentHash = ""
	if err := e.records.PutRecord(noteID, rec); err != nil {
		return err
	}
	e.notifyRetractLocked(noteID, nil)
	return nil
}

// HandleDelete propagates a permanent local deletion. When the note still
// has an active message id the same retraction flow as Retract runs
// best-effort: a failure is logged, not retried, since the local record is
// dropped either way.
func (e *Engine) HandleDelete(ctx context.Context, noteID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok, err := e.records.GetRecord(noteID)
	if err != nil {
		return err
	}
	if ok && rec.MessageID != "" && !rec.IsRetractedRemotely {
		if err := e.publishRetraction(ctx, rec.MessageID); err != nil {
			e.log.WithError(err).WithField("note", noteID).
				Warn("retraction for deleted note failed")
		}
	}
	return e.records.DeleteRecord(noteID)
}

// HandleInbound reconciles an inbound retraction event. Every local note
// whose message id is referenced and not already marked retracted loses its
// shared state. Idempotent and order-independent; duplicate deliveries
// across endpoints are ignored by event id.
func (e *Engine) HandleInbound(ev *nostr.Event) error {
	if ev == nil || ev.Kind != nostr.KindDeletion {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, dup := e.seen[ev.ID]; dup {
		return nil
	}
	e.seen[ev.ID] = struct{}{}

	refs := make(map[string]struct{})
	for _, tag := range ev.Tags {
		if len(tag) >= 2 && tag[0] == "e" {
			refs[tag[1]] = struct{}{}
		}
	}
	if len(refs) == 0 {
		return nil
	}

	all, err := e.records.Records()
	if err != nil {
		return err
	}
	for noteID, rec := range all {
		if _, hit := refs[rec.MessageID]; !hit || rec.IsRetractedRemotely {
			continue
		}
		rec.IsRetractedRemotely = true
		rec.IsShared = false
		if err := e.records.PutRecord(noteID, rec); err != nil {
			return err
		}
		e.log.WithField("note", noteID).WithField("message", rec.MessageID).
			Info("note retracted remotely")
	}
	return nil
}

// publishNoteLocked signs and broadcasts the note content, then updates the
// record. The new event carries a reference tag to the previous message id,
// if any, so readers can reconstruct edit lineage.
func (e *Engine) publishNoteLocked(ctx context.Context, noteID, content string, rec *domain.PublishRecord) error {
	e.pending[noteID] = struct{}{}
	defer delete(e.pending, noteID)

	ev := &nostr.Event{
		Kind:      nostr.KindTextNote,
		CreatedAt: nostr.Now(),
		Content:   content,
	}
	if rec.MessageID != "" {
		ev.Tags = append(ev.Tags, nostr.Tag{"e", rec.MessageID})
	}

	if err := e.signer.Sign(ev); err != nil {
		e.notifyPublishLocked(noteID, "", err)
		return err
	}
	if err := e.pool.Publish(ctx, ev); err != nil {
		e.notifyPublishLocked(noteID, "", err)
		return err
	}

	rec.MessageID = ev.ID
	rec.PublishedAt = time.Now().UTC()
	rec.ContentHash = crypto.ContentHash(content)
	rec.IsShared = true
	if err := e.records.PutRecord(noteID, *rec); err != nil {
		return err
	}
	e.notifyPublishLocked(noteID, ev.ID, nil)
	return nil
}

func (e *Engine) publishRetraction(ctx context.Context, messageID string) error {
	ev := &nostr.Event{
		Kind:      nostr.KindDeletion,
		CreatedAt: nostr.Now(),
		Tags:      nostr.Tags{nostr.Tag{"e", messageID}},
	}
	if err := e.signer.Sign(ev); err != nil {
		return err
	}
	return e.pool.Publish(ctx, ev)
}

func (e *Engine) notifyPublishLocked(noteID, messageID string, err error) {
	if err == nil {
		delete(e.lastErr, noteID)
		e.notify.Notify(domain.PublishResult{NoteID: noteID, MessageID: messageID})
		return
	}
	if e.lastErr[noteID] == err.Error() {
		return
	}
	e.lastErr[noteID] = err.Error()
	e.notify.Notify(domain.PublishResult{NoteID: noteID, Err: err.Error()})
}

func (e *Engine) notifyRetractLocked(noteID string, err error) {
	if err == nil {
		delete(e.lastErr, noteID)
		e.notify.Notify(domain.RetractResult{NoteID: noteID})
		return
	}
	if e.lastErr[noteID] == err.Error() {
		return
	}
	e.lastErr[noteID] = err.Error()
	e.notify.Notify(domain.RetractResult{NoteID: noteID, Err: err.Error()})
}
