package identity_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewire/internal/crypto"
	"notewire/internal/domain"
	"notewire/internal/services/identity"
)

// memIdentityStore is an in-memory domain.IdentityStore.
type memIdentityStore struct {
	mu  sync.Mutex
	rec *domain.IdentityRecord
}

func (m *memIdentityStore) SaveIdentity(rec domain.IdentityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &rec
	return nil
}

func (m *memIdentityStore) LoadIdentity() (domain.IdentityRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return domain.IdentityRecord{}, false, nil
	}
	return *m.rec, true, nil
}

func (m *memIdentityStore) DeleteIdentity() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}

// fakePool counts connection lifecycle calls.
type fakePool struct {
	mu          sync.Mutex
	connects    int
	disconnects int
}

func (f *fakePool) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return nil
}

func (f *fakePool) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

func (f *fakePool) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects, f.disconnects
}

// fakeClock captures scheduled callbacks so tests fire them manually.
type fakeClock struct {
	mu    sync.Mutex
	armed int
	d     time.Duration
	fn    func()
}

type fakeTimer struct{ c *fakeClock }

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	t.c.fn = nil
	return true
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) identity.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed++
	c.d = d
	c.fn = fn
	return &fakeTimer{c: c}
}

func (c *fakeClock) fire() {
	c.mu.Lock()
	fn := c.fn
	c.fn = nil
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// recNotifier records emitted events.
type recNotifier struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recNotifier) Notify(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recNotifier) all() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

// staticSettings is a fixed domain.Settings.
type staticSettings struct {
	relays   []string
	autoLock uint
	timeout  time.Duration
}

func (s staticSettings) Relays() []string                   { return s.relays }
func (s staticSettings) AutoLockMinutes() uint              { return s.autoLock }
func (s staticSettings) SubscriptionTimeout() time.Duration { return s.timeout }

type harness struct {
	svc    *identity.Service
	store  *memIdentityStore
	pool   *fakePool
	clock  *fakeClock
	notes  *recNotifier
	rawKey string
}

func newHarness(t *testing.T, autoLock uint) *harness {
	t.Helper()
	h := &harness{
		store:  &memIdentityStore{},
		pool:   &fakePool{},
		clock:  &fakeClock{},
		notes:  &recNotifier{},
		rawKey: crypto.GeneratePrivateKey(),
	}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	h.svc = identity.New(h.store, h.pool, staticSettings{autoLock: autoLock}, h.notes, h.clock, log)
	require.NoError(t, h.svc.Restore())
	return h
}

const strongPass = "Correct.Horse7Battery"

func TestSetupUnlocksAndPersists(t *testing.T) {
	h := newHarness(t, 30)

	require.NoError(t, h.svc.Setup(context.Background(), h.rawKey, strongPass, false))
	assert.Equal(t, domain.IdentityUnlocked, h.svc.Status())

	rec, ok, err := h.store.LoadIdentity()
	require.NoError(t, err)
	require.True(t, ok)

	wantPub, err := crypto.PublicKeyOf(h.rawKey)
	require.NoError(t, err)
	assert.Equal(t, wantPub, rec.PublicKey)
	assert.Equal(t, crypto.CipherAlgorithm, rec.EncryptedPrivateKey.CipherAlgorithm)
	assert.Equal(t, crypto.KDFIterations, rec.EncryptedPrivateKey.KDFIterations)
	assert.Len(t, rec.EncryptedPrivateKey.Salt, crypto.SaltBytes)
	assert.Len(t, rec.EncryptedPrivateKey.IV, crypto.IVBytes)

	connects, _ := h.pool.counts()
	assert.Equal(t, 1, connects)
}

func TestSetupRejectsMalformedKey(t *testing.T) {
	h := newHarness(t, 0)
	err := h.svc.Setup(context.Background(), "not a key", strongPass, false)
	assert.ErrorIs(t, err, domain.ErrInvalidKeyFormat)
	assert.Equal(t, domain.IdentityAbsent, h.svc.Status())
}

func TestSetupWeakPassphraseGate(t *testing.T) {
	h := newHarness(t, 0)

	err := h.svc.Setup(context.Background(), h.rawKey, "weak", false)
	assert.ErrorIs(t, err, domain.ErrWeakPassphrase)
	assert.Equal(t, domain.IdentityAbsent, h.svc.Status())

	// The gate is policy, not a hard failure: confirmation proceeds.
	require.NoError(t, h.svc.Setup(context.Background(), h.rawKey, "weak", true))
	assert.Equal(t, domain.IdentityUnlocked, h.svc.Status())
}

func TestUnlockWrongPassphrase(t *testing.T) {
	h := newHarness(t, 0)
	require.NoError(t, h.svc.Setup(context.Background(), h.rawKey, strongPass, false))
	h.svc.Lock(domain.LockManual)
	require.Equal(t, domain.IdentityLocked, h.svc.Status())

	err := h.svc.Unlock(context.Background(), "definitely wrong")
	assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
	assert.Equal(t, domain.IdentityLocked, h.svc.Status())
	assert.Equal(t, domain.ErrDecryptionFailed.Error(), h.svc.Err())
}

func TestUnlockRoundTrip(t *testing.T) {
	h := newHarness(t, 0)
	require.NoError(t, h.svc.Setup(context.Background(), h.rawKey, strongPass, false))
	h.svc.Lock(domain.LockManual)

	require.NoError(t, h.svc.Unlock(context.Background(), strongPass))
	assert.Equal(t, domain.IdentityUnlocked, h.svc.Status())

	ev := &nostr.Event{Kind: nostr.KindTextNote, CreatedAt: nostr.Now(), Content: "hi"}
	require.NoError(t, h.svc.Sign(ev))
	ok, err := ev.CheckSignature()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, h.svc.PublicKey(), ev.PubKey)
}

func TestUnlockDetectsPublicKeyMismatch(t *testing.T) {
	h := newHarness(t, 0)
	require.NoError(t, h.svc.Setup(context.Background(), h.rawKey, strongPass, false))
	h.svc.Lock(domain.LockManual)

	// Corrupt the stored public key: the AEAD tag still verifies, but the
	// re-derived key no longer matches. Reported as a decryption failure.
	rec, ok, err := h.store.LoadIdentity()
	require.NoError(t, err)
	require.True(t, ok)
	other, err := crypto.PublicKeyOf(crypto.GeneratePrivateKey())
	require.NoError(t, err)
	rec.PublicKey = other
	require.NoError(t, h.store.SaveIdentity(rec))

	err = h.svc.Unlock(context.Background(), strongPass)
	assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
	assert.Equal(t, domain.IdentityLocked, h.svc.Status())
}

func TestSignRequiresUnlocked(t *testing.T) {
	h := newHarness(t, 0)
	require.NoError(t, h.svc.Setup(context.Background(), h.rawKey, strongPass, false))
	h.svc.Lock(domain.LockManual)

	err := h.svc.Sign(&nostr.Event{Kind: nostr.KindTextNote})
	assert.ErrorIs(t, err, domain.ErrIdentityLocked)
}

func TestLockDisconnectsPool(t *testing.T) {
	h := newHarness(t, 0)
	require.NoError(t, h.svc.Setup(context.Background(), h.rawKey, strongPass, false))

	h.svc.Lock(domain.LockManual)
	_, disconnects := h.pool.counts()
	assert.Equal(t, 1, disconnects)
	assert.Equal(t, domain.IdentityLocked, h.svc.Status())
}

func TestLockWithoutRecordIsAbsent(t *testing.T) {
	h := newHarness(t, 0)
	h.svc.Lock(domain.LockManual)
	assert.Equal(t, domain.IdentityAbsent, h.svc.Status())
}

func TestClearRequiresConfirmation(t *testing.T) {
	h := newHarness(t, 0)
	require.NoError(t, h.svc.Setup(context.Background(), h.rawKey, strongPass, false))

	assert.ErrorIs(t, h.svc.Clear(false), domain.ErrNotConfirmed)
	assert.Equal(t, domain.IdentityUnlocked, h.svc.Status())

	require.NoError(t, h.svc.Clear(true))
	assert.Equal(t, domain.IdentityAbsent, h.svc.Status())
	_, ok, err := h.store.LoadIdentity()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAutoLockFiresOnExpiry(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, h.svc.Setup(context.Background(), h.rawKey, strongPass, false))

	h.clock.mu.Lock()
	d := h.clock.d
	h.clock.mu.Unlock()
	assert.Equal(t, time.Minute, d)

	// Not before expiry.
	assert.Equal(t, domain.IdentityUnlocked, h.svc.Status())

	h.clock.fire()
	assert.Equal(t, domain.IdentityLocked, h.svc.Status())

	var reason domain.LockReason
	for _, ev := range h.notes.all() {
		if ch, ok := ev.(domain.IdentityStatusChanged); ok && ch.Status == domain.IdentityLocked {
			reason = ch.Reason
		}
	}
	assert.Equal(t, domain.LockTimeout, reason)
}

func TestAutoLockDisabledWhenZero(t *testing.T) {
	h := newHarness(t, 0)
	require.NoError(t, h.svc.Setup(context.Background(), h.rawKey, strongPass, false))

	h.clock.mu.Lock()
	armed := h.clock.armed
	h.clock.mu.Unlock()
	assert.Zero(t, armed)
}

func TestInteractionsRearmTimer(t *testing.T) {
	h := newHarness(t, 5)
	require.NoError(t, h.svc.Setup(context.Background(), h.rawKey, strongPass, false))

	armedAfterSetup := func() int {
		h.clock.mu.Lock()
		defer h.clock.mu.Unlock()
		return h.clock.armed
	}()
	require.Equal(t, 1, armedAfterSetup)

	require.NoError(t, h.svc.Sign(&nostr.Event{Kind: nostr.KindTextNote, CreatedAt: nostr.Now()}))
	h.svc.Touch()

	h.clock.mu.Lock()
	armed := h.clock.armed
	h.clock.mu.Unlock()
	assert.Equal(t, 3, armed)
}

func TestDuplicateLockNotificationsSuppressed(t *testing.T) {
	h := newHarness(t, 0)
	require.NoError(t, h.svc.Setup(context.Background(), h.rawKey, strongPass, false))

	h.svc.Lock(domain.LockManual)
	before := len(h.notes.all())
	h.svc.Lock(domain.LockManual)
	assert.Equal(t, before, len(h.notes.all()))
}

// Every defined transition from every reachable status lands on a defined
// status; no operation leaves the machine undefined.
func TestStateMachineTotality(t *testing.T) {
	defined := map[domain.IdentityStatus]bool{
		domain.IdentityAbsent:   true,
		domain.IdentityLoading:  true,
		domain.IdentityLocked:   true,
		domain.IdentityUnlocked: true,
		domain.IdentityError:    true,
	}

	h := newHarness(t, 1)
	ops := []func(){
		func() { _ = h.svc.Unlock(context.Background(), "nope") },
		func() { _ = h.svc.Setup(context.Background(), h.rawKey, strongPass, false) },
		func() { _ = h.svc.Sign(&nostr.Event{Kind: nostr.KindTextNote}) },
		func() { h.svc.Touch() },
		func() { h.svc.Lock(domain.LockTimeout) },
		func() { _ = h.svc.Unlock(context.Background(), strongPass) },
		func() { h.clock.fire() },
		func() { _ = h.svc.Clear(true) },
		func() { h.svc.Lock(domain.LockManual) },
	}
	for i, op := range ops {
		op()
		assert.True(t, defined[h.svc.Status()], "op %d left status %q", i, h.svc.Status())
	}
}
