package identity

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sirupsen/logrus"

	"notewire/internal/crypto"
	"notewire/internal/domain"
)

// minPassphraseLength defines the minimum number of characters required for
// a passphrase to pass the strength policy.
const minPassphraseLength = 12

// Service drives the identity lifecycle state machine
// (absent → locked → unlocked → locked/absent) and custodies the decrypted
// private key. The key lives only in the session field and is wiped, not
// merely dereferenced, on every lock and clear transition.
type Service struct {
	store  domain.IdentityStore
	pool   domain.ConnectionManager
	cfg    domain.Settings
	notify domain.Notifier
	clock  Clock
	log    *logrus.Logger

	mu        sync.Mutex
	status    domain.IdentityStatus
	publicKey string
	key       []byte // hex characters of the private key; nil unless unlocked
	errMsg    string
	hasRecord bool
	timer     Timer
	lastNote  domain.IdentityStatusChanged
}

// New constructs the controller in the absent state. Call Restore to pick up
// a persisted record.
func New(
	store domain.IdentityStore,
	pool domain.ConnectionManager,
	cfg domain.Settings,
	notify domain.Notifier,
	clock Clock,
	log *logrus.Logger,
) *Service {
	if clock == nil {
		clock = RealClock()
	}
	return &Service{
		store:  store,
		pool:   pool,
		cfg:    cfg,
		notify: notify,
		clock:  clock,
		log:    log,
		status: domain.IdentityAbsent,
	}
}

// Restore loads the persisted record, if any, and moves to locked. It does
// not decrypt anything.
func (s *Service) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok, err := s.store.LoadIdentity()
	if err != nil {
		s.toErrorLocked(err)
		return err
	}
	if !ok {
		s.status = domain.IdentityAbsent
		s.emitLocked("")
		return nil
	}
	s.hasRecord = true
	s.publicKey = rec.PublicKey
	s.status = domain.IdentityLocked
	s.emitLocked("")
	return nil
}

// Setup validates a raw private key, encrypts it under the passphrase, and
// persists the identity record. A weak or empty passphrase is a policy gate:
// without confirmInsecure the call returns domain.ErrWeakPassphrase and
// changes nothing. On success the identity is unlocked, the auto-lock timer
// armed, and the relay pool connected.
func (s *Service) Setup(ctx context.Context, rawKey, passphrase string, confirmInsecure bool) error {
	if err := crypto.ValidatePrivateKey(rawKey); err != nil {
		return err
	}
	if !isSecurePassphrase(passphrase) && !confirmInsecure {
		return domain.ErrWeakPassphrase
	}

	s.mu.Lock()
	if s.status == domain.IdentityError {
		s.mu.Unlock()
		return fmt.Errorf("identity in error state: %s", s.errMsg)
	}
	pub, err := crypto.PublicKeyOf(rawKey)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	salt, err := crypto.NewSalt()
	if err != nil {
		s.toErrorLocked(err)
		s.mu.Unlock()
		return err
	}
	iv, err := crypto.NewIV()
	if err != nil {
		s.toErrorLocked(err)
		s.mu.Unlock()
		return err
	}

	kek := crypto.DeriveKey(passphrase, salt, crypto.KDFIterations)
	ct, err := crypto.Encrypt(kek, iv, []byte(rawKey))
	crypto.Wipe(kek)
	if err != nil {
		s.toErrorLocked(err)
		s.mu.Unlock()
		return err
	}

	rec := domain.IdentityRecord{
		Version:   1,
		PublicKey: pub,
		EncryptedPrivateKey: domain.EncryptedKey{
			Ciphertext:      ct,
			IV:              iv,
			Salt:            salt,
			KDFIterations:   crypto.KDFIterations,
			CipherAlgorithm: crypto.CipherAlgorithm,
		},
	}
	if err := s.store.SaveIdentity(rec); err != nil {
		s.toErrorLocked(err)
		s.mu.Unlock()
		return err
	}

	s.hasRecord = true
	s.publicKey = pub
	s.setKeyLocked([]byte(rawKey))
	s.status = domain.IdentityUnlocked
	s.errMsg = ""
	s.armTimerLocked()
	s.emitLocked("")
	s.mu.Unlock()

	if err := s.pool.Connect(ctx); err != nil {
		s.log.WithError(err).Warn("relay pool connect after setup failed")
	}
	return nil
}

// Unlock decrypts the persisted private key with the given passphrase. The
// public key re-derived from the decrypted material must equal the stored
// one; a mismatch is reported as a decryption failure even though the
// authentication tag verified. On any failure the identity stays locked and
// partially decrypted material is wiped.
func (s *Service) Unlock(ctx context.Context, passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.IdentityUnlocked {
		s.armTimerLocked()
		return nil
	}
	if s.status == domain.IdentityError {
		return fmt.Errorf("identity in error state: %s", s.errMsg)
	}

	rec, ok, err := s.store.LoadIdentity()
	if err != nil {
		s.toErrorLocked(err)
		return err
	}
	if !ok {
		s.status = domain.IdentityAbsent
		s.emitLocked(domain.ErrNoIdentity.Error())
		return domain.ErrNoIdentity
	}
	s.hasRecord = true
	s.publicKey = rec.PublicKey

	s.status = domain.IdentityLoading
	s.emitLocked("")

	enc := rec.EncryptedPrivateKey
	iterations := enc.KDFIterations
	if iterations <= 0 {
		iterations = crypto.KDFIterations
	}
	kek := crypto.DeriveKey(passphrase, enc.Salt, iterations)
	plain, err := crypto.Decrypt(kek, enc.IV, enc.Ciphertext)
	crypto.Wipe(kek)
	if err != nil {
		return s.failUnlockLocked(domain.ErrDecryptionFailed)
	}

	derived, err := crypto.PublicKeyOf(string(plain))
	if err != nil || derived != rec.PublicKey {
		crypto.Wipe(plain)
		s.log.WithField("publicKey", rec.PublicKey).Warn(domain.ErrPublicKeyMismatch.Error())
		return s.failUnlockLocked(domain.ErrDecryptionFailed)
	}

	s.setKeyLocked(plain)
	s.status = domain.IdentityUnlocked
	s.errMsg = ""
	s.armTimerLocked()
	s.emitLocked("")
	return nil
}

// Lock wipes the in-memory key, disconnects the relay pool, and cancels the
// auto-lock timer. The resulting status is locked, or absent when no record
// is persisted. Safe from any state.
func (s *Service) Lock(reason domain.LockReason) {
	s.mu.Lock()
	s.wipeKeyLocked()
	s.stopTimerLocked()
	if s.hasRecord {
		s.status = domain.IdentityLocked
	} else {
		s.status = domain.IdentityAbsent
	}
	s.errMsg = ""
	note := domain.IdentityStatusChanged{
		Status:    s.status,
		PublicKey: s.publicKey,
		Reason:    reason,
	}
	s.emitEventLocked(note)
	s.mu.Unlock()

	// Pool teardown always runs, even if an operation is mid-flight.
	s.pool.Disconnect()
}

// Clear erases the persisted identity record and transitions to absent. It
// refuses to act without the confirmation signal.
func (s *Service) Clear(confirmed bool) error {
	if !confirmed {
		return domain.ErrNotConfirmed
	}

	s.mu.Lock()
	s.wipeKeyLocked()
	s.stopTimerLocked()
	err := s.store.DeleteIdentity()
	s.hasRecord = false
	s.publicKey = ""
	s.status = domain.IdentityAbsent
	s.errMsg = ""
	s.emitLocked("")
	s.mu.Unlock()

	s.pool.Disconnect()
	return err
}

// Sign signs the event with the decrypted private key and re-arms the
// auto-lock timer. Only valid while unlocked.
func (s *Service) Sign(ev *nostr.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.IdentityUnlocked {
		return domain.ErrIdentityLocked
	}
	if err := ev.Sign(string(s.key)); err != nil {
		return fmt.Errorf("sign event: %w", err)
	}
	s.armTimerLocked()
	return nil
}

// Touch re-arms the auto-lock timer. The relay pool calls it on every
// subscription delivery, since delivery indicates live activity.
func (s *Service) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == domain.IdentityUnlocked {
		s.armTimerLocked()
	}
}

// Status returns the current lifecycle state.
func (s *Service) Status() domain.IdentityStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// PublicKey returns the stored public key, or "" when absent.
func (s *Service) PublicKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publicKey
}

// Err returns the last recorded error message, verbatim.
func (s *Service) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Service) failUnlockLocked(err error) error {
	s.wipeKeyLocked()
	s.status = domain.IdentityLocked
	s.errMsg = err.Error()
	s.emitLocked(s.errMsg)
	return err
}

func (s *Service) toErrorLocked(err error) {
	s.wipeKeyLocked()
	s.stopTimerLocked()
	s.status = domain.IdentityError
	s.errMsg = err.Error()
	s.emitLocked(s.errMsg)
}

func (s *Service) setKeyLocked(key []byte) {
	s.wipeKeyLocked()
	s.key = key
}

func (s *Service) wipeKeyLocked() {
	if s.key != nil {
		crypto.Wipe(s.key)
		s.key = nil
	}
}

func (s *Service) armTimerLocked() {
	s.stopTimerLocked()
	mins := s.cfg.AutoLockMinutes()
	if mins == 0 {
		return
	}
	s.timer = s.clock.AfterFunc(time.Duration(mins)*time.Minute, func() {
		s.Lock(domain.LockTimeout)
	})
}

func (s *Service) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Service) emitLocked(errMsg string) {
	s.emitEventLocked(domain.IdentityStatusChanged{
		Status:    s.status,
		PublicKey: s.publicKey,
		Err:       errMsg,
	})
}

// emitEventLocked suppresses consecutive duplicates so repeated identical
// failures do not stack notifications.
func (s *Service) emitEventLocked(note domain.IdentityStatusChanged) {
	if note == s.lastNote {
		return
	}
	s.lastNote = note
	s.notify.Notify(note)
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.Signer.
var _ domain.Signer = (*Service)(nil)
