package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"notewire/internal/domain"
)

const idFilename = "identity.json"

// identityRecordVersion is the current supported on-disk record version.
const identityRecordVersion = 1

// IdentityFileStore persists the encrypted identity record to disk. The
// crypto lives in the vault; this store only handles the JSON envelope.
type IdentityFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir}
}

// SaveIdentity writes the record atomically with owner-only permissions.
func (s *IdentityFileStore) SaveIdentity(rec domain.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, idFilename), b, 0o600)
}

// LoadIdentity reads the record. A missing file is not an error; the second
// return value reports presence.
func (s *IdentityFileStore) LoadIdentity() (domain.IdentityRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, idFilename))
	if errors.Is(err, os.ErrNotExist) {
		return domain.IdentityRecord{}, false, nil
	}
	if err != nil {
		return domain.IdentityRecord{}, false, err
	}
	var rec domain.IdentityRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return domain.IdentityRecord{}, false, err
	}
	if rec.Version > identityRecordVersion {
		return domain.IdentityRecord{}, false, fmt.Errorf("unsupported identity record version %d", rec.Version)
	}
	return rec, true, nil
}

// DeleteIdentity erases the record. Deleting an absent record is a no-op.
func (s *IdentityFileStore) DeleteIdentity() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, idFilename))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
