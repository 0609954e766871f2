package store

import (
	"encoding/json"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"notewire/internal/domain"
)

const notebookFilename = "notebook.db"

var (
	notesBucket   = []byte("notes")
	recordsBucket = []byte("publish_records")
)

// Notebook stores note bodies and their publish records in a bolt database.
// It implements both domain.RecordStore and domain.DocumentSource, standing
// in for the note-taking application's own storage when the engine runs
// from the CLI.
type Notebook struct {
	db *bolt.DB
}

// OpenNotebook opens (or creates) the notebook database under dir.
func OpenNotebook(dir string) (*Notebook, error) {
	db, err := bolt.Open(filepath.Join(dir, notebookFilename), 0o600,
		&bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(notesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Notebook{db: db}, nil
}

// Close releases the database file.
func (n *Notebook) Close() error { return n.db.Close() }

// PutNote writes a note body.
func (n *Notebook) PutNote(noteID, content string) error {
	return n.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(notesBucket).Put([]byte(noteID), []byte(content))
	})
}

// DeleteNote removes a note body. The publish record is managed separately
// by the sync engine.
func (n *Notebook) DeleteNote(noteID string) error {
	return n.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(notesBucket).Delete([]byte(noteID))
	})
}

// Notes returns all note ids.
func (n *Notebook) Notes() ([]string, error) {
	var ids []string
	err := n.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(notesBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

// Document resolves a note body by id.
func (n *Notebook) Document(noteID string) (domain.Note, bool, error) {
	var note domain.Note
	var found bool
	err := n.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(notesBucket).Get([]byte(noteID))
		if v == nil {
			return nil
		}
		found = true
		note = domain.Note{ID: noteID, Content: string(v)}
		return nil
	})
	return note, found, err
}

// PutRecord writes a publish record.
func (n *Notebook) PutRecord(noteID string, rec domain.PublishRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return n.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).Put([]byte(noteID), b)
	})
}

// GetRecord reads a publish record; the second return value reports
// presence.
func (n *Notebook) GetRecord(noteID string) (domain.PublishRecord, bool, error) {
	var rec domain.PublishRecord
	var found bool
	err := n.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(recordsBucket).Get([]byte(noteID))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	})
	return rec, found, err
}

// DeleteRecord removes a publish record. Unknown ids are a no-op.
func (n *Notebook) DeleteRecord(noteID string) error {
	return n.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).Delete([]byte(noteID))
	})
}

// Records returns all publish records keyed by note id.
func (n *Notebook) Records() (map[string]domain.PublishRecord, error) {
	out := make(map[string]domain.PublishRecord)
	err := n.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).ForEach(func(k, v []byte) error {
			var rec domain.PublishRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out[string(k)] = rec
			return nil
		})
	})
	return out, err
}

// Compile-time assertions.
var (
	_ domain.RecordStore    = (*Notebook)(nil)
	_ domain.DocumentSource = (*Notebook)(nil)
)
