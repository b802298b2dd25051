// Package ledger remembers which document contents the worker has already
// digested, keyed by content hash, in a bbolt file.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"docdigest/internal/domain/entity"
)

var bucketDigested = []byte("digested")

// Entry is the stored metadata of one digested document.
type Entry struct {
	DocumentID  string    `json:"document_id"`
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	Category    string    `json:"category"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Ledger is a bbolt-backed set of content hashes. It is safe for concurrent
// use.
type Ledger struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens (or creates) the ledger file at path.
func Open(path string) (*Ledger, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDigested)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create ledger bucket: %w", err)
	}
	return &Ledger{db: db, now: time.Now}, nil
}

// Close releases the file lock.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Hash returns the hex SHA-256 of the document text.
func Hash(doc entity.Document) string {
	sum := sha256.Sum256([]byte(doc.Text))
	return hex.EncodeToString(sum[:])
}

// Get returns the entry stored for a content hash.
func (l *Ledger) Get(hash string) (Entry, bool, error) {
	var (
		e     Entry
		found bool
	)
	err := l.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDigested).Get([]byte(hash))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &e)
	})
	return e, found, err
}

// Fresh returns the documents whose content is not yet in the ledger, in
// input order, and the number left out. Duplicate contents within docs are
// kept only once.
func (l *Ledger) Fresh(docs []entity.Document) ([]entity.Document, int, error) {
	fresh := make([]entity.Document, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	err := l.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDigested)
		for _, d := range docs {
			h := Hash(d)
			if seen[h] || b.Get([]byte(h)) != nil {
				continue
			}
			seen[h] = true
			fresh = append(fresh, d)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return fresh, len(docs) - len(fresh), nil
}

// Settled reports whether a record is final. Records that absorbed a
// classification or summarization failure stay out of the ledger so the next
// run tries them again.
func Settled(rec entity.Record) bool {
	return !rec.HasIssue(entity.ErrClassificationFailure) && !rec.HasIssue(entity.ErrSummarizationFailure)
}

// MarkAll stores every settled record whose document is in docs, in one
// transaction, and returns how many were stored.
func (l *Ledger) MarkAll(runID string, docs []entity.Document, records []entity.Record) (int, error) {
	hashes := make(map[string]string, len(docs))
	for _, d := range docs {
		hashes[d.ID] = Hash(d)
	}

	marked := 0
	now := l.now().UTC()
	err := l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDigested)
		for _, rec := range records {
			h, ok := hashes[rec.ID]
			if !ok || !Settled(rec) {
				continue
			}
			data, err := json.Marshal(Entry{
				DocumentID:  rec.ID,
				RunID:       runID,
				Status:      string(rec.Status),
				Category:    rec.Category.Canonical,
				ProcessedAt: now,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(h), data); err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update ledger: %w", err)
	}
	return marked, nil
}

// Len returns the number of stored hashes.
func (l *Ledger) Len() (int, error) {
	n := 0
	err := l.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketDigested).Stats().KeyN
		return nil
	})
	return n, err
}
