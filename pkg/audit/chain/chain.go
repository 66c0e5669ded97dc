// Package chain adds tamper evidence to an audit store: every record
// carries the digest of the previous record's canonical payload, so any
// rewrite of history breaks the chain from that point on.
package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"

	"audittrail/pkg/audit"
)

// Store decorates another audit.Store with a BLAKE2b digest chain. The
// chain head only advances after the inner store accepted the batch, so a
// failed write never leaves a gap. encoding/json sorts map keys, which
// keeps the canonical payload deterministic for rehashing.
type Store struct {
	mu    sync.Mutex
	inner audit.Store
	head  string
}

func New(inner audit.Store) *Store {
	return &Store{inner: inner}
}

// NewAt resumes a chain whose head digest was recovered from the store.
func NewAt(inner audit.Store, head string) *Store {
	return &Store{inner: inner, head: head}
}

func (s *Store) Append(ctx context.Context, records ...audit.Record) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	linked := make([]audit.Record, len(records))
	prev := s.head
	for i, rec := range records {
		rec.PrevHash = prev
		sum, err := digest(rec)
		if err != nil {
			return fmt.Errorf("digest audit record %s: %w", rec.ID, err)
		}
		linked[i] = rec
		prev = sum
	}
	if err := s.inner.Append(ctx, linked...); err != nil {
		return err
	}
	s.head = prev
	return nil
}

// Head returns the digest of the last appended record.
func (s *Store) Head() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head
}

func digest(rec audit.Record) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
