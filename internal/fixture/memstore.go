package fixture

import (
	"cmp"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is an in-memory [Store]. The zero value is ready to use.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]Record)}
}

// Insert implements [Store.Insert].
func (s *MemStore) Insert(_ context.Context, rec Record) (Record, error) {
	if err := Validate(rec); err != nil {
		return Record{}, err
	}
	if rec.ID == "" {
		id, err := generateID()
		if err != nil {
			return Record{}, fmt.Errorf("fixture: generate id: %w", err)
		}
		rec.ID = id
	}
	rec.Attributes = maps.Clone(rec.Attributes)
	rec.Tags = slices.Clone(rec.Tags)
	rec.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records == nil {
		s.records = make(map[string]Record)
	}
	if _, exists := s.records[rec.ID]; exists {
		return Record{}, fmt.Errorf("%w: %q", ErrDuplicateID, rec.ID)
	}
	s.records[rec.ID] = rec
	return rec, nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return rec, nil
}

// List implements [Store.List].
func (s *MemStore) List(_ context.Context, opts ListOptions) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if matches(rec, opts) {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b Record) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Count implements [Store.Count].
func (s *MemStore) Count(_ context.Context, kind string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if kind == "" {
		return len(s.records), nil
	}
	n := 0
	for _, rec := range s.records {
		if rec.Kind == kind {
			n++
		}
	}
	return n, nil
}

// Truncate implements [Store.Truncate].
func (s *MemStore) Truncate(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.records)
	return nil
}

// Ping implements [Store.Ping]. An in-memory store is always reachable.
func (s *MemStore) Ping(context.Context) error { return nil }

// generateID produces a random 16-byte hex string.
func generateID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// matches reports whether rec satisfies all conditions in opts.
func matches(rec Record, opts ListOptions) bool {
	if opts.Kind != "" && rec.Kind != opts.Kind {
		return false
	}
	for _, want := range opts.Tags {
		if !slices.Contains(rec.Tags, want) {
			return false
		}
	}
	return true
}
