// Package memory is an in-process [store.Store] backed by a map.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/store"
)

// Store keeps records in memory. It is safe for concurrent use, and every
// read and write copies so callers never share a record with the store.
type Store struct {
	mu      sync.RWMutex
	records map[string]*store.Record
	now     func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{records: make(map[string]*store.Record), now: time.Now}
}

// Get implements [store.Store].
func (s *Store) Get(_ context.Context, id string) (*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound(id)
	}
	return rec.Clone(), nil
}

// Create implements [store.Store].
func (s *Store) Create(_ context.Context, rec *store.Record) error {
	if err := store.ValidateID(rec.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return store.ErrConflict(rec.ID)
	}
	c := rec.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.records[rec.ID] = c
	return nil
}

// Update implements [store.Store].
func (s *Store) Update(_ context.Context, rec *store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[rec.ID]
	if !ok {
		return store.ErrNotFound(rec.ID)
	}
	c := rec.Clone()
	c.Status = cur.Status
	c.Catatan = cur.Catatan
	c.OwnerID = cur.OwnerID
	c.CreatedAt = cur.CreatedAt
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = s.now()
	}
	s.records[rec.ID] = c
	return nil
}

// SetStatus implements [store.Store].
func (s *Store) SetStatus(_ context.Context, id string, status document.Status, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return store.ErrNotFound(id)
	}
	rec.ApplyStatus(status, note, s.now())
	return nil
}

// Delete implements [store.Store].
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return store.ErrNotFound(id)
	}
	delete(s.records, id)
	return nil
}

// List implements [store.Store].
func (s *Store) List(_ context.Context, f store.Filter) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Record, 0, len(s.records))
	for _, rec := range s.records {
		if f.Match(rec) {
			out = append(out, *rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Close implements [store.Store].
func (s *Store) Close() error { return nil }

var _ store.Store = (*Store)(nil)
