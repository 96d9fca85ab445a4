// Package store persists extracted problem records. Extraction never writes
// here itself; callers decide when a record is saved.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"cparchive/internal/problem"
)

// ErrNotFound is returned by the finders when no record matches.
var ErrNotFound = errors.New("record not found")

// Store is the persistence collaborator of the archive.
type Store interface {
	FindByCanonicalURL(ctx context.Context, canonicalURL string) (*problem.Record, error)
	FindByID(ctx context.Context, id string) (*problem.Record, error)
	// Upsert saves r under r.ID. An existing record keeps its CreatedAt.
	Upsert(ctx context.Context, r *problem.Record) (*problem.Record, error)
	Close() error
}

// clone returns a deep copy so callers never share slices with the store.
func clone(r *problem.Record) *problem.Record {
	c := *r
	c.SampleTests = make([]problem.SampleTest, len(r.SampleTests))
	for i, t := range r.SampleTests {
		t.Images = append([]string(nil), t.Images...)
		c.SampleTests[i] = t
	}
	c.Tags = append([]string(nil), r.Tags...)
	return &c
}

// Memory keeps records in process. It backs tests and runs without --db.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*problem.Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*problem.Record)}
}

func (m *Memory) FindByCanonicalURL(_ context.Context, canonicalURL string) (*problem.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records {
		if r.URL == canonicalURL {
			return clone(r), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindByID(_ context.Context, id string) (*problem.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(r), nil
}

func (m *Memory) Upsert(_ context.Context, r *problem.Record) (*problem.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := clone(r)
	if existing, ok := m.records[r.ID]; ok {
		saved.CreatedAt = existing.CreatedAt
	}
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = time.Now()
	}
	m.records[r.ID] = saved
	return clone(saved), nil
}

func (m *Memory) Close() error { return nil }
