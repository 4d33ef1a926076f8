package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shakerwatch/shakerwatch/internal/telemetry"
)

// Entry is one uploaded dataset together with the time it arrived.
type Entry struct {
	ID         string
	Name       string // original filename, display only
	Series     telemetry.Series
	UploadedAt time.Time
}

// Store is a thread-safe in-memory dataset store, keyed by dataset ID.
// A background goroutine (Run) periodically evicts entries that are older
// than the configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TTL returns the configured dataset lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Put stores or replaces the entry under e.ID and stamps UploadedAt.
// Callers must not modify e after calling Put.
func (s *Store) Put(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.UploadedAt = s.now()
	s.data[e.ID] = e
}

// Get returns the live entry for the given dataset ID. An entry whose TTL
// has elapsed is treated as absent even if eviction has not run yet.
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok || !e.UploadedAt.After(s.now().Add(-s.ttl)) {
		return nil, false
	}
	return e, true
}

// List returns all entries whose UploadedAt is within the TTL, newest first.
// Stale entries that have not yet been evicted are excluded.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UploadedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out
}

// Count returns the total number of entries held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries older than now minus TTL and returns how many.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if !e.UploadedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// interval (minimum 1 second) so expired uploads disappear promptly.
// Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted expired datasets", "count", n)
			}
		}
	}
}
