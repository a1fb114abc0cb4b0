package dedup

import (
	"context"
	"sync"
)

// MemorySet is the in-process announced set. It is bounded: once the cap is
// reached the oldest half of the ids is evicted. This is a best-effort memory
// bound, not a correctness guarantee; an evicted id that resurfaces would be
// re-announced, which is an accepted and logged risk.
type MemorySet struct {
	mu    sync.Mutex
	ids   map[string]struct{}
	order []string // insertion order, drives eviction
	cap   int

	evictions int
}

// NewMemorySet creates a bounded in-memory set.
func NewMemorySet(cap int) *MemorySet {
	if cap < 2 {
		cap = 2
	}
	return &MemorySet{
		ids: make(map[string]struct{}),
		cap: cap,
	}
}

// MarkIfNew marks id and reports whether this caller was first. The
// check-and-set runs under one lock, so duplicate delivery from multiple
// relay connections cannot both see "new".
func (s *MemorySet) MarkIfNew(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return false, nil
	}
	s.add(id)
	return true, nil
}

// Contains reports membership without marking.
func (s *MemorySet) Contains(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok, nil
}

// Mark marks id unconditionally.
func (s *MemorySet) Mark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; !ok {
		s.add(id)
	}
	return nil
}

// add inserts id, evicting the oldest half first when at capacity.
// Caller holds s.mu.
func (s *MemorySet) add(id string) {
	if len(s.order) >= s.cap {
		half := len(s.order) / 2
		for _, old := range s.order[:half] {
			delete(s.ids, old)
		}
		s.order = append(s.order[:0], s.order[half:]...)
		s.evictions++
	}

	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
}

// Len returns the number of marked ids.
func (s *MemorySet) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids), nil
}

// Evictions returns how many oldest-half evictions have run.
func (s *MemorySet) Evictions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictions
}

func (s *MemorySet) Close() error {
	return nil
}
