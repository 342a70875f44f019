// Package memo tracks keys that have already been seen for the lifetime of
// the process: portrait URLs proven to fail and refresh jobs in flight.
package memo

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Set records seen keys.
type Set interface {
	// SeenAndRecord atomically checks whether key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(key string) bool

	// Seen reports whether key was recorded, without recording it.
	Seen(key string) bool

	// Unrecord removes key so that it can be recorded again.
	Unrecord(key string)

	// Reset forgets every key.
	Reset()

	// Keys returns the recorded keys in lexical order.
	Keys() []string

	Size() int64
}

// inMemorySet is an unbounded Set. Entries are never evicted: a key
// disappears only through Unrecord or Reset.
type inMemorySet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
	size atomic.Int64
	hint int
}

// New creates an empty in-memory Set.
func New(opts ...Option) Set {
	s := &inMemorySet{}
	for _, opt := range opts {
		opt(s)
	}
	s.seen = make(map[string]struct{}, s.hint)
	return s
}

func (s *inMemorySet) SeenAndRecord(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return true
	}
	s.seen[key] = struct{}{}
	s.size.Add(1)
	return false
}

func (s *inMemorySet) Seen(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[key]
	return ok
}

func (s *inMemorySet) Unrecord(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		delete(s.seen, key)
		s.size.Add(-1)
	}
}

func (s *inMemorySet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen = make(map[string]struct{}, s.hint)
	s.size.Store(0)
}

func (s *inMemorySet) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.seen))
	for k := range s.seen {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Size returns the current number of recorded keys.
func (s *inMemorySet) Size() int64 {
	return s.size.Load()
}
