package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/normalize"
	"github.com/okian/pitwall/pkg/metrics"
)

// MemoryStore keeps snapshots in memory for the lifetime of the process.
// Entries are immutable once stored; readers get their own slice.
type MemoryStore struct {
	mu    sync.RWMutex
	feeds map[model.FeedKey]Snapshot

	now                   func() time.Time
	metricsUpdateInterval time.Duration
	stop                  chan struct{}
	stopOnce              sync.Once
}

// NewMemoryStore creates an empty store and starts its metrics updater, which
// stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		feeds:                 make(map[model.FeedKey]Snapshot),
		now:                   time.Now,
		metricsUpdateInterval: 5 * time.Second,
		stop:                  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) Put(_ context.Context, key model.FeedKey, entries []model.Entry, report normalize.Report) (Snapshot, error) {
	if err := key.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	s.mu.Lock()
	prev := s.feeds[key]
	snap := Snapshot{
		Key:     key,
		Entries: append([]model.Entry(nil), entries...),
		Report:  report,
		Stored:  s.now(),
		Version: prev.Version + 1,
	}
	s.feeds[key] = snap
	count := len(s.feeds)
	s.mu.Unlock()

	metrics.UpdateStoredFeeds(count)
	return copySnapshot(snap), nil
}

func (s *MemoryStore) Get(_ context.Context, key model.FeedKey) (Snapshot, error) {
	s.mu.RLock()
	snap, ok := s.feeds[key]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return copySnapshot(snap), nil
}

func (s *MemoryStore) Keys(_ context.Context) []model.FeedKey {
	s.mu.RLock()
	keys := make([]model.FeedKey, 0, len(s.feeds))
	for k := range s.feeds {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.feeds)
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				metrics.UpdateStoredFeeds(s.Count(ctx))
			}
		}
	}()
}

func copySnapshot(s Snapshot) Snapshot {
	s.Entries = append([]model.Entry(nil), s.Entries...)
	return s
}
