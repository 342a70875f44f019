// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/pitwall/internal/adapters/http/api"
	"github.com/okian/pitwall/internal/adapters/mq/queue"
	"github.com/okian/pitwall/internal/adapters/mq/worker"
	"github.com/okian/pitwall/internal/adapters/repository"
	"github.com/okian/pitwall/internal/adapters/upstream"
	"github.com/okian/pitwall/internal/domain/identity"
	"github.com/okian/pitwall/internal/domain/memo"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/normalize"
	"github.com/okian/pitwall/internal/domain/portrait"
	"github.com/okian/pitwall/internal/domain/roster"
	"github.com/okian/pitwall/pkg/logger"
	"github.com/okian/pitwall/pkg/metrics"
)

const stopTimeout = 30 * time.Second

// Service reconciles upstream feeds into canonical lists and answers the
// HTTP API. Normalization, identity and portrait operations work without
// Start; refreshes and stored feeds need the pipeline Start builds.
type Service struct {
	mu sync.RWMutex

	// Reconciliation core
	roster     *roster.Roster
	resolver   *identity.Resolver
	normalizer *normalize.Normalizer
	portraits  *portrait.Resolver

	// Refresh pipeline
	store   *repository.MemoryStore
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	fetcher worker.Fetcher

	// In-flight refreshes by feed path, with the job id serving each.
	jobsMu   sync.Mutex
	inflight memo.Set
	jobIDs   map[string]string

	// Configuration
	workerCount     int
	queueSize       int
	upstreamBaseURL string
	upstreamTimeout time.Duration
	staticPrefix    string
	remoteBase      string
	cacheBusting    bool
	policy          normalize.UnknownPolicy

	// State
	started bool

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       1024,
		upstreamTimeout: 10 * time.Second,
		staticPrefix:    "/static/drivers",
		cacheBusting:    true,
		policy:          normalize.UnknownLast,
		inflight:        memo.New(),
		jobIDs:          make(map[string]string),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.roster == nil {
		s.roster = roster.Default()
	}
	s.resolver = identity.NewResolver(s.roster)
	s.normalizer = normalize.New(s.resolver)
	s.portraits = portrait.New(
		portrait.WithStaticPrefix(s.staticPrefix),
		portrait.WithRemoteBase(s.remoteBase),
		portrait.WithCurrentGrid(s.roster.CurrentGrid()),
		portrait.WithCacheBusting(s.cacheBusting),
	)

	return s
}

// Start builds the refresh pipeline and starts its workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting pitwall service...")

	if s.fetcher == nil {
		if strings.TrimSpace(s.upstreamBaseURL) == "" {
			return fmt.Errorf("start: no upstream base url and no fetcher configured")
		}
		s.fetcher = upstream.New(s.upstreamBaseURL,
			upstream.WithTimeout(s.upstreamTimeout),
			upstream.WithLogger(s.logger),
		)
	}

	s.store = repository.NewMemoryStore(ctx)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.fetcher, s.normalizer, s.store,
		worker.WithLogger(s.logger),
		worker.WithOnDone(s.refreshDone),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "pitwall service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.String("roster_version", s.roster.Version()),
		logger.Int("roster_size", s.roster.Len()),
	)

	return nil
}

// Stop drains the refresh queue and releases the pipeline.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping pitwall service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "store close failed", logger.Error(err))
	}

	s.jobsMu.Lock()
	s.inflight.Reset()
	clear(s.jobIDs)
	s.jobsMu.Unlock()

	s.started = false
	s.logger.Info(ctx, "pitwall service stopped")
}

// Normalize decodes and normalizes an upstream payload of either layout.
func (s *Service) Normalize(ctx context.Context, payload []byte) ([]model.Entry, normalize.Report, error) {
	start := time.Now()
	entries, report, err := s.normalizer.NormalizePayload(payload)
	if err != nil {
		s.logger.Debug(ctx, "payload rejected", logger.Error(err))
		return nil, normalize.Report{}, err
	}
	metrics.RecordNormalizeLatency(float64(time.Since(start).Microseconds()) / 1000)
	worker.RecordReport(report)
	return entries, report, nil
}

// SortForDisplay orders entries by position under the configured policy.
func (s *Service) SortForDisplay(entries []model.Entry) []model.Entry {
	return normalize.SortForDisplay(entries, s.policy)
}

// ResolveIdentity resolves a name, falling back to the upstream short code.
func (s *Service) ResolveIdentity(_ context.Context, name, upstreamID string) (roster.Driver, identity.Strategy) {
	d, strategy := s.resolver.ResolveOrUpstreamIDWithStrategy(name, upstreamID)
	metrics.RecordIdentityResolution(string(strategy))
	return d, strategy
}

// Roster returns the reference roster.
func (s *Service) Roster(context.Context) *roster.Roster { return s.roster }

// Portrait returns the URL to load for a driver.
func (s *Service) Portrait(_ context.Context, id string) api.Portrait {
	return s.portraitView(id, s.portraits.NextCandidate(id))
}

// ReportPortraitFailure advances the cascade past a URL that did not load.
func (s *Service) ReportPortraitFailure(_ context.Context, id, url string) api.Portrait {
	metrics.RecordPortraitFailure()
	return s.portraitView(id, s.portraits.ReportFailure(id, url))
}

// ForgetPortrait restarts the cascade of one driver.
func (s *Service) ForgetPortrait(_ context.Context, id string) {
	s.portraits.Forget(id)
	s.updatePortraitState()
}

// ClearPortraits restarts every cascade.
func (s *Service) ClearPortraits(ctx context.Context) {
	s.portraits.Clear()
	s.updatePortraitState()
	s.logger.Info(ctx, "portrait state cleared")
}

// PortraitState exposes the cascade of one driver for diagnostics.
func (s *Service) PortraitState(id string) (portrait.State, bool) {
	return s.portraits.State(id)
}

func (s *Service) portraitView(id, u string) api.Portrait {
	p := api.Portrait{
		ID:          strings.ToUpper(strings.TrimSpace(id)),
		URL:         u,
		Placeholder: s.portraits.IsPlaceholder(u),
	}
	if p.Placeholder {
		metrics.RecordPortraitPlaceholder()
	} else {
		metrics.RecordPortraitCandidate()
	}
	s.updatePortraitState()
	return p
}

func (s *Service) updatePortraitState() {
	st := s.portraits.Stats()
	metrics.UpdatePortraitState(st.Identities, int(st.Memoized))
}

// Feed returns the canonical list last stored for key.
func (s *Service) Feed(ctx context.Context, key model.FeedKey) (repository.Snapshot, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	if store == nil {
		return repository.Snapshot{}, fmt.Errorf("feed %s: %w: %w", key, ErrNotStarted, repository.ErrUnavailable)
	}
	return store.Get(ctx, key)
}

// EnqueueRefresh schedules a refresh of key. A refresh of a feed that is
// already queued or running is not enqueued twice; the ticket of the
// in-flight job is returned instead.
func (s *Service) EnqueueRefresh(ctx context.Context, key model.FeedKey) (api.RefreshTicket, error) {
	if err := key.Validate(); err != nil {
		return api.RefreshTicket{}, err
	}

	s.mu.RLock()
	q, started := s.queue, s.started
	s.mu.RUnlock()
	if !started {
		return api.RefreshTicket{}, fmt.Errorf("refresh %s: %w", key, queue.ErrQueueClosed)
	}

	path := key.String()

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if s.inflight.SeenAndRecord(path) {
		s.logger.Debug(ctx, "refresh already in flight", logger.String("feed", path))
		return api.RefreshTicket{JobID: s.jobIDs[path], Duplicate: true}, nil
	}

	job := model.RefreshJob{ID: uuid.NewString(), Key: key, Enqueued: time.Now()}
	if err := q.Enqueue(ctx, job); err != nil {
		s.inflight.Unrecord(path)
		return api.RefreshTicket{}, fmt.Errorf("refresh %s: %w", key, err)
	}
	s.jobIDs[path] = job.ID

	s.logger.Debug(ctx, "refresh enqueued",
		logger.String("job_id", job.ID),
		logger.String("feed", path),
	)
	return api.RefreshTicket{JobID: job.ID}, nil
}

// RefreshAll enqueues a refresh of every key. It stops at the first key
// that cannot be enqueued and returns the tickets issued so far.
func (s *Service) RefreshAll(ctx context.Context, keys []model.FeedKey) ([]api.RefreshTicket, error) {
	tickets := make([]api.RefreshTicket, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.workerCount, 1))
	for i, key := range keys {
		g.Go(func() error {
			t, err := s.EnqueueRefresh(gctx, key)
			if err != nil {
				return err
			}
			tickets[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return tickets, err
	}
	return tickets, nil
}

// refreshDone releases the in-flight marker of a finished job.
func (s *Service) refreshDone(ctx context.Context, j worker.Job, err error) {
	path := j.Key.String()

	s.jobsMu.Lock()
	if s.jobIDs[path] == j.ID {
		delete(s.jobIDs, path)
		s.inflight.Unrecord(path)
	}
	s.jobsMu.Unlock()

	if err != nil {
		s.logger.Debug(ctx, "refresh finished with error",
			logger.String("job_id", j.ID),
			logger.String("feed", path),
			logger.Error(err),
		)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"rosterVersion": s.roster.Version(),
		"rosterSize":    s.roster.Len(),
		"unknownPolicy": string(s.policy),
		"portraits":     s.portraits.Stats(),
		"inflightFeeds": s.inflight.Size(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		storedFeeds := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["storedFeeds"] = storedFeeds
		stats["refreshesStored"] = s.pool.Processed()
		stats["refreshesFailed"] = s.pool.Failed()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoredFeeds(storedFeeds)
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}
