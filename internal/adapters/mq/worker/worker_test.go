package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/pitwall/internal/adapters/mq/queue"
	"github.com/okian/pitwall/internal/adapters/mq/worker"
	"github.com/okian/pitwall/internal/adapters/repository"
	"github.com/okian/pitwall/internal/domain/identity"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/normalize"
	"github.com/okian/pitwall/internal/domain/roster"
	logging "github.com/okian/pitwall/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type fakeFetcher struct {
	mu       sync.Mutex
	payloads map[model.FeedKey]string
	errs     map[model.FeedKey]error
	calls    int
}

func (f *fakeFetcher) Fetch(_ context.Context, key model.FeedKey) ([]model.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return normalize.Decode([]byte(f.payloads[key]))
}

func (f *fakeFetcher) fail(key model.FeedKey, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[key] = err
}

type doneRecorder struct {
	mu   sync.Mutex
	errs map[string]error
	ch   chan string
}

func (d *doneRecorder) record(_ context.Context, j worker.Job, err error) {
	d.mu.Lock()
	d.errs[j.ID] = err
	d.mu.Unlock()
	d.ch <- j.ID
}

func (d *doneRecorder) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-d.ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for job %d", i+1)
		}
	}
}

func TestPool(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a worker pool wired to a store", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		key := model.ResultsKey(2025, 7)
		fetcher := &fakeFetcher{
			payloads: map[model.FeedKey]string{
				key: `[{"position": 1, "driver": "Max Verstappen"}, {"position": 2, "driver": "Zzz Nobody"}, 7]`,
			},
			errs: map[model.FeedKey]error{},
		}
		store := repository.NewMemoryStore(ctx)
		defer store.Close()
		n := normalize.New(identity.NewResolver(roster.Default()))
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		done := &doneRecorder{errs: map[string]error{}, ch: make(chan string, 8)}

		pool := worker.NewPool(2, q, fetcher, n, store, worker.WithOnDone(done.record))
		pool.Start(ctx)
		convey.So(pool.Size(), convey.ShouldEqual, 2)

		convey.Convey("When a refresh job is processed", func() {
			convey.So(q.Enqueue(ctx, queue.Job{ID: "job-1", Key: key}), convey.ShouldBeNil)
			done.wait(t, 1)

			convey.Convey("Then the canonical list is stored", func() {
				snap, err := store.Get(ctx, key)
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.Entries, convey.ShouldHaveLength, 2)
				convey.So(snap.Report.Skipped, convey.ShouldEqual, 1)
				convey.So(snap.Report.Unresolved, convey.ShouldEqual, 1)
				convey.So(done.errs["job-1"], convey.ShouldBeNil)
				convey.So(pool.Processed(), convey.ShouldEqual, 1)
			})

			convey.Convey("And a later refresh fails upstream", func() {
				fetcher.fail(key, errors.New("connection refused"))
				convey.So(q.Enqueue(ctx, queue.Job{ID: "job-2", Key: key}), convey.ShouldBeNil)
				done.wait(t, 1)

				convey.Convey("Then the previous list is retained", func() {
					snap, err := store.Get(ctx, key)
					convey.So(err, convey.ShouldBeNil)
					convey.So(snap.Version, convey.ShouldEqual, 1)
					convey.So(snap.Entries, convey.ShouldHaveLength, 2)
					convey.So(done.errs["job-2"], convey.ShouldNotBeNil)
					convey.So(pool.Failed(), convey.ShouldEqual, 1)
				})
			})
		})

		convey.Convey("When a feed fails before anything was stored", func() {
			other := model.PredictionsKey("monza")
			fetcher.fail(other, errors.New("502"))
			convey.So(q.Enqueue(ctx, queue.Job{ID: "job-3", Key: other}), convey.ShouldBeNil)
			done.wait(t, 1)

			convey.Convey("Then nothing is stored for it", func() {
				_, err := store.Get(ctx, other)
				convey.So(errors.Is(err, repository.ErrNotFound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the pool shuts down", func() {
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then the queue is closed", func() {
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}
