package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/pitwall/internal/adapters/http/api"
	"github.com/okian/pitwall/internal/adapters/mq/queue"
	"github.com/okian/pitwall/internal/adapters/repository"
	"github.com/okian/pitwall/internal/domain/identity"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/normalize"
	"github.com/okian/pitwall/internal/domain/portrait"
	"github.com/okian/pitwall/internal/domain/roster"
	"github.com/okian/pitwall/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeDeps struct {
	roster     *roster.Roster
	resolver   *identity.Resolver
	normalizer *normalize.Normalizer
	portraits  *portrait.Resolver
	feeds      map[model.FeedKey]repository.Snapshot
	refreshErr error
	feedErr    error
	refreshed  []model.FeedKey
}

func newFakeDeps() *fakeDeps {
	r := roster.Default()
	res := identity.NewResolver(r)
	return &fakeDeps{
		roster:     r,
		resolver:   res,
		normalizer: normalize.New(res),
		portraits: portrait.New(
			portrait.WithStaticPrefix("/static/drivers"),
			portrait.WithRemoteBase("https://cdn.test"),
			portrait.WithCurrentGrid(r.CurrentGrid()),
			portrait.WithCacheBusting(false),
		),
		feeds: map[model.FeedKey]repository.Snapshot{},
	}
}

func (f *fakeDeps) Normalize(_ context.Context, payload []byte) ([]model.Entry, normalize.Report, error) {
	return f.normalizer.NormalizePayload(payload)
}

func (f *fakeDeps) SortForDisplay(entries []model.Entry) []model.Entry {
	return normalize.SortForDisplay(entries, normalize.UnknownLast)
}

func (f *fakeDeps) ResolveIdentity(_ context.Context, name, upstreamID string) (roster.Driver, identity.Strategy) {
	return f.resolver.ResolveOrUpstreamIDWithStrategy(name, upstreamID)
}

func (f *fakeDeps) Roster(context.Context) *roster.Roster { return f.roster }

func (f *fakeDeps) view(id, u string) api.Portrait {
	return api.Portrait{ID: id, URL: u, Placeholder: f.portraits.IsPlaceholder(u)}
}

func (f *fakeDeps) Portrait(_ context.Context, id string) api.Portrait {
	return f.view(id, f.portraits.NextCandidate(id))
}

func (f *fakeDeps) ReportPortraitFailure(_ context.Context, id, u string) api.Portrait {
	return f.view(id, f.portraits.ReportFailure(id, u))
}

func (f *fakeDeps) ForgetPortrait(_ context.Context, id string) { f.portraits.Forget(id) }

func (f *fakeDeps) ClearPortraits(context.Context) { f.portraits.Clear() }

func (f *fakeDeps) Feed(_ context.Context, key model.FeedKey) (repository.Snapshot, error) {
	if f.feedErr != nil {
		return repository.Snapshot{}, f.feedErr
	}
	snap, ok := f.feeds[key]
	if !ok {
		return repository.Snapshot{}, fmt.Errorf("%w: %s", repository.ErrNotFound, key)
	}
	return snap, nil
}

func (f *fakeDeps) EnqueueRefresh(_ context.Context, key model.FeedKey) (api.RefreshTicket, error) {
	if f.refreshErr != nil {
		return api.RefreshTicket{}, f.refreshErr
	}
	for _, k := range f.refreshed {
		if k == key {
			return api.RefreshTicket{JobID: "job-1", Duplicate: true}, nil
		}
	}
	f.refreshed = append(f.refreshed, key)
	return api.RefreshTicket{JobID: "job-1"}, nil
}

type fakeStats struct{}

func (fakeStats) GetStats() map[string]any { return map[string]any{"stored_feeds": 0} }

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestServer(t *testing.T) {
	_ = logger.Init()

	Convey("Given an API server", t, func() {
		deps := newFakeDeps()
		mux := http.NewServeMux()
		api.NewServer(deps, fakeStats{}).Register(context.Background(), mux)
		h := api.RequestIDMiddleware(api.AccessLogMiddleware(logger.Get(), mux))

		Convey("When checking health", func() {
			w := do(h, "GET", "/healthz", "")

			Convey("Then it reports ok with a request id", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["status"], ShouldEqual, "ok")
				So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
			})
		})

		Convey("When the caller sends a request id", func() {
			req := httptest.NewRequest("GET", "/stats", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it is echoed back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
			})
		})

		Convey("When scraping metrics", func() {
			w := do(h, "GET", "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When normalizing a payload", func() {
			body := `[{"position": "x", "driver": "Lando Norris"}, {"position": 1, "driver": "Max Verstappen"}]`

			Convey("Then entries keep input order by default", func() {
				w := do(h, "POST", "/normalize", body)
				So(w.Code, ShouldEqual, http.StatusOK)
				entries := decode(w)["entries"].([]any)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].(map[string]any)["driver_name"], ShouldEqual, "Lando Norris")
				So(entries[0].(map[string]any)["position"], ShouldEqual, float64(0))
			})

			Convey("Then display sorting puts unknown positions last", func() {
				w := do(h, "POST", "/normalize?sort=display", body)
				entries := decode(w)["entries"].([]any)
				So(entries[0].(map[string]any)["driver_name"], ShouldEqual, "Max Verstappen")
			})
		})

		Convey("When normalizing something that is not a record list", func() {
			w := do(h, "POST", "/normalize", `{"hello": "world"}`)

			Convey("Then it returns 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "malformed_payload")
			})
		})

		Convey("When resolving names", func() {
			So(do(h, "GET", "/resolve?name=Lewis+Hamilton", "").Code, ShouldEqual, http.StatusOK)
			So(decode(do(h, "GET", "/resolve?name=Sergio+Perez", ""))["strategy"], ShouldEqual, "folded")
			So(do(h, "GET", "/resolve?name=Zzz+Nobody", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(h, "GET", "/resolve", "").Code, ShouldEqual, http.StatusBadRequest)
			So(decode(do(h, "GET", "/resolve?name=Zzz+Nobody&upstream_id=ZZZ", ""))["strategy"], ShouldEqual, "synthetic")
		})

		Convey("When listing the roster", func() {
			w := do(h, "GET", "/roster", "")
			out := decode(w)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(out["drivers"].([]any)[0].(map[string]any)["id"], ShouldEqual, "VER")
		})

		Convey("When walking a portrait cascade", func() {
			first := decode(do(h, "GET", "/portraits/VER", ""))
			So(first["url"], ShouldEqual, "/static/drivers/ver.png")

			next := decode(do(h, "POST", "/portraits/VER/failures", `{"url": "/static/drivers/ver.png?_t=5"}`))

			Convey("Then the failure advances it", func() {
				So(next["url"], ShouldEqual, "https://cdn.test/ver.png")
				So(next["placeholder"], ShouldBeFalse)
			})

			Convey("Then a forget restarts it", func() {
				So(do(h, "DELETE", "/portraits/VER", "").Code, ShouldEqual, http.StatusNoContent)
				So(decode(do(h, "GET", "/portraits/VER", ""))["url"], ShouldEqual, "/static/drivers/ver.png")
			})

			Convey("Then a clear restarts it", func() {
				So(do(h, "DELETE", "/portraits", "").Code, ShouldEqual, http.StatusNoContent)
				So(decode(do(h, "GET", "/portraits/VER", ""))["url"], ShouldEqual, "/static/drivers/ver.png")
			})

			Convey("Then a failure without url is rejected", func() {
				So(do(h, "POST", "/portraits/VER/failures", `{}`).Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When reading stored feeds", func() {
			deps.feeds[model.ResultsKey(2024, 3)] = repository.Snapshot{
				Key:     model.ResultsKey(2024, 3),
				Entries: []model.Entry{{Position: 2, DriverName: "b"}, {Position: 1, DriverName: "a"}},
				Version: 1,
			}

			Convey("Then a stored list is returned", func() {
				w := do(h, "GET", "/results/2024/3?sort=display", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				entries := decode(w)["entries"].([]any)
				So(entries[0].(map[string]any)["driver_name"], ShouldEqual, "a")
			})

			Convey("Then unknown feeds are 404 and bad keys 400", func() {
				So(do(h, "GET", "/results/2024/4", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(h, "GET", "/predictions/monaco", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(h, "GET", "/results/abc/4", "").Code, ShouldEqual, http.StatusBadRequest)
				So(do(h, "GET", "/results/2024/0", "").Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then a store that is not serving yet is 503", func() {
				deps.feedErr = fmt.Errorf("feed: %w", repository.ErrUnavailable)
				w := do(h, "GET", "/results/2024/3", "")
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decode(w)["code"], ShouldEqual, "unavailable")
			})
		})

		Convey("When requesting refreshes", func() {
			w := do(h, "POST", "/refresh", `{"kind": "predictions", "circuit": "Monaco"}`)

			Convey("Then the first is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(decode(w)["status"], ShouldEqual, "accepted")
				So(deps.refreshed[0].Circuit, ShouldEqual, "monaco")
			})

			Convey("Then a repeat collapses into the in-flight job", func() {
				again := do(h, "POST", "/refresh", `{"kind": "predictions", "circuit": "monaco"}`)
				So(again.Code, ShouldEqual, http.StatusAccepted)
				So(decode(again)["duplicate"], ShouldBeTrue)
			})

			Convey("Then invalid requests are rejected", func() {
				So(do(h, "POST", "/refresh", `{"kind": "laps"}`).Code, ShouldEqual, http.StatusBadRequest)
				So(do(h, "POST", "/refresh", `{"kind": "results", "season": 2024}`).Code, ShouldEqual, http.StatusBadRequest)
				So(do(h, "POST", "/refresh", `not json`).Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the queue pushes back", func() {
			deps.refreshErr = fmt.Errorf("enqueue: %w", queue.ErrQueueFull)
			So(do(h, "POST", "/refresh", `{"kind": "results", "season": 2024, "round": 1}`).Code, ShouldEqual, http.StatusTooManyRequests)

			deps.refreshErr = queue.ErrQueueClosed
			So(do(h, "POST", "/refresh", `{"kind": "results", "season": 2024, "round": 1}`).Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When a route is called with the wrong method", func() {
			So(do(h, "GET", "/normalize", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
