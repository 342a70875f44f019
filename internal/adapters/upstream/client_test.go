package upstream_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/pitwall/internal/adapters/upstream"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	_ = logger.Init()

	Convey("Given an upstream service", t, func() {
		var hits atomic.Int64
		release := make(chan struct{})
		mux := http.NewServeMux()
		mux.HandleFunc("/results/2024/5", func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte(`[{"position": 1, "driver": "Max Verstappen", "points": 25}]`))
		})
		mux.HandleFunc("/predictions/monaco", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"predictions": [{"position": 1, "driver": {"name": "Charles Leclerc"}, "probability": 31}]}`))
		})
		mux.HandleFunc("/predictions/slow", func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			<-release
			_, _ = w.Write([]byte(`{"predictions": []}`))
		})
		mux.HandleFunc("/results/2024/6", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		})
		mux.HandleFunc("/results/2024/7", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		})
		mux.HandleFunc("/results/2024/8", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status": "ok"}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		c := upstream.New(srv.URL+"/", upstream.WithTimeout(2*time.Second))
		ctx := context.Background()

		Convey("When fetching results", func() {
			records, err := c.Fetch(ctx, model.ResultsKey(2024, 5))

			Convey("Then the records are decoded", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
				So(records[0].Shape, ShouldEqual, model.ShapeResult)
				So(records[0].Result.DriverName, ShouldEqual, "Max Verstappen")
			})
		})

		Convey("When fetching predictions", func() {
			records, err := c.Fetch(ctx, model.PredictionsKey("Monaco"))

			Convey("Then the prediction shape is detected", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
				So(records[0].Shape, ShouldEqual, model.ShapePrediction)
				So(records[0].Prediction.WinProbability, ShouldEqual, 31)
			})
		})

		Convey("When upstream fails with a status", func() {
			_, err := c.Fetch(ctx, model.ResultsKey(2024, 6))

			Convey("Then a status error is returned", func() {
				So(errors.Is(err, upstream.ErrUpstreamStatus), ShouldBeTrue)
				So(upstream.StatusCode(err), ShouldEqual, http.StatusBadGateway)
			})
		})

		Convey("When upstream returns something that is not JSON", func() {
			_, err := c.Fetch(ctx, model.ResultsKey(2024, 7))
			So(errors.Is(err, upstream.ErrDecode), ShouldBeTrue)
		})

		Convey("When upstream returns JSON of the wrong layout", func() {
			_, err := c.Fetch(ctx, model.ResultsKey(2024, 8))
			So(errors.Is(err, upstream.ErrDecode), ShouldBeTrue)
		})

		Convey("When the key is invalid", func() {
			_, err := c.Fetch(ctx, model.FeedKey{Kind: model.FeedResults})
			So(errors.Is(err, upstream.ErrInvalidKey), ShouldBeTrue)
		})

		Convey("When the same feed is fetched concurrently", func() {
			var wg sync.WaitGroup
			errs := make(chan error, 4)
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := c.FetchRaw(ctx, model.PredictionsKey("slow"))
					errs <- err
				}()
			}
			for hits.Load() == 0 {
				time.Sleep(time.Millisecond)
			}
			time.Sleep(20 * time.Millisecond)
			close(release)
			wg.Wait()
			close(errs)

			Convey("Then only one request reaches upstream", func() {
				So(hits.Load(), ShouldEqual, 1)
				for err := range errs {
					So(err, ShouldBeNil)
				}
			})
		})

		Convey("When building endpoint URLs", func() {
			So(c.URL(model.ResultsKey(2024, 5)), ShouldEqual, srv.URL+"/results/2024/5")
			So(c.URL(model.PredictionsKey("Las Vegas")), ShouldEqual, srv.URL+"/predictions/las%20vegas")
		})
	})
}
