// Package upstream fetches the results and predictions feeds.
//
// The client is the validation boundary: a payload reaches the normalizer
// only after a 2xx status and a successful JSON decode. Concurrent fetches of
// the same feed share one request.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/normalize"
	"github.com/okian/pitwall/pkg/logger"
	"github.com/okian/pitwall/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBody  = 8 << 20
	maxErrorExcerpt = 256
)

// Error reasons reported to metrics.
const (
	reasonTransport = "transport"
	reasonStatus    = "status"
	reasonDecode    = "decode"
	reasonKey       = "key"
)

// Client talks to the upstream race-data service.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	maxBody int64
	group   singleflight.Group
	logger  logger.Logger
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		timeout: defaultTimeout,
		maxBody: defaultMaxBody,
		logger:  logger.Get().Named("upstream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// URL returns the endpoint of key.
func (c *Client) URL(key model.FeedKey) string {
	if key.Kind == model.FeedResults {
		return fmt.Sprintf("%s/results/%d/%d", c.baseURL, key.Season, key.Round)
	}
	return fmt.Sprintf("%s/predictions/%s", c.baseURL, url.PathEscape(key.Circuit))
}

// Fetch retrieves key and decodes it into tagged records.
func (c *Client) Fetch(ctx context.Context, key model.FeedKey) ([]model.RawRecord, error) {
	body, err := c.FetchRaw(ctx, key)
	if err != nil {
		return nil, err
	}
	var records []model.RawRecord
	if key.Kind == model.FeedResults {
		records, err = normalize.DecodeResults(body)
	} else {
		records, err = normalize.DecodePredictions(body)
	}
	if err != nil {
		metrics.RecordUpstreamError(string(key.Kind), reasonDecode)
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, key, err)
	}
	return records, nil
}

// FetchRaw retrieves the body of key after checking status and JSON syntax.
func (c *Client) FetchRaw(ctx context.Context, key model.FeedKey) ([]byte, error) {
	if err := key.Validate(); err != nil {
		metrics.RecordUpstreamError(string(key.Kind), reasonKey)
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		return c.get(context.WithoutCancel(ctx), key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		body, _ := res.Val.([]byte)
		return body, nil
	}
}

func (c *Client) get(ctx context.Context, key model.FeedKey) ([]byte, error) {
	feed := string(key.Kind)
	endpoint := c.URL(key)
	start := time.Now()
	defer func() {
		metrics.RecordUpstreamLatency(feed, float64(time.Since(start).Milliseconds()))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		metrics.RecordUpstreamError(feed, reasonTransport)
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamError(feed, reasonTransport)
		c.logger.Warn(ctx, "upstream request failed", logger.String("url", endpoint), logger.Error(err))
		return nil, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		metrics.RecordUpstreamError(feed, reasonTransport)
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordUpstreamError(feed, reasonStatus)
		c.logger.Warn(ctx, "upstream returned error status",
			logger.String("url", endpoint),
			logger.Int("status", resp.StatusCode),
		)
		return nil, &StatusError{Code: resp.StatusCode, URL: endpoint, Body: excerpt(body)}
	}
	if !json.Valid(body) {
		metrics.RecordUpstreamError(feed, reasonDecode)
		return nil, fmt.Errorf("%w: %s: body is not JSON", ErrDecode, endpoint)
	}

	c.logger.Debug(ctx, "upstream fetched",
		logger.String("url", endpoint),
		logger.Int("bytes", len(body)),
		logger.Duration("took", time.Since(start)),
	)
	return body, nil
}

// StatusError is returned for non-2xx responses. It matches ErrUpstreamStatus.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	return "upstream " + e.URL + ": status " + strconv.Itoa(e.Code)
}

// Is reports whether target is ErrUpstreamStatus.
func (e *StatusError) Is(target error) bool { return target == ErrUpstreamStatus }

// StatusCode extracts the upstream status from err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func excerpt(b []byte) string {
	if len(b) > maxErrorExcerpt {
		b = b[:maxErrorExcerpt]
	}
	return string(b)
}
