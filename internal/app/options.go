package service

import (
	"fmt"
	"time"

	"github.com/okian/pitwall/internal/adapters/mq/worker"
	"github.com/okian/pitwall/internal/config"
	"github.com/okian/pitwall/internal/domain/normalize"
	"github.com/okian/pitwall/internal/domain/roster"
	"github.com/okian/pitwall/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the refresh queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRoster replaces the embedded reference roster.
func WithRoster(r *roster.Roster) Option {
	return func(s *Service) {
		if r != nil {
			s.roster = r
		}
	}
}

// WithUpstream points refreshes at an upstream base URL.
func WithUpstream(baseURL string, timeout time.Duration) Option {
	return func(s *Service) {
		s.upstreamBaseURL = baseURL
		if timeout > 0 {
			s.upstreamTimeout = timeout
		}
	}
}

// WithFetcher replaces the HTTP upstream client used by refresh workers.
func WithFetcher(f worker.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithPortraitSources sets the static prefix and remote base of the
// portrait cascade. Empty values drop that source.
func WithPortraitSources(staticPrefix, remoteBase string) Option {
	return func(s *Service) {
		s.staticPrefix = staticPrefix
		s.remoteBase = remoteBase
	}
}

// WithCacheBusting toggles the freshness token on portrait URLs.
func WithCacheBusting(enabled bool) Option {
	return func(s *Service) {
		s.cacheBusting = enabled
	}
}

// WithUnknownPolicy sets where entries without a position go for display.
func WithUnknownPolicy(p normalize.UnknownPolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// OptionsFromConfig translates process configuration into service options.
// A configured roster path is loaded here.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	policy, err := normalize.ParsePolicy(cfg.UnknownPositionPolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	opts := []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithUpstream(cfg.UpstreamBaseURL, time.Duration(cfg.UpstreamTimeoutMS)*time.Millisecond),
		WithPortraitSources(cfg.StaticPortraitPrefix, cfg.RemotePortraitBase),
		WithCacheBusting(cfg.CacheBusting),
		WithUnknownPolicy(policy),
	}
	if cfg.RosterPath != "" {
		r, err := roster.LoadFile(cfg.RosterPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithRoster(r))
	}
	return opts, nil
}
