// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers defaults, an optional YAML file and PITWALL_ environment variables.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Unknown-position policies accepted by UnknownPositionPolicy.
const (
	PolicyFirst = "first"
	PolicyLast  = "last"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// UpstreamBaseURL is the root of the results and predictions endpoints.
	UpstreamBaseURL string `koanf:"upstream_base_url"`

	// UpstreamTimeoutMS bounds a single upstream request.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// RosterPath points at a YAML roster; empty selects the embedded roster.
	RosterPath string `koanf:"roster_path"`

	// QueueSize bounds the refresh job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of refresh workers.
	WorkerCount int `koanf:"worker_count"`

	// StaticPortraitPrefix is the relative path of pre-provisioned portraits.
	StaticPortraitPrefix string `koanf:"static_portrait_prefix"`

	// RemotePortraitBase is the remote directory holding driver portraits.
	RemotePortraitBase string `koanf:"remote_portrait_base"`

	// CacheBusting appends a freshness token to handed-out portrait URLs.
	CacheBusting bool `koanf:"cache_busting"`

	// UnknownPositionPolicy places entries with the sentinel position first or last for display.
	UnknownPositionPolicy string `koanf:"unknown_position_policy"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		UpstreamBaseURL:       "http://localhost:8000",
		UpstreamTimeoutMS:     10_000,
		RosterPath:            "",
		QueueSize:             1024,
		WorkerCount:           4,
		StaticPortraitPrefix:  "/static/drivers",
		RemotePortraitBase:    "https://media.formula1.com/d_driver_fallback_image.png/content/dam/fom-website/drivers",
		CacheBusting:          true,
		UnknownPositionPolicy: PolicyLast,
	}
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.UpstreamBaseURL) == "" {
		return fmt.Errorf("%w: upstream_base_url must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.UnknownPositionPolicy) {
	case PolicyFirst, PolicyLast:
	default:
		return fmt.Errorf("%w: unknown_position_policy must be %q or %q, got %q",
			ErrInvalidConfig, PolicyFirst, PolicyLast, c.UnknownPositionPolicy)
	}
	return nil
}
