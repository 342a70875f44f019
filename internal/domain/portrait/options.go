package portrait

import (
	"strings"
	"time"

	"github.com/okian/pitwall/internal/domain/memo"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithStaticPrefix sets the path of pre-provisioned portraits, e.g.
// "/static/drivers". Empty disables the static candidate.
func WithStaticPrefix(prefix string) Option {
	return func(r *Resolver) {
		r.staticPrefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	}
}

// WithRemoteBase sets the base URL of remotely hosted portraits. Empty
// disables every remote candidate.
func WithRemoteBase(base string) Option {
	return func(r *Resolver) {
		r.remoteBase = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithCurrentGrid sets the short codes hosted under the PNG convention.
func WithCurrentGrid(ids []string) Option {
	return func(r *Resolver) {
		r.currentGrid = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			r.currentGrid[key(id)] = struct{}{}
		}
	}
}

// WithPlaceholder replaces the built-in placeholder image URI.
func WithPlaceholder(uri string) Option {
	return func(r *Resolver) {
		if uri != "" {
			r.placeholder = uri
		}
	}
}

// WithCacheBusting toggles the freshness token on returned URLs.
func WithCacheBusting(enabled bool) Option {
	return func(r *Resolver) {
		r.cacheBusting = enabled
	}
}

// WithClock sets the time source of freshness tokens.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithFailureMemo sets the set that remembers failed URLs.
func WithFailureMemo(set memo.Set) Option {
	return func(r *Resolver) {
		if set != nil {
			r.failed = set
		}
	}
}
