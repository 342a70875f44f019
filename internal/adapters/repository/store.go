// Package repository holds the current canonical list of every upstream feed.
package repository

import (
	"context"
	"time"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/normalize"
)

// Snapshot is the canonical list last stored for one feed.
type Snapshot struct {
	Key     model.FeedKey    `json:"key"`
	Entries []model.Entry    `json:"entries"`
	Report  normalize.Report `json:"report"`
	Stored  time.Time        `json:"stored_at"`
	// Version increases by one on every replacement of this key.
	Version int `json:"version"`
}

// Store provides read/write access to canonical lists.
type Store interface {
	// Put replaces the list stored under key and returns the new snapshot.
	Put(ctx context.Context, key model.FeedKey, entries []model.Entry, report normalize.Report) (Snapshot, error)

	// Get returns the list stored under key.
	// Returns ErrNotFound if the key was never stored.
	Get(ctx context.Context, key model.FeedKey) (Snapshot, error)

	// Keys returns every stored key in lexical order of their path.
	Keys(ctx context.Context) []model.FeedKey

	// Count returns the number of stored feeds.
	Count(ctx context.Context) int
}
