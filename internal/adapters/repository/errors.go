package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound   = errors.New("feed not found")
	ErrInvalidKey = errors.New("invalid feed key")
	// ErrUnavailable means no store is serving reads yet.
	ErrUnavailable = errors.New("store unavailable")
)
