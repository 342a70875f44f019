package service

import "errors"

// ErrNotStarted is returned by operations that need the refresh pipeline
// before Start was called.
var ErrNotStarted = errors.New("service not started")
