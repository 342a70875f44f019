package upstream

import "errors"

// Sentinel kinds for upstream errors.
var (
	ErrUpstreamStatus = errors.New("upstream returned non-success status")
	ErrDecode         = errors.New("upstream payload could not be decoded")
	ErrInvalidKey     = errors.New("invalid feed key")
)
