package roster

import "errors"

// ErrInvalidRoster reports a roster that cannot back identity resolution.
var ErrInvalidRoster = errors.New("invalid roster")
