package normalize

import "errors"

// ErrMalformedPayload is returned when a payload is not JSON, or is neither a
// record array nor an object wrapping one.
var ErrMalformedPayload = errors.New("malformed upstream payload")
