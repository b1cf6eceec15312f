package responder

import "errors"

// ErrConfig marks registration-time misuse: conflicting content-type
// sources, a json body combined with a raw body, and similar. These fail
// immediately and are never retried or recorded as calls.
var ErrConfig = errors.New("responder configuration error")
