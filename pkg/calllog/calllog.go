// Package calllog keeps the append-only, time-ordered ledger of every
// intercepted request and the reply or failure it produced. The ledger
// backs user assertions (call counts, request inspection) and the
// diagnostics attached to unmatched requests.
package calllog

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/intercept/internal/urlutil"
)

// Call is one immutable ledger entry: the request as observed at dispatch
// time, with derived fields, and either the produced response or the error
// raised while producing it.
type Call struct {
	// ID uniquely identifies the entry.
	ID string

	// Time is when the request was dispatched.
	Time time.Time

	// Request is the intercepted request.
	Request *http.Request

	// RequestBody is a copy of the request body as sent.
	RequestBody []byte

	// Params are the parsed query parameters, repeated keys grouped.
	Params url.Values

	// Response is the produced reply. Nil when Err is set.
	Response *http.Response

	// Err is the failure raised while producing or delivering the reply:
	// a no-match failure, a simulated error, or a passthrough transport
	// error.
	Err error
}

// List is the ledger. Appends are internally serialized; reads return
// snapshots so callers can iterate without holding any lock.
type List struct {
	mu    sync.Mutex
	calls []*Call
}

// NewList creates an empty ledger.
func NewList() *List {
	return &List{}
}

// Append records a dispatch outcome and returns the entry.
func (l *List) Append(req *http.Request, body []byte, resp *http.Response, err error) *Call {
	call := &Call{
		ID:          uuid.NewString(),
		Time:        time.Now(),
		Request:     req,
		RequestBody: body,
		Params:      req.URL.Query(),
		Response:    resp,
		Err:         err,
	}
	l.mu.Lock()
	l.calls = append(l.calls, call)
	l.mu.Unlock()
	return call
}

// Len returns the number of recorded calls.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

// At returns the i-th call in dispatch order.
func (l *List) At(i int) *Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[i]
}

// All returns a snapshot of the ledger in dispatch order.
func (l *List) All() []*Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Call(nil), l.calls...)
}

// CountURL returns how many recorded requests were sent to the given URL.
// Both sides get the default path added before comparison, so a request
// issued without a trailing slash still counts against the normalized
// target.
func (l *List) CountURL(target string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	target = urlutil.EnsureDefaultPath(target)
	n := 0
	for _, c := range l.calls {
		if urlutil.EnsureDefaultPath(c.Request.URL.String()) == target {
			n++
		}
	}
	return n
}

// Reset clears the ledger.
func (l *List) Reset() {
	l.mu.Lock()
	l.calls = nil
	l.mu.Unlock()
}
