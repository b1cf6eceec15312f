package intercept

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getmockd/intercept/pkg/responder"
)

// ErrRegistryNotEmpty is returned by SetRegistry when responders are still
// registered; reset the interceptor first.
var ErrRegistryNotEmpty = errors.New("cannot replace registry: current registry has responders, reset first")

// NoMatchError is the connection-level failure returned when a request
// matches no registered responder and no passthrough rule. Its message
// enumerates every registration with its individual mismatch reason.
type NoMatchError struct {
	// Request is the request that failed to match.
	Request *http.Request

	msg string
}

func newNoMatchError(req *http.Request, registered []*responder.Responder, reasons []string, rules []passthruRule) *NoMatchError {
	var b strings.Builder
	b.WriteString("connection refused: the request doesn't match any registered responder\n\n")
	b.WriteString("Request:\n")
	fmt.Fprintf(&b, "- %s %s\n\n", req.Method, req.URL)
	b.WriteString("Available responders:\n")
	for i, r := range registered {
		reason := ""
		if i < len(reasons) {
			reason = reasons[i]
		}
		fmt.Fprintf(&b, "- %s %s %s\n", r.Method, r.URLString(), reason)
	}
	if len(rules) > 0 {
		b.WriteString("Passthru prefixes:\n")
		for _, rule := range rules {
			fmt.Fprintf(&b, "- %s\n", rule)
		}
	}
	return &NoMatchError{Request: req, msg: b.String()}
}

func (e *NoMatchError) Error() string { return e.msg }

// RetriesExhaustedError is returned when the retry policy's maximum
// attempts are reached and the policy is configured to raise.
type RetriesExhaustedError struct {
	Method     string
	URL        string
	Attempts   int
	LastStatus int
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("max retries exhausted for %s %s: %d attempts, last status %d",
		e.Method, e.URL, e.Attempts, e.LastStatus)
}

// CoverageError is returned by Stop when coverage assertion is enabled and
// one or more registered responders were never matched.
type CoverageError struct {
	// Unfired are the responders with a zero call count.
	Unfired []*responder.Responder
}

func (e *CoverageError) Error() string {
	pairs := make([]string, len(e.Unfired))
	for i, r := range e.Unfired {
		pairs[i] = fmt.Sprintf("%s %s", r.Method, r.URLString())
	}
	return "not all requests have been executed: " + strings.Join(pairs, ", ")
}
