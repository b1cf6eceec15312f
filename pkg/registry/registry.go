// Package registry provides ordered stores of responders with first-match
// lookup semantics. The default FirstMatchRegistry retains matched
// responders and advances past consumed duplicates; OrderedRegistry is the
// strict-sequence variant that consumes one responder per request.
package registry

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getmockd/intercept/pkg/responder"
)

// ErrNotFound is returned by Replace when no responder with the same
// method and URL is registered.
var ErrNotFound = errors.New("responder not registered")

// Registry is an ordered collection of responders. Implementations are not
// safe for concurrent use on their own; the dispatcher serializes access.
type Registry interface {
	// Add appends a responder. Registering the same instance twice stores
	// an independent clone so call counts don't alias.
	Add(r *responder.Responder) *responder.Responder

	// Remove removes every responder with the same method and URL as the
	// criteria and returns them. Removing an unknown responder is a no-op.
	Remove(criteria *responder.Responder) []*responder.Responder

	// Replace swaps the first responder with the same method and URL,
	// keeping its registration position. Returns ErrNotFound if none
	// exists.
	Replace(r *responder.Responder) (*responder.Responder, error)

	// Find returns the first responder matching the request, plus the
	// mismatch reason for every responder that did not match, in
	// registration order.
	Find(req *http.Request, body []byte) (*responder.Responder, []string)

	// Registered returns the current responder sequence.
	Registered() []*responder.Responder

	// Reset discards all responders.
	Reset()
}

// FirstMatchRegistry is the default registry: lookup scans in registration
// order and returns the first full match. When several responders match
// the same request, the earliest one answers until it has been consumed at
// least once, after which it is dropped so later registrations take over
// on subsequent calls. This is what makes registering the same URL twice
// yield successive replies.
type FirstMatchRegistry struct {
	responders []*responder.Responder
}

// NewFirstMatch creates an empty FirstMatchRegistry.
func NewFirstMatch() *FirstMatchRegistry {
	return &FirstMatchRegistry{}
}

// Add implements Registry.
func (g *FirstMatchRegistry) Add(r *responder.Responder) *responder.Responder {
	for _, existing := range g.responders {
		if existing == r {
			r = r.Clone()
			break
		}
	}
	g.responders = append(g.responders, r)
	return r
}

// Remove implements Registry.
func (g *FirstMatchRegistry) Remove(criteria *responder.Responder) []*responder.Responder {
	var removed []*responder.Responder
	kept := g.responders[:0]
	for _, r := range g.responders {
		if r.Is(criteria) {
			removed = append(removed, r)
		} else {
			kept = append(kept, r)
		}
	}
	g.responders = kept
	return removed
}

// Replace implements Registry.
func (g *FirstMatchRegistry) Replace(r *responder.Responder) (*responder.Responder, error) {
	for i, existing := range g.responders {
		if existing.Is(r) {
			g.responders[i] = r
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w for URL %s", ErrNotFound, r.URLString())
}

// Find implements Registry.
func (g *FirstMatchRegistry) Find(req *http.Request, body []byte) (*responder.Responder, []string) {
	foundIndex := -1
	var found *responder.Responder
	var reasons []string

	for i, r := range g.responders {
		ok, reason := r.Matches(req, body)
		if !ok {
			reasons = append(reasons, reason)
			continue
		}
		if found == nil {
			foundIndex = i
			found = r
			continue
		}
		// A second responder also matches. An unconsumed first keeps
		// answering; once it has been used, drop it so the later duplicate
		// takes over on subsequent lookups.
		if g.responders[foundIndex].CallCount() > 0 {
			g.removeAt(foundIndex)
			found = r
		}
		return found, reasons
	}
	return found, reasons
}

func (g *FirstMatchRegistry) removeAt(i int) {
	g.responders = append(g.responders[:i], g.responders[i+1:]...)
}

// Registered implements Registry.
func (g *FirstMatchRegistry) Registered() []*responder.Responder {
	return g.responders
}

// Reset implements Registry.
func (g *FirstMatchRegistry) Reset() {
	g.responders = nil
}
