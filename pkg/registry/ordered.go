package registry

import (
	"fmt"
	"net/http"

	"github.com/getmockd/intercept/pkg/responder"
)

// OrderedRegistry consumes responders strictly in registration order: each
// dispatch must match the head of the sequence, which is removed once
// answered. A request that does not match the head fails the whole
// sequence; only the failed head is retained, since out-of-order traffic
// means the scenario is already broken.
type OrderedRegistry struct {
	FirstMatchRegistry
}

// NewOrdered creates an empty OrderedRegistry.
func NewOrdered() *OrderedRegistry {
	return &OrderedRegistry{}
}

// Find implements Registry with strict-order, consuming semantics.
func (g *OrderedRegistry) Find(req *http.Request, body []byte) (*responder.Responder, []string) {
	if len(g.responders) == 0 {
		return nil, []string{"no more registered responders"}
	}

	head := g.responders[0]
	g.responders = g.responders[1:]

	ok, reason := head.Matches(req, body)
	if !ok {
		g.responders = []*responder.Responder{head}
		return nil, []string{fmt.Sprintf(
			"next responder in the order doesn't match due to the following reason: %s", reason)}
	}
	return head, nil
}
