package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedFindInOrder(t *testing.T) {
	reg := NewOrdered()
	a := reg.Add(mustResponder(t, "GET", "http://example.com/a"))
	b := reg.Add(mustResponder(t, "POST", "http://example.com/b"))

	found, reasons := reg.Find(newRequest(t, "GET", "http://example.com/a"), nil)
	assert.Same(t, a, found)
	assert.Empty(t, reasons)

	found, _ = reg.Find(newRequest(t, "POST", "http://example.com/b"), nil)
	assert.Same(t, b, found)

	found, reasons = reg.Find(newRequest(t, "GET", "http://example.com/a"), nil)
	assert.Nil(t, found)
	assert.Equal(t, []string{"no more registered responders"}, reasons)
}

func TestOrderedOutOfOrder(t *testing.T) {
	reg := NewOrdered()
	first := reg.Add(mustResponder(t, "GET", "http://example.com/a"))
	reg.Add(mustResponder(t, "POST", "http://example.com/b"))

	found, reasons := reg.Find(newRequest(t, "POST", "http://example.com/b"), nil)
	assert.Nil(t, found)
	assert.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "doesn't match due to the following reason")
	assert.Contains(t, reasons[0], "method does not match")

	// Only the failed head survives an out-of-order request.
	assert.Len(t, reg.Registered(), 1)
	assert.Same(t, first, reg.Registered()[0])
}
