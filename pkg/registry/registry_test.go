package registry

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/intercept/pkg/responder"
)

func newRequest(t *testing.T, method, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	return req
}

func mustResponder(t *testing.T, method, url string, opts ...responder.Option) *responder.Responder {
	t.Helper()
	r, err := responder.New(method, url, opts...)
	require.NoError(t, err)
	return r
}

func TestFirstMatchFind(t *testing.T) {
	reg := NewFirstMatch()
	a := reg.Add(mustResponder(t, "GET", "http://example.com/a"))
	b := reg.Add(mustResponder(t, "GET", "http://example.com/b"))

	found, reasons := reg.Find(newRequest(t, "GET", "http://example.com/b"), nil)
	assert.Same(t, b, found)
	assert.Equal(t, []string{"URL does not match"}, reasons)

	found, _ = reg.Find(newRequest(t, "GET", "http://example.com/a"), nil)
	assert.Same(t, a, found)
}

func TestFirstMatchFindNoMatch(t *testing.T) {
	reg := NewFirstMatch()
	reg.Add(mustResponder(t, "GET", "http://example.com/a"))
	reg.Add(mustResponder(t, "POST", "http://example.com/b"))

	found, reasons := reg.Find(newRequest(t, "GET", "http://example.com/c"), nil)
	assert.Nil(t, found)
	assert.Equal(t, []string{"URL does not match", "method does not match"}, reasons)
}

func TestFirstMatchDuplicates(t *testing.T) {
	reg := NewFirstMatch()
	first := reg.Add(mustResponder(t, "GET", "http://example.com/", responder.WithBodyString("one")))
	second := reg.Add(mustResponder(t, "GET", "http://example.com/", responder.WithBodyString("two")))

	req := newRequest(t, "GET", "http://example.com/")

	// The first registration answers until it has been consumed.
	found, _ := reg.Find(req, nil)
	assert.Same(t, first, found)
	found.RecordCall()

	// A consumed first registration yields to the duplicate and is dropped.
	found, _ = reg.Find(req, nil)
	assert.Same(t, second, found)
	assert.Len(t, reg.Registered(), 1)

	// The survivor keeps answering from now on.
	found.RecordCall()
	found, _ = reg.Find(req, nil)
	assert.Same(t, second, found)
}

func TestAddSameInstanceClones(t *testing.T) {
	reg := NewFirstMatch()
	r := mustResponder(t, "GET", "http://example.com/")

	stored1 := reg.Add(r)
	stored2 := reg.Add(r)

	assert.Same(t, r, stored1)
	assert.NotSame(t, r, stored2, "second registration of the same instance is cloned")
	assert.True(t, stored2.Is(r))
	assert.Len(t, reg.Registered(), 2)
}

func TestRemove(t *testing.T) {
	reg := NewFirstMatch()
	reg.Add(mustResponder(t, "GET", "http://example.com/a"))
	reg.Add(mustResponder(t, "GET", "http://example.com/a", responder.WithStatus(500)))
	reg.Add(mustResponder(t, "GET", "http://example.com/b"))

	removed := reg.Remove(mustResponder(t, "GET", "http://example.com/a"))
	assert.Len(t, removed, 2, "every registration with the same identity is removed")
	assert.Len(t, reg.Registered(), 1)

	removed = reg.Remove(mustResponder(t, "GET", "http://example.com/missing"))
	assert.Empty(t, removed)
}

func TestReplace(t *testing.T) {
	reg := NewFirstMatch()
	reg.Add(mustResponder(t, "GET", "http://example.com/a"))
	reg.Add(mustResponder(t, "GET", "http://example.com/b"))

	replacement := mustResponder(t, "GET", "http://example.com/a", responder.WithStatus(404))
	stored, err := reg.Replace(replacement)
	require.NoError(t, err)
	assert.Same(t, replacement, stored)
	assert.Same(t, replacement, reg.Registered()[0], "replacement keeps the original position")
}

func TestReplaceNotFound(t *testing.T) {
	reg := NewFirstMatch()
	_, err := reg.Replace(mustResponder(t, "GET", "http://example.com/missing"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "http://example.com/missing")
}

func TestReset(t *testing.T) {
	reg := NewFirstMatch()
	reg.Add(mustResponder(t, "GET", "http://example.com/"))
	reg.Reset()
	assert.Empty(t, reg.Registered())
}
