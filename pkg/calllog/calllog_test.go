package calllog

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func TestAppendAndRead(t *testing.T) {
	l := NewList()
	req := newRequest(t, "http://example.com/?page=2&page=3")
	resp := &http.Response{StatusCode: 200}

	call := l.Append(req, []byte("payload"), resp, nil)

	assert.NotEmpty(t, call.ID)
	assert.False(t, call.Time.IsZero())
	assert.Same(t, req, call.Request)
	assert.Equal(t, []byte("payload"), call.RequestBody)
	assert.Equal(t, []string{"2", "3"}, call.Params["page"])
	assert.Same(t, resp, call.Response)
	assert.NoError(t, call.Err)

	assert.Equal(t, 1, l.Len())
	assert.Same(t, call, l.At(0))
}

func TestAppendFailure(t *testing.T) {
	l := NewList()
	boom := errors.New("no responder matched")

	call := l.Append(newRequest(t, "http://example.com/"), nil, nil, boom)

	assert.Nil(t, call.Response)
	assert.Equal(t, boom, call.Err)
}

func TestOrderAndSnapshot(t *testing.T) {
	l := NewList()
	l.Append(newRequest(t, "http://example.com/a"), nil, nil, nil)
	l.Append(newRequest(t, "http://example.com/b"), nil, nil, nil)

	all := l.All()
	require.Len(t, all, 2)
	assert.Equal(t, "http://example.com/a", all[0].Request.URL.String())
	assert.Equal(t, "http://example.com/b", all[1].Request.URL.String())

	l.Append(newRequest(t, "http://example.com/c"), nil, nil, nil)
	assert.Len(t, all, 2, "snapshots are detached from the live ledger")
}

func TestCountURL(t *testing.T) {
	l := NewList()
	l.Append(newRequest(t, "http://example.com/a"), nil, nil, nil)
	l.Append(newRequest(t, "http://example.com/a"), nil, nil, nil)
	l.Append(newRequest(t, "http://example.com/b"), nil, nil, nil)

	assert.Equal(t, 2, l.CountURL("http://example.com/a"))
	assert.Equal(t, 1, l.CountURL("http://example.com/b"))
	assert.Equal(t, 0, l.CountURL("http://example.com/c"))
}

func TestCountURLDefaultPath(t *testing.T) {
	l := NewList()
	l.Append(newRequest(t, "http://example.com"), nil, nil, nil)
	l.Append(newRequest(t, "http://example.com/"), nil, nil, nil)

	// Recorded and queried URLs both get the default path before
	// comparison.
	assert.Equal(t, 2, l.CountURL("http://example.com"))
	assert.Equal(t, 2, l.CountURL("http://example.com/"))
}

func TestReset(t *testing.T) {
	l := NewList()
	l.Append(newRequest(t, "http://example.com/"), nil, nil, nil)
	l.Reset()
	assert.Equal(t, 0, l.Len())
}

func TestUniqueIDs(t *testing.T) {
	l := NewList()
	a := l.Append(newRequest(t, "http://example.com/"), nil, nil, nil)
	b := l.Append(newRequest(t, "http://example.com/"), nil, nil, nil)
	assert.NotEqual(t, a.ID, b.ID)
}
