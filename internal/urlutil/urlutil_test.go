package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasUnicode(t *testing.T) {
	assert.False(t, HasUnicode("http://example.com/path"))
	assert.True(t, HasUnicode("http://exámple.com/"))
	assert.True(t, HasUnicode("http://example.com/págiña"))
}

func TestCleanUnicode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "ascii url unchanged",
			in:   "http://example.com/path?q=1",
			want: "http://example.com/path?q=1",
		},
		{
			name: "unicode host punycoded",
			in:   "http://exámple.com/",
			want: "http://xn--exmple-qta.com/",
		},
		{
			name: "unicode path percent encoded",
			in:   "http://example.com/págiña",
			want: "http://example.com/p%C3%A1gi%C3%B1a",
		},
		{
			name: "unicode host and query",
			in:   "http://exámple.com/some/path?with=query&párams=提交",
			want: "http://xn--exmple-qta.com/some/path?with=query&p%C3%A1rams=%E6%8F%90%E4%BA%A4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanUnicode(tt.in))
		})
	}
}

func TestEnsureDefaultPath(t *testing.T) {
	assert.Equal(t, "http://example.com/", EnsureDefaultPath("http://example.com"))
	assert.Equal(t, "http://example.com/foo", EnsureDefaultPath("http://example.com/foo"))
	assert.Equal(t, "http://example.com/?a=1", EnsureDefaultPath("http://example.com?a=1"))
}

func TestSchemeHostPath(t *testing.T) {
	assert.Equal(t, "http://example.com/path", SchemeHostPath("http://example.com/path?ab=xy&zed=qwe#frag"))
	assert.Equal(t, "https://example.com/", SchemeHostPath("https://example.com/?x=1"))
	assert.Equal(t, "http://example.com/", SchemeHostPath("http://example.com"))
	assert.Equal(t, "http://example.com/", SchemeHostPath("http://example.com?a=1"))
}

func TestLiteralEqual(t *testing.T) {
	assert.True(t, LiteralEqual("http://example.com/path", "http://example.com/path?query=1"))
	assert.True(t, LiteralEqual("http://exámple.com/", "http://xn--exmple-qta.com/"))
	assert.False(t, LiteralEqual("http://example.com/path", "http://example.com/other"))

	// Clients may send a bare authority with an empty path; it must
	// compare equal to the normalized registration.
	assert.True(t, LiteralEqual("http://example.com/", "http://example.com"))
	assert.True(t, LiteralEqual("http://example.com", "http://example.com/"))
}
