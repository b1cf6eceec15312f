package matchers

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONPath(t *testing.T) {
	body := []byte(`{"user": {"name": "ann", "age": 30}, "tags": ["a", "b"]}`)

	tests := []struct {
		name       string
		conditions map[string]any
		body       []byte
		wantOK     bool
	}{
		{
			name:       "value match",
			conditions: map[string]any{"$.user.name": "ann"},
			body:       body,
			wantOK:     true,
		},
		{
			name:       "numeric coercion",
			conditions: map[string]any{"$.user.age": 30},
			body:       body,
			wantOK:     true,
		},
		{
			name:       "array element",
			conditions: map[string]any{"$.tags[1]": "b"},
			body:       body,
			wantOK:     true,
		},
		{
			name:       "exists true",
			conditions: map[string]any{"$.user.name": map[string]any{"exists": true}},
			body:       body,
			wantOK:     true,
		},
		{
			name:       "exists false",
			conditions: map[string]any{"$.user.email": map[string]any{"exists": false}},
			body:       body,
			wantOK:     true,
		},
		{
			name:       "value mismatch",
			conditions: map[string]any{"$.user.name": "bob"},
			body:       body,
			wantOK:     false,
		},
		{
			name:       "missing path",
			conditions: map[string]any{"$.user.email": "x"},
			body:       body,
			wantOK:     false,
		},
		{
			name:       "invalid body",
			conditions: map[string]any{"$.a": 1},
			body:       []byte("{"),
			wantOK:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := JSONPath(tt.conditions)(nil, tt.body)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestJSONSchema(t *testing.T) {
	schema := `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "integer", "minimum": 0}
		}
	}`

	m, err := JSONSchema(schema)
	require.NoError(t, err)

	ok, _ := m(nil, []byte(`{"name": "ann", "age": 30}`))
	assert.True(t, ok)

	ok, reason := m(nil, []byte(`{"age": -1}`))
	assert.False(t, ok)
	assert.Contains(t, reason, "schema")

	ok, reason = m(nil, []byte("not json"))
	assert.False(t, ok)
	assert.Contains(t, reason, "not valid json")
}

func TestJSONSchemaCompileError(t *testing.T) {
	_, err := JSONSchema(`{"type": 12}`)
	assert.Error(t, err)
}

func TestXMLPath(t *testing.T) {
	body := []byte(`<order><id>42</id><customer><name>ann</name></customer></order>`)

	tests := []struct {
		name       string
		conditions map[string]string
		body       []byte
		wantOK     bool
	}{
		{
			name:       "absolute path",
			conditions: map[string]string{"/order/id": "42"},
			body:       body,
			wantOK:     true,
		},
		{
			name:       "nested path",
			conditions: map[string]string{"/order/customer/name": "ann"},
			body:       body,
			wantOK:     true,
		},
		{
			name:       "descendant search",
			conditions: map[string]string{"//name": "ann"},
			body:       body,
			wantOK:     true,
		},
		{
			name:       "value mismatch",
			conditions: map[string]string{"/order/id": "43"},
			body:       body,
			wantOK:     false,
		},
		{
			name:       "missing path",
			conditions: map[string]string{"/order/total": "1"},
			body:       body,
			wantOK:     false,
		},
		{
			name:       "invalid xml",
			conditions: map[string]string{"/a": "1"},
			body:       []byte("<unclosed"),
			wantOK:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := XMLPath(tt.conditions)(nil, tt.body)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestExpr(t *testing.T) {
	m, err := Expr(`method == "POST" && "1" in query["page"]`)
	require.NoError(t, err)

	req := newRequest(t, "POST", "http://example.com/list?page=1")
	ok, _ := m(req, nil)
	assert.True(t, ok)

	req = newRequest(t, "GET", "http://example.com/list?page=1")
	ok, reason := m(req, nil)
	assert.False(t, ok)
	assert.Contains(t, reason, "false")
}

func TestExprBody(t *testing.T) {
	m, err := Expr(`body contains "hello"`)
	require.NoError(t, err)

	ok, _ := m(newRequest(t, "POST", "http://example.com/"), []byte("say hello"))
	assert.True(t, ok)

	ok, _ = m(newRequest(t, "POST", "http://example.com/"), []byte("goodbye"))
	assert.False(t, ok)
}

func TestExprCompileError(t *testing.T) {
	_, err := Expr(`method ==`)
	assert.Error(t, err)
}

// unsignedJWT builds an alg=none token with the given claims.
func unsignedJWT(t *testing.T, claims map[string]any) string {
	t.Helper()
	enc := func(v any) string {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(data)
	}
	header := map[string]any{"alg": "none", "typ": "JWT"}
	return enc(header) + "." + enc(claims) + "."
}

func TestJWTClaims(t *testing.T) {
	token := unsignedJWT(t, map[string]any{"sub": "u-1", "role": "admin", "iat": 1700000000})

	tests := []struct {
		name     string
		expected map[string]any
		auth     string
		wantOK   bool
	}{
		{
			name:     "subset of claims",
			expected: map[string]any{"sub": "u-1"},
			auth:     "Bearer " + token,
			wantOK:   true,
		},
		{
			name:     "numeric claim coerces",
			expected: map[string]any{"iat": 1700000000},
			auth:     "Bearer " + token,
			wantOK:   true,
		},
		{
			name:     "claim value mismatch",
			expected: map[string]any{"role": "user"},
			auth:     "Bearer " + token,
			wantOK:   false,
		},
		{
			name:     "claim missing",
			expected: map[string]any{"aud": "x"},
			auth:     "Bearer " + token,
			wantOK:   false,
		},
		{
			name:     "no header",
			expected: map[string]any{"sub": "u-1"},
			auth:     "",
			wantOK:   false,
		},
		{
			name:     "not a bearer token",
			expected: map[string]any{"sub": "u-1"},
			auth:     "Basic dXNlcjpwYXNz",
			wantOK:   false,
		},
		{
			name:     "malformed token",
			expected: map[string]any{"sub": "u-1"},
			auth:     "Bearer not.a.jwt",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(t, "GET", "http://example.com/")
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			ok, reason := JWTClaims(tt.expected)(req, nil)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.NotEmpty(t, reason)
			}
		})
	}
}
