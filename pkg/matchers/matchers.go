// Package matchers provides request predicates that constrain which
// requests a responder accepts beyond method and URL.
//
// A Matcher inspects the outgoing request and its buffered body and returns
// a pass/fail verdict plus a human-readable reason for the failure. All
// matchers attached to a responder must pass; the first failing reason is
// surfaced in diagnostics.
package matchers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// Matcher is a pure predicate over an outgoing request. Implementations
// must be side-effect free and safe to call repeatedly; the body parameter
// carries the request body, buffered once by the dispatcher.
type Matcher func(req *http.Request, body []byte) (ok bool, reason string)

// QueryParams matches when the request's parsed query parameters equal the
// expected set. Comparison is order-insensitive and duplicate-key-aware:
// repeated keys must carry the same multiset of values.
func QueryParams(expected url.Values) Matcher {
	return func(req *http.Request, _ []byte) (bool, string) {
		actual := req.URL.Query()
		if valuesEqual(expected, actual) {
			return true, ""
		}
		return false, fmt.Sprintf("query params %s don't match %s",
			sortedEncode(actual), sortedEncode(expected))
	}
}

// QueryString matches when the request's raw query string parses to the
// same parameter set as the expected query string.
func QueryString(rawQuery string) Matcher {
	expected, expectedErr := url.ParseQuery(rawQuery)
	return func(req *http.Request, _ []byte) (bool, string) {
		if expectedErr != nil {
			return false, fmt.Sprintf("invalid expected query string %q: %v", rawQuery, expectedErr)
		}
		actual := req.URL.Query()
		if valuesEqual(expected, actual) {
			return true, ""
		}
		return false, fmt.Sprintf("query string %q doesn't match %q", req.URL.RawQuery, rawQuery)
	}
}

// Fragment matches when the request URL's fragment identifier equals the
// expected string. Literal URL comparison ignores fragments entirely;
// this matcher is the way to pin one down.
func Fragment(expected string) Matcher {
	return func(req *http.Request, _ []byte) (bool, string) {
		actual := req.URL.Fragment
		if actual == expected {
			return true, ""
		}
		return false, fmt.Sprintf("URL fragment %q doesn't match %q", actual, expected)
	}
}

// URLEncodedBody matches when the form-encoded request body equals the
// expected parameter set, ignoring parameter order.
func URLEncodedBody(expected url.Values) Matcher {
	return func(_ *http.Request, body []byte) (bool, string) {
		actual, err := url.ParseQuery(string(body))
		if err != nil {
			return false, fmt.Sprintf("request body is not form-encoded: %v", err)
		}
		if valuesEqual(expected, actual) {
			return true, ""
		}
		return false, fmt.Sprintf("request body %q doesn't match %s", body, sortedEncode(expected))
	}
}

// JSONBody matches when the request body parses as JSON structurally equal
// to expected. The expected value may be any Go value; it is normalized
// through a marshal/unmarshal round trip so maps, structs and raw JSON
// strings compare consistently.
func JSONBody(expected any) Matcher {
	normalized, normErr := normalizeJSON(expected)
	return func(_ *http.Request, body []byte) (bool, string) {
		if normErr != nil {
			return false, fmt.Sprintf("invalid expected json: %v", normErr)
		}
		var actual any
		if err := json.Unmarshal(body, &actual); err != nil {
			return false, fmt.Sprintf("request body is not valid json: %v", err)
		}
		if reflect.DeepEqual(normalized, actual) {
			return true, ""
		}
		return false, fmt.Sprintf("request body %s doesn't match %s", body, mustMarshal(normalized))
	}
}

// JSONBodyStrict matches when the compacted request body is byte-identical
// to the compacted expected JSON, making key order significant.
func JSONBodyStrict(expected string) Matcher {
	return func(_ *http.Request, body []byte) (bool, string) {
		want, err := compactJSON([]byte(expected))
		if err != nil {
			return false, fmt.Sprintf("invalid expected json: %v", err)
		}
		got, err := compactJSON(body)
		if err != nil {
			return false, fmt.Sprintf("request body is not valid json: %v", err)
		}
		if want == got {
			return true, ""
		}
		return false, fmt.Sprintf("request body %s doesn't strictly match %s", got, want)
	}
}

// Header matches when the named request header equals the expected value.
// Header names are case-insensitive.
func Header(name, expected string) Matcher {
	return func(req *http.Request, _ []byte) (bool, string) {
		actual := req.Header.Get(name)
		if actual == expected {
			return true, ""
		}
		if actual == "" {
			return false, fmt.Sprintf("header %s is missing, expected %q", name, expected)
		}
		return false, fmt.Sprintf("header %s value %q doesn't match %q", name, actual, expected)
	}
}

// HeaderExists matches when the named request header is present with any
// value.
func HeaderExists(name string) Matcher {
	return func(req *http.Request, _ []byte) (bool, string) {
		if req.Header.Get(name) != "" {
			return true, ""
		}
		return false, fmt.Sprintf("header %s is missing", name)
	}
}

// BodyEquals matches when the request body is exactly the expected string.
func BodyEquals(expected string) Matcher {
	return func(_ *http.Request, body []byte) (bool, string) {
		if string(body) == expected {
			return true, ""
		}
		return false, fmt.Sprintf("request body %q doesn't equal %q", body, expected)
	}
}

// BodyContains matches when the request body contains the given substring.
func BodyContains(substr string) Matcher {
	return func(_ *http.Request, body []byte) (bool, string) {
		if strings.Contains(string(body), substr) {
			return true, ""
		}
		return false, fmt.Sprintf("request body doesn't contain %q", substr)
	}
}

// valuesEqual compares two parameter sets, treating repeated keys as
// multisets of values.
func valuesEqual(a, b url.Values) bool {
	if len(a) != len(b) {
		return false
	}
	for key, av := range a {
		bv, ok := b[key]
		if !ok || len(av) != len(bv) {
			return false
		}
		as := append([]string(nil), av...)
		bs := append([]string(nil), bv...)
		sort.Strings(as)
		sort.Strings(bs)
		for i := range as {
			if as[i] != bs[i] {
				return false
			}
		}
	}
	return true
}

// sortedEncode renders a parameter set with deterministic key order for
// failure messages.
func sortedEncode(v url.Values) string {
	if v == nil {
		return "<nil>"
	}
	return v.Encode()
}

func normalizeJSON(v any) (any, error) {
	switch t := v.(type) {
	case string:
		var out any
		if err := json.Unmarshal([]byte(t), &out); err != nil {
			return nil, err
		}
		return out, nil
	case []byte:
		var out any
		if err := json.Unmarshal(t, &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// compactJSON strips insignificant whitespace while preserving key order,
// so strict comparison stays order-sensitive.
func compactJSON(data []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func mustMarshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
