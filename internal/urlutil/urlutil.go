// Package urlutil provides URL normalization for responder matching.
//
// Registered literal URLs and incoming request URLs must compare equal even
// when one side is written with raw Unicode and the other arrives already
// punycode- and percent-encoded, so both sides are pushed through the same
// normalization before comparison.
package urlutil

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// HasUnicode reports whether s contains any rune outside the ASCII range.
func HasUnicode(s string) bool {
	for _, r := range s {
		if r > 127 {
			return true
		}
	}
	return false
}

// CleanUnicode converts a URL containing Unicode into its wire form:
// non-ASCII host labels are punycode-encoded, and non-ASCII characters in
// the rest of the URL are percent-encoded. ASCII URLs pass through
// unchanged. Invalid URLs are returned as-is; they will simply never match.
func CleanUnicode(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if HasUnicode(u.Host) {
		host := u.Host
		port := ""
		if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host[i+1:], "]") {
			host, port = host[:i], host[i:]
		}
		labels := strings.Split(host, ".")
		for i, label := range labels {
			if !HasUnicode(label) {
				continue
			}
			if ascii, err := idna.ToASCII(label); err == nil {
				labels[i] = ascii
			}
		}
		u.Host = strings.Join(labels, ".") + port
		raw = u.String()
	}

	// Percent-encode any remaining non-ASCII byte in path, query or fragment.
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r > 127 {
			b.WriteString(url.QueryEscape(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EnsureDefaultPath adds the root path "/" to a URL whose path is empty,
// so "http://example.com" and "http://example.com/" register identically.
func EnsureDefaultPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Path == "" {
		u.Path = "/"
		return u.String()
	}
	return raw
}

// SchemeHostPath truncates a URL to its scheme, host and path, dropping
// query and fragment. An empty path becomes "/", so a client request for
// "http://example.com" compares equal to a registration of
// "http://example.com/". Used for literal URL comparison, where the
// query is matched separately by an explicit matcher.
func SchemeHostPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// LiteralEqual reports whether two URLs are the same literal endpoint,
// comparing only scheme, host and path after Unicode normalization.
func LiteralEqual(registered, incoming string) bool {
	if HasUnicode(registered) {
		registered = CleanUnicode(registered)
	}
	if HasUnicode(incoming) {
		incoming = CleanUnicode(incoming)
	}
	return SchemeHostPath(registered) == SchemeHostPath(incoming)
}
