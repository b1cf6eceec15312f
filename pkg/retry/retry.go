// Package retry defines the caller-supplied policy that decides whether a
// reply should be replayed through dispatch. The dispatcher runs the
// replay loop itself, bounded by MaxRetries; no backoff is modeled here.
package retry

import "strings"

// Policy governs retry eligibility by method and status code. The zero
// value never retries.
type Policy struct {
	// MaxRetries bounds the number of replays after the initial attempt.
	MaxRetries int

	// Statuses lists the response status codes that trigger a retry.
	Statuses []int

	// Methods restricts retries to the listed methods. Empty means any
	// method is eligible.
	Methods []string

	// RaiseOnExhaust controls the outcome when retries run out: raise a
	// retries-exhausted failure, or degrade to returning the last reply.
	RaiseOnExhaust bool
}

// ShouldRetry reports whether a reply with the given method and status is
// eligible for another dispatch attempt.
func (p *Policy) ShouldRetry(method string, status int) bool {
	if p == nil || p.MaxRetries <= 0 {
		return false
	}
	if len(p.Methods) > 0 {
		found := false
		for _, m := range p.Methods {
			if strings.EqualFold(m, method) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, s := range p.Statuses {
		if s == status {
			return true
		}
	}
	return false
}
