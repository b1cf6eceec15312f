// Package intercepttest wires an Interceptor into the lifecycle of a Go
// test. New activates interception immediately and registers a cleanup
// that deactivates and resets it, asserting coverage only when the test
// passed on its own.
package intercepttest

import (
	"testing"

	"github.com/getmockd/intercept"
)

// New returns an active interceptor scoped to the test. Interceptors
// built here assert coverage on teardown unless WithAssertAllFired(false)
// is passed.
func New(t testing.TB, opts ...intercept.Option) *intercept.Interceptor {
	t.Helper()
	i := intercept.New(opts...)
	i.Start()
	t.Cleanup(func() {
		err := i.Stop(!t.Failed())
		i.Reset()
		if err != nil {
			t.Errorf("interceptor teardown: %v", err)
		}
	})
	return i
}

// AssertCallCount fails the test when url was not requested exactly
// expected times.
func AssertCallCount(t testing.TB, i *intercept.Interceptor, url string, expected int) {
	t.Helper()
	if err := i.AssertCallCount(url, expected); err != nil {
		t.Error(err)
	}
}

// AssertAllFired fails the test when any registered responder has a zero
// call count.
func AssertAllFired(t testing.TB, i *intercept.Interceptor) {
	t.Helper()
	for _, r := range i.Registered() {
		if r.CallCount() == 0 {
			t.Errorf("responder %s %s was never matched", r.Method, r.URLString())
		}
	}
}
