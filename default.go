package intercept

import (
	"net/http"
	"regexp"

	"github.com/getmockd/intercept/pkg/calllog"
	"github.com/getmockd/intercept/pkg/registry"
	"github.com/getmockd/intercept/pkg/responder"
)

// Default is the shared interceptor behind the package-level functions.
// Unlike interceptors built with New, it does not assert coverage on
// Stop, so ad-hoc use never fails a teardown it didn't ask for.
var Default = New(WithAssertAllFired(false))

// Start activates the default interceptor.
func Start() { Default.Start() }

// Stop deactivates the default interceptor.
func Stop(allowAssert bool) error { return Default.Stop(allowAssert) }

// Reset clears the default interceptor's responders, ledger and
// passthrough rules.
func Reset() { Default.Reset() }

// Run executes fn with the default interceptor active, then stops and
// resets it.
func Run(fn func() error) error { return Default.Run(fn) }

// Add registers a responder on the default interceptor.
func Add(method, url string, opts ...responder.Option) (*responder.Responder, error) {
	return Default.Add(method, url, opts...)
}

// AddResponder registers r on the default interceptor.
func AddResponder(r *responder.Responder) *responder.Responder {
	return Default.AddResponder(r)
}

// AddRegexp registers a pattern responder on the default interceptor.
func AddRegexp(method string, pattern *regexp.Regexp, opts ...responder.Option) (*responder.Responder, error) {
	return Default.AddRegexp(method, pattern, opts...)
}

// AddCallback registers a callback responder on the default interceptor.
func AddCallback(method, url string, cb responder.CallbackFunc, opts ...responder.Option) (*responder.Responder, error) {
	return Default.AddCallback(method, url, cb, opts...)
}

// Get registers a GET responder on the default interceptor.
func Get(url string, opts ...responder.Option) (*responder.Responder, error) {
	return Default.Get(url, opts...)
}

// Post registers a POST responder on the default interceptor.
func Post(url string, opts ...responder.Option) (*responder.Responder, error) {
	return Default.Post(url, opts...)
}

// Put registers a PUT responder on the default interceptor.
func Put(url string, opts ...responder.Option) (*responder.Responder, error) {
	return Default.Put(url, opts...)
}

// Patch registers a PATCH responder on the default interceptor.
func Patch(url string, opts ...responder.Option) (*responder.Responder, error) {
	return Default.Patch(url, opts...)
}

// Delete registers a DELETE responder on the default interceptor.
func Delete(url string, opts ...responder.Option) (*responder.Responder, error) {
	return Default.Delete(url, opts...)
}

// Head registers a HEAD responder on the default interceptor.
func Head(url string, opts ...responder.Option) (*responder.Responder, error) {
	return Default.Head(url, opts...)
}

// Remove removes responders for method and url from the default
// interceptor.
func Remove(method, url string) ([]*responder.Responder, error) {
	return Default.Remove(method, url)
}

// Replace swaps the default interceptor's responder for method and url.
func Replace(method, url string, opts ...responder.Option) (*responder.Responder, error) {
	return Default.Replace(method, url, opts...)
}

// Upsert replaces or adds a responder on the default interceptor.
func Upsert(method, url string, opts ...responder.Option) (*responder.Responder, error) {
	return Default.Upsert(method, url, opts...)
}

// AddPassthru adds a passthrough prefix to the default interceptor.
func AddPassthru(prefix string) { Default.AddPassthru(prefix) }

// AddPassthruRegexp adds a passthrough pattern to the default
// interceptor.
func AddPassthruRegexp(pattern *regexp.Regexp) { Default.AddPassthruRegexp(pattern) }

// AddPassthruGlob adds a passthrough glob to the default interceptor.
func AddPassthruGlob(pattern string) { Default.AddPassthruGlob(pattern) }

// Registered returns the default interceptor's responders.
func Registered() []*responder.Responder { return Default.Registered() }

// Calls returns the default interceptor's ledger.
func Calls() *calllog.List { return Default.Calls() }

// AssertCallCount checks the default interceptor's ledger.
func AssertCallCount(url string, expected int) error {
	return Default.AssertCallCount(url, expected)
}

// SetRegistry installs a custom registry on the default interceptor.
func SetRegistry(reg registry.Registry) error { return Default.SetRegistry(reg) }

// SetResponseCallback installs a response hook on the default
// interceptor.
func SetResponseCallback(fn func(*http.Response) *http.Response) {
	Default.SetResponseCallback(fn)
}
