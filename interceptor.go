package intercept

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"

	"github.com/getmockd/intercept/internal/urlutil"
	"github.com/getmockd/intercept/pkg/calllog"
	"github.com/getmockd/intercept/pkg/logging"
	"github.com/getmockd/intercept/pkg/registry"
	"github.com/getmockd/intercept/pkg/responder"
	"github.com/getmockd/intercept/pkg/retry"
)

// Interceptor owns a responder registry, a call ledger and an activation
// state. While active it stands in for http.DefaultTransport (and the
// transports of any clients passed via WithClients), answering matched
// requests from registered responders and refusing the rest.
//
// All methods are safe for concurrent use.
type Interceptor struct {
	mu sync.Mutex

	registry         registry.Registry
	calls            *calllog.List
	passthru         []passthruRule
	retryPolicy      *retry.Policy
	responseCallback func(*http.Response) *http.Response
	assertAllFired   bool
	logger           *slog.Logger

	// transport, when set, handles passthrough traffic. Otherwise the
	// transport saved at Start time is used.
	transport http.RoundTripper

	active       bool
	savedDefault http.RoundTripper
	clients      []*http.Client
	savedClients []http.RoundTripper
}

// New returns an inactive Interceptor. Coverage assertion is on by
// default; the package-level default instance disables it.
func New(opts ...Option) *Interceptor {
	i := &Interceptor{
		registry:       registry.NewFirstMatch(),
		calls:          calllog.NewList(),
		assertAllFired: true,
		logger:         logging.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Start activates interception by swapping http.DefaultTransport and the
// transports of registered clients. Calling Start on an active
// interceptor is a no-op.
func (i *Interceptor) Start() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.active {
		return
	}
	i.savedDefault = http.DefaultTransport
	http.DefaultTransport = i
	i.savedClients = make([]http.RoundTripper, len(i.clients))
	for n, c := range i.clients {
		i.savedClients[n] = c.Transport
		c.Transport = i
	}
	i.active = true
}

// Stop restores the transports swapped by Start and, when coverage
// assertion is enabled and allowAssert is true, verifies that every
// registered responder was matched at least once. The coverage check runs
// even if the interceptor was already inactive, so calling Stop twice is
// safe but not silent about unfired responders.
func (i *Interceptor) Stop(allowAssert bool) error {
	i.mu.Lock()
	if i.active {
		if http.DefaultTransport == http.RoundTripper(i) {
			http.DefaultTransport = i.savedDefault
		}
		for n, c := range i.clients {
			if c.Transport == http.RoundTripper(i) {
				c.Transport = i.savedClients[n]
			}
		}
		i.savedDefault = nil
		i.savedClients = nil
		i.active = false
	}
	assert := i.assertAllFired && allowAssert
	var unfired []*responder.Responder
	if assert {
		for _, r := range i.registry.Registered() {
			if r.CallCount() == 0 {
				unfired = append(unfired, r)
			}
		}
	}
	i.mu.Unlock()

	if len(unfired) > 0 {
		return &CoverageError{Unfired: unfired}
	}
	return nil
}

// Reset clears all registered responders, the call ledger and passthrough
// rules. A custom registry installed with SetRegistry reverts to the
// default first-match registry. Activation state is untouched.
func (i *Interceptor) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.registry = registry.NewFirstMatch()
	i.calls.Reset()
	i.passthru = nil
}

// Run executes fn with interception active, then stops and resets. The
// coverage assertion only fires when fn itself succeeded, so a failing fn
// surfaces its own error rather than a misleading coverage one.
func (i *Interceptor) Run(fn func() error) error {
	i.Start()
	err := fn()
	stopErr := i.Stop(err == nil)
	i.Reset()
	return errors.Join(err, stopErr)
}

// AddResponder registers a responder and returns the stored instance,
// which is a clone when the same instance was already registered.
func (i *Interceptor) AddResponder(r *responder.Responder) *responder.Responder {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.registry.Add(r)
}

// Add builds a responder for the method and URL and registers it.
func (i *Interceptor) Add(method, url string, opts ...responder.Option) (*responder.Responder, error) {
	r, err := responder.New(method, url, opts...)
	if err != nil {
		return nil, err
	}
	return i.AddResponder(r), nil
}

// AddRegexp registers a responder whose URL is matched by pattern.
func (i *Interceptor) AddRegexp(method string, pattern *regexp.Regexp, opts ...responder.Option) (*responder.Responder, error) {
	r, err := responder.NewRegexp(method, pattern, opts...)
	if err != nil {
		return nil, err
	}
	return i.AddResponder(r), nil
}

// AddCallback registers a responder that computes its reply per request.
func (i *Interceptor) AddCallback(method, url string, cb responder.CallbackFunc, opts ...responder.Option) (*responder.Responder, error) {
	r, err := responder.NewCallback(method, url, cb, opts...)
	if err != nil {
		return nil, err
	}
	return i.AddResponder(r), nil
}

// AddPassthroughResponder registers a responder that forwards matching
// requests to the real transport while still counting and recording them.
func (i *Interceptor) AddPassthroughResponder(method, url string, opts ...responder.Option) (*responder.Responder, error) {
	r, err := responder.NewPassthrough(method, url, opts...)
	if err != nil {
		return nil, err
	}
	return i.AddResponder(r), nil
}

// Get registers a GET responder for url.
func (i *Interceptor) Get(url string, opts ...responder.Option) (*responder.Responder, error) {
	return i.Add(http.MethodGet, url, opts...)
}

// Post registers a POST responder for url.
func (i *Interceptor) Post(url string, opts ...responder.Option) (*responder.Responder, error) {
	return i.Add(http.MethodPost, url, opts...)
}

// Put registers a PUT responder for url.
func (i *Interceptor) Put(url string, opts ...responder.Option) (*responder.Responder, error) {
	return i.Add(http.MethodPut, url, opts...)
}

// Patch registers a PATCH responder for url.
func (i *Interceptor) Patch(url string, opts ...responder.Option) (*responder.Responder, error) {
	return i.Add(http.MethodPatch, url, opts...)
}

// Delete registers a DELETE responder for url.
func (i *Interceptor) Delete(url string, opts ...responder.Option) (*responder.Responder, error) {
	return i.Add(http.MethodDelete, url, opts...)
}

// Head registers a HEAD responder for url.
func (i *Interceptor) Head(url string, opts ...responder.Option) (*responder.Responder, error) {
	return i.Add(http.MethodHead, url, opts...)
}

// Options registers an OPTIONS responder for url.
func (i *Interceptor) Options(url string, opts ...responder.Option) (*responder.Responder, error) {
	return i.Add(http.MethodOptions, url, opts...)
}

// RemoveResponder removes every responder registered for the same method
// and URL as r and returns them.
func (i *Interceptor) RemoveResponder(r *responder.Responder) []*responder.Responder {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.registry.Remove(r)
}

// Remove removes every responder registered for method and url.
func (i *Interceptor) Remove(method, url string) ([]*responder.Responder, error) {
	criteria, err := responder.New(method, url)
	if err != nil {
		return nil, err
	}
	return i.RemoveResponder(criteria), nil
}

// ReplaceResponder swaps the responder registered for the same method and
// URL as r, keeping its position. Returns registry.ErrNotFound when no
// such registration exists.
func (i *Interceptor) ReplaceResponder(r *responder.Responder) (*responder.Responder, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.registry.Replace(r)
}

// Replace builds a responder and swaps it for the existing registration
// with the same method and URL.
func (i *Interceptor) Replace(method, url string, opts ...responder.Option) (*responder.Responder, error) {
	r, err := responder.New(method, url, opts...)
	if err != nil {
		return nil, err
	}
	return i.ReplaceResponder(r)
}

// Upsert replaces an existing registration for method and url, or adds a
// new one when none exists.
func (i *Interceptor) Upsert(method, url string, opts ...responder.Option) (*responder.Responder, error) {
	r, err := responder.New(method, url, opts...)
	if err != nil {
		return nil, err
	}
	stored, err := i.ReplaceResponder(r)
	if errors.Is(err, registry.ErrNotFound) {
		return i.AddResponder(r), nil
	}
	return stored, err
}

// AddPassthru allows unmatched requests whose URL starts with prefix to
// reach the real transport. The prefix is normalized the same way
// registered URLs are.
func (i *Interceptor) AddPassthru(prefix string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.passthru = append(i.passthru, prefixRule(prefix))
}

// AddPassthruRegexp allows unmatched requests whose URL matches pattern
// to reach the real transport.
func (i *Interceptor) AddPassthruRegexp(pattern *regexp.Regexp) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.passthru = append(i.passthru, regexpRule(pattern))
}

// AddPassthruGlob allows unmatched requests whose URL matches the glob
// pattern (doublestar syntax, so ** crosses path segments) to reach the
// real transport.
func (i *Interceptor) AddPassthruGlob(pattern string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.passthru = append(i.passthru, globRule(pattern))
}

// Registered returns the currently registered responders in order.
func (i *Interceptor) Registered() []*responder.Responder {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]*responder.Responder(nil), i.registry.Registered()...)
}

// Calls returns the call ledger.
func (i *Interceptor) Calls() *calllog.List {
	return i.calls
}

// Registry returns the active registry.
func (i *Interceptor) Registry() registry.Registry {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.registry
}

// SetRegistry installs a custom registry. It fails when responders are
// already registered; Reset first.
func (i *Interceptor) SetRegistry(reg registry.Registry) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.registry.Registered()) > 0 {
		return ErrRegistryNotEmpty
	}
	i.registry = reg
	return nil
}

// SetResponseCallback installs a hook applied to every stubbed response.
// Pass nil to remove it.
func (i *Interceptor) SetResponseCallback(fn func(*http.Response) *http.Response) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.responseCallback = fn
}

// AssertCallCount verifies that url was requested exactly expected times.
// The URL is compared after normalization, including the query string.
func (i *Interceptor) AssertCallCount(url string, expected int) error {
	target := urlutil.EnsureDefaultPath(url)
	got := i.calls.CountURL(target)
	if got != expected {
		return fmt.Errorf("expected URL '%s' to be called %d times, called %d times", target, expected, got)
	}
	return nil
}
