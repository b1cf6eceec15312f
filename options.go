package intercept

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/getmockd/intercept/pkg/registry"
	"github.com/getmockd/intercept/pkg/retry"
)

// Option configures an Interceptor at construction time.
type Option func(*Interceptor)

// WithRegistry installs a custom responder registry. The default is a
// first-match registry; pass registry.NewOrdered() for strict ordering.
func WithRegistry(reg registry.Registry) Option {
	return func(i *Interceptor) { i.registry = reg }
}

// WithAssertAllFired controls the coverage check run by Stop. Interceptors
// created with New assert by default; the package-level default instance
// does not.
func WithAssertAllFired(assert bool) Option {
	return func(i *Interceptor) { i.assertAllFired = assert }
}

// WithResponseCallback registers a hook applied to every stubbed response
// before it is recorded and returned.
func WithResponseCallback(fn func(*http.Response) *http.Response) Option {
	return func(i *Interceptor) { i.responseCallback = fn }
}

// WithRetryPolicy sets the retry policy evaluated after each stubbed
// response.
func WithRetryPolicy(p *retry.Policy) Option {
	return func(i *Interceptor) { i.retryPolicy = p }
}

// WithLogger sets the logger used for dispatch decisions. The default
// discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interceptor) { i.logger = l }
}

// WithTransport sets the real transport used for passthrough traffic.
// When unset, the transport that was active before Start is used.
func WithTransport(rt http.RoundTripper) Option {
	return func(i *Interceptor) { i.transport = rt }
}

// WithClients registers clients whose transports are swapped on Start and
// restored on Stop, in addition to http.DefaultTransport.
func WithClients(clients ...*http.Client) Option {
	return func(i *Interceptor) { i.clients = append(i.clients, clients...) }
}

// WithPassthruPrefixes seeds URL prefixes that bypass matching entirely.
func WithPassthruPrefixes(prefixes ...string) Option {
	return func(i *Interceptor) {
		for _, p := range prefixes {
			i.passthru = append(i.passthru, prefixRule(p))
		}
	}
}

// WithPassthruRegexps seeds patterns that bypass matching entirely.
func WithPassthruRegexps(res ...*regexp.Regexp) Option {
	return func(i *Interceptor) {
		for _, re := range res {
			i.passthru = append(i.passthru, regexpRule(re))
		}
	}
}
