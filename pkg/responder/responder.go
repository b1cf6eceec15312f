// Package responder defines the registered rules that answer intercepted
// requests: a method plus URL pattern, optional matcher predicates, and a
// reply strategy (static body, request-computed callback, or passthrough
// to the real transport).
package responder

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/getmockd/intercept/internal/urlutil"
	"github.com/getmockd/intercept/pkg/matchers"
)

// CallbackFunc computes a reply from the concrete request at dispatch
// time. Returning an error simulates a transport-level failure; the error
// is raised to the caller after being recorded.
type CallbackFunc func(req *http.Request) (*Reply, error)

// Reply is the result of a callback: status, extra headers and body.
// A Content-Type in Header supersedes the responder's configured default.
type Reply struct {
	Status int
	Header http.Header
	Body   Body
}

// Responder pairs a method and URL pattern with a reply strategy. A
// responder lives inside exactly one registry; its call count is bumped on
// every dispatch that selects it, including passthrough and simulated
// failures.
type Responder struct {
	// Method is the uppercase HTTP verb this responder answers.
	Method string

	// URL is the normalized literal URL. Empty when Pattern is set.
	URL string

	// Pattern matches the full request URL when the responder was
	// registered with a regular expression instead of a literal URL.
	Pattern *regexp.Regexp

	// Matchers are additional predicates; all must pass.
	Matchers []matchers.Matcher

	// Static reply configuration.
	Status            int
	Header            http.Header
	ContentType       string
	Body              Body
	AutoContentLength bool

	// Callback computes the reply per request when set.
	Callback CallbackFunc

	// Passthrough defers this responder to the real transport.
	Passthrough bool

	contentTypeSet bool
	usedJSON       bool
	queryToggle    *bool
	callCount      atomic.Int64
}

// Option configures a responder at construction.
type Option func(*Responder) error

// WithBody sets the reply body.
func WithBody(b Body) Option {
	return func(r *Responder) error {
		r.Body = b
		return nil
	}
}

// WithBodyString sets a text reply body.
func WithBodyString(s string) Option {
	return WithBody(String(s))
}

// WithJSON marshals v as the reply body and defaults the Content-Type to
// application/json. Mutually exclusive with WithBody.
func WithJSON(v any) Option {
	return func(r *Responder) error {
		if r.Body.Kind() != BodyNone {
			return fmt.Errorf("%w: json and body are mutually exclusive", ErrConfig)
		}
		body, err := JSON(v)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
		r.Body = body
		r.usedJSON = true
		return nil
	}
}

// WithStatus sets the reply status code. Defaults to 200.
func WithStatus(status int) Option {
	return func(r *Responder) error {
		r.Status = status
		return nil
	}
}

// WithHeader adds reply headers.
func WithHeader(h http.Header) Option {
	return func(r *Responder) error {
		if r.Header == nil {
			r.Header = http.Header{}
		}
		for k, vs := range h {
			for _, v := range vs {
				r.Header.Add(k, v)
			}
		}
		return nil
	}
}

// WithContentType sets the reply Content-Type explicitly, overriding the
// defaulting rules. An empty value suppresses the header entirely.
func WithContentType(ct string) Option {
	return func(r *Responder) error {
		r.ContentType = ct
		r.contentTypeSet = true
		return nil
	}
}

// WithMatchers appends matcher predicates; all must pass for the
// responder to answer a request.
func WithMatchers(ms ...matchers.Matcher) Option {
	return func(r *Responder) error {
		r.Matchers = append(r.Matchers, ms...)
		return nil
	}
}

// WithAutoContentLength computes a Content-Length header from the
// materialized body when not already set.
func WithAutoContentLength() Option {
	return func(r *Responder) error {
		r.AutoContentLength = true
		return nil
	}
}

// WithQueryStringMatch forces query-string matching on or off for a
// literal URL.
//
// Deprecated: register a matchers.QueryString or matchers.QueryParams
// matcher instead. By default a literal URL that carries a query string
// already matches on it.
func WithQueryStringMatch(match bool) Option {
	return func(r *Responder) error {
		r.queryToggle = &match
		return nil
	}
}

// New creates a static responder for a literal URL. The URL is normalized:
// an empty path becomes "/", and Unicode URLs compare equal to their
// punycode and percent-encoded wire form. If the URL carries a query
// string, a query-string matcher is attached automatically.
func New(method, url string, opts ...Option) (*Responder, error) {
	r := &Responder{
		Method: strings.ToUpper(method),
		URL:    urlutil.EnsureDefaultPath(url),
		Status: http.StatusOK,
	}
	if err := r.apply(opts); err != nil {
		return nil, err
	}
	r.finishStatic()
	r.attachQueryMatcher()
	return r, nil
}

// NewRegexp creates a static responder whose URL is matched by a regular
// expression against the full request URL.
func NewRegexp(method string, pattern *regexp.Regexp, opts ...Option) (*Responder, error) {
	r := &Responder{
		Method:  strings.ToUpper(method),
		Pattern: pattern,
		Status:  http.StatusOK,
	}
	if err := r.apply(opts); err != nil {
		return nil, err
	}
	r.finishStatic()
	return r, nil
}

// NewCallback creates a responder whose reply is computed from the request
// at dispatch time. The configured Content-Type (default text/plain) is
// superseded by any Content-Type the callback's own headers set.
func NewCallback(method, url string, cb CallbackFunc, opts ...Option) (*Responder, error) {
	r := &Responder{
		Method:   strings.ToUpper(method),
		URL:      urlutil.EnsureDefaultPath(url),
		Callback: cb,
	}
	if err := r.apply(opts); err != nil {
		return nil, err
	}
	if !r.contentTypeSet {
		r.ContentType = "text/plain"
	}
	r.attachQueryMatcher()
	return r, nil
}

// NewPassthrough creates a responder that forwards matching requests to
// the real transport while still being counted and recorded.
func NewPassthrough(method, url string, opts ...Option) (*Responder, error) {
	r := &Responder{
		Method:      strings.ToUpper(method),
		URL:         urlutil.EnsureDefaultPath(url),
		Passthrough: true,
	}
	if err := r.apply(opts); err != nil {
		return nil, err
	}
	r.attachQueryMatcher()
	return r, nil
}

func (r *Responder) apply(opts []Option) error {
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return err
		}
	}
	if r.contentTypeSet && headerHasContentType(r.Header) {
		return fmt.Errorf("%w: cannot set both content type and a Content-Type header", ErrConfig)
	}
	return nil
}

// finishStatic applies the Content-Type defaulting rules: explicit value
// wins; a JSON body defaults to application/json; non-ASCII text gets the
// UTF-8 text type; everything else is plain text.
func (r *Responder) finishStatic() {
	if r.contentTypeSet {
		return
	}
	switch {
	case r.usedJSON:
		r.ContentType = "application/json"
	case r.Body.IsUnicodeText():
		r.ContentType = "text/plain; charset=utf-8"
	default:
		r.ContentType = "text/plain"
	}
}

// attachQueryMatcher adds a query-string matcher for literal URLs that
// carry a query, unless the deprecated toggle disabled it.
func (r *Responder) attachQueryMatcher() {
	if r.Pattern != nil {
		return
	}
	rawQuery := rawQueryOf(r.URL)
	want := rawQuery != ""
	if r.queryToggle != nil {
		want = *r.queryToggle
	}
	if want {
		r.Matchers = append(r.Matchers, matchers.QueryString(rawQuery))
	}
}

// Matches reports whether the responder answers the request, and if not,
// why. The verdict is the logical AND of method, URL and all matchers; the
// first failing check's reason is returned.
func (r *Responder) Matches(req *http.Request, body []byte) (bool, string) {
	if req.Method != r.Method {
		return false, "method does not match"
	}
	if !r.urlMatches(req.URL.String()) {
		return false, "URL does not match"
	}
	for _, m := range r.Matchers {
		if ok, reason := m(req, body); !ok {
			return false, reason
		}
	}
	return true, ""
}

func (r *Responder) urlMatches(requestURL string) bool {
	if r.Pattern != nil {
		return r.Pattern.MatchString(requestURL)
	}
	return urlutil.LiteralEqual(r.URL, requestURL)
}

// Is reports identity for removal and replacement purposes: same method
// and same literal URL or pattern source. Matchers and reply content are
// not part of identity.
func (r *Responder) Is(other *Responder) bool {
	if other == nil || r.Method != other.Method {
		return false
	}
	return r.urlKey() == other.urlKey()
}

func (r *Responder) urlKey() string {
	if r.Pattern != nil {
		return r.Pattern.String()
	}
	return r.URL
}

// URLString returns the literal URL or the pattern source, for display.
func (r *Responder) URLString() string { return r.urlKey() }

// CallCount returns how many dispatches this responder has answered.
func (r *Responder) CallCount() int64 { return r.callCount.Load() }

// RecordCall increments the call count. Called by the dispatcher exactly
// once per dispatch that selects this responder.
func (r *Responder) RecordCall() { r.callCount.Add(1) }

// Clone returns a copy with its own headers, matcher slice and call
// counter, used when the same responder instance is registered twice.
func (r *Responder) Clone() *Responder {
	clone := &Responder{
		Method:            r.Method,
		URL:               r.URL,
		Pattern:           r.Pattern,
		Matchers:          append([]matchers.Matcher(nil), r.Matchers...),
		Status:            r.Status,
		Header:            r.Header.Clone(),
		ContentType:       r.ContentType,
		Body:              r.Body,
		AutoContentLength: r.AutoContentLength,
		Callback:          r.Callback,
		Passthrough:       r.Passthrough,
		contentTypeSet:    r.contentTypeSet,
		usedJSON:          r.usedJSON,
		queryToggle:       r.queryToggle,
	}
	clone.callCount.Store(r.callCount.Load())
	return clone
}

// Reply materializes the response for a matched request. A simulated
// failure (error body, callback error) is returned as an error; the
// dispatcher records it and raises it to the caller.
func (r *Responder) Reply(req *http.Request) (*http.Response, error) {
	if r.Callback != nil {
		return r.callbackReply(req)
	}
	return r.staticReply(req)
}

func (r *Responder) staticReply(req *http.Request) (*http.Response, error) {
	if r.Body.Kind() == BodyError {
		return nil, r.Body.Err()
	}

	header := r.baseHeader()
	body, length, err := r.Body.materialize()
	if err != nil {
		return nil, err
	}

	if r.AutoContentLength && length >= 0 && header.Get("Content-Length") == "" {
		header.Set("Content-Length", fmt.Sprintf("%d", length))
	}

	return newResponse(req, r.Status, header, body, length), nil
}

func (r *Responder) callbackReply(req *http.Request) (*http.Response, error) {
	reply, err := r.Callback(req)
	if err != nil {
		return nil, err
	}
	if reply.Body.Kind() == BodyError {
		return nil, reply.Body.Err()
	}

	header := r.baseHeader()
	// The callback's own content type wins; drop the configured default so
	// the reply doesn't carry two values.
	if headerHasContentType(reply.Header) {
		header.Del("Content-Type")
	}
	for k, vs := range reply.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}

	body, length, err := reply.Body.materialize()
	if err != nil {
		return nil, err
	}

	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	return newResponse(req, status, header, body, length), nil
}

func (r *Responder) baseHeader() http.Header {
	header := http.Header{}
	if r.ContentType != "" {
		header.Set("Content-Type", r.ContentType)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	return header
}

func headerHasContentType(h http.Header) bool {
	return h != nil && h.Get("Content-Type") != ""
}

func newResponse(req *http.Request, status int, header http.Header, body io.ReadCloser, length int64) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          body,
		ContentLength: length,
		Request:       req,
	}
}

func rawQueryOf(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		q := u[i+1:]
		if j := strings.IndexByte(q, '#'); j >= 0 {
			q = q[:j]
		}
		return q
	}
	return ""
}
