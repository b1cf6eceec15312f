// Package recorder captures live HTTP traffic as replayable stubs. A
// Recorder wraps a real transport, writes what it observes to a YAML
// stub file, and Load turns such a file back into responders.
package recorder

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/intercept/pkg/responder"
)

// Stub is one recorded exchange in the YAML format's wire shape.
type Stub struct {
	Method                     string            `yaml:"method"`
	URL                        string            `yaml:"url"`
	Body                       string            `yaml:"body"`
	Status                     int               `yaml:"status"`
	ContentType                string            `yaml:"content_type"`
	Headers                    map[string]string `yaml:"headers,omitempty"`
	AutoCalculateContentLength bool              `yaml:"auto_calculate_content_length"`
}

type stubEntry struct {
	Response Stub `yaml:"response"`
}

type stubFile struct {
	Responses []stubEntry `yaml:"responses"`
}

// skippedHeaders are per-exchange noise, not part of the stubbed
// behavior. Content-Type travels in its own field.
var skippedHeaders = map[string]struct{}{
	"Content-Type":   {},
	"Content-Length": {},
	"Date":           {},
	"Server":         {},
	"Connection":     {},
}

// Recorder is an http.RoundTripper that forwards requests to a real
// transport and keeps a stub of every successful exchange. Safe for
// concurrent use.
type Recorder struct {
	mu        sync.Mutex
	transport http.RoundTripper
	stubs     []Stub
}

// New returns a Recorder forwarding to transport, or to
// http.DefaultTransport when transport is nil.
func New(transport http.RoundTripper) *Recorder {
	return &Recorder{transport: transport}
}

// RoundTrip implements http.RoundTripper. The response body is drained to
// capture it and rearmed before returning, so callers see it intact.
func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	rt := r.transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	resp, err := rt.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body for recording: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	stub := Stub{
		Method:      req.Method,
		URL:         req.URL.String(),
		Body:        string(body),
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	for key := range resp.Header {
		if _, skip := skippedHeaders[http.CanonicalHeaderKey(key)]; skip {
			continue
		}
		if stub.Headers == nil {
			stub.Headers = map[string]string{}
		}
		stub.Headers[key] = resp.Header.Get(key)
	}

	r.mu.Lock()
	r.stubs = append(r.stubs, stub)
	r.mu.Unlock()
	return resp, nil
}

// Record runs fn with http.DefaultTransport replaced by a Recorder and
// writes everything captured to the stub file at path. The transport is
// restored before returning, even when fn fails.
func Record(path string, fn func() error) error {
	rec := New(http.DefaultTransport)
	saved := http.DefaultTransport
	http.DefaultTransport = rec
	err := fn()
	http.DefaultTransport = saved
	if err != nil {
		return err
	}
	return rec.DumpFile(path)
}

// Stubs returns a snapshot of the recorded exchanges in order.
func (r *Recorder) Stubs() []Stub {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Stub(nil), r.stubs...)
}

// Reset discards everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stubs = nil
}

// Dump writes the recorded stubs as YAML.
func (r *Recorder) Dump(w io.Writer) error {
	file := stubFile{}
	for _, s := range r.Stubs() {
		file.Responses = append(file.Responses, stubEntry{Response: s})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encoding stub file: %w", err)
	}
	return enc.Close()
}

// DumpFile writes the recorded stubs to path, replacing it.
func (r *Recorder) DumpFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating stub file: %w", err)
	}
	if err := r.Dump(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Parse decodes a stub file without building responders. The CLI uses
// this for linting and display.
func Parse(rd io.Reader) ([]Stub, error) {
	var file stubFile
	if err := yaml.NewDecoder(rd).Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding stub file: %w", err)
	}
	stubs := make([]Stub, len(file.Responses))
	for i, e := range file.Responses {
		stubs[i] = e.Response
	}
	return stubs, nil
}

// ParseFile decodes the stub file at path.
func ParseFile(path string) ([]Stub, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stub file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Responder converts a stub into a registrable responder.
func (s Stub) Responder() (*responder.Responder, error) {
	opts := []responder.Option{
		responder.WithBodyString(s.Body),
		responder.WithStatus(s.Status),
	}
	if s.ContentType != "" {
		opts = append(opts, responder.WithContentType(s.ContentType))
	}
	if len(s.Headers) > 0 {
		h := http.Header{}
		for k, v := range s.Headers {
			h.Set(k, v)
		}
		opts = append(opts, responder.WithHeader(h))
	}
	if s.AutoCalculateContentLength {
		opts = append(opts, responder.WithAutoContentLength())
	}
	return responder.New(s.Method, s.URL, opts...)
}

// Load reads a stub file and returns its responders in recorded order.
func Load(rd io.Reader) ([]*responder.Responder, error) {
	stubs, err := Parse(rd)
	if err != nil {
		return nil, err
	}
	rs := make([]*responder.Responder, len(stubs))
	for i, s := range stubs {
		r, err := s.Responder()
		if err != nil {
			return nil, fmt.Errorf("stub %d (%s %s): %w", i, s.Method, s.URL, err)
		}
		rs[i] = r
	}
	return rs, nil
}

// LoadFile reads the stub file at path and returns its responders.
func LoadFile(path string) ([]*responder.Responder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stub file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
