package intercept

import (
	"bytes"
	"io"
	"net/http"

	"github.com/getmockd/intercept/pkg/responder"
	"github.com/getmockd/intercept/pkg/retry"
)

// RoundTrip implements http.RoundTripper. Each request is matched against
// the registry; matched requests are answered from the winning responder,
// unmatched ones are forwarded when a passthrough rule allows it and
// refused with a NoMatchError otherwise. Every outcome, including the
// refusal, lands in the call ledger.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := bufferRequestBody(req)
	if err != nil {
		return nil, err
	}

	attempt := 0
	for {
		match, reasons := i.findMatch(req, body)

		if match == nil {
			if rule, ok := i.passthruFor(req.URL.String()); ok {
				i.logger.Info("request allowed to pass through",
					"method", req.Method, "url", req.URL.String(), "rule", rule.String())
				resp, err := i.realTransport().RoundTrip(withBody(req, body))
				i.calls.Append(req, body, resp, err)
				return resp, err
			}
			noMatch := i.noMatchError(req, reasons)
			i.logger.Info("request refused, no responder matched",
				"method", req.Method, "url", req.URL.String())
			i.calls.Append(req, body, nil, noMatch)
			return nil, noMatch
		}

		var resp *http.Response
		if match.Passthrough {
			i.logger.Info("passthrough responder forwarding request",
				"method", req.Method, "url", req.URL.String())
			resp, err = i.realTransport().RoundTrip(withBody(req, body))
		} else {
			resp, err = match.Reply(withBody(req, body))
		}
		if err != nil {
			match.RecordCall()
			i.calls.Append(req, body, nil, err)
			return nil, err
		}

		if cb := i.callback(); cb != nil {
			resp = cb(resp)
		}
		match.RecordCall()
		i.calls.Append(req, body, resp, nil)

		policy := i.policy()
		if policy.ShouldRetry(req.Method, resp.StatusCode) {
			if attempt < policy.MaxRetries {
				attempt++
				i.logger.Debug("retrying request",
					"method", req.Method, "url", req.URL.String(),
					"status", resp.StatusCode, "attempt", attempt)
				// The abandoned attempt's body would otherwise hold a real
				// connection open when the reply came from passthrough.
				drainBody(resp)
				continue
			}
			if policy.RaiseOnExhaust {
				return nil, &RetriesExhaustedError{
					Method:     req.Method,
					URL:        req.URL.String(),
					Attempts:   attempt + 1,
					LastStatus: resp.StatusCode,
				}
			}
		}
		return resp, nil
	}
}

// findMatch runs registry lookup under the interceptor lock. Registries
// themselves are not concurrency-safe and some mutate during lookup.
func (i *Interceptor) findMatch(req *http.Request, body []byte) (*responder.Responder, []string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.registry.Find(req, body)
}

func (i *Interceptor) passthruFor(url string) (passthruRule, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, rule := range i.passthru {
		if rule.matches(url) {
			return rule, true
		}
	}
	return passthruRule{}, false
}

func (i *Interceptor) noMatchError(req *http.Request, reasons []string) *NoMatchError {
	i.mu.Lock()
	defer i.mu.Unlock()
	registered := append([]*responder.Responder(nil), i.registry.Registered()...)
	rules := append([]passthruRule(nil), i.passthru...)
	return newNoMatchError(req, registered, reasons, rules)
}

// realTransport returns the transport used for passthrough traffic: the
// configured one, or whatever Start displaced.
func (i *Interceptor) realTransport() http.RoundTripper {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.transport != nil {
		return i.transport
	}
	if i.savedDefault != nil {
		return i.savedDefault
	}
	return http.DefaultTransport
}

func (i *Interceptor) callback() func(*http.Response) *http.Response {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.responseCallback
}

func (i *Interceptor) policy() *retry.Policy {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.retryPolicy
}

// drainBody consumes and closes a response body that will never reach
// the caller.
func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// bufferRequestBody drains the request body once so it can be replayed
// for matching, passthrough and every retry attempt.
func bufferRequestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()
	return io.ReadAll(req.Body)
}

// withBody rearms the request body from the buffered bytes.
func withBody(req *http.Request, body []byte) *http.Request {
	if body != nil {
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	return req
}
