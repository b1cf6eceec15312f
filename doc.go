// Package intercept stubs HTTP traffic in tests. An active Interceptor
// replaces http.DefaultTransport, answers requests from registered
// responders and refuses anything unregistered, so tests never touch the
// network unless a passthrough rule says so.
//
// Typical use goes through the scoped form:
//
//	err := intercept.Run(func() error {
//		intercept.Get("http://api.example.com/users",
//			responder.WithJSON(map[string]any{"users": []string{"ann"}}))
//
//		resp, err := http.Get("http://api.example.com/users")
//		...
//		return nil
//	})
//
// For isolation between parallel tests, build dedicated instances with
// New and wire them into clients via WithClients, or use the
// intercepttest package which handles setup and teardown.
package intercept
