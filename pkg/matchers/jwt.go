package matchers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims matches when the request carries a bearer token in the
// Authorization header whose claims include every expected claim with an
// equal value. The token signature is not verified; this matcher asserts
// what the client sent, not whether a server would accept it.
func JWTClaims(expected map[string]any) Matcher {
	parser := jwt.NewParser()
	return func(req *http.Request, _ []byte) (bool, string) {
		auth := req.Header.Get("Authorization")
		if auth == "" {
			return false, "Authorization header is missing"
		}
		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			return false, "Authorization header is not a bearer token"
		}

		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
			return false, fmt.Sprintf("bearer token doesn't parse as JWT: %v", err)
		}

		for name, want := range expected {
			got, present := claims[name]
			if !present {
				return false, fmt.Sprintf("token claim %s is missing", name)
			}
			if !jsonValueEqual(got, want) {
				return false, fmt.Sprintf("token claim %s value %v doesn't match %v", name, got, want)
			}
		}
		return true, ""
	}
}
