package matchers

import (
	"fmt"
	"net/http"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Expr compiles a request predicate from an expr-lang expression and
// matches when it evaluates to true. The expression environment exposes:
//
//	method  string              request method
//	url     string              full request URL
//	host    string              request host
//	path    string              URL path
//	query   map[string][]string parsed query parameters
//	headers map[string][]string request headers
//	body    string              request body
//
// Example: Expr(`method == "POST" && "1" in query["page"]`).
func Expr(code string) (Matcher, error) {
	program, err := expr.Compile(code, expr.Env(exprEnv(nil, nil)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling expression %q: %w", code, err)
	}
	return exprMatcher(code, program), nil
}

func exprMatcher(code string, program *vm.Program) Matcher {
	return func(req *http.Request, body []byte) (bool, string) {
		result, err := expr.Run(program, exprEnv(req, body))
		if err != nil {
			return false, fmt.Sprintf("expression %q failed: %v", code, err)
		}
		if ok, _ := result.(bool); ok {
			return true, ""
		}
		return false, fmt.Sprintf("expression %q is false", code)
	}
}

func exprEnv(req *http.Request, body []byte) map[string]any {
	env := map[string]any{
		"method":  "",
		"url":     "",
		"host":    "",
		"path":    "",
		"query":   map[string][]string{},
		"headers": map[string][]string{},
		"body":    "",
	}
	if req == nil {
		return env
	}
	env["method"] = req.Method
	env["url"] = req.URL.String()
	env["host"] = req.URL.Host
	env["path"] = req.URL.Path
	env["query"] = map[string][]string(req.URL.Query())
	env["headers"] = map[string][]string(req.Header)
	env["body"] = string(body)
	return env
}
