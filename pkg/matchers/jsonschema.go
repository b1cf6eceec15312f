package matchers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSONSchema matches when the JSON request body validates against the
// given JSON Schema document. The schema is compiled once at registration;
// a schema that does not compile is a registration error.
func JSONSchema(schema string) (Matcher, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("loading json schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling json schema: %w", err)
	}

	return func(_ *http.Request, body []byte) (bool, string) {
		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			return false, fmt.Sprintf("request body is not valid json: %v", err)
		}
		if err := compiled.Validate(data); err != nil {
			if ve, ok := err.(*jsonschema.ValidationError); ok {
				return false, fmt.Sprintf("request body fails schema: %s", ve.Error())
			}
			return false, fmt.Sprintf("request body fails schema: %v", err)
		}
		return true, ""
	}, nil
}
