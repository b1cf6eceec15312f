package matchers

import (
	"fmt"
	"net/http"

	"github.com/beevik/etree"
)

// XMLPath matches when the XML request body satisfies every path
// condition. A condition maps an element path to the expected text of the
// first element found at that path. Supported path syntax follows etree:
// absolute paths (/a/b), descendant search (//b) and attribute selection
// (/a/b/@attr is not supported; match attributes via element text).
// A body that does not parse as XML never matches.
func XMLPath(conditions map[string]string) Matcher {
	return func(_ *http.Request, body []byte) (bool, string) {
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(body); err != nil {
			return false, fmt.Sprintf("request body is not valid xml: %v", err)
		}

		for path, expected := range conditions {
			elem := doc.FindElement(path)
			if elem == nil {
				return false, fmt.Sprintf("xml path %s not found", path)
			}
			if actual := elem.Text(); actual != expected {
				return false, fmt.Sprintf("xml path %s value %q doesn't match %q", path, actual, expected)
			}
		}
		return true, ""
	}
}
