package intercept

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/intercept/internal/urlutil"
)

// passthruRule decides whether an unmatched request may reach the real
// transport. Exactly one of prefix, re or glob is set.
type passthruRule struct {
	prefix string
	re     *regexp.Regexp
	glob   string
}

func prefixRule(prefix string) passthruRule {
	return passthruRule{prefix: urlutil.CleanUnicode(prefix)}
}

func regexpRule(re *regexp.Regexp) passthruRule {
	return passthruRule{re: re}
}

func globRule(pattern string) passthruRule {
	return passthruRule{glob: pattern}
}

func (p passthruRule) matches(url string) bool {
	switch {
	case p.re != nil:
		return p.re.MatchString(url)
	case p.glob != "":
		ok, err := doublestar.Match(p.glob, url)
		return err == nil && ok
	default:
		return strings.HasPrefix(url, p.prefix)
	}
}

func (p passthruRule) String() string {
	switch {
	case p.re != nil:
		return p.re.String()
	case p.glob != "":
		return p.glob
	default:
		return p.prefix
	}
}
