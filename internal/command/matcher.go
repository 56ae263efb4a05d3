package command

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher decides whether text triggers a command and returns the argument tail.
type Matcher interface {
	Match(text string) (tail string, ok bool)
}

type regexpMatcher struct {
	re *regexp.Regexp
}

// Compile binds pattern, a regular expression fragment, to prefix. A match
// requires the prefix, optional whitespace, the pattern, then a word boundary,
// whitespace or end of input. Everything after that is the tail. Matching is
// case-insensitive.
func Compile(prefix, pattern string) (Matcher, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("empty command pattern")
	}
	expr := `(?is)^` + regexp.QuoteMeta(prefix) + `\s*(?:` + pattern + `)(?:\b|\s|$)(.*)$`
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}
	return &regexpMatcher{re: re}, nil
}

// Exact is Compile with keyword taken literally.
func Exact(prefix, keyword string) (Matcher, error) {
	return Compile(prefix, regexp.QuoteMeta(keyword))
}

func (m *regexpMatcher) Match(text string) (string, bool) {
	sub := m.re.FindStringSubmatch(text)
	if sub == nil {
		return "", false
	}
	return strings.TrimSpace(sub[len(sub)-1]), true
}

func (m *regexpMatcher) String() string { return m.re.String() }
