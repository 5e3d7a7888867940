package contract

import (
	"regexp"
	"strings"
)

const (
	anyStatusCode     = "xxx"
	exampleStatusBase = "200"
)

var statusCodePattern = regexp.MustCompile(`^[\dx]{3}$`)

// StatusCodeMatcher holds the status code patterns of a response definition.
// A pattern is three characters, each a digit or an "x" wildcard.
type StatusCodeMatcher struct {
	codes []string
}

// NewStatusCodeMatcher validates the given patterns. An empty list matches
// every status code.
func NewStatusCodeMatcher(codes []string) (*StatusCodeMatcher, error) {
	if len(codes) == 0 {
		codes = []string{anyStatusCode}
	}
	for _, code := range codes {
		if !statusCodePattern.MatchString(code) {
			return nil, &StatusCodeMatcherArgumentError{Code: code}
		}
	}
	return &StatusCodeMatcher{codes: append([]string(nil), codes...)}, nil
}

// Codes returns a copy of the patterns.
func (m *StatusCodeMatcher) Codes() []string {
	return append([]string(nil), m.codes...)
}

// Matches reports whether any pattern matches the concrete code.
func (m *StatusCodeMatcher) Matches(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, pattern := range m.codes {
		if matchesPattern(pattern, code) {
			return true
		}
	}
	return false
}

func matchesPattern(pattern, code string) bool {
	for i := 0; i < 3; i++ {
		c := code[i]
		if c < '0' || c > '9' {
			return false
		}
		if pattern[i] != 'x' && pattern[i] != c {
			return false
		}
	}
	return true
}

// ExampleStatusCode derives a concrete code from the first pattern, filling
// wildcards with the matching digit of "200".
func (m *StatusCodeMatcher) ExampleStatusCode() string {
	pattern := m.codes[0]
	out := []byte(exampleStatusBase)
	for i := 0; i < 3; i++ {
		if pattern[i] != 'x' {
			out[i] = pattern[i]
		}
	}
	return string(out)
}

func (m *StatusCodeMatcher) String() string {
	return strings.Join(m.codes, ",")
}
