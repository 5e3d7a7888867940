package contract

import (
	"fmt"
	"regexp"
	"strings"
)

// routeMatcher matches request paths against a route template such as
// "/users/:user_id/projects". Every ":name" segment matches exactly one
// non-empty path segment; everything else is literal.
type routeMatcher struct {
	regex      *regexp.Regexp
	paramNames []string
}

func compileRoute(route string) (*routeMatcher, error) {
	var b strings.Builder
	b.WriteString("^")

	var names []string
	for i, segment := range strings.Split(route, "/") {
		if i > 0 {
			b.WriteString("/")
		}
		if strings.HasPrefix(segment, ":") && len(segment) > 1 {
			names = append(names, segment[1:])
			b.WriteString("([^/]+)")
			continue
		}
		b.WriteString(regexp.QuoteMeta(segment))
	}
	b.WriteString("$")

	regex, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compiling route %q: %w", route, err)
	}
	return &routeMatcher{regex: regex, paramNames: names}, nil
}

func (m *routeMatcher) match(path string) []string {
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return m.regex.FindStringSubmatch(path)
}

func (m *routeMatcher) params(path string) (map[string]string, bool) {
	matches := m.match(path)
	if matches == nil {
		return nil, false
	}
	params := make(map[string]string, len(m.paramNames))
	for i, name := range m.paramNames {
		params[name] = matches[i+1]
	}
	return params, true
}

// RouteParamNames returns the ":name" tokens of a route template in order.
func RouteParamNames(route string) []string {
	var names []string
	for _, segment := range strings.Split(route, "/") {
		if strings.HasPrefix(segment, ":") && len(segment) > 1 {
			names = append(names, segment[1:])
		}
	}
	return names
}
