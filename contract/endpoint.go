package contract

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"
)

var endpointNamePattern = regexp.MustCompile(`^[\w-]+$`)

type definitionKey struct {
	messageType MessageType
	version     string
}

// Endpoint is a named route + HTTP method grouping of versioned definitions.
// It is immutable after construction and safe for concurrent use.
type Endpoint struct {
	name           string
	route          string
	method         string
	customMetadata map[string]any
	definitions    []*Definition
	index          map[definitionKey][]*Definition
	matcher        *routeMatcher
}

// NewEndpoint builds an endpoint from a raw map with the keys name, route,
// method and definitions (plus optional meta). Every version of every
// definition block becomes one Definition.
func NewEndpoint(raw map[string]any, opts Options) (*Endpoint, error) {
	name, err := fetchString(raw, "name")
	if err != nil {
		return nil, err
	}
	route, err := fetchString(raw, "route")
	if err != nil {
		return nil, err
	}
	method, err := fetchString(raw, "method")
	if err != nil {
		return nil, err
	}
	rawDefinitions, err := fetchList(raw, "definitions")
	if err != nil {
		return nil, err
	}
	if !endpointNamePattern.MatchString(name) {
		return nil, &InvalidEndpointError{
			Endpoint: name,
			Message:  "only letters, numbers, underscores and dashes are allowed in the name",
		}
	}
	meta, err := optionalMap(raw, "meta")
	if err != nil {
		return nil, &InvalidEndpointError{Endpoint: name, Message: err.Error()}
	}
	matcher, err := compileRoute(route)
	if err != nil {
		return nil, &InvalidEndpointError{Endpoint: name, Message: err.Error()}
	}

	e := &Endpoint{
		name:           name,
		route:          route,
		method:         strings.ToUpper(method),
		customMetadata: copyMap(meta),
		index:          make(map[definitionKey][]*Definition),
		matcher:        matcher,
	}
	if err := e.extractDefinitions(rawDefinitions, opts); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Endpoint) extractDefinitions(rawDefinitions []any, opts Options) error {
	for i, item := range rawDefinitions {
		block, ok := item.(map[string]any)
		if !ok {
			return &InvalidEndpointError{Endpoint: e.name, Message: fmt.Sprintf("definition %d must be a map, got %T", i, item)}
		}
		rawVersions, err := fetchList(block, "versions")
		if err != nil {
			return err
		}
		versions, err := stringList("versions", rawVersions)
		if err != nil {
			return &InvalidEndpointError{Endpoint: e.name, Message: err.Error()}
		}

		messageType := DefaultMessageType
		if mt, ok := block["message_type"]; ok && mt != nil {
			s, _ := mt.(string)
			messageType = MessageType(s)
			if messageType != MessageTypeRequest && messageType != MessageTypeResponse {
				return &InvalidEndpointError{Endpoint: e.name, Message: fmt.Sprintf("unknown message_type %v", mt)}
			}
		}

		for _, version := range versions {
			d, err := NewDefinition(e, version, messageType, block, opts)
			if err != nil {
				return fmt.Errorf("endpoint %s, version %s: %w", e.name, version, err)
			}
			key := definitionKey{messageType: messageType, version: version}
			e.index[key] = append(e.index[key], d)
			e.definitions = append(e.definitions, d)
		}
	}

	slices.SortStableFunc(e.definitions, compareDefinitions)
	return nil
}

// compareDefinitions puts requests before responses and newer versions first.
func compareDefinitions(a, b *Definition) int {
	if a.messageType != b.messageType {
		return strings.Compare(string(a.messageType), string(b.messageType))
	}
	return CompareVersions(b.version, a.version)
}

func (e *Endpoint) Name() string { return e.name }

func (e *Endpoint) Route() string { return e.route }

// Method returns the upper-cased HTTP method.
func (e *Endpoint) Method() string { return e.method }

func (e *Endpoint) CustomMetadata() map[string]any { return copyMap(e.customMetadata) }

func (e *Endpoint) String() string {
	return fmt.Sprintf("%s %s (%s)", e.method, e.route, e.name)
}

// Definitions returns all definitions, requests before responses, newest
// version first.
func (e *Endpoint) Definitions() []*Definition {
	return append([]*Definition(nil), e.definitions...)
}

// FindDefinitions returns every definition registered for version and
// message type; several may exist when they cover disjoint status codes.
func (e *Endpoint) FindDefinitions(version string, messageType MessageType) ([]*Definition, bool) {
	defs := e.index[definitionKey{messageType: messageType, version: version}]
	if len(defs) == 0 {
		return nil, false
	}
	return append([]*Definition(nil), defs...), true
}

// FindDefinition returns the single definition for version and message type.
func (e *Endpoint) FindDefinition(version string, messageType MessageType) (*Definition, error) {
	defs, ok := e.FindDefinitions(version, messageType)
	if !ok {
		return nil, &NoEndpointDefinitionFoundError{Endpoint: e.name, Version: version, MessageType: messageType}
	}
	if len(defs) > 1 {
		return nil, &MultipleEndpointDefinitionsFoundError{
			Endpoint: e.name, Version: version, MessageType: messageType, Count: len(defs),
		}
	}
	return defs[0], nil
}

// FindExampleFor returns the first example of the single definition for
// version and message type.
func (e *Endpoint) FindExampleFor(version string, messageType MessageType) (*Example, error) {
	d, err := e.FindDefinition(version, messageType)
	if err != nil {
		return nil, err
	}
	if len(d.examples) == 0 {
		return nil, fmt.Errorf("%s has no examples", d.Description())
	}
	return d.examples[0], nil
}

// FindExampleStatusCodeFor returns the example status code of the single
// response definition for version.
func (e *Endpoint) FindExampleStatusCodeFor(version string) (string, error) {
	d, err := e.FindDefinition(version, MessageTypeResponse)
	if err != nil {
		return "", err
	}
	return d.ExampleStatusCode(), nil
}

func (e *Endpoint) AvailableRequestVersions() []string {
	return e.availableVersions(MessageTypeRequest)
}

func (e *Endpoint) AvailableResponseVersions() []string {
	return e.availableVersions(MessageTypeResponse)
}

// AvailableVersions lists the distinct versions across all message types.
func (e *Endpoint) AvailableVersions() []string {
	return lo.Uniq(lo.Map(e.definitions, func(d *Definition, _ int) string { return d.version }))
}

func (e *Endpoint) availableVersions(messageType MessageType) []string {
	defs := lo.Filter(e.definitions, func(d *Definition, _ int) bool { return d.messageType == messageType })
	return lo.Uniq(lo.Map(defs, func(d *Definition, _ int) string { return d.version }))
}

// RouteMatches reports whether path matches the route template; a single
// trailing slash is ignored.
func (e *Endpoint) RouteMatches(path string) bool {
	return e.matcher.match(path) != nil
}

// RouteParams extracts the ":name" segment values of path.
func (e *Endpoint) RouteParams(path string) (map[string]string, bool) {
	return e.matcher.params(path)
}
