package contract

import (
	"fmt"
	"strings"
)

// VersionSelector picks the version to resolve for a matched endpoint, e.g.
// from a request header.
type VersionSelector func(endpoint *Endpoint) string

// Endpoints is an ordered endpoint set with definition lookup. Order matters:
// the first endpoint whose method and route match wins.
type Endpoints []*Endpoint

// Source provides the current endpoint set. Consumers call Endpoints per
// request so a reloaded set is picked up without restarting.
type Source interface {
	Endpoints() Endpoints
}

// Endpoints returns es itself, so a fixed set is a Source.
func (es Endpoints) Endpoints() Endpoints { return es }

// Build constructs an endpoint set from raw endpoint maps. Any malformed
// endpoint fails the whole build.
func Build(raw []map[string]any, opts Options) (Endpoints, error) {
	endpoints := make(Endpoints, 0, len(raw))
	for i, item := range raw {
		e, err := NewEndpoint(item, opts)
		if err != nil {
			if name, ok := item["name"].(string); ok {
				return nil, fmt.Errorf("building endpoint %q: %w", name, err)
			}
			return nil, fmt.Errorf("building endpoint #%d: %w", i, err)
		}
		endpoints = append(endpoints, e)
	}
	return endpoints, nil
}

// FindEndpoint returns the first endpoint with the given method whose route
// matches path.
func (es Endpoints) FindEndpoint(method, path string) (*Endpoint, bool) {
	method = strings.ToUpper(method)
	for _, e := range es {
		if e.method == method && e.RouteMatches(path) {
			return e, true
		}
	}
	return nil, false
}

// Lookup returns the endpoint with the given name.
func (es Endpoints) Lookup(name string) (*Endpoint, bool) {
	for _, e := range es {
		if e.name == name {
			return e, true
		}
	}
	return nil, false
}

// FindDefinition resolves method + path + message type + status code to a
// single definition, asking selectVersion for the version once the endpoint
// is known. statusCode may be empty when it is not known yet (requests).
// The boolean is false when nothing matches; that is not an error.
func (es Endpoints) FindDefinition(method, path string, messageType MessageType, statusCode string, selectVersion VersionSelector) (*Definition, bool) {
	endpoint, ok := es.FindEndpoint(method, path)
	if !ok {
		return nil, false
	}
	version := selectVersion(endpoint)
	candidates, ok := endpoint.FindDefinitions(version, messageType)
	if !ok {
		return nil, false
	}
	for _, d := range candidates {
		if d.MatchesStatusCode(statusCode) {
			return d, true
		}
	}
	return nil, false
}

// Examples calls fn for every example of every definition, in definition order.
func (es Endpoints) Examples(fn func(e *Endpoint, d *Definition, x *Example, index int)) {
	for _, e := range es {
		for _, d := range e.definitions {
			for i, x := range d.examples {
				fn(e, d, x, i)
			}
		}
	}
}
