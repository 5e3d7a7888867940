// Package contracttest validates the examples of endpoint contracts from Go
// tests, one subtest per example:
//
//	func TestContracts(t *testing.T) {
//		endpoints := contracttest.LoadEndpoints(t, contract.Options{}, "definitions/**.yml")
//		contracttest.ValidateExamples(t, endpoints)
//	}
package contracttest

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/kolah/covenant/contract"
	"github.com/kolah/covenant/internal/loader"
)

// Result is the outcome of validating one example.
type Result struct {
	Name       string
	Endpoint   *contract.Endpoint
	Definition *contract.Definition
	Err        error
}

// LoadEndpoints loads and builds the definitions matched by patterns, failing
// the test on any error.
func LoadEndpoints(t testing.TB, opts contract.Options, patterns ...string) contract.Endpoints {
	t.Helper()
	result, err := loader.LoadFiles(patterns...)
	if err != nil {
		t.Fatalf("loading definitions: %v", err)
	}
	endpoints, err := contract.Build(result.Endpoints, opts)
	if err != nil {
		t.Fatalf("building endpoints: %v", err)
	}
	return endpoints
}

// ValidateExamples runs one subtest per example of every endpoint.
func ValidateExamples(t *testing.T, endpoints contract.Endpoints, filters ...contract.ExampleFilter) {
	t.Helper()
	for _, result := range Check(endpoints, filters...) {
		t.Run(result.Name, func(t *testing.T) {
			if result.Err != nil {
				t.Error(result.Err)
			}
		})
	}
}

// ValidateEndpoint runs ValidateExamples for the endpoint with the given name.
func ValidateEndpoint(t *testing.T, endpoints contract.Endpoints, name string, filters ...contract.ExampleFilter) {
	t.Helper()
	e, ok := endpoints.Lookup(name)
	if !ok {
		t.Fatalf("no endpoint named %q", name)
	}
	ValidateExamples(t, contract.Endpoints{e}, filters...)
}

// Check validates every example, in definition order. Filters see a GET
// request for the endpoint route with its params as static segments.
func Check(endpoints contract.Endpoints, filters ...contract.ExampleFilter) []Result {
	var results []Result
	endpoints.Examples(func(e *contract.Endpoint, d *contract.Definition, x *contract.Example, index int) {
		results = append(results, Result{
			Name:       ExampleTestName(e, d, index),
			Endpoint:   e,
			Definition: d,
			Err:        check(e, x, filters),
		})
	})
	return results
}

func check(e *contract.Endpoint, x *contract.Example, filters []contract.ExampleFilter) error {
	r, err := exampleRequest(e)
	if err != nil {
		return err
	}
	filtered, err := x.ApplyFilters(filters, r)
	if err != nil {
		return err
	}
	return filtered.Validate()
}

// ExampleTestName names the check of the index-th (zero based) example.
func ExampleTestName(e *contract.Endpoint, d *contract.Definition, index int) string {
	return fmt.Sprintf("%s (v %s) has valid data for example %d", e.Name(), d.Version(), index+1)
}

// exampleRequest builds a GET request for the route, each ":param" segment
// replaced by the param name.
func exampleRequest(e *contract.Endpoint) (*http.Request, error) {
	segments := strings.Split(strings.TrimPrefix(e.Route(), "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(strings.ReplaceAll(segment, ":", ""))
	}
	r, err := http.NewRequest(http.MethodGet, "/"+strings.Join(segments, "/"), nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", e, err)
	}
	return r, nil
}
