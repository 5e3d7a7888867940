package contract

import (
	"encoding/json"
	"fmt"
	"net/http"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/mohae/deepcopy"
)

// Example is a canned payload of a definition. Data is shared between
// concurrent readers and must not be modified; use ApplyFilters to obtain a
// modified copy.
type Example struct {
	Data       any
	definition *Definition
}

func (x *Example) Definition() *Definition { return x.definition }

// Validate validates the example data against its definition.
func (x *Example) Validate() error {
	return x.definition.ValidateData(x.Data)
}

// ExampleFilter modifies a copied example before it is served, e.g. to fill
// in values taken from the request.
type ExampleFilter func(example *Example, r *http.Request) error

// ApplyFilters runs filters in order on a deep copy of the example. The first
// failing filter stops the chain.
func (x *Example) ApplyFilters(filters []ExampleFilter, r *http.Request) (*Example, error) {
	filtered := &Example{Data: deepcopy.Copy(x.Data), definition: x.definition}
	for _, filter := range filters {
		if err := filter(filtered, r); err != nil {
			return nil, fmt.Errorf("filtering example: %w", err)
		}
	}
	return filtered, nil
}

// MergePatchFilter returns a filter applying an RFC 7386 JSON merge patch to
// the example data. The patch must be a JSON object; example data that is
// not an object is replaced by the patch.
func MergePatchFilter(patch []byte) (ExampleFilter, error) {
	var fields map[string]any
	if err := json.Unmarshal(patch, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("merge patch must be a JSON object")
	}
	return func(example *Example, _ *http.Request) error {
		doc := []byte("{}")
		if _, ok := example.Data.(map[string]any); ok {
			var err error
			if doc, err = json.Marshal(example.Data); err != nil {
				return fmt.Errorf("encoding example: %w", err)
			}
		}
		merged, err := jsonpatch.MergePatch(doc, patch)
		if err != nil {
			return fmt.Errorf("applying merge patch: %w", err)
		}
		var data any
		if err := json.Unmarshal(merged, &data); err != nil {
			return fmt.Errorf("decoding patched example: %w", err)
		}
		example.Data = data
		return nil
	}, nil
}

// EndpointFilter restricts filter to the examples of the named endpoint.
func EndpointFilter(name string, filter ExampleFilter) ExampleFilter {
	return func(example *Example, r *http.Request) error {
		if example.definition != nil && example.definition.EndpointName() == name {
			return filter(example, r)
		}
		return nil
	}
}
