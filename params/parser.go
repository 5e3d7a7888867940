package params

import (
	"net/url"

	"github.com/mohae/deepcopy"

	"github.com/kolah/covenant/contract"
)

// RequestParser validates and converts the path and query params of one
// definition. It is immutable and safe for concurrent use.
type RequestParser struct {
	definition *contract.Definition
	validator  *validator
	converter  *converter
}

// NewRequestParser builds the merged params schema of d. Malformed params
// declarations, path params missing from the route and types without a
// registered parser are reported here rather than per request.
func NewRequestParser(d *contract.Definition, registry *Registry) (*RequestParser, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}
	v, err := newValidator(d, registry)
	if err != nil {
		return nil, err
	}
	return &RequestParser{
		definition: d,
		validator:  v,
		converter:  &converter{definitions: v.definitions, registry: registry},
	}, nil
}

func (p *RequestParser) Definition() *contract.Definition { return p.definition }

// Schema returns a copy of the merged params schema.
func (p *RequestParser) Schema() map[string]any {
	out, _ := deepcopy.Copy(p.validator.schema).(map[string]any)
	return out
}

// Validate checks raw params against the merged schema.
func (p *RequestParser) Validate(params map[string]any) error {
	return p.validator.validate(params)
}

// Parse validates raw params and converts every declared param.
func (p *RequestParser) Parse(params map[string]any) (Values, error) {
	if err := p.Validate(params); err != nil {
		return Values{}, err
	}
	converted, err := p.converter.convert(params)
	if err != nil {
		return Values{}, err
	}
	return Values{values: converted}, nil
}

// FromRequest flattens query values and route params into a raw params map.
// Only the first value of a repeated query key is kept; route params win
// over query values of the same name.
func FromRequest(query url.Values, routeParams map[string]string) map[string]any {
	out := make(map[string]any, len(query)+len(routeParams))
	for name, values := range query {
		if len(values) > 0 {
			out[name] = values[0]
		}
	}
	for name, value := range routeParams {
		out[name] = value
	}
	return out
}
