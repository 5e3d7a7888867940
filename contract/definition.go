package contract

import (
	"fmt"
	"sync"

	"github.com/mohae/deepcopy"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MessageType tells whether a definition describes a request or a response body.
type MessageType string

const (
	MessageTypeRequest  MessageType = "request"
	MessageTypeResponse MessageType = "response"
)

// DefaultMessageType is used when a definition block omits message_type.
const DefaultMessageType = MessageTypeResponse

// Options configures how definitions are built.
type Options struct {
	// ScalarsNullableByDefault makes every scalar-typed schema node accept
	// null unless it declares "nullable: false".
	ScalarsNullableByDefault bool
}

// DefaultParamSchema returns the params description used when a definition
// declares no path_params or query_params.
func DefaultParamSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// Definition is one version + message type (+ status codes) variant of an
// endpoint contract. It is immutable after construction and safe for
// concurrent use.
type Definition struct {
	endpoint          *Endpoint
	version           string
	messageType       MessageType
	schema            map[string]any
	pathParams        map[string]any
	queryParams       map[string]any
	examples          []*Example
	statusCodes       *StatusCodeMatcher
	exampleStatusCode string
	customMetadata    map[string]any

	compileOnce sync.Once
	compiled    *jsonschema.Schema
	schemaErrs  []string
}

// NewDefinition builds a definition of endpoint from a raw definition block.
// The raw block is not modified.
func NewDefinition(endpoint *Endpoint, version string, messageType MessageType, raw map[string]any, opts Options) (*Definition, error) {
	rawSchema, err := fetch(raw, "schema")
	if err != nil {
		return nil, err
	}
	schema, ok := rawSchema.(map[string]any)
	if !ok {
		if rawSchema != nil {
			return nil, fmt.Errorf("%q must be a map, got %T", "schema", rawSchema)
		}
		schema = map[string]any{}
	}
	rawExamples, err := fetchList(raw, "examples")
	if err != nil {
		// An empty YAML mapping is a common way of writing "no examples".
		if m, ok := raw["examples"].(map[string]any); !ok || len(m) > 0 {
			return nil, err
		}
	}

	var codes []string
	if rawCodes, ok := raw["status_codes"]; ok && rawCodes != nil {
		list, ok := toList(rawCodes)
		if !ok {
			return nil, fmt.Errorf("%q must be a list, got %T", "status_codes", rawCodes)
		}
		if codes, err = stringList("status_codes", list); err != nil {
			return nil, err
		}
	}
	matcher, err := NewStatusCodeMatcher(codes)
	if err != nil {
		return nil, err
	}

	pathParams, err := paramSchema(raw, "path_params")
	if err != nil {
		return nil, err
	}
	queryParams, err := paramSchema(raw, "query_params")
	if err != nil {
		return nil, err
	}
	meta, err := optionalMap(raw, "meta")
	if err != nil {
		return nil, err
	}

	d := &Definition{
		endpoint:          endpoint,
		version:           version,
		messageType:       messageType,
		schema:            Strictify(schema, opts),
		pathParams:        pathParams,
		queryParams:       queryParams,
		statusCodes:       matcher,
		exampleStatusCode: matcher.ExampleStatusCode(),
		customMetadata:    copyMap(meta),
	}
	for _, data := range rawExamples {
		d.examples = append(d.examples, &Example{Data: deepcopy.Copy(data), definition: d})
	}
	return d, nil
}

func paramSchema(raw map[string]any, key string) (map[string]any, error) {
	m, err := optionalMap(raw, key)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return DefaultParamSchema(), nil
	}
	return copyMap(m), nil
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out, _ := deepcopy.Copy(m).(map[string]any)
	return out
}

func (d *Definition) Endpoint() *Endpoint { return d.endpoint }

func (d *Definition) EndpointName() string {
	if d.endpoint == nil {
		return ""
	}
	return d.endpoint.Name()
}

func (d *Definition) Version() string { return d.version }

func (d *Definition) MessageType() MessageType { return d.messageType }

func (d *Definition) IsRequest() bool { return d.messageType == MessageTypeRequest }

// Schema returns a copy of the strict schema.
func (d *Definition) Schema() map[string]any { return copyMap(d.schema) }

// JSONSchema returns the strict schema as plain JSON Schema, with unions
// that list schema objects under "type" rewritten to anyOf.
func (d *Definition) JSONSchema() map[string]any { return compilableSchema(d.schema) }

// PathParams returns a copy of the path_params description.
func (d *Definition) PathParams() map[string]any { return copyMap(d.pathParams) }

// QueryParams returns a copy of the query_params description.
func (d *Definition) QueryParams() map[string]any { return copyMap(d.queryParams) }

func (d *Definition) Examples() []*Example {
	return append([]*Example(nil), d.examples...)
}

func (d *Definition) CustomMetadata() map[string]any { return copyMap(d.customMetadata) }

// StatusCodes returns the status code patterns; only meaningful for responses.
func (d *Definition) StatusCodes() []string { return d.statusCodes.Codes() }

// MatchesStatusCode reports whether the definition applies to code. An empty
// code (status not known yet) always matches.
func (d *Definition) MatchesStatusCode(code string) bool {
	if code == "" {
		return true
	}
	return d.statusCodes.Matches(code)
}

func (d *Definition) ExampleStatusCode() string { return d.exampleStatusCode }

// Description renders e.g. "user-show (response v. 1.0 for status: 2xx)".
func (d *Definition) Description() string {
	suffix := ""
	if d.messageType == MessageTypeResponse {
		suffix = " for status: " + d.statusCodes.String()
	}
	return fmt.Sprintf("%s (%s v. %s%s)", d.EndpointName(), d.messageType, d.version, suffix)
}

func (d *Definition) String() string { return d.Description() }

// ValidateData validates data against the strict schema. A malformed schema
// and invalid data both produce a *ValidationError.
func (d *Definition) ValidateData(data any) error {
	compiled, schemaErrs := d.compiledSchema()
	if len(schemaErrs) > 0 {
		return NewValidationError(schemaErrs, data, d.Description())
	}
	if errs := ValidateAgainst(compiled, data); len(errs) > 0 {
		return NewValidationError(errs, data, d.Description())
	}
	return nil
}

func (d *Definition) compiledSchema() (*jsonschema.Schema, []string) {
	d.compileOnce.Do(func() {
		d.compiled, d.schemaErrs = CompileSchema(d.schema)
	})
	return d.compiled, d.schemaErrs
}
