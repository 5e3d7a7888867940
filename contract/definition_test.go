package contract

import (
	"errors"
	"testing"

	"github.com/mohae/deepcopy"
	"github.com/stretchr/testify/require"
)

func newTestDefinition(t *testing.T, schema map[string]any, opts Options) *Definition {
	t.Helper()
	e, err := NewEndpoint(map[string]any{
		"name":   "my-endpoint",
		"route":  "/foo",
		"method": "get",
		"definitions": []any{
			map[string]any{"versions": []any{"1.0"}, "schema": schema, "examples": []any{}},
		},
	}, opts)
	require.NoError(t, err)
	return e.Definitions()[0]
}

func TestNewDefinitionMissingKeys(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		key  string
	}{
		{"missing schema", map[string]any{"examples": []any{}}, "schema"},
		{"missing examples", map[string]any{"schema": map[string]any{}}, "examples"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDefinition(nil, "1.0", MessageTypeResponse, tt.raw, Options{})
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrKeyNotFound))
			var keyErr *KeyNotFoundError
			require.ErrorAs(t, err, &keyErr)
			require.Equal(t, tt.key, keyErr.Key)
		})
	}
}

func TestNewDefinitionDefaults(t *testing.T) {
	d, err := NewDefinition(nil, "1.0", MessageTypeResponse, map[string]any{
		"schema":   map[string]any{},
		"examples": []any{map[string]any{"a": 1}},
	}, Options{})
	require.NoError(t, err)

	require.Equal(t, DefaultParamSchema(), d.PathParams())
	require.Equal(t, DefaultParamSchema(), d.QueryParams())
	require.Equal(t, []string{"xxx"}, d.StatusCodes())
	require.Equal(t, "200", d.ExampleStatusCode())
	require.Empty(t, d.CustomMetadata())
	require.Len(t, d.Examples(), 1)
	require.Same(t, d, d.Examples()[0].Definition())
}

func TestNewDefinitionInvalidStatusCodes(t *testing.T) {
	_, err := NewDefinition(nil, "1.0", MessageTypeResponse, map[string]any{
		"schema":       map[string]any{},
		"examples":     []any{},
		"status_codes": []any{"2000"},
	}, Options{})
	require.ErrorIs(t, err, ErrInvalidStatusCode)
}

func TestNewDefinitionDoesNotMutateInput(t *testing.T) {
	raw := map[string]any{
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string", "optional": true},
			},
		},
		"examples":     []any{map[string]any{"name": "x"}},
		"query_params": map[string]any{"type": "object", "properties": map[string]any{}},
	}
	original := deepcopy.Copy(raw)

	_, err := NewDefinition(nil, "1.0", MessageTypeResponse, raw, Options{ScalarsNullableByDefault: true})
	require.NoError(t, err)
	require.Equal(t, original, raw)
}

func TestDefinitionDescription(t *testing.T) {
	e, err := NewEndpoint(map[string]any{
		"name": "user-show", "route": "/users/:id", "method": "GET",
		"definitions": []any{
			map[string]any{"versions": []any{"1.0"}, "message_type": "request", "schema": map[string]any{}, "examples": []any{}},
			map[string]any{"versions": []any{"1.0"}, "status_codes": []any{"2xx", "304"}, "schema": map[string]any{}, "examples": []any{}},
		},
	}, Options{})
	require.NoError(t, err)

	defs := e.Definitions()
	require.Equal(t, "user-show (request v. 1.0)", defs[0].Description())
	require.Equal(t, "user-show (response v. 1.0 for status: 2xx,304)", defs[1].Description())
	require.True(t, defs[0].IsRequest())
	require.False(t, defs[1].IsRequest())
}

func TestDefinitionMatchesStatusCode(t *testing.T) {
	d, err := NewDefinition(nil, "1.0", MessageTypeResponse, map[string]any{
		"schema": map[string]any{}, "examples": []any{}, "status_codes": []any{"2xx"},
	}, Options{})
	require.NoError(t, err)

	require.True(t, d.MatchesStatusCode(""))
	require.True(t, d.MatchesStatusCode("204"))
	require.False(t, d.MatchesStatusCode("404"))
}

func TestDefinitionValidateData(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		schema  map[string]any
		data    any
		wantErr bool
	}{
		{
			name:   "valid data",
			schema: map[string]any{"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "integer"}}},
			data:   map[string]any{"foo": 17},
		},
		{
			name:    "wrong type",
			schema:  map[string]any{"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "integer"}}},
			data:    map[string]any{"foo": "bar"},
			wantErr: true,
		},
		{
			name:    "missing required property",
			schema:  map[string]any{"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "integer"}}},
			data:    map[string]any{},
			wantErr: true,
		},
		{
			name:   "missing optional property",
			schema: map[string]any{"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "integer", "optional": true}}},
			data:   map[string]any{},
		},
		{
			name:    "undeclared property",
			schema:  map[string]any{"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "integer"}}},
			data:    map[string]any{"foo": 1, "bar": 2},
			wantErr: true,
		},
		{
			name: "undeclared property allowed explicitly",
			schema: map[string]any{
				"type":                 "object",
				"properties":           map[string]any{"foo": map[string]any{"type": "integer"}},
				"additionalProperties": true,
			},
			data: map[string]any{"foo": 1, "bar": 2},
		},
		{
			name:    "null scalar without nullable default",
			schema:  map[string]any{"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "string"}}},
			data:    map[string]any{"foo": nil},
			wantErr: true,
		},
		{
			name:   "null scalar with nullable default",
			opts:   Options{ScalarsNullableByDefault: true},
			schema: map[string]any{"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "string"}}},
			data:   map[string]any{"foo": nil},
		},
		{
			name:    "null scalar marked not nullable",
			opts:    Options{ScalarsNullableByDefault: true},
			schema:  map[string]any{"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "string", "nullable": false}}},
			data:    map[string]any{"foo": nil},
			wantErr: true,
		},
		{
			name:   "null enum with nullable default",
			opts:   Options{ScalarsNullableByDefault: true},
			schema: map[string]any{"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "string", "enum": []any{"a"}}}},
			data:   map[string]any{"foo": nil},
		},
		{
			name:    "null array with nullable default",
			opts:    Options{ScalarsNullableByDefault: true},
			schema:  map[string]any{"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "array"}}},
			data:    map[string]any{"foo": nil},
			wantErr: true,
		},
		{
			name:    "null object with nullable default",
			opts:    Options{ScalarsNullableByDefault: true},
			schema:  map[string]any{"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "object"}}},
			data:    map[string]any{"foo": nil},
			wantErr: true,
		},
		{
			name: "nested arrays of objects",
			schema: map[string]any{"type": "object", "properties": map[string]any{
				"foo": map[string]any{"type": "array", "items": map[string]any{
					"type": "object", "properties": map[string]any{"id": map[string]any{"type": "integer"}},
				}},
			}},
			data:    map[string]any{"foo": []any{map[string]any{"id": 1}, map[string]any{"id": 2, "extra": true}}},
			wantErr: true,
		},
		{
			name: "union of objects matches one alternative",
			schema: map[string]any{"type": "object", "properties": map[string]any{
				"foo": map[string]any{"type": "array", "items": map[string]any{"type": []any{
					map[string]any{"type": "object", "properties": map[string]any{"num": map[string]any{"type": "integer"}}},
					map[string]any{"type": "object", "properties": map[string]any{"text": map[string]any{"type": "string"}}},
				}}},
			}},
			data: map[string]any{"foo": []any{map[string]any{"num": 1}, map[string]any{"text": "a"}}},
		},
		{
			name: "union of objects matches no alternative",
			schema: map[string]any{"type": "object", "properties": map[string]any{
				"foo": map[string]any{"type": "array", "items": map[string]any{"type": []any{
					map[string]any{"type": "object", "properties": map[string]any{"num": map[string]any{"type": "integer"}}},
					map[string]any{"type": "object", "properties": map[string]any{"text": map[string]any{"type": "string"}}},
				}}},
			}},
			data:    map[string]any{"foo": []any{map[string]any{"num": "one"}}},
			wantErr: true,
		},
		{
			name:    "unknown type in schema",
			schema:  map[string]any{"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "sting"}}},
			data:    map[string]any{"foo": "bar"},
			wantErr: true,
		},
		{
			name:    "unknown format in schema",
			schema:  map[string]any{"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "string", "format": "timestamp"}}},
			data:    map[string]any{"foo": "bar"},
			wantErr: true,
		},
		{
			name:    "malformed schema keyword",
			schema:  map[string]any{"type": "array", "minItems": "foo"},
			data:    []any{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDefinition(t, tt.schema, tt.opts)
			err := d.ValidateData(tt.data)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			require.NotEmpty(t, vErr.Errors)
			require.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	d := newTestDefinition(t, map[string]any{
		"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "integer"}},
	}, Options{})

	err := d.ValidateData(map[string]any{"foo": "bar"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Found 1 error(s) when validating against endpoint my-endpoint (response v. 1.0 for status: xxx)")
	require.Contains(t, err.Error(), "/foo")
	require.Contains(t, err.Error(), `Data:`+"\n"+`{"foo":"bar"}`)
}

func TestValidationErrorReportsSchemaErrors(t *testing.T) {
	d := newTestDefinition(t, map[string]any{
		"type": "object", "properties": map[string]any{"foo": map[string]any{"type": "string", "format": "timestamp"}},
	}, Options{})

	err := d.ValidateData(map[string]any{"foo": "bar"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, []string{`'#/properties/foo/format' value "timestamp" is not a supported format`}, vErr.Errors)
}

func TestDefinitionJSONSchema(t *testing.T) {
	d := newTestDefinition(t, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"born": map[string]any{"type": []any{map[string]any{"type": "string", "format": "date"}, "null"}},
		},
	}, Options{})

	schema := d.JSONSchema()
	born := schema["properties"].(map[string]any)["born"].(map[string]any)
	require.NotContains(t, born, "type")
	require.Equal(t, []any{
		map[string]any{"type": "string", "format": "date"},
		map[string]any{"type": "null"},
	}, born["anyOf"])

	// the stored schema keeps its union
	stored := d.Schema()["properties"].(map[string]any)["born"].(map[string]any)
	require.Contains(t, stored, "type")
}
