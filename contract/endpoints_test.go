package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fixedVersion(v string) VersionSelector {
	return func(*Endpoint) string { return v }
}

func itemsEndpoints(t *testing.T) Endpoints {
	t.Helper()
	endpoints, err := Build([]map[string]any{
		{
			"name": "item-show", "route": "/items/:id", "method": "GET",
			"definitions": []any{
				map[string]any{
					"versions":     []any{"1.0"},
					"status_codes": []any{"2xx"},
					"schema": map[string]any{
						"type":       "object",
						"properties": map[string]any{"name": map[string]any{"type": "string"}},
					},
					"examples": []any{map[string]any{"name": "x"}},
				},
				map[string]any{
					"versions":     []any{"1.0"},
					"status_codes": []any{"4xx"},
					"schema": map[string]any{
						"type":       "object",
						"properties": map[string]any{"error": map[string]any{"type": "string"}},
					},
					"examples": []any{map[string]any{"error": "not found"}},
				},
			},
		},
		{
			"name": "item-list", "route": "/items", "method": "get",
			"definitions": []any{
				map[string]any{"versions": []any{"1.0"}, "status_codes": []any{"2xx"}, "schema": map[string]any{"type": "array"}, "examples": []any{}},
				map[string]any{"versions": []any{"1.0"}, "schema": map[string]any{"type": "object"}, "examples": []any{}},
			},
		},
	}, Options{})
	require.NoError(t, err)
	return endpoints
}

func TestBuildFailsOnMalformedEndpoint(t *testing.T) {
	_, err := Build([]map[string]any{
		{"name": "broken", "route": "/x", "method": "get"},
	}, Options{})
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.Contains(t, err.Error(), `building endpoint "broken"`)
}

func TestEndpointsFindDefinition(t *testing.T) {
	endpoints := itemsEndpoints(t)

	t.Run("resolves and validates", func(t *testing.T) {
		d, ok := endpoints.FindDefinition("GET", "/items/42", MessageTypeResponse, "200", fixedVersion("1.0"))
		require.True(t, ok)
		require.Equal(t, "item-show", d.EndpointName())
		require.NoError(t, d.ValidateData(map[string]any{"name": "x"}))
		require.ErrorIs(t, d.ValidateData(map[string]any{}), ErrValidation)
	})

	t.Run("status code picks the definition", func(t *testing.T) {
		d, ok := endpoints.FindDefinition("get", "/items/42", MessageTypeResponse, "201", fixedVersion("1.0"))
		require.True(t, ok)
		require.Equal(t, []string{"2xx"}, d.StatusCodes())

		d, ok = endpoints.FindDefinition("get", "/items/42", MessageTypeResponse, "404", fixedVersion("1.0"))
		require.True(t, ok)
		require.Equal(t, []string{"4xx"}, d.StatusCodes())

		_, ok = endpoints.FindDefinition("get", "/items/42", MessageTypeResponse, "500", fixedVersion("1.0"))
		require.False(t, ok)
	})

	t.Run("catch-all after specific codes", func(t *testing.T) {
		d, ok := endpoints.FindDefinition("GET", "/items", MessageTypeResponse, "200", fixedVersion("1.0"))
		require.True(t, ok)
		require.Equal(t, []string{"2xx"}, d.StatusCodes())

		d, ok = endpoints.FindDefinition("GET", "/items", MessageTypeResponse, "403", fixedVersion("1.0"))
		require.True(t, ok)
		require.Equal(t, []string{"xxx"}, d.StatusCodes())
	})

	t.Run("unknown route", func(t *testing.T) {
		d, ok := endpoints.FindDefinition("GET", "/nope", MessageTypeResponse, "200", fixedVersion("1.0"))
		require.False(t, ok)
		require.Nil(t, d)
	})

	t.Run("wrong method", func(t *testing.T) {
		_, ok := endpoints.FindDefinition("POST", "/items", MessageTypeResponse, "200", fixedVersion("1.0"))
		require.False(t, ok)
	})

	t.Run("unknown version", func(t *testing.T) {
		_, ok := endpoints.FindDefinition("GET", "/items/42", MessageTypeResponse, "200", fixedVersion("9.9"))
		require.False(t, ok)
	})

	t.Run("selector receives the matched endpoint", func(t *testing.T) {
		var seen string
		_, ok := endpoints.FindDefinition("GET", "/items/1", MessageTypeResponse, "200", func(e *Endpoint) string {
			seen = e.Name()
			return "1.0"
		})
		require.True(t, ok)
		require.Equal(t, "item-show", seen)
	})
}

func TestEndpointsLookup(t *testing.T) {
	endpoints := itemsEndpoints(t)

	e, ok := endpoints.Lookup("item-list")
	require.True(t, ok)
	require.Equal(t, "/items", e.Route())

	_, ok = endpoints.Lookup("missing")
	require.False(t, ok)
}

func TestEndpointsExamples(t *testing.T) {
	endpoints := itemsEndpoints(t)

	var got []string
	endpoints.Examples(func(e *Endpoint, d *Definition, x *Example, index int) {
		got = append(got, d.Description())
		require.Same(t, d, x.Definition())
		require.NoError(t, x.Validate())
	})
	require.Equal(t, []string{
		"item-show (response v. 1.0 for status: 2xx)",
		"item-show (response v. 1.0 for status: 4xx)",
	}, got)
}
