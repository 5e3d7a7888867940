package openapi

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"

	"github.com/kolah/covenant/contract"
)

func testEndpoints(t *testing.T) contract.Endpoints {
	t.Helper()
	endpoints, err := contract.Build([]map[string]any{
		{
			"name": "user_create", "route": "/users", "method": "POST",
			"meta": map[string]any{"owner": "accounts"},
			"definitions": []any{
				map[string]any{
					"versions":     []any{"1.0"},
					"message_type": "request",
					"schema": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name": map[string]any{"type": "string", "nullable": true},
						},
					},
					"examples": []any{map[string]any{"name": "Jane"}},
				},
				map[string]any{
					"versions":     []any{"1.0"},
					"status_codes": []any{"201"},
					"schema": map[string]any{
						"type":       "object",
						"properties": map[string]any{"id": map[string]any{"type": "integer"}},
					},
					"examples": []any{map[string]any{"id": 1}},
				},
				map[string]any{
					"versions":     []any{"1.0"},
					"status_codes": []any{"4xx", "xxx"},
					"schema": map[string]any{
						"type":       "object",
						"properties": map[string]any{"error": map[string]any{"type": "string"}},
					},
					"examples": []any{},
				},
			},
		},
		{
			"name": "user_show", "route": "/users/:id", "method": "GET",
			"definitions": []any{
				map[string]any{
					"versions":     []any{"1.0"},
					"message_type": "request",
					"path_params": map[string]any{
						"type":       "object",
						"properties": map[string]any{"id": map[string]any{"type": "integer"}},
					},
					"query_params": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"verbose": map[string]any{"type": "boolean", "optional": true},
							"fields":  map[string]any{"type": "string"},
						},
					},
					"schema":   map[string]any{},
					"examples": []any{},
				},
				map[string]any{
					"versions": []any{"1.0", "2.0"},
					"schema": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"nullable": map[string]any{"type": "string"},
							"born":     map[string]any{"type": []any{map[string]any{"type": "string", "format": "date"}, "null"}},
						},
					},
					"examples": []any{map[string]any{"nullable": "x", "born": nil}},
				},
			},
		},
		{
			"name": "user_legacy", "route": "/legacy/:token", "method": "GET",
			"definitions": []any{
				map[string]any{
					"versions": []any{"0.9"},
					"schema":   map[string]any{},
					"examples": []any{},
				},
			},
		},
	}, contract.Options{})
	require.NoError(t, err)
	return endpoints
}

func TestDocument(t *testing.T) {
	doc, err := Document(testEndpoints(t), "1.0", Info{Title: "Users", Description: "User API"})
	require.NoError(t, err)

	require.Equal(t, "3.1.0", doc["openapi"])
	require.Equal(t, map[string]any{"title": "Users", "version": "1.0", "description": "User API"}, doc["info"])

	paths := doc["paths"].(map[string]any)
	require.Len(t, paths, 2)
	require.NotContains(t, paths, "/legacy/{token}")

	create := paths["/users"].(map[string]any)["post"].(map[string]any)
	require.Equal(t, "user_create", create["operationId"])
	require.Equal(t, map[string]any{"owner": "accounts"}, create["x-covenant-meta"])

	body := create["requestBody"].(map[string]any)["content"].(map[string]any)["application/json"].(map[string]any)
	require.Equal(t, map[string]any{"name": "Jane"}, body["example"])
	name := body["schema"].(map[string]any)["properties"].(map[string]any)["name"].(map[string]any)
	require.Equal(t, []any{"string", "null"}, name["type"])
	require.NotContains(t, name, "nullable")

	responses := create["responses"].(map[string]any)
	require.Len(t, responses, 3)
	require.Contains(t, responses, "201")
	require.Contains(t, responses, "4XX")
	require.Contains(t, responses, "default")
	require.NotContains(t, responses["4XX"].(map[string]any)["content"].(map[string]any)["application/json"], "example")

	show := paths["/users/{id}"].(map[string]any)["get"].(map[string]any)
	require.NotContains(t, show, "requestBody")
	require.Equal(t, []any{
		map[string]any{"name": "id", "in": "path", "required": true, "schema": map[string]any{"type": "integer"}},
		map[string]any{"name": "fields", "in": "query", "required": true, "schema": map[string]any{"type": "string"}},
		map[string]any{"name": "verbose", "in": "query", "required": false, "schema": map[string]any{"type": "boolean"}},
	}, show["parameters"])

	ok := show["responses"].(map[string]any)["default"].(map[string]any)
	schema := ok["content"].(map[string]any)["application/json"].(map[string]any)["schema"].(map[string]any)
	props := schema["properties"].(map[string]any)
	require.Contains(t, props, "nullable")
	require.Contains(t, props["born"], "anyOf")
}

func TestDocumentUndeclaredRouteParam(t *testing.T) {
	doc, err := Document(testEndpoints(t), "0.9", Info{Title: "Legacy"})
	require.NoError(t, err)

	paths := doc["paths"].(map[string]any)
	legacy := paths["/legacy/{token}"].(map[string]any)["get"].(map[string]any)
	require.Equal(t, []any{
		map[string]any{"name": "token", "in": "path", "required": true, "schema": map[string]any{"type": "string"}},
	}, legacy["parameters"])
}

func TestDocumentRequiresVersion(t *testing.T) {
	_, err := Document(testEndpoints(t), "", Info{Title: "Users"})
	require.ErrorContains(t, err, "an API version is required")
}

func TestResponseKey(t *testing.T) {
	cases := map[string]string{
		"200": "200",
		"404": "404",
		"2xx": "2XX",
		"5xx": "5XX",
		"xxx": "default",
		"20x": "default",
		"x04": "default",
		"9xx": "default",
	}
	for pattern, want := range cases {
		require.Equal(t, want, responseKey(pattern), pattern)
	}
}

func TestExportVerify(t *testing.T) {
	out, err := Export(testEndpoints(t), "1.0", Info{Title: "Users"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	require.Equal(t, "3.1.0", decoded["openapi"])

	result, err := Verify(out)
	require.NoError(t, err)
	require.Equal(t, "3.1.0", result.Version)
	require.NotNil(t, result.Document.Model.Paths)
	require.Equal(t, 2, result.Document.Model.Paths.PathItems.Len())
}

func TestVerifyRejects(t *testing.T) {
	_, err := Verify([]byte("swagger: \"2.0\"\ninfo: {title: x, version: \"1\"}\npaths: {}\n"))
	require.ErrorContains(t, err, "unsupported OpenAPI version: 2.0")

	_, err = Verify([]byte("openapi: 3.1.0\ninfo: {version: \"1\"}\npaths: {}\n"))
	var invalid *InvalidDocumentError
	require.ErrorAs(t, err, &invalid)
	require.NotEmpty(t, invalid.Errors)
}
