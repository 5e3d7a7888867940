package contracttest

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kolah/covenant/contract"
)

const definitions = `
name: user_show
route: /users/:id
method: GET
definitions:
  - versions: ["1.0", "2.0"]
    schema:
      type: object
      properties:
        id: {type: integer}
    examples:
      - id: 1
      - id: "one"
---
name: user_list
route: /users
method: GET
definitions:
  - versions: ["1.0"]
    schema: {type: array, items: {type: string}}
    examples:
      - [Jane]
`

func loadFixture(t *testing.T) contract.Endpoints {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yml")
	require.NoError(t, os.WriteFile(path, []byte(definitions), 0o644))
	return LoadEndpoints(t, contract.Options{}, path)
}

func TestCheck(t *testing.T) {
	endpoints := loadFixture(t)

	results := Check(endpoints)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	require.Equal(t, []string{
		"user_show (v 2.0) has valid data for example 1",
		"user_show (v 2.0) has valid data for example 2",
		"user_show (v 1.0) has valid data for example 1",
		"user_show (v 1.0) has valid data for example 2",
		"user_list (v 1.0) has valid data for example 1",
	}, names)

	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, contract.ErrValidation)
	require.Equal(t, "user_show", results[1].Endpoint.Name())
	require.Equal(t, "2.0", results[1].Definition.Version())
	require.NoError(t, results[4].Err)
}

func TestCheckFilters(t *testing.T) {
	endpoints := loadFixture(t)

	var paths []string
	fixID := func(x *contract.Example, r *http.Request) error {
		paths = append(paths, r.URL.Path)
		if m, ok := x.Data.(map[string]any); ok {
			m["id"] = 2
		}
		return nil
	}
	for _, r := range Check(endpoints, fixID) {
		require.NoError(t, r.Err, r.Name)
	}
	require.Contains(t, paths, "/users/id")
	require.Contains(t, paths, "/users")

	// the loaded examples stay untouched
	require.ErrorIs(t, Check(endpoints)[1].Err, contract.ErrValidation)
}

func TestValidateEndpoint(t *testing.T) {
	endpoints := loadFixture(t)
	ValidateEndpoint(t, endpoints, "user_list")
}

func TestValidateExamples(t *testing.T) {
	endpoints := loadFixture(t)
	fixID := func(x *contract.Example, _ *http.Request) error {
		if m, ok := x.Data.(map[string]any); ok {
			m["id"] = 3
		}
		return nil
	}
	ValidateExamples(t, endpoints, fixID)
}

func TestCheckFilterError(t *testing.T) {
	endpoints := loadFixture(t)
	failing := func(*contract.Example, *http.Request) error { return errors.New("patch failed") }

	for _, r := range Check(endpoints, failing) {
		require.ErrorContains(t, r.Err, "patch failed", r.Name)
	}
}

func TestCheckUnusualRoutes(t *testing.T) {
	tests := []struct {
		route string
		path  string
	}{
		{"items/:id", "/items/id"},
		{"/a b/:id", "/a b/id"},
		{"/a%zz", "/a%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			endpoints, err := contract.Build([]map[string]any{{
				"name": "unusual", "route": tt.route, "method": "GET",
				"definitions": []any{map[string]any{
					"versions": []any{"1.0"},
					"schema":   map[string]any{"type": "object"},
					"examples": []any{map[string]any{}},
				}},
			}}, contract.Options{})
			require.NoError(t, err)

			var path string
			record := func(_ *contract.Example, r *http.Request) error {
				path = r.URL.Path
				return nil
			}
			results := Check(endpoints, record)
			require.Len(t, results, 1)
			require.NoError(t, results[0].Err)
			require.Equal(t, tt.path, path)
		})
	}
}
