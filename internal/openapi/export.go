package openapi

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.yaml.in/yaml/v4"

	"github.com/kolah/covenant/contract"
)

const (
	Version         = "3.1.0"
	jsonContentType = "application/json"
)

type Info struct {
	Title       string
	Description string
}

// Export renders the endpoints as an OpenAPI 3.1 YAML document describing
// one API version. Endpoints without a definition for version are left out.
func Export(endpoints contract.Endpoints, version string, info Info) ([]byte, error) {
	doc, err := Document(endpoints, version, info)
	if err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding OpenAPI document: %w", err)
	}
	return out, nil
}

// Document builds the OpenAPI document tree.
func Document(endpoints contract.Endpoints, version string, info Info) (map[string]any, error) {
	if version == "" {
		return nil, fmt.Errorf("an API version is required")
	}

	infoNode := map[string]any{"title": info.Title, "version": version}
	if info.Description != "" {
		infoNode["description"] = info.Description
	}

	paths := map[string]any{}
	for _, e := range endpoints {
		op, ok := operation(e, version)
		if !ok {
			continue
		}
		path := pathTemplate(e.Route())
		item, _ := paths[path].(map[string]any)
		if item == nil {
			item = map[string]any{}
			paths[path] = item
		}
		method := strings.ToLower(e.Method())
		if _, exists := item[method]; exists {
			continue
		}
		item[method] = op
	}

	return map[string]any{
		"openapi": Version,
		"info":    infoNode,
		"paths":   paths,
	}, nil
}

func operation(e *contract.Endpoint, version string) (map[string]any, bool) {
	requests, _ := e.FindDefinitions(version, contract.MessageTypeRequest)
	responses, _ := e.FindDefinitions(version, contract.MessageTypeResponse)
	if len(requests) == 0 && len(responses) == 0 {
		return nil, false
	}

	op := map[string]any{
		"operationId": e.Name(),
		"summary":     e.String(),
	}
	if meta := e.CustomMetadata(); len(meta) > 0 {
		op["x-covenant-meta"] = meta
	}

	var paramsFrom *contract.Definition
	if len(requests) > 0 {
		paramsFrom = requests[0]
	} else {
		paramsFrom = responses[0]
	}
	op["parameters"] = parameters(e.Route(), paramsFrom)

	if len(requests) > 0 && acceptsBody(e.Method()) {
		op["requestBody"] = map[string]any{
			"required": true,
			"content":  content(requests[0]),
		}
	}

	out := map[string]any{}
	for _, d := range responses {
		for _, code := range d.StatusCodes() {
			key := responseKey(code)
			if _, exists := out[key]; exists {
				continue
			}
			out[key] = map[string]any{
				"description": d.Description(),
				"content":     content(d),
			}
		}
	}
	if len(out) == 0 {
		out["default"] = map[string]any{"description": "No response contract"}
	}
	op["responses"] = out
	return op, true
}

func acceptsBody(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return false
	}
	return true
}

func content(d *contract.Definition) map[string]any {
	media := map[string]any{"schema": exportSchema(d.JSONSchema())}
	if examples := d.Examples(); len(examples) > 0 {
		media["example"] = examples[0].Data
	}
	return map[string]any{jsonContentType: media}
}

// parameters lists the route params first, then the declared query params.
// A route param without a declaration is described as a string.
func parameters(route string, d *contract.Definition) []any {
	pathProps := properties(d.PathParams())
	out := []any{}
	for _, name := range contract.RouteParamNames(route) {
		schema, ok := pathProps[name].(map[string]any)
		if !ok {
			schema = map[string]any{"type": "string"}
		}
		out = append(out, map[string]any{
			"name":     name,
			"in":       "path",
			"required": true,
			"schema":   paramSchema(schema),
		})
	}

	queryProps := properties(d.QueryParams())
	names := lo.Keys(queryProps)
	slices.Sort(names)
	for _, name := range names {
		schema, _ := queryProps[name].(map[string]any)
		out = append(out, map[string]any{
			"name":     name,
			"in":       "query",
			"required": !optionalParam(schema),
			"schema":   paramSchema(schema),
		})
	}
	return out
}

func properties(params map[string]any) map[string]any {
	props, _ := params["properties"].(map[string]any)
	if props == nil {
		return map[string]any{}
	}
	return props
}

func optionalParam(schema map[string]any) bool {
	if optional, ok := schema["optional"].(bool); ok && optional {
		return true
	}
	if required, ok := schema["required"].(bool); ok && !required {
		return true
	}
	return false
}

func paramSchema(schema map[string]any) map[string]any {
	out := contract.ToJSONSchema(schema)
	delete(out, "optional")
	if _, ok := out["required"].(bool); ok {
		delete(out, "required")
	}
	return exportSchema(out)
}

// exportSchema drops the keywords that only the contract validator knows.
func exportSchema(schema map[string]any) map[string]any {
	delete(schema, "nullable")
	for key, value := range schema {
		switch key {
		case "properties", "patternProperties", "definitions", "$defs":
			if children, ok := value.(map[string]any); ok {
				for _, child := range children {
					if m, ok := child.(map[string]any); ok {
						exportSchema(m)
					}
				}
			}
		case "items", "additionalProperties", "additionalItems", "not", "anyOf", "oneOf", "allOf":
			switch v := value.(type) {
			case map[string]any:
				exportSchema(v)
			case []any:
				for _, item := range v {
					if m, ok := item.(map[string]any); ok {
						exportSchema(m)
					}
				}
			}
		}
	}
	return schema
}

// responseKey maps a status pattern to an OpenAPI response key: exact codes
// stay, "dxx" becomes "dXX", anything else is the default response.
func responseKey(pattern string) string {
	if !strings.Contains(pattern, "x") {
		return pattern
	}
	if pattern[0] >= '1' && pattern[0] <= '5' && pattern[1:] == "xx" {
		return pattern[:1] + "XX"
	}
	return "default"
}

func pathTemplate(route string) string {
	segments := strings.Split(route, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") && len(segment) > 1 {
			segments[i] = "{" + segment[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}
