package contract

import (
	"slices"

	"github.com/mohae/deepcopy"
)

// Strictify returns a strict copy of a declared schema. The input is never
// modified.
//
// Every object schema that declares properties rejects undeclared keys
// (additionalProperties defaults to false) and lists all of its properties as
// required except those marked "optional: true". The "optional" marker never
// survives. With Options.ScalarsNullableByDefault, scalar-typed nodes also
// accept null unless they say "nullable: false"; "nullable: true" always
// does. Strictifying a strict schema returns an identical schema.
func Strictify(schema map[string]any, opts Options) map[string]any {
	out, _ := deepcopy.Copy(schema).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	strictifyNode(out, opts)
	return out
}

func strictifyNode(node map[string]any, opts Options) {
	if props, ok := node["properties"].(map[string]any); ok {
		// Read the optional markers before the children drop them.
		required := requiredProperties(props)
		for _, child := range props {
			if m, ok := child.(map[string]any); ok {
				strictifyNode(m, opts)
			}
		}
		if _, set := node["additionalProperties"]; !set {
			node["additionalProperties"] = false
		}
		if _, set := node["required"]; !set {
			node["required"] = required
		}
	}

	switch items := node["items"].(type) {
	case map[string]any:
		strictifyNode(items, opts)
	case []any:
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				strictifyNode(m, opts)
			}
		}
	}

	if types, ok := node["type"].([]any); ok {
		for _, alt := range types {
			if m, ok := alt.(map[string]any); ok {
				strictifyNode(m, opts)
			}
		}
	}

	delete(node, "optional")
	applyNullability(node, opts)
}

// requiredProperties lists the property names not marked optional, sorted.
// A draft-3 style boolean "required" on a property is honoured and removed.
func requiredProperties(props map[string]any) []any {
	names := make([]string, 0, len(props))
	for name, child := range props {
		m, ok := child.(map[string]any)
		if !ok {
			names = append(names, name)
			continue
		}
		optional := truthy(m["optional"])
		if req, ok := m["required"].(bool); ok {
			optional = optional || !req
			delete(m, "required")
		}
		if !optional {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	required := make([]any, len(names))
	for i, n := range names {
		required[i] = n
	}
	return required
}

func applyNullability(node map[string]any, opts Options) {
	typ, ok := node["type"]
	if !ok || !isScalarType(typ) {
		return
	}
	nullable := opts.ScalarsNullableByDefault
	if explicit, ok := node["nullable"].(bool); ok {
		nullable = explicit
	}
	if !nullable {
		return
	}

	switch t := typ.(type) {
	case string:
		if t == "null" {
			return
		}
		node["type"] = []any{t, "null"}
	case []any:
		if slices.Contains(t, any("null")) {
			return
		}
		node["type"] = append(slices.Clone(t), "null")
	default:
		return
	}

	if enum, ok := node["enum"].([]any); ok && !slices.Contains(enum, nil) {
		node["enum"] = append(slices.Clone(enum), nil)
	}
}

// isScalarType reports whether a type declaration admits neither objects nor
// arrays. Schema alternatives inside a union count by their own type.
func isScalarType(typ any) bool {
	switch t := typ.(type) {
	case string:
		return t != "object" && t != "array"
	case []any:
		if len(t) == 0 {
			return false
		}
		for _, alt := range t {
			if m, ok := alt.(map[string]any); ok {
				inner, ok := m["type"]
				if !ok || !isScalarType(inner) {
					return false
				}
				continue
			}
			if !isScalarType(alt) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
