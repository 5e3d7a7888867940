package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mohae/deepcopy"
	"github.com/samber/lo"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "schema.json"

var simpleTypes = map[string]bool{
	"string": true, "number": true, "integer": true, "boolean": true,
	"object": true, "array": true, "null": true,
}

// SupportedFormats lists the string formats a schema may declare. Anything
// else is reported as a schema error instead of being silently ignored.
var SupportedFormats = map[string]bool{
	"date-time": true, "date": true, "time": true,
	"uri": true, "uri-reference": true,
	"email": true, "hostname": true,
	"ipv4": true, "ipv6": true,
	"regex": true, "uuid": true,
}

// CompileSchema checks a schema against the type/format allow-list and
// compiles it with meta-validation. On failure it returns every schema error.
func CompileSchema(schema map[string]any) (*jsonschema.Schema, []string) {
	if errs := checkAllowList(schema, "#"); len(errs) > 0 {
		return nil, errs
	}

	raw, err := json.Marshal(compilableSchema(schema))
	if err != nil {
		return nil, []string{fmt.Sprintf("schema cannot be encoded: %v", err)}
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	compiler.LoadURL = func(u string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("%s: external schema references are forbidden", u)
	}
	if err := compiler.AddResource(schemaResource, bytes.NewReader(raw)); err != nil {
		return nil, errorMessages(err)
	}
	compiled, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, errorMessages(err)
	}
	return compiled, nil
}

// ValidateAgainst validates data with a compiled schema and returns every
// failure as "'#/pointer' message".
func ValidateAgainst(schema *jsonschema.Schema, data any) []string {
	doc, err := normalizeJSON(data)
	if err != nil {
		return []string{fmt.Sprintf("data cannot be encoded as JSON: %v", err)}
	}
	if err := schema.Validate(doc); err != nil {
		return errorMessages(err)
	}
	return nil
}

// normalizeJSON converts arbitrary Go values (ints, time.Time, typed maps)
// into the generic JSON form the validator expects.
func normalizeJSON(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func errorMessages(err error) []string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	var out []string
	collectLeaves(ve, &out)
	if len(out) == 0 {
		out = append(out, ve.Error())
	}
	return out
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		*out = append(*out, fmt.Sprintf("'#%s' %s", ve.InstanceLocation, ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

// ToJSONSchema returns a copy of schema with draft-3 style unions rewritten
// to anyOf, so that any JSON Schema consumer accepts it.
func ToJSONSchema(schema map[string]any) map[string]any {
	return compilableSchema(schema)
}

// compilableSchema rewrites draft-3 style unions whose "type" lists schema
// objects into an equivalent anyOf. The input is not modified.
func compilableSchema(schema map[string]any) map[string]any {
	out, _ := deepcopy.Copy(schema).(map[string]any)
	if out == nil {
		return map[string]any{}
	}
	rewriteUnions(out)
	return out
}

func rewriteUnions(node map[string]any) {
	eachSubschema(node, rewriteUnions)

	types, ok := node["type"].([]any)
	if !ok || !hasSchemaAlternative(types) {
		return
	}
	alternatives := make([]any, 0, len(types))
	for _, alt := range types {
		if m, ok := alt.(map[string]any); ok {
			alternatives = append(alternatives, m)
			continue
		}
		alternatives = append(alternatives, map[string]any{"type": alt})
	}
	delete(node, "type")
	if existing, ok := node["anyOf"]; ok {
		node["allOf"] = []any{map[string]any{"anyOf": existing}, map[string]any{"anyOf": alternatives}}
		delete(node, "anyOf")
		return
	}
	node["anyOf"] = alternatives
}

func hasSchemaAlternative(types []any) bool {
	for _, alt := range types {
		if _, ok := alt.(map[string]any); ok {
			return true
		}
	}
	return false
}

// eachSubschema calls fn for every direct subschema of node.
func eachSubschema(node map[string]any, fn func(map[string]any)) {
	for _, key := range []string{"properties", "patternProperties", "definitions"} {
		if m, ok := node[key].(map[string]any); ok {
			for _, name := range sortedKeys(m) {
				if child, ok := m[name].(map[string]any); ok {
					fn(child)
				}
			}
		}
	}
	for _, key := range []string{"items", "additionalProperties", "additionalItems", "not"} {
		switch v := node[key].(type) {
		case map[string]any:
			fn(v)
		case []any:
			for _, item := range v {
				if child, ok := item.(map[string]any); ok {
					fn(child)
				}
			}
		}
	}
	for _, key := range []string{"anyOf", "oneOf", "allOf", "type"} {
		if list, ok := node[key].([]any); ok {
			for _, item := range list {
				if child, ok := item.(map[string]any); ok {
					fn(child)
				}
			}
		}
	}
}

func checkAllowList(node map[string]any, pointer string) []string {
	var errs []string

	switch t := node["type"].(type) {
	case string:
		if !simpleTypes[t] {
			errs = append(errs, fmt.Sprintf("'%s/type' value %q is not a supported type", pointer, t))
		}
	case []any:
		for i, alt := range t {
			switch a := alt.(type) {
			case string:
				if !simpleTypes[a] {
					errs = append(errs, fmt.Sprintf("'%s/type/%d' value %q is not a supported type", pointer, i, a))
				}
			case map[string]any:
				errs = append(errs, checkAllowList(a, fmt.Sprintf("%s/type/%d", pointer, i))...)
			}
		}
	}

	if format, ok := node["format"].(string); ok && !SupportedFormats[format] {
		errs = append(errs, fmt.Sprintf("'%s/format' value %q is not a supported format", pointer, format))
	}

	for _, key := range []string{"properties", "patternProperties", "definitions"} {
		if m, ok := node[key].(map[string]any); ok {
			for _, name := range sortedKeys(m) {
				if child, ok := m[name].(map[string]any); ok {
					errs = append(errs, checkAllowList(child, pointer+"/"+key+"/"+escapePointer(name))...)
				}
			}
		}
	}
	for _, key := range []string{"items", "additionalProperties", "additionalItems", "not"} {
		switch v := node[key].(type) {
		case map[string]any:
			errs = append(errs, checkAllowList(v, pointer+"/"+key)...)
		case []any:
			for i, item := range v {
				if child, ok := item.(map[string]any); ok {
					errs = append(errs, checkAllowList(child, fmt.Sprintf("%s/%s/%d", pointer, key, i))...)
				}
			}
		}
	}
	for _, key := range []string{"anyOf", "oneOf", "allOf"} {
		if list, ok := node[key].([]any); ok {
			for i, item := range list {
				if child, ok := item.(map[string]any); ok {
					errs = append(errs, checkAllowList(child, fmt.Sprintf("%s/%s/%d", pointer, key, i))...)
				}
			}
		}
	}
	return errs
}

func escapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func sortedKeys(m map[string]any) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
