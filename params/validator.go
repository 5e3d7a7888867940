package params

import (
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/mohae/deepcopy"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/samber/lo"

	"github.com/kolah/covenant/contract"
)

const (
	pathParamsBlock  = "path_params"
	queryParamsBlock = "query_params"
)

// typeAlternative is one entry of a declared param type: the type name and
// the schema keywords its parser is selected by.
type typeAlternative struct {
	declared any
	typ      string
	options  map[string]any
}

type paramDefinition struct {
	name         string
	schema       map[string]any
	alternatives []typeAlternative
}

// validator checks raw params against the merged path + query schema.
type validator struct {
	description string
	schema      map[string]any
	compiled    *jsonschema.Schema
	definitions []paramDefinition
}

func newValidator(d *contract.Definition, registry *Registry) (*validator, error) {
	description := d.Description()
	pathParams := d.PathParams()
	queryParams := d.QueryParams()

	pathProps, err := propertiesOf(pathParams, pathParamsBlock, description)
	if err != nil {
		return nil, err
	}
	queryProps, err := propertiesOf(queryParams, queryParamsBlock, description)
	if err != nil {
		return nil, err
	}
	if d.Endpoint() != nil {
		if err := checkPathParams(d.Endpoint().Route(), pathProps); err != nil {
			return nil, err
		}
	}

	merged := make(map[string]any, len(pathProps)+len(queryProps))
	maps.Copy(merged, pathProps)
	maps.Copy(merged, queryProps)

	v := &validator{description: description + " - request params"}
	properties := make(map[string]any, len(merged))
	required := []any{}
	for _, name := range sortedNames(merged) {
		propSchema, ok := merged[name].(map[string]any)
		if !ok {
			return nil, &InvalidParamsDefinitionError{
				Block: "param " + name, Description: description,
				Message: fmt.Sprintf("must be a schema object, got %T", merged[name]),
			}
		}
		def, err := newParamDefinition(name, propSchema, registry)
		if err != nil {
			return nil, err
		}
		adjusted, err := adjustedSchema(def, registry)
		if err != nil {
			return nil, err
		}
		properties[name] = adjusted
		if !isOptional(propSchema) {
			required = append(required, name)
		}
		v.definitions = append(v.definitions, def)
	}

	closed := !allowsAdditional(pathParams) && !allowsAdditional(queryParams)

	// Top-level keywords of both blocks survive; path params win.
	schema := queryParams
	maps.Copy(schema, pathParams)
	schema["properties"] = properties
	schema["required"] = required
	if closed {
		schema["additionalProperties"] = false
	}
	v.schema = schema

	compiled, errs := contract.CompileSchema(schema)
	if len(errs) > 0 {
		return nil, &InvalidParamsDefinitionError{
			Block: "request params", Description: description,
			Message: "do not form a valid schema: " + fmt.Sprint(errs),
		}
	}
	v.compiled = compiled
	return v, nil
}

func propertiesOf(block map[string]any, name, description string) (map[string]any, error) {
	if block["type"] != "object" {
		return nil, &InvalidParamsDefinitionError{
			Block: name, Description: description, Message: "is not typed as an object as expected",
		}
	}
	raw, ok := block["properties"]
	if !ok {
		return nil, &InvalidParamsDefinitionError{
			Block: name, Description: description, Message: "does not contain 'properties' as required",
		}
	}
	props, ok := raw.(map[string]any)
	if !ok {
		return nil, &InvalidParamsDefinitionError{
			Block: name, Description: description, Message: "has 'properties' that is not a map",
		}
	}
	return props, nil
}

func checkPathParams(route string, pathProps map[string]any) error {
	var invalid []string
	for _, name := range sortedNames(pathProps) {
		token := regexp.MustCompile(`/:` + regexp.QuoteMeta(name) + `(/|$)`)
		if !token.MatchString(route) {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		return &InvalidPathParamsError{Route: route, Params: invalid}
	}
	return nil
}

func isOptional(schema map[string]any) bool {
	if optional, _ := schema["optional"].(bool); optional {
		return true
	}
	required, ok := schema["required"].(bool)
	return ok && !required
}

func allowsAdditional(block map[string]any) bool {
	switch v := block["additionalProperties"].(type) {
	case bool:
		return v
	case map[string]any:
		return true
	}
	return false
}

func newParamDefinition(name string, schema map[string]any, registry *Registry) (paramDefinition, error) {
	def := paramDefinition{name: name, schema: schema}
	declared, ok := schema["type"]
	if !ok {
		return def, &UnsupportedTypeError{Type: "<none>", Options: map[string]any{"param": name}}
	}
	var list []any
	switch t := declared.(type) {
	case []any:
		list = t
	default:
		list = []any{t}
	}
	for _, entry := range list {
		switch t := entry.(type) {
		case string:
			def.alternatives = append(def.alternatives, typeAlternative{declared: t, typ: t, options: schema})
		case map[string]any:
			typ, _ := t["type"].(string)
			def.alternatives = append(def.alternatives, typeAlternative{declared: t, typ: typ, options: t})
		default:
			return def, &UnsupportedTypeError{Type: fmt.Sprint(entry)}
		}
	}
	for _, alt := range def.alternatives {
		if _, err := registry.Lookup(alt.typ, alt.options); err != nil {
			return def, err
		}
	}
	return def, nil
}

// adjustedSchema widens the declared type union with each parser's string
// form, e.g. an integer also accepts "42".
func adjustedSchema(def paramDefinition, registry *Registry) (map[string]any, error) {
	adjusted, _ := deepcopy.Copy(def.schema).(map[string]any)
	delete(adjusted, "optional")
	delete(adjusted, "required")

	var types []any
	for _, alt := range def.alternatives {
		parser, err := registry.Lookup(alt.typ, alt.options)
		if err != nil {
			return nil, err
		}
		types = append(types, deepcopy.Copy(alt.declared))
		if extra := parser.validationAlternative(); extra != nil {
			types = append(types, extra)
		}
	}
	adjusted["type"] = types
	return adjusted, nil
}

func (v *validator) validate(params map[string]any) error {
	if errs := contract.ValidateAgainst(v.compiled, params); len(errs) > 0 {
		return contract.NewValidationError(errs, params, v.description)
	}
	return nil
}

func sortedNames(m map[string]any) []string {
	names := lo.Keys(m)
	slices.Sort(names)
	return names
}
