package params

import (
	"maps"
	"reflect"
	"sync"
)

// ParseFunc converts a raw param value to its native form. An error means
// the value is not of this type and the next declared alternative is tried.
type ParseFunc func(value any) (any, error)

// Parser validates and converts params of one (type, options) combination.
type Parser struct {
	// StringValidation, when set, is an extra schema accepted in place of the
	// declared type, since raw params usually arrive as strings. It is merged
	// onto {"type": "string"}.
	StringValidation map[string]any
	Parse            ParseFunc
}

// validationAlternative returns the string-typed schema accepted in addition
// to the declared type, or nil.
func (p Parser) validationAlternative() map[string]any {
	if p.StringValidation == nil {
		return nil
	}
	alt := map[string]any{"type": "string"}
	maps.Copy(alt, p.StringValidation)
	return alt
}

type registration struct {
	typ     string
	options map[string]any
	parser  Parser
}

// matches reports whether declared options contain every registered option.
func (r registration) matches(typ string, options map[string]any) bool {
	if r.typ != typ {
		return false
	}
	for k, v := range r.options {
		declared, ok := options[k]
		if !ok || !reflect.DeepEqual(declared, v) {
			return false
		}
	}
	return true
}

// Registry holds the param parsers. Lookups search in reverse registration
// order, so a later registration overrides an earlier one for the options it
// names.
type Registry struct {
	mu            sync.RWMutex
	registrations []registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns a new registry holding the built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}

// Register adds a parser for typ. options is the subset of schema keywords
// (e.g. {"format": "date"}) a declaration must carry for the parser to apply.
func (r *Registry) Register(typ string, options map[string]any, parser Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = append(r.registrations, registration{
		typ:     typ,
		options: maps.Clone(options),
		parser:  parser,
	})
}

// Lookup returns the most recently registered parser for typ whose options
// are all present in options.
func (r *Registry) Lookup(typ string, options map[string]any) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.registrations) - 1; i >= 0; i-- {
		if r.registrations[i].matches(typ, options) {
			return r.registrations[i].parser, nil
		}
	}
	return Parser{}, &UnsupportedTypeError{Type: typ, Options: options}
}
