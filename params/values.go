package params

import (
	"fmt"
	"maps"
	"slices"
)

// Values holds converted params. Reading a name that was never declared is
// an error, which tells a typo apart from a declared param that is absent.
type Values struct {
	values map[string]any
}

// NewValues wraps converted params.
func NewValues(values map[string]any) Values {
	return Values{values: maps.Clone(values)}
}

// Get returns the value of a declared param; nil when it was not supplied.
func (v Values) Get(name string) (any, error) {
	value, ok := v.values[name]
	if !ok {
		return nil, &UnknownParamError{Name: name, Declared: v.Names()}
	}
	return value, nil
}

// Has reports whether name is a declared param.
func (v Values) Has(name string) bool {
	_, ok := v.values[name]
	return ok
}

// Names lists the declared params, sorted.
func (v Values) Names() []string {
	return slices.Sorted(maps.Keys(v.values))
}

// Map returns a copy of all declared params.
func (v Values) Map() map[string]any {
	return maps.Clone(v.values)
}

// Lookup returns a declared param as T. ok is false when the param was not
// supplied or converted to null.
func Lookup[T any](v Values, name string) (value T, ok bool, err error) {
	raw, err := v.Get(name)
	if err != nil || raw == nil {
		return value, false, err
	}
	value, ok = raw.(T)
	if !ok {
		return value, false, fmt.Errorf("param %q is %T, not %T", name, raw, value)
	}
	return value, true, nil
}
