package params

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for use with errors.Is.
var (
	ErrUnsupportedType         = errors.New("unsupported param type")
	ErrInvalidPathParams       = errors.New("invalid path params")
	ErrInvalidParamsDefinition = errors.New("invalid params definition")
	ErrCannotBeParsed          = errors.New("param cannot be parsed")
	ErrUnknownParam            = errors.New("unknown param")
)

// UnsupportedTypeError is returned when no registered parser handles a
// declared param type and options.
type UnsupportedTypeError struct {
	Type    string
	Options map[string]any
}

func (e *UnsupportedTypeError) Error() string {
	if len(e.Options) == 0 {
		return fmt.Sprintf("No param parser can be found for type %s", e.Type)
	}
	return fmt.Sprintf("No param parser can be found for type %s with options %v", e.Type, e.Options)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedType }

// InvalidPathParamsError lists declared path params missing from the route.
type InvalidPathParamsError struct {
	Route  string
	Params []string
}

func (e *InvalidPathParamsError) Error() string {
	return fmt.Sprintf("The path params %s are not part of the route %s", strings.Join(e.Params, ", "), e.Route)
}

func (e *InvalidPathParamsError) Is(target error) bool { return target == ErrInvalidPathParams }

// InvalidParamsDefinitionError is returned for a path_params or query_params
// block that is not an object schema with properties.
type InvalidParamsDefinitionError struct {
	Block       string
	Description string
	Message     string
}

func (e *InvalidParamsDefinitionError) Error() string {
	return fmt.Sprintf("The %s of %s %s", e.Block, e.Description, e.Message)
}

func (e *InvalidParamsDefinitionError) Is(target error) bool {
	return target == ErrInvalidParamsDefinition
}

// CannotBeParsedError is returned when a validated value is rejected by
// every parser of its declared types.
type CannotBeParsedError struct {
	Param string
	Value any
}

func (e *CannotBeParsedError) Error() string {
	return fmt.Sprintf("The %s %#v cannot be parsed", e.Param, e.Value)
}

func (e *CannotBeParsedError) Is(target error) bool { return target == ErrCannotBeParsed }

// UnknownParamError is returned when reading a param that was never declared.
type UnknownParamError struct {
	Name     string
	Declared []string
}

func (e *UnknownParamError) Error() string {
	declared := append([]string(nil), e.Declared...)
	sort.Strings(declared)
	return fmt.Sprintf("undeclared param %q (declared: %s)", e.Name, strings.Join(declared, ", "))
}

func (e *UnknownParamError) Is(target error) bool { return target == ErrUnknownParam }
