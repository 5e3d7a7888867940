package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is.
var (
	ErrConfiguration            = errors.New("configuration error")
	ErrValidation               = errors.New("validation error")
	ErrNoDefinitionFound        = errors.New("no endpoint definition found")
	ErrMultipleDefinitionsFound = errors.New("multiple endpoint definitions found")
	ErrInvalidStatusCode        = errors.New("invalid status code format")
	ErrKeyNotFound              = errors.New("key not found")
	ErrInvalidEndpoint          = errors.New("invalid endpoint")
)

// ConfigurationError is returned when a setup is malformed, e.g. both a
// static version and a version callback are configured.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ValidationError is returned when data fails to validate against a schema.
// Errors holds every individual schema error; Data is the rejected payload.
type ValidationError struct {
	Errors      []string
	Data        any
	Description string
}

// NewValidationError builds a ValidationError for the given endpoint description.
func NewValidationError(errs []string, data any, description string) *ValidationError {
	return &ValidationError{Errors: errs, Data: data, Description: description}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d error(s) when validating against endpoint %s. Errors: ", len(e.Errors), e.Description)
	for _, msg := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(msg)
	}
	b.WriteString(".\n\nData:\n")
	b.WriteString(renderData(e.Data))
	return b.String()
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func renderData(data any) string {
	out, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%#v", data)
	}
	return string(out)
}

// NoEndpointDefinitionFoundError is returned when no definition matches the
// requested endpoint, version and message type.
type NoEndpointDefinitionFoundError struct {
	Endpoint    string
	Version     string
	MessageType MessageType
}

func (e *NoEndpointDefinitionFoundError) Error() string {
	return fmt.Sprintf("No definition found for %s endpoint for version %s and message_type %s",
		e.Endpoint, e.Version, e.MessageType)
}

func (e *NoEndpointDefinitionFoundError) Is(target error) bool { return target == ErrNoDefinitionFound }

// MultipleEndpointDefinitionsFoundError is returned when a lookup without a
// status code is ambiguous.
type MultipleEndpointDefinitionsFoundError struct {
	Endpoint    string
	Version     string
	MessageType MessageType
	Count       int
}

func (e *MultipleEndpointDefinitionsFoundError) Error() string {
	return fmt.Sprintf("%d definitions found for %s endpoint for version %s and message_type %s",
		e.Count, e.Endpoint, e.Version, e.MessageType)
}

func (e *MultipleEndpointDefinitionsFoundError) Is(target error) bool {
	return target == ErrMultipleDefinitionsFound
}

// StatusCodeMatcherArgumentError is returned for a malformed status code pattern.
type StatusCodeMatcherArgumentError struct {
	Code string
}

func (e *StatusCodeMatcherArgumentError) Error() string {
	return fmt.Sprintf("%s is not a valid format", e.Code)
}

func (e *StatusCodeMatcherArgumentError) Is(target error) bool { return target == ErrInvalidStatusCode }

// KeyNotFoundError is returned when a raw definition lacks a required key.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key not found: %q", e.Key)
}

func (e *KeyNotFoundError) Is(target error) bool { return target == ErrKeyNotFound }

// InvalidEndpointError is returned when a raw endpoint is structurally wrong,
// e.g. an invalid name or a value of the wrong type.
type InvalidEndpointError struct {
	Endpoint string
	Message  string
}

func (e *InvalidEndpointError) Error() string {
	if e.Endpoint == "" {
		return "invalid endpoint: " + e.Message
	}
	return fmt.Sprintf("invalid endpoint %q: %s", e.Endpoint, e.Message)
}

func (e *InvalidEndpointError) Is(target error) bool { return target == ErrInvalidEndpoint }
