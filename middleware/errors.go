package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kolah/covenant/contract"
)

// UnavailableVersionError is returned when a request asks for a version the
// endpoint does not define.
type UnavailableVersionError struct {
	Requested string
	Available []string
}

func (e *UnavailableVersionError) Error() string {
	return fmt.Sprintf("The requested request version is invalid. Requested: %s. Available: %v",
		e.Requested, e.Available)
}

func (e *UnavailableVersionError) Is(target error) bool {
	return target == contract.ErrNoDefinitionFound
}

// UnmatchedResponseError is returned when no response definition exists for
// the request path, version and status.
type UnmatchedResponseError struct {
	Method string
	Path   string
	Status int
}

func (e *UnmatchedResponseError) Error() string {
	return fmt.Sprintf("No endpoint definition could be found for: %s '%s' (status %d)", e.Method, e.Path, e.Status)
}

func (e *UnmatchedResponseError) Is(target error) bool {
	return target == contract.ErrNoDefinitionFound
}

// MalformedBodyError is returned for a body that is not valid JSON.
type MalformedBodyError struct {
	Cause error
}

func (e *MalformedBodyError) Error() string {
	return "body is not valid JSON: " + e.Cause.Error()
}

func (e *MalformedBodyError) Unwrap() error { return e.Cause }

func (e *MalformedBodyError) Is(target error) bool { return target == contract.ErrValidation }

// WriteJSONError writes {"error": message} with the given status.
func WriteJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
