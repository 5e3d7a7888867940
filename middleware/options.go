package middleware

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kolah/covenant/contract"
	"github.com/kolah/covenant/params"
)

// ErrorHandler is called when validation fails. err is a
// *contract.ValidationError, an *UnavailableVersionError or any error from
// resolving the contract.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, status int, err error)

// VersionFunc picks the contract version of a request for a matched endpoint.
type VersionFunc func(r *http.Request, endpoint *contract.Endpoint) string

// ResponseVersionFunc picks the contract version of a response. status and
// header are those written by the wrapped handler.
type ResponseVersionFunc func(r *http.Request, endpoint *contract.Endpoint, status int, header http.Header) string

// Mode selects what happens when a response fails validation.
type Mode int

const (
	// ModeError replaces an invalid response with a 500 error.
	ModeError Mode = iota
	// ModeWarn logs the failure and lets the response through.
	ModeWarn
)

func (m Mode) String() string {
	if m == ModeWarn {
		return "warn"
	}
	return "error"
}

// ParseMode converts "error" or "warn".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "error":
		return ModeError, nil
	case "warn":
		return ModeWarn, nil
	}
	return ModeError, &contract.ConfigurationError{Message: "unknown validation mode " + s}
}

// Options configures middleware behavior.
type Options struct {
	// Version is a static contract version. Exactly one of Version and
	// VersionFunc must be set.
	Version     string
	VersionFunc VersionFunc
	// ResponseVersionFunc overrides the version used for responses.
	ResponseVersionFunc ResponseVersionFunc

	ValidateRequest  bool
	ParseParams      bool
	ValidateResponse bool

	// ValidateRequestIf narrows request body validation; nil means JSON
	// POST, PUT and PATCH requests.
	ValidateRequestIf func(r *http.Request) bool
	// ValidateResponseIf narrows response validation; nil means JSON 2xx
	// responses other than 204.
	ValidateResponseIf func(r *http.Request, status int, header http.Header) bool

	Mode Mode
	// BasePath is stripped from request paths before resolution.
	BasePath string

	Logger        logrus.FieldLogger
	ErrorHandler  ErrorHandler
	ParamRegistry *params.Registry
	ParamCacheTTL time.Duration
	Metrics       *Metrics
}

// DefaultOptions returns options with sensible defaults. A version still
// has to be configured.
func DefaultOptions() *Options {
	return &Options{
		ValidateRequest:    true,
		ParseParams:        true,
		ValidateResponse:   true,
		ValidateRequestIf:  IsJSONWrite,
		ValidateResponseIf: IsJSONSuccess,
		Mode:               ModeError,
		Logger:             logrus.StandardLogger(),
	}
}

func (o *Options) validate() error {
	if (o.Version == "") == (o.VersionFunc == nil) {
		return &contract.ConfigurationError{
			Message: "middleware requires a static version or a version func, but not both",
		}
	}
	return nil
}

func (o *Options) requestVersion(r *http.Request, endpoint *contract.Endpoint) string {
	if o.VersionFunc != nil {
		return o.VersionFunc(r, endpoint)
	}
	return o.Version
}

func (o *Options) responseVersion(r *http.Request, endpoint *contract.Endpoint, status int, header http.Header) string {
	if o.ResponseVersionFunc != nil {
		return o.ResponseVersionFunc(r, endpoint, status, header)
	}
	return o.requestVersion(r, endpoint)
}

func (o *Options) shouldValidateRequest(r *http.Request) bool {
	if !o.ValidateRequest {
		return false
	}
	if o.ValidateRequestIf == nil {
		return IsJSONWrite(r)
	}
	return o.ValidateRequestIf(r)
}

func (o *Options) shouldValidateResponse(r *http.Request, status int, header http.Header) bool {
	if !o.ValidateResponse {
		return false
	}
	if o.ValidateResponseIf == nil {
		return IsJSONSuccess(r, status, header)
	}
	return o.ValidateResponseIf(r, status, header)
}

// IsJSONWrite reports whether r is a POST, PUT or PATCH with a JSON body.
func IsJSONWrite(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "json") &&
		slices.Contains([]string{http.MethodPost, http.MethodPut, http.MethodPatch}, r.Method)
}

// IsJSONSuccess reports whether a response is a JSON 2xx other than 204.
func IsJSONSuccess(_ *http.Request, status int, header http.Header) bool {
	return strings.Contains(header.Get("Content-Type"), "json") &&
		status >= 200 && status <= 299 && status != http.StatusNoContent
}

// HeaderVersion returns a VersionFunc reading the version from a header,
// falling back to def when the header is absent.
func HeaderVersion(name, def string) VersionFunc {
	return func(r *http.Request, _ *contract.Endpoint) string {
		if v := r.Header.Get(name); v != "" {
			return v
		}
		return def
	}
}
