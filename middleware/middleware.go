package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kolah/covenant/contract"
	"github.com/kolah/covenant/params"
)

// Middleware validates requests and responses against endpoint contracts.
type Middleware struct {
	source  contract.Source
	options *Options
	parsers *params.Cache
}

// New creates middleware over an endpoint source. A contract.Endpoints value
// is a fixed source.
func New(source contract.Source, opts *Options) (*Middleware, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	return &Middleware{
		source:  source,
		options: opts,
		parsers: params.NewCache(opts.ParamRegistry, opts.ParamCacheTTL),
	}, nil
}

// Handler returns an http.Handler middleware.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, ok := m.path(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		req := &request{Request: r, path: path, endpoints: m.source.Endpoints()}

		if m.options.shouldValidateRequest(r) || m.options.ParseParams {
			if err := m.resolveRequest(req); err != nil {
				m.options.Metrics.observe(string(contract.MessageTypeRequest), resultUnavailable)
				m.fail(w, r, http.StatusNotAcceptable, err)
				return
			}
		}

		if req.definition != nil && m.options.shouldValidateRequest(r) {
			if err := m.validateBody(req); err != nil {
				m.options.Metrics.observe(string(contract.MessageTypeRequest), resultInvalid)
				m.fail(w, r, http.StatusBadRequest, err)
				return
			}
			m.options.Metrics.observe(string(contract.MessageTypeRequest), resultValid)
		}

		if req.definition != nil && m.options.ParseParams {
			status, err := m.parseParams(req)
			if err != nil {
				m.fail(w, r, status, err)
				return
			}
		}

		r = req.Request
		if !m.options.ValidateResponse {
			next.ServeHTTP(w, r)
			return
		}

		buf := newResponseBuffer(w)
		next.ServeHTTP(buf, r)
		m.validateResponse(w, req, buf)
	})
}

// request carries per-request resolution state.
type request struct {
	*http.Request
	path       string
	endpoints  contract.Endpoints
	endpoint   *contract.Endpoint
	definition *contract.Definition
}

// path returns the request path relative to BasePath. Requests outside
// BasePath are not covered by the contracts.
func (m *Middleware) path(r *http.Request) (string, bool) {
	base := strings.TrimSuffix(m.options.BasePath, "/")
	if base == "" {
		return r.URL.Path, true
	}
	rest, found := strings.CutPrefix(r.URL.Path, base)
	if !found || (rest != "" && !strings.HasPrefix(rest, "/")) {
		return "", false
	}
	if rest == "" {
		rest = "/"
	}
	return rest, true
}

// resolveRequest finds the request definition. Routes without a contract,
// and endpoints declaring no request definitions, are passed through.
func (m *Middleware) resolveRequest(req *request) error {
	endpoint, ok := req.endpoints.FindEndpoint(req.Method, req.path)
	if !ok {
		return nil
	}
	available := endpoint.AvailableRequestVersions()
	if len(available) == 0 {
		return nil
	}

	version := m.options.requestVersion(req.Request, endpoint)
	if !slices.Contains(available, version) {
		return &UnavailableVersionError{Requested: version, Available: available}
	}
	d, ok := req.endpoints.FindDefinition(req.Method, req.path, contract.MessageTypeRequest, "",
		func(*contract.Endpoint) string { return version })
	if !ok {
		return &UnavailableVersionError{Requested: version, Available: available}
	}

	req.endpoint = endpoint
	req.definition = d
	req.Request = req.WithContext(WithDefinition(req.Context(), d))
	return nil
}

func (m *Middleware) validateBody(req *request) error {
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return &MalformedBodyError{Cause: err}
	}
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(raw))

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return &MalformedBodyError{Cause: err}
	}
	if err := req.definition.ValidateData(body); err != nil {
		return err
	}
	req.Request = req.WithContext(WithBody(req.Context(), body))
	return nil
}

func (m *Middleware) parseParams(req *request) (int, error) {
	parser, err := m.parsers.For(req.definition)
	if err != nil {
		m.options.Logger.WithError(err).
			WithField("endpoint", req.endpoint.Name()).
			Error("request params declaration is invalid")
		return http.StatusInternalServerError, err
	}

	routeParams, _ := req.endpoint.RouteParams(req.path)
	values, err := parser.Parse(params.FromRequest(req.URL.Query(), routeParams))
	if err != nil {
		return http.StatusBadRequest, err
	}
	req.Request = req.WithContext(WithParams(req.Context(), values))
	return 0, nil
}

func (m *Middleware) validateResponse(w http.ResponseWriter, req *request, buf *responseBuffer) {
	status := buf.statusCode()
	messageType := string(contract.MessageTypeResponse)
	if !m.options.shouldValidateResponse(req.Request, status, buf.Header()) {
		m.options.Metrics.observe(messageType, resultSkipped)
		buf.flush()
		return
	}

	d, err := m.checkResponse(req, status, buf.Header(), buf.body.Bytes())
	if err == nil {
		m.options.Metrics.observe(messageType, resultValid)
		buf.flush()
		return
	}
	m.options.Metrics.observe(messageType, resultInvalid)

	fields := logrus.Fields{
		"method":       req.Method,
		"path":         req.path,
		"message_type": messageType,
		"status":       status,
	}
	if d != nil {
		fields["endpoint"] = d.EndpointName()
		fields["version"] = d.Version()
	}
	log := m.options.Logger.WithFields(fields).WithError(err)

	if m.options.Mode == ModeWarn {
		log.Warn("response does not match its contract")
		buf.flush()
		return
	}
	log.Error("response does not match its contract")
	w.Header().Del("Content-Length")
	m.fail(w, req.Request, http.StatusInternalServerError, err)
}

func (m *Middleware) checkResponse(req *request, status int, header http.Header, raw []byte) (*contract.Definition, error) {
	d, ok := req.endpoints.FindDefinition(req.Method, req.path, contract.MessageTypeResponse, strconv.Itoa(status),
		func(e *contract.Endpoint) string {
			return m.options.responseVersion(req.Request, e, status, header)
		})
	if !ok {
		return nil, &UnmatchedResponseError{Method: req.Method, Path: req.path, Status: status}
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return d, &MalformedBodyError{Cause: err}
	}
	return d, d.ValidateData(data)
}

func (m *Middleware) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if m.options.ErrorHandler != nil {
		m.options.ErrorHandler(w, r, status, err)
		return
	}
	WriteJSONError(w, status, err)
}
