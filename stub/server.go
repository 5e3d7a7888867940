package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/kolah/covenant/contract"
)

const (
	contentType             = "application/json;charset=utf-8"
	gracefulShutdownTimeout = 5 * time.Second
	pingMessage             = "covenant stub server running."
	notFoundMessage         = "The requested resource could not be found"
)

// VersionFunc picks the contract version to serve for a matched endpoint.
type VersionFunc func(r *http.Request, endpoint *contract.Endpoint) string

// ExampleSelector picks the example of a definition to serve.
type ExampleSelector func(d *contract.Definition, r *http.Request) (*contract.Example, error)

// Options configures the stub server.
type Options struct {
	VersionFunc   VersionFunc
	SelectExample ExampleSelector
	// Filters run on a copy of the selected example before it is served.
	Filters []contract.ExampleFilter
	Logger  logrus.FieldLogger
	// BasePath prefixes every route, ping included.
	BasePath string
	// Middlewares wrap every route after the built-in ones.
	Middlewares []func(http.Handler) http.Handler
	// Registry, when set, receives the stub metrics and is served on /__metrics.
	Registry *prometheus.Registry
}

// Server serves canned examples for every endpoint of a source.
type Server struct {
	source  contract.Source
	opts    Options
	router  atomic.Pointer[chi.Mux]
	served  *prometheus.CounterVec
	metrics http.Handler
}

// New builds a stub server. VersionFunc is required.
func New(source contract.Source, opts Options) (*Server, error) {
	if opts.VersionFunc == nil {
		return nil, &contract.ConfigurationError{Message: "stub server requires a version func"}
	}
	if opts.SelectExample == nil {
		opts.SelectExample = FirstExample
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	s := &Server{source: source, opts: opts}
	if opts.Registry != nil {
		s.served = promauto.With(opts.Registry).NewCounterVec(prometheus.CounterOpts{
			Name: "covenant_stub_responses_total",
			Help: "Total number of stub responses by endpoint and status code",
		}, []string{"endpoint", "status"})
		s.metrics = promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})
	}
	s.Reload()
	return s, nil
}

// FirstExample serves the first example of the definition.
func FirstExample(d *contract.Definition, _ *http.Request) (*contract.Example, error) {
	examples := d.Examples()
	if len(examples) == 0 {
		return nil, fmt.Errorf("%s has no examples", d.Description())
	}
	return examples[0], nil
}

// Reload rebuilds the routes from the current endpoints of the source.
func (s *Server) Reload() {
	endpoints := s.source.Endpoints()
	s.router.Store(s.buildRouter(endpoints))
	s.opts.Logger.WithField("endpoints", len(endpoints)).Info("stub routes loaded")
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.Load().ServeHTTP(w, r)
}

func (s *Server) buildRouter(endpoints contract.Endpoints) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.StripSlashes,
		middleware.Recoverer,
	)
	router.Use(s.opts.Middlewares...)
	router.NotFound(s.notFound)
	router.MethodNotAllowed(s.notFound)
	router.Get("/__ping", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": pingMessage})
	})
	if s.metrics != nil {
		router.Method(http.MethodGet, "/__metrics", s.metrics)
	}

	registered := make(map[string]bool)
	for _, e := range endpoints {
		pattern := ChiPattern(e.Route())
		key := e.Method() + " " + pattern
		if registered[key] {
			s.opts.Logger.WithField("endpoint", e.Name()).Warn("route already served by an earlier endpoint")
			continue
		}
		registered[key] = true
		router.Method(e.Method(), pattern, s.exampleHandler(e))
	}

	basePath := strings.TrimSuffix(s.opts.BasePath, "/")
	if basePath == "" {
		return router
	}
	outer := chi.NewRouter()
	outer.NotFound(s.notFound)
	outer.MethodNotAllowed(s.notFound)
	outer.Mount(basePath, router)
	return outer
}

// ChiPattern converts a ":name" route template to a chi pattern.
func ChiPattern(route string) string {
	segments := strings.Split(route, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") && len(segment) > 1 {
			segments[i] = "{" + segment[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}

func (s *Server) exampleHandler(e *contract.Endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.opts.Logger.WithFields(logrus.Fields{
			"endpoint":   e.Name(),
			"request_id": middleware.GetReqID(r.Context()),
		})

		version := s.opts.VersionFunc(r, e)
		d, ok := responseDefinition(e, version)
		if !ok {
			writeError(w, http.StatusNotAcceptable, fmt.Errorf(
				"The requested request version is invalid. Requested: %s. Available: %v",
				version, e.AvailableResponseVersions()))
			return
		}

		example, err := s.opts.SelectExample(d, r)
		if err != nil {
			log.WithError(err).Error("no example to serve")
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		filtered, err := example.ApplyFilters(s.opts.Filters, r)
		if err != nil {
			log.WithError(err).Error("example filter failed")
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if err := filtered.Validate(); err != nil {
			log.WithError(err).Error("example does not match its contract")
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		status := d.ExampleStatusCode()
		code, err := httpStatus(status)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if s.served != nil {
			s.served.WithLabelValues(e.Name(), status).Inc()
		}
		writeJSON(w, code, filtered.Data)
	}
}

// responseDefinition returns the response definition to stub for version.
// With several status-specific definitions the first successful one wins.
func responseDefinition(e *contract.Endpoint, version string) (*contract.Definition, bool) {
	defs, ok := e.FindDefinitions(version, contract.MessageTypeResponse)
	if !ok {
		return nil, false
	}
	for _, d := range defs {
		if strings.HasPrefix(d.ExampleStatusCode(), "2") {
			return d, true
		}
	}
	return defs[0], true
}

func httpStatus(code string) (int, error) {
	var status int
	if _, err := fmt.Sscanf(code, "%d", &status); err != nil {
		return 0, fmt.Errorf("invalid example status code %q: %w", code, err)
	}
	return status, nil
}

func (s *Server) notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, errors.New(notFoundMessage))
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Run serves on listener until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.opts.Logger.WithField("reason", ctx.Err()).Info("shutting down stub server")
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()
		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
	}()

	s.opts.Logger.Infof("Listening on %s...", listener.Addr().String())
	if err := srv.Serve(listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
