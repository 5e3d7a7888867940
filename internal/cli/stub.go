package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kolah/covenant/internal/config"
	"github.com/kolah/covenant/internal/registry"
	"github.com/kolah/covenant/middleware"
	"github.com/kolah/covenant/stub"
)

func StubCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Serve the examples of every endpoint",
		Long: `Serve the examples of every endpoint over HTTP.

Send SIGHUP to reload the definition files without restarting.`,
		RunE: runStub,
	}

	flags := cmd.Flags()
	flags.StringP("address", "a", "", "Listen address (default :8080)")
	flags.String("base-path", "", "Path prefix of every route")
	flags.Bool("metrics", false, "Serve Prometheus metrics on /__metrics")
	flags.Bool("validate-requests", false, "Validate request bodies and params before serving an example")

	return cmd
}

func runStub(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireVersion(); err != nil {
		return err
	}

	log := cfg.NewLogger()
	reg, err := loadRegistry(cfg, log)
	if err != nil {
		return err
	}

	server, err := newStubServer(cmd, cfg, reg, log)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.Stub.Address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Stub.Address, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go reloadOnHangup(ctx, reg, server, log)

	return server.Run(ctx, listener)
}

func newStubServer(cmd *cobra.Command, cfg *config.Config, reg *registry.Registry, log logrus.FieldLogger) (*stub.Server, error) {
	filters, err := exampleFilters(cfg)
	if err != nil {
		return nil, err
	}

	opts := stub.Options{
		VersionFunc: stub.VersionFunc(versionFunc(cfg)),
		Filters:     filters,
		Logger:      log,
		BasePath:    cfg.BasePath,
	}

	var metrics *middleware.Metrics
	if cfg.Stub.Metrics {
		promRegistry := prometheus.NewRegistry()
		promRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Registry = promRegistry
		metrics = middleware.NewMetrics(promRegistry)
	}

	if validate, _ := cmd.Flags().GetBool("validate-requests"); validate {
		mwOpts := middleware.DefaultOptions()
		mwOpts.VersionFunc = versionFunc(cfg)
		mwOpts.ValidateResponse = false
		mwOpts.BasePath = cfg.BasePath
		mwOpts.Logger = log
		mwOpts.Metrics = metrics
		mw, err := middleware.New(reg, mwOpts)
		if err != nil {
			return nil, err
		}
		opts.Middlewares = []func(http.Handler) http.Handler{mw.Handler}
	}

	return stub.New(reg, opts)
}

// reloadOnHangup reloads the definitions on SIGHUP until ctx is done. A
// failed reload keeps serving the previous definitions.
func reloadOnHangup(ctx context.Context, reg *registry.Registry, server *stub.Server, log logrus.FieldLogger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := reg.Reload(); err != nil {
				log.WithError(err).Error("reloading definitions failed, keeping the previous set")
				continue
			}
			server.Reload()
		}
	}
}
