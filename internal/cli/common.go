package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/kolah/covenant/contract"
	"github.com/kolah/covenant/internal/config"
	"github.com/kolah/covenant/internal/registry"
	"github.com/kolah/covenant/middleware"
)

// versionFunc reads the configured version header, falling back to the
// static version.
func versionFunc(cfg *config.Config) middleware.VersionFunc {
	return middleware.HeaderVersion(cfg.Version.Header, cfg.Version.Static)
}

// exampleFilters turns the configured stub patches into per-endpoint filters.
func exampleFilters(cfg *config.Config) ([]contract.ExampleFilter, error) {
	var filters []contract.ExampleFilter
	for _, name := range cfg.PatchedEndpoints() {
		patch, err := cfg.Patch(name)
		if err != nil {
			return nil, err
		}
		filter, err := contract.MergePatchFilter(patch)
		if err != nil {
			return nil, fmt.Errorf("stub patch for %s: %w", name, err)
		}
		filters = append(filters, contract.EndpointFilter(name, filter))
	}
	return filters, nil
}

func loadRegistry(cfg *config.Config, log logrus.FieldLogger) (*registry.Registry, error) {
	reg, err := registry.New(cfg.Definitions, cfg.ContractOptions(), log)
	if err != nil {
		return nil, err
	}
	if len(reg.Endpoints()) == 0 {
		log.WithField("definitions", cfg.Definitions).Warn("no endpoint definitions found")
	}
	return reg, nil
}
