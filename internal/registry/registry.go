package registry

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kolah/covenant/contract"
	"github.com/kolah/covenant/internal/loader"
)

// Snapshot is an endpoint set together with where it was loaded from.
type Snapshot struct {
	Endpoints contract.Endpoints
	Files     []string
	LoadedAt  time.Time
}

// Registry publishes the current endpoint set. Readers never block; a reload
// that fails keeps the previous snapshot.
type Registry struct {
	patterns []string
	opts     contract.Options
	log      logrus.FieldLogger

	current  atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
}

// New loads the definitions matched by patterns.
func New(patterns []string, opts contract.Options, log logrus.FieldLogger) (*Registry, error) {
	r := &Registry{patterns: patterns, opts: opts, log: log}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Endpoints returns the endpoints of the current snapshot.
func (r *Registry) Endpoints() contract.Endpoints {
	return r.current.Load().Endpoints
}

func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Reload re-reads every definition file and publishes the new set.
func (r *Registry) Reload() error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	result, err := loader.LoadFiles(r.patterns...)
	if err != nil {
		return fmt.Errorf("loading definitions: %w", err)
	}
	endpoints, err := contract.Build(result.Endpoints, r.opts)
	if err != nil {
		return fmt.Errorf("building endpoints: %w", err)
	}

	r.current.Store(&Snapshot{Endpoints: endpoints, Files: result.Files, LoadedAt: time.Now()})
	r.log.WithFields(logrus.Fields{
		"files":     len(result.Files),
		"endpoints": len(endpoints),
	}).Info("definitions loaded")
	return nil
}
