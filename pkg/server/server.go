// Package server assembles a running fshare instance from configuration: the
// storage manager, the credential, the protocol adapter, the HTTP API and the
// optional dedicated metrics listener.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/fshare/internal/logger"
	"github.com/marmos91/fshare/internal/protocol/security"
	"github.com/marmos91/fshare/pkg/adapter/fshare"
	"github.com/marmos91/fshare/pkg/api"
	"github.com/marmos91/fshare/pkg/config"
	"github.com/marmos91/fshare/pkg/metrics"
	"github.com/marmos91/fshare/pkg/storage"

	// Registers the Prometheus metrics constructors.
	_ "github.com/marmos91/fshare/pkg/metrics/prometheus"
)

// Server owns every long-running component of an fshare process.
type Server struct {
	adapter    *fshare.Adapter
	api        *api.Server
	metricsAPI *api.Server
	registry   *prometheus.Registry
	source     config.CredentialSource
}

// New builds a Server from cfg. Nothing listens until Run is called.
func New(cfg *config.Config) (*Server, error) {
	store, err := storage.NewOS(cfg.Server.StorageRoot, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open storage root %q: %w", cfg.Server.StorageRoot, err)
	}

	cred, source, err := config.BuildCredential(cfg.Auth)
	if err != nil {
		return nil, err
	}

	return NewWithStore(cfg, store, cred, source)
}

// NewWithStore is New with an explicit store and credential.
func NewWithStore(cfg *config.Config, store fshare.Store, cred security.Credential, source config.CredentialSource) (*Server, error) {
	s := &Server{source: source}

	var m metrics.FShareMetrics
	if cfg.Metrics.Enabled {
		s.registry = metrics.InitRegistry()
		m = metrics.NewFShareMetrics()
	}

	a, err := fshare.New(cfg.AdapterConfig(), store, cred, m)
	if err != nil {
		return nil, err
	}
	s.adapter = a

	if cfg.API.IsEnabled() {
		var reg *prometheus.Registry
		if cfg.MetricsOnAPI() {
			reg = s.registry
		}
		s.api = api.NewServer(cfg.API, a, reg)
	}
	if s.registry != nil && !cfg.MetricsOnAPI() {
		s.metricsAPI = api.NewServer(api.APIConfig{Port: cfg.Metrics.Port}, nil, s.registry)
	}

	return s, nil
}

// Adapter returns the protocol adapter.
func (s *Server) Adapter() *fshare.Adapter {
	return s.adapter
}

// Registry returns the metrics registry, or nil when metrics are disabled.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// CredentialSource reports where the server password came from.
func (s *Server) CredentialSource() config.CredentialSource {
	return s.source
}

// Run serves until ctx is cancelled or a component fails. A failing
// component cancels the others; the first error is returned.
func (s *Server) Run(ctx context.Context) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.adapter.Serve(gctx)
	})
	if s.api != nil {
		g.Go(func() error {
			return s.api.Start(gctx)
		})
	}
	if s.metricsAPI != nil {
		g.Go(func() error {
			return s.metricsAPI.Start(gctx)
		})
	}

	err := g.Wait()
	logger.Info("fshare stopped", "uptime", time.Since(start).Truncate(time.Second).String())
	return err
}
