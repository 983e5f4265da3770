package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/launchpad/internal/shell/api"
	"github.com/artpar/launchpad/internal/shell/docker"
	"github.com/artpar/launchpad/internal/shell/jobs"
	"github.com/artpar/launchpad/internal/shell/launcher"
	"github.com/artpar/launchpad/internal/shell/portforward"
	"github.com/artpar/launchpad/internal/shell/templates"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDockerError     = 3
	ExitHTTPServerError = 4
)

const startupPingTimeout = 5 * time.Second

// =============================================================================
// Server
// =============================================================================

// Server represents the Launchpad application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	docker     *docker.DockerClient
	tracker    *jobs.Tracker
	logger     *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	store, err := loadTemplates(cfg, logger)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitConfigError,
		}
	}

	// Connect to Docker
	d, err := docker.NewDockerClient(cfg.Docker.Host)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDockerError,
		}
	}

	// An unreachable daemon is reported by /api/status and /ready, not fatal.
	pingCtx, cancel := context.WithTimeout(context.Background(), startupPingTimeout)
	if err := d.Ping(pingCtx); err != nil {
		logger.Warn("Docker daemon not reachable", "error", err)
	}
	cancel()

	var forwarder docker.PortForwarder
	if cfg.PortForward.Enabled {
		forwarder = portforward.NewAgent(portforward.UPnPDiscoverer{}, cfg.PortForward.DiscoveryTimeout, logger)
	}

	var orchOpts []docker.OrchestratorOption
	if cfg.Docker.ManagedOnly {
		orchOpts = append(orchOpts, docker.WithManagedOnly())
	}
	orchestrator := docker.NewOrchestrator(d, forwarder, logger, cfg.Docker.StopTimeout, orchOpts...)
	tracker := jobs.NewTracker(logger)

	svc, err := launcher.NewService(store, d, orchestrator, tracker, launcher.Config{
		VolumeBaseDir: cfg.Volumes.BaseDir,
	}, logger)
	if err != nil {
		d.Close()
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitConfigError,
		}
	}

	handler := api.NewHandler(api.Config{
		Launcher:    svc,
		Deployments: orchestrator,
		Jobs:        tracker,
		Runtime:     d,
		CORSOrigins: cfg.Server.CORSOrigins,
		Version:     Version,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		docker:     d,
		tracker:    tracker,
		logger:     logger,
	}, nil
}

// loadTemplates builds the registry from the built-in templates and the
// optional templates file.
func loadTemplates(cfg *Config, logger *slog.Logger) (*templates.Store, error) {
	store := templates.NewStore()
	if cfg.Templates.File == "" {
		return store, nil
	}
	n, err := store.LoadFile(cfg.Templates.File)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded templates", "file", cfg.Templates.File, "count", n)
	return store, nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return &ServerError{
				Op:       "Start",
				Err:      err,
				ExitCode: ExitHTTPServerError,
			}
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("received shutdown signal")
		return s.Shutdown(context.Background())
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the server. In-flight launch jobs are given
// until the shutdown timeout to finish before the Docker client is closed.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := s.tracker.Wait(shutdownCtx); err != nil {
		s.logger.Warn("launch jobs still running at shutdown", "tracked_jobs", s.tracker.Len(), "error", err)
	}

	// Close Docker client
	if err := s.docker.Close(); err != nil {
		s.logger.Error("Docker client close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
