// Package launcher runs the asynchronous launch workflow: it accepts a launch
// request, hands it to the job tracker, and inside the job resolves the
// template, prepares volume directories and drives the orchestrator.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	coredeployment "github.com/artpar/launchpad/internal/core/deployment"
	"github.com/artpar/launchpad/internal/core/domain"
	"github.com/artpar/launchpad/internal/shell/docker"
	"github.com/artpar/launchpad/internal/shell/jobs"
)

// ErrRuntimeUnavailable is returned when the container runtime cannot be reached.
var ErrRuntimeUnavailable = errors.New("container runtime unavailable")

// TemplateSource looks up templates by name.
type TemplateSource interface {
	Get(name string) (domain.ServiceTemplate, error)
	All() map[string]domain.ServiceTemplate
}

// Runtime reports whether the container runtime is reachable.
type Runtime interface {
	Ping(ctx context.Context) error
}

// Deployer runs the launch sequence for a resolved configuration.
type Deployer interface {
	Launch(ctx context.Context, cfg *coredeployment.LaunchConfig, progress docker.ProgressFunc) (*docker.LaunchResult, error)
}

// Config configures the launcher.
type Config struct {
	// VolumeBaseDir holds one data directory per deployment.
	VolumeBaseDir string
}

// Status is the runtime and template overview.
type Status struct {
	RuntimeConnected bool                              `json:"docker_connected"`
	Templates        map[string]domain.ServiceTemplate `json:"templates"`
}

// Service accepts launch requests.
type Service struct {
	templates TemplateSource
	runtime   Runtime
	deployer  Deployer
	jobs      *jobs.Tracker
	baseDir   string
	logger    *slog.Logger
}

// NewService creates a launcher. A relative VolumeBaseDir is made absolute so
// it can be used as a bind mount source.
func NewService(templates TemplateSource, runtime Runtime, deployer Deployer, tracker *jobs.Tracker, cfg Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	baseDir, err := filepath.Abs(cfg.VolumeBaseDir)
	if err != nil {
		return nil, fmt.Errorf("invalid volume base directory: %w", err)
	}
	return &Service{
		templates: templates,
		runtime:   runtime,
		deployer:  deployer,
		jobs:      tracker,
		baseDir:   baseDir,
		logger:    logger.With("component", "launcher"),
	}, nil
}

// Launch submits a launch job for the named template and returns its ID.
// An unreachable runtime and unknown templates are rejected, in that order,
// before a job exists.
func (s *Service) Launch(ctx context.Context, serviceName string, inputs map[string]string) (string, error) {
	if err := s.runtime.Ping(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
	}
	tpl, err := s.templates.Get(serviceName)
	if err != nil {
		return "", err
	}

	id := s.jobs.Submit(s.work(tpl, inputs))
	s.logger.Info("launch accepted", "job_id", id, "template", serviceName)
	return id, nil
}

// Status reports runtime connectivity and the available templates.
func (s *Service) Status(ctx context.Context) Status {
	return Status{
		RuntimeConnected: s.runtime.Ping(ctx) == nil,
		Templates:        s.templates.All(),
	}
}

func (s *Service) work(tpl domain.ServiceTemplate, inputs map[string]string) jobs.Work {
	return func(ctx context.Context, progress jobs.Progress) (jobs.Result, error) {
		progress("Resolving configuration.")
		cfg, err := coredeployment.Resolve(&tpl, inputs, coredeployment.Options{VolumeBaseDir: s.baseDir})
		if err != nil {
			return jobs.Result{}, err
		}

		for _, v := range cfg.Volumes {
			if err := os.MkdirAll(v.HostPath, 0o755); err != nil {
				return jobs.Result{}, fmt.Errorf("failed to create volume directory %s: %w", v.HostPath, err)
			}
		}

		result, err := s.deployer.Launch(ctx, cfg, func(phase docker.LaunchPhase) {
			progress(phaseMessage(phase, cfg.ContainerName))
		})
		if err != nil {
			return jobs.Result{}, err
		}

		return jobs.Result{
			Message: fmt.Sprintf("Container %s started. Port forwarding: %s", result.ContainerName, result.PortForwardMessage),
			Details: &domain.JobDetails{
				ContainerID:        result.ContainerID,
				ContainerName:      result.ContainerName,
				HostPort:           result.HostPort,
				PortForwardOK:      result.PortForwardOK,
				PortForwardOutcome: result.PortForwardMessage,
			},
		}, nil
	}
}

func phaseMessage(phase docker.LaunchPhase, name string) string {
	switch phase {
	case docker.PhaseCleaning:
		return fmt.Sprintf("Removing any existing container %s.", name)
	case docker.PhasePortForwarding:
		return "Requesting port forwarding."
	case docker.PhaseStarting:
		return fmt.Sprintf("Starting container %s.", name)
	default:
		return string(phase)
	}
}
