package docker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	coredeployment "github.com/artpar/launchpad/internal/core/deployment"
	"github.com/artpar/launchpad/internal/core/domain"
	"github.com/artpar/launchpad/internal/core/monitoring"
	"github.com/docker/go-units"
)

// =============================================================================
// Orchestrator - Manages Deployment Lifecycle
// =============================================================================

// PortForwarder requests an external port mapping. Implementations never fail;
// the outcome is reported as ok plus a human-readable message.
type PortForwarder interface {
	Forward(ctx context.Context, hostPort, internalPort int, description string) (ok bool, message string)
}

// LaunchPhase names a step of the launch sequence.
type LaunchPhase string

const (
	PhaseCleaning       LaunchPhase = "cleaning"
	PhasePortForwarding LaunchPhase = "port forwarding"
	PhaseStarting       LaunchPhase = "starting"
)

// ProgressFunc is notified when Launch enters a phase. It may be nil.
type ProgressFunc func(phase LaunchPhase)

// LaunchResult describes a successful launch.
type LaunchResult struct {
	ContainerID        string
	ContainerName      string
	HostPort           int
	PortForwardOK      bool
	PortForwardMessage string
}

// Orchestrator manages the lifecycle of deployments using Docker.
type Orchestrator struct {
	docker      Client
	forwarder   PortForwarder
	logger      *slog.Logger
	stopTimeout time.Duration
	typeRules   []domain.TypeRule
	managedOnly bool
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithManagedOnly restricts List to containers created by launchpad.
func WithManagedOnly() OrchestratorOption {
	return func(o *Orchestrator) {
		o.managedOnly = true
	}
}

// NewOrchestrator creates a new orchestrator.
// forwarder may be nil, in which case no port mapping is attempted.
func NewOrchestrator(docker Client, forwarder PortForwarder, logger *slog.Logger, stopTimeout time.Duration, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}
	o := &Orchestrator{
		docker:      docker,
		forwarder:   forwarder,
		logger:      logger.With("component", "orchestrator"),
		stopTimeout: stopTimeout,
		typeRules:   domain.DefaultTypeRules,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// =============================================================================
// Launch
// =============================================================================

// Launch replaces any container named cfg.ContainerName with a fresh one.
// The phases run strictly in order: cleaning, port forwarding, starting.
// Cleaning and port forwarding never abort the launch.
func (o *Orchestrator) Launch(ctx context.Context, cfg *coredeployment.LaunchConfig, progress ProgressFunc) (*LaunchResult, error) {
	if progress == nil {
		progress = func(LaunchPhase) {}
	}
	name := cfg.ContainerName
	o.logger.Info("launching container", "container_name", name, "image", cfg.Image)

	// 1. Cleaning
	progress(PhaseCleaning)
	o.removeExisting(ctx, name)

	// 2. Port forwarding
	progress(PhasePortForwarding)
	result := &LaunchResult{ContainerName: name}
	if primary, ok := cfg.PrimaryPort(); ok {
		result.HostPort = primary.HostPort
		if o.forwarder != nil {
			result.PortForwardOK, result.PortForwardMessage = o.forwarder.Forward(ctx,
				primary.HostPort, primary.ContainerPort, coredeployment.PortForwardDescription(name))
		} else {
			result.PortForwardMessage = "port forwarding disabled"
		}
	} else {
		result.PortForwardMessage = "no port to forward"
	}
	o.logger.Info("port forwarding outcome",
		"container_name", name,
		"ok", result.PortForwardOK,
		"message", result.PortForwardMessage,
	)

	// 3. Starting
	progress(PhaseStarting)
	if err := o.ensureImage(ctx, cfg.Image); err != nil {
		return nil, o.launchError(cfg, err)
	}

	containerID, err := o.docker.CreateContainer(ctx, o.buildContainerSpec(cfg))
	if err != nil {
		return nil, o.launchError(cfg, err)
	}
	if err := o.docker.StartContainer(ctx, containerID); err != nil {
		_ = o.docker.RemoveContainer(ctx, containerID, RemoveOptions{Force: true})
		return nil, o.launchError(cfg, err)
	}

	result.ContainerID = containerID
	o.logger.Info("container started",
		"container_name", name,
		"container_id", shortID(containerID),
		"host_port", result.HostPort,
	)
	return result, nil
}

// removeExisting stops and force-removes a container by name. Failures are
// logged and swallowed.
func (o *Orchestrator) removeExisting(ctx context.Context, name string) {
	info, err := o.docker.InspectContainer(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrContainerNotFound) {
			o.logger.Warn("failed to look up existing container", "container_name", name, "error", err)
		}
		return
	}

	o.logger.Info("removing existing container", "container_name", name, "container_id", shortID(info.ID))
	if info.Status == ContainerStatusRunning {
		timeout := o.stopTimeout
		if err := o.docker.StopContainer(ctx, info.ID, &timeout); err != nil &&
			!errors.Is(err, ErrContainerNotFound) && !errors.Is(err, ErrContainerNotRunning) {
			o.logger.Warn("failed to stop existing container", "container_name", name, "error", err)
		}
	}
	if err := o.docker.RemoveContainer(ctx, info.ID, RemoveOptions{Force: true}); err != nil &&
		!errors.Is(err, ErrContainerNotFound) {
		o.logger.Warn("failed to remove existing container", "container_name", name, "error", err)
	}
}

// ensureImage pulls the image when it is not present locally. A failed pull
// other than "not found" is logged; the create call reports the real problem.
func (o *Orchestrator) ensureImage(ctx context.Context, image string) error {
	exists, err := o.docker.ImageExists(ctx, image)
	if err != nil {
		o.logger.Warn("failed to check image", "image", image, "error", err)
	}
	if exists {
		return nil
	}

	o.logger.Info("pulling image", "image", image)
	if err := o.docker.PullImage(ctx, image); err != nil {
		if errors.Is(err, ErrImageNotFound) {
			return err
		}
		o.logger.Warn("failed to pull image", "image", image, "error", err)
	}
	return nil
}

func (o *Orchestrator) launchError(cfg *coredeployment.LaunchConfig, err error) *LaunchError {
	kind := LaunchRuntimeFailure
	if errors.Is(err, ErrImageNotFound) {
		kind = LaunchImageNotFound
	}
	o.logger.Error("launch failed",
		"container_name", cfg.ContainerName,
		"kind", kind,
		"error", err,
	)
	return &LaunchError{Kind: kind, ContainerName: cfg.ContainerName, Image: cfg.Image, Err: err}
}

func (o *Orchestrator) buildContainerSpec(cfg *coredeployment.LaunchConfig) ContainerSpec {
	labels := map[string]string{
		LabelManaged:  "true",
		LabelTemplate: cfg.TemplateName,
	}
	if cfg.Memory > 0 {
		labels[LabelMemory] = strconv.FormatInt(cfg.Memory, 10)
	}

	spec := ContainerSpec{
		Name:          cfg.ContainerName,
		Image:         cfg.Image,
		Env:           cfg.Env,
		Labels:        labels,
		RestartPolicy: RestartPolicy{Name: cfg.RestartPolicy},
	}
	for _, p := range cfg.Ports {
		spec.Ports = append(spec.Ports, PortBinding{
			ContainerPort: p.ContainerPort,
			HostPort:      p.HostPort,
			Protocol:      p.Protocol,
		})
	}
	for _, v := range cfg.Volumes {
		spec.Volumes = append(spec.Volumes, VolumeMount{
			Source:   v.HostPath,
			Target:   v.ContainerPath,
			ReadOnly: v.Mode == coredeployment.ModeReadOnly,
		})
	}
	return spec
}

// =============================================================================
// Lifecycle Actions
// =============================================================================

// Stop stops a container. A container that is already stopped counts as success.
func (o *Orchestrator) Stop(ctx context.Context, id string) (domain.ActionResult, error) {
	timeout := o.stopTimeout
	err := o.docker.StopContainer(ctx, id, &timeout)
	switch {
	case err == nil, errors.Is(err, ErrContainerNotRunning):
		o.logger.Info("container stopped", "container_id", id)
		return domain.Succeeded(fmt.Sprintf("Container %s stopped.", id)), nil
	case errors.Is(err, ErrContainerNotFound):
		return domain.Failed(fmt.Sprintf("Container %s not found.", id)), err
	default:
		o.logger.Error("failed to stop container", "container_id", id, "error", err)
		return domain.Failed(err.Error()), err
	}
}

// Start starts a stopped container. A running container counts as success.
func (o *Orchestrator) Start(ctx context.Context, id string) (domain.ActionResult, error) {
	err := o.docker.StartContainer(ctx, id)
	switch {
	case err == nil, errors.Is(err, ErrContainerAlreadyRunning):
		o.logger.Info("container started", "container_id", id)
		return domain.Succeeded(fmt.Sprintf("Container %s started.", id)), nil
	case errors.Is(err, ErrContainerNotFound):
		return domain.Failed(fmt.Sprintf("Container %s not found.", id)), err
	default:
		o.logger.Error("failed to start container", "container_id", id, "error", err)
		return domain.Failed(err.Error()), err
	}
}

// Delete stops the container if it is running, then force-removes it.
// Host volume directories are left in place.
func (o *Orchestrator) Delete(ctx context.Context, id string) (domain.ActionResult, error) {
	info, err := o.docker.InspectContainer(ctx, id)
	if err != nil {
		if errors.Is(err, ErrContainerNotFound) {
			return domain.Failed(fmt.Sprintf("Container %s not found.", id)), err
		}
		return domain.Failed(err.Error()), err
	}

	if info.Status == ContainerStatusRunning {
		timeout := o.stopTimeout
		if err := o.docker.StopContainer(ctx, info.ID, &timeout); err != nil &&
			!errors.Is(err, ErrContainerNotRunning) {
			o.logger.Warn("failed to stop container before removal", "container_id", id, "error", err)
		}
	}

	if err := o.docker.RemoveContainer(ctx, info.ID, RemoveOptions{Force: true}); err != nil {
		if errors.Is(err, ErrContainerNotFound) {
			return domain.Failed(fmt.Sprintf("Container %s not found.", id)), err
		}
		o.logger.Error("failed to remove container", "container_id", id, "error", err)
		return domain.Failed(err.Error()), err
	}

	o.logger.Info("container removed", "container_id", id, "name", info.Name)
	return domain.Succeeded(fmt.Sprintf("Container %s removed.", id)), nil
}

// =============================================================================
// Views
// =============================================================================

// List returns a view of every container, including stopped ones, in the
// order the runtime reports them. WithManagedOnly narrows it to launchpad's own.
func (o *Orchestrator) List(ctx context.Context) ([]domain.DeploymentView, error) {
	opts := ListOptions{All: true}
	if o.managedOnly {
		opts.Filters = map[string]string{"label": LabelManaged + "=true"}
	}
	containers, err := o.docker.ListContainers(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	views := make([]domain.DeploymentView, 0, len(containers))
	for _, c := range containers {
		// Resource limits are only reported by inspect.
		if info, err := o.docker.InspectContainer(ctx, c.ID); err == nil {
			c.MemoryLimit = info.MemoryLimit
			c.NanoCPUs = info.NanoCPUs
		} else if !errors.Is(err, ErrContainerNotFound) {
			o.logger.Debug("failed to inspect container", "container_id", shortID(c.ID), "error", err)
		}
		views = append(views, o.buildView(c))
	}
	return views, nil
}

func (o *Orchestrator) buildView(c ContainerInfo) domain.DeploymentView {
	view := domain.DeploymentView{
		ID:        shortID(c.ID),
		Name:      c.Name,
		Type:      domain.InferDeploymentType(c.Image, o.typeRules),
		Image:     c.Image,
		Status:    domain.DeploymentStatusOf(string(c.Status)),
		CreatedAt: c.CreatedAt,
	}

	memory := c.MemoryLimit
	if memory == 0 {
		if v, err := strconv.ParseInt(c.Labels[LabelMemory], 10, 64); err == nil {
			memory = v
		}
	}
	view.MemoryLimitMB = memory / units.MiB
	view.CPUCoreLimit = float64(c.NanoCPUs) / 1e9

	ports := append([]PortBinding(nil), c.Ports...)
	sort.SliceStable(ports, func(i, j int) bool { return ports[i].ContainerPort < ports[j].ContainerPort })
	for _, p := range ports {
		if p.HostPort != 0 {
			view.HostPort = strconv.Itoa(p.HostPort)
			break
		}
	}
	return view
}

// Metrics takes one utilization sample from a running container.
func (o *Orchestrator) Metrics(ctx context.Context, id string) (domain.MetricSample, error) {
	info, err := o.docker.InspectContainer(ctx, id)
	if err != nil {
		if errors.Is(err, ErrContainerNotFound) {
			return domain.MetricSample{}, &monitoring.SamplingError{Kind: monitoring.NotFound, ContainerID: id}
		}
		return domain.MetricSample{}, err
	}
	if info.Status != ContainerStatusRunning {
		return domain.MetricSample{}, &monitoring.SamplingError{Kind: monitoring.NotRunning, ContainerID: id}
	}

	raw, err := o.docker.ContainerStats(ctx, info.ID)
	if err != nil {
		if errors.Is(err, ErrContainerNotFound) {
			return domain.MetricSample{}, &monitoring.SamplingError{Kind: monitoring.NotFound, ContainerID: id}
		}
		return domain.MetricSample{}, err
	}
	return monitoring.Sample(*raw), nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
