package launcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	coredeployment "github.com/artpar/launchpad/internal/core/deployment"
	"github.com/artpar/launchpad/internal/core/domain"
	"github.com/artpar/launchpad/internal/shell/docker"
	"github.com/artpar/launchpad/internal/shell/jobs"
	"github.com/artpar/launchpad/internal/shell/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Stubs
// =============================================================================

type stubRuntime struct {
	err error
}

func (r *stubRuntime) Ping(context.Context) error { return r.err }

type stubDeployer struct {
	mu      sync.Mutex
	configs []*coredeployment.LaunchConfig
	err     error
}

func (d *stubDeployer) Launch(_ context.Context, cfg *coredeployment.LaunchConfig, progress docker.ProgressFunc) (*docker.LaunchResult, error) {
	d.mu.Lock()
	d.configs = append(d.configs, cfg)
	d.mu.Unlock()

	progress(docker.PhaseCleaning)
	progress(docker.PhasePortForwarding)
	progress(docker.PhaseStarting)
	if d.err != nil {
		return nil, d.err
	}
	primary, _ := cfg.PrimaryPort()
	return &docker.LaunchResult{
		ContainerID:        "0123456789abcdef",
		ContainerName:      cfg.ContainerName,
		HostPort:           primary.HostPort,
		PortForwardMessage: "no compatible gateway found",
	}, nil
}

type fixture struct {
	svc      *Service
	runtime  *stubRuntime
	deployer *stubDeployer
	tracker  *jobs.Tracker
	baseDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		runtime:  &stubRuntime{},
		deployer: &stubDeployer{},
		tracker:  jobs.NewTracker(logger),
		baseDir:  t.TempDir(),
	}
	svc, err := NewService(templates.NewStore(), f.runtime, f.deployer, f.tracker, Config{VolumeBaseDir: f.baseDir}, logger)
	require.NoError(t, err)
	f.svc = svc
	return f
}

// pollUntilTerminal polls like a client would until the job finishes.
func pollUntilTerminal(t *testing.T, tr *jobs.Tracker, id string) domain.JobView {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		view, err := tr.Poll(id)
		require.NoError(t, err)
		if view.Status.IsTerminal() {
			return view
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return domain.JobView{}
}

var mc1Inputs = map[string]string{
	"Nome do Container":    "mc1",
	"Porta Local (Host)":   "25566",
	"Memória RAM (ex: 2G)": "4G",
}

// =============================================================================
// Launch Tests
// =============================================================================

func TestLaunch_Minecraft(t *testing.T) {
	f := newFixture(t)

	id, err := f.svc.Launch(context.Background(), templates.MinecraftServer, mc1Inputs)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	view := pollUntilTerminal(t, f.tracker, id)
	assert.Equal(t, domain.JobSuccess, view.Status)
	assert.Equal(t, "Container mc1 started. Port forwarding: no compatible gateway found", view.Message)
	require.NotNil(t, view.Details)
	assert.Equal(t, 25566, view.Details.HostPort)
	assert.Equal(t, "mc1", view.Details.ContainerName)
	assert.False(t, view.Details.PortForwardOK)

	require.Len(t, f.deployer.configs, 1)
	cfg := f.deployer.configs[0]
	assert.Equal(t, map[string]int{"25565/tcp": 25566}, cfg.PortMap())
	assert.Equal(t, "4G", cfg.Env["MEMORY"])

	dataDir := filepath.Join(f.baseDir, "mc1_data")
	info, err := os.Stat(dataDir)
	require.NoError(t, err, "volume directory is created before launch")
	assert.True(t, info.IsDir())
	assert.Equal(t, dataDir, cfg.Volumes[0].HostPath)
}

func TestLaunch_UnknownTemplate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Launch(context.Background(), "Factorio", nil)
	assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
	assert.Zero(t, f.tracker.Len())
}

func TestLaunch_RuntimeUnavailable(t *testing.T) {
	f := newFixture(t)
	f.runtime.err = errors.New("connection refused")

	_, err := f.svc.Launch(context.Background(), templates.MinecraftServer, mc1Inputs)
	assert.ErrorIs(t, err, ErrRuntimeUnavailable)
	assert.Zero(t, f.tracker.Len())
}

func TestLaunch_RuntimeCheckedBeforeTemplate(t *testing.T) {
	f := newFixture(t)
	f.runtime.err = errors.New("connection refused")

	_, err := f.svc.Launch(context.Background(), "Factorio", nil)
	assert.ErrorIs(t, err, ErrRuntimeUnavailable)
	assert.NotErrorIs(t, err, templates.ErrTemplateNotFound)
	assert.Zero(t, f.tracker.Len())
}

func TestLaunch_ConfigErrorFailsJobBeforeRuntime(t *testing.T) {
	f := newFixture(t)

	id, err := f.svc.Launch(context.Background(), templates.MinecraftServer, map[string]string{
		"Porta Local (Host)": "not-a-port",
	})
	require.NoError(t, err)

	view := pollUntilTerminal(t, f.tracker, id)
	assert.Equal(t, domain.JobError, view.Status)
	assert.Contains(t, view.Message, string(coredeployment.InvalidPort))
	assert.Empty(t, f.deployer.configs, "no runtime mutation on config errors")

	entries, err := os.ReadDir(f.baseDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLaunch_DeployerErrorFailsJob(t *testing.T) {
	f := newFixture(t)
	f.deployer.err = &docker.LaunchError{Kind: docker.LaunchImageNotFound, Image: "itzg/minecraft-server"}

	id, err := f.svc.Launch(context.Background(), templates.MinecraftServer, mc1Inputs)
	require.NoError(t, err)

	view := pollUntilTerminal(t, f.tracker, id)
	assert.Equal(t, domain.JobError, view.Status)
	assert.Equal(t, "image itzg/minecraft-server not found", view.Message)
	assert.Nil(t, view.Details)
}

func TestLaunch_TerminalResultConsumedOnce(t *testing.T) {
	f := newFixture(t)

	id, err := f.svc.Launch(context.Background(), templates.MinecraftServer, mc1Inputs)
	require.NoError(t, err)
	pollUntilTerminal(t, f.tracker, id)

	_, err = f.tracker.Poll(id)
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
}

// =============================================================================
// Status Tests
// =============================================================================

func TestStatus(t *testing.T) {
	f := newFixture(t)

	st := f.svc.Status(context.Background())
	assert.True(t, st.RuntimeConnected)
	assert.Contains(t, st.Templates, templates.MinecraftServer)

	f.runtime.err = errors.New("down")
	assert.False(t, f.svc.Status(context.Background()).RuntimeConnected)
}

func TestPhaseMessage(t *testing.T) {
	assert.Equal(t, "Removing any existing container mc1.", phaseMessage(docker.PhaseCleaning, "mc1"))
	assert.Equal(t, "Requesting port forwarding.", phaseMessage(docker.PhasePortForwarding, "mc1"))
	assert.Equal(t, "Starting container mc1.", phaseMessage(docker.PhaseStarting, "mc1"))
}

func TestNewService_AbsoluteBaseDir(t *testing.T) {
	svc, err := NewService(templates.NewStore(), &stubRuntime{}, &stubDeployer{}, jobs.NewTracker(nil), Config{VolumeBaseDir: "data/volumes"}, nil)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(svc.baseDir))
}
