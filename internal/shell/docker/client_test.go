package docker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func skipIfNoDocker(t *testing.T) Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping docker integration test in short mode")
	}
	cli, err := NewDockerClient("")
	if err != nil {
		t.Skip("Docker not available:", err)
	}
	if err := cli.Ping(context.Background()); err != nil {
		cli.Close()
		t.Skip("Docker not reachable:", err)
	}
	return cli
}

func cleanupContainer(t *testing.T, cli Client, containerID string) {
	t.Helper()
	ctx := context.Background()
	timeout := 5 * time.Second
	_ = cli.StopContainer(ctx, containerID, &timeout)
	_ = cli.RemoveContainer(ctx, containerID, RemoveOptions{Force: true})
}

func ensureAlpine(t *testing.T, cli Client) {
	t.Helper()
	ctx := context.Background()
	exists, err := cli.ImageExists(ctx, testImage)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, cli.PullImage(ctx, testImage))
	}
}

// Test container name prefix to identify test containers
const (
	testPrefix = "launchpad-test-"
	testImage  = "alpine:latest"
)

// =============================================================================
// Connection Tests
// =============================================================================

func TestPing_Success(t *testing.T) {
	cli := skipIfNoDocker(t)
	defer cli.Close()

	assert.NoError(t, cli.Ping(context.Background()))
}

// =============================================================================
// Container Tests
// =============================================================================

func TestContainerFullLifecycle(t *testing.T) {
	cli := skipIfNoDocker(t)
	defer cli.Close()
	ensureAlpine(t, cli)
	ctx := context.Background()

	name := testPrefix + "lifecycle"
	cleanupContainer(t, cli, name)

	id, err := cli.CreateContainer(ctx, ContainerSpec{
		Name:   name,
		Image:  testImage,
		Env:    map[string]string{"FOO": "bar"},
		Labels: map[string]string{LabelManaged: "true"},
		Ports:  []PortBinding{{ContainerPort: 80, Protocol: "tcp"}},
		Volumes: []VolumeMount{
			{Source: t.TempDir(), Target: "/data"},
		},
		RestartPolicy: RestartPolicy{Name: "unless-stopped"},
	})
	require.NoError(t, err)
	defer cleanupContainer(t, cli, id)

	info, err := cli.InspectContainer(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, id, info.ID)
	assert.Equal(t, name, info.Name)
	assert.Equal(t, ContainerStatusCreated, info.Status)
	assert.Equal(t, "true", info.Labels[LabelManaged])
	assert.Zero(t, info.MemoryLimit)

	require.NoError(t, cli.StartContainer(ctx, id))

	list, err := cli.ListContainers(ctx, ListOptions{
		All:     true,
		Filters: map[string]string{"label": LabelManaged + "=true"},
	})
	require.NoError(t, err)
	var found bool
	for _, c := range list {
		assert.Equal(t, "true", c.Labels[LabelManaged])
		found = found || c.ID == id
	}
	assert.True(t, found, "managed container is listed")

	timeout := time.Second
	require.NoError(t, cli.StopContainer(ctx, id, &timeout))
	require.NoError(t, cli.RemoveContainer(ctx, id, RemoveOptions{Force: true}))

	_, err = cli.InspectContainer(ctx, id)
	assert.ErrorIs(t, err, ErrContainerNotFound)
}

func TestContainerStats_Created(t *testing.T) {
	cli := skipIfNoDocker(t)
	defer cli.Close()
	ensureAlpine(t, cli)
	ctx := context.Background()

	name := testPrefix + "stats"
	cleanupContainer(t, cli, name)

	id, err := cli.CreateContainer(ctx, ContainerSpec{Name: name, Image: testImage})
	require.NoError(t, err)
	defer cleanupContainer(t, cli, id)

	// alpine exits immediately without a command; stats still decode.
	raw, err := cli.ContainerStats(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, raw)
}

func TestNotFoundErrors(t *testing.T) {
	cli := skipIfNoDocker(t)
	defer cli.Close()
	ctx := context.Background()

	missing := testPrefix + "does-not-exist"
	timeout := time.Second

	tests := []struct {
		name string
		call func() error
	}{
		{"start", func() error { return cli.StartContainer(ctx, missing) }},
		{"stop", func() error { return cli.StopContainer(ctx, missing, &timeout) }},
		{"remove", func() error { return cli.RemoveContainer(ctx, missing, RemoveOptions{}) }},
		{"inspect", func() error { _, err := cli.InspectContainer(ctx, missing); return err }},
		{"stats", func() error { _, err := cli.ContainerStats(ctx, missing); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), ErrContainerNotFound)
		})
	}
}

// =============================================================================
// Image Tests
// =============================================================================

func TestPullImage_NotFound(t *testing.T) {
	cli := skipIfNoDocker(t)
	defer cli.Close()

	err := cli.PullImage(context.Background(), "launchpad/this-image-does-not-exist-12345:latest")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestImageExists_False(t *testing.T) {
	cli := skipIfNoDocker(t)
	defer cli.Close()

	exists, err := cli.ImageExists(context.Background(), "launchpad/this-image-does-not-exist-12345:latest")
	require.NoError(t, err)
	assert.False(t, exists)
}

// =============================================================================
// Error Type Tests
// =============================================================================

func TestDockerError_Error(t *testing.T) {
	err := NewDockerError("StartContainer", "container", "abc123", "container not found", ErrContainerNotFound)
	assert.Equal(t, "StartContainer container abc123: container not found", err.Error())

	err = NewDockerError("ListContainers", "container", "", "boom", nil)
	assert.Equal(t, "ListContainers container: boom", err.Error())

	err = NewDockerError("Ping", "", "", "unreachable", ErrConnectionFailed)
	assert.Equal(t, "Ping: unreachable", err.Error())
}

func TestDockerError_Unwrap(t *testing.T) {
	err := NewDockerError("StopContainer", "container", "abc", "container not found", ErrContainerNotFound)
	assert.True(t, errors.Is(err, ErrContainerNotFound))
	assert.False(t, errors.Is(err, ErrImageNotFound))
}

func TestLaunchError(t *testing.T) {
	cause := NewDockerError("PullImage", "image", "nope", "image not found", ErrImageNotFound)
	err := &LaunchError{Kind: LaunchImageNotFound, ContainerName: "mc1", Image: "nope", Err: cause}
	assert.Equal(t, "image nope not found", err.Error())
	assert.ErrorIs(t, err, ErrImageNotFound)
	assert.True(t, IsLaunchError(err, LaunchImageNotFound))
	assert.False(t, IsLaunchError(err, LaunchRuntimeFailure))

	err = &LaunchError{Kind: LaunchRuntimeFailure, ContainerName: "mc1", Err: errors.New("boom")}
	assert.Equal(t, "launch mc1: boom", err.Error())
	assert.False(t, IsLaunchError(errors.New("plain"), LaunchRuntimeFailure))
}

func TestLabelConstants(t *testing.T) {
	assert.Equal(t, "com.launchpad.managed", LabelManaged)
	assert.Equal(t, "com.launchpad.template", LabelTemplate)
	assert.Equal(t, "com.launchpad.memory", LabelMemory)
}
