package docker

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Container errors
	ErrContainerNotFound       = errors.New("container not found")
	ErrContainerAlreadyExists  = errors.New("container already exists")
	ErrContainerNotRunning     = errors.New("container is not running")
	ErrContainerAlreadyRunning = errors.New("container is already running")

	// Image errors
	ErrImageNotFound   = errors.New("image not found")
	ErrImagePullFailed = errors.New("image pull failed")

	// Connection errors
	ErrPortAlreadyAllocated = errors.New("port is already allocated")
	ErrConnectionFailed     = errors.New("docker connection failed")
)

// DockerError wraps errors with additional context.
type DockerError struct {
	Op      string // Operation that failed
	Entity  string // Entity type (container, image)
	ID      string // Entity ID if applicable
	Message string
	Err     error
}

func (e *DockerError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %s", e.Op, e.Entity, e.ID, e.Message)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *DockerError) Unwrap() error {
	return e.Err
}

// NewDockerError creates a new DockerError.
func NewDockerError(op, entity, id, message string, err error) *DockerError {
	return &DockerError{
		Op:      op,
		Entity:  entity,
		ID:      id,
		Message: message,
		Err:     err,
	}
}

// =============================================================================
// Launch Errors
// =============================================================================

// LaunchErrorKind classifies why a launch failed.
type LaunchErrorKind string

const (
	// LaunchImageNotFound means the runtime could not find or pull the image.
	LaunchImageNotFound LaunchErrorKind = "image_not_found"
	// LaunchRuntimeFailure covers every other runtime failure.
	LaunchRuntimeFailure LaunchErrorKind = "runtime"
)

// LaunchError is returned by Orchestrator.Launch.
type LaunchError struct {
	Kind          LaunchErrorKind
	ContainerName string
	Image         string
	Err           error
}

func (e *LaunchError) Error() string {
	if e.Kind == LaunchImageNotFound {
		return fmt.Sprintf("image %s not found", e.Image)
	}
	return fmt.Sprintf("launch %s: %v", e.ContainerName, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsLaunchError reports whether err is a *LaunchError of the given kind.
func IsLaunchError(err error, kind LaunchErrorKind) bool {
	var le *LaunchError
	return errors.As(err, &le) && le.Kind == kind
}
