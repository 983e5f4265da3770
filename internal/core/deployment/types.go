package deployment

import "sort"

// =============================================================================
// Launch Configuration Types
// =============================================================================

// Restart policies understood by the runtime.
const (
	RestartUnlessStopped = "unless-stopped"
	RestartAlways        = "always"
	RestartNo            = "no"
)

// Volume access modes.
const (
	ModeReadWrite = "rw"
	ModeReadOnly  = "ro"
)

// PortMapping binds an internal container port to a host port.
type PortMapping struct {
	ContainerPort int
	HostPort      int
	Protocol      string
}

// VolumeBinding bind-mounts a host directory into the container.
type VolumeBinding struct {
	HostPath      string
	ContainerPath string
	Mode          string
}

// LaunchConfig is the concrete, resolved configuration for one launch attempt.
// It is built once by Resolve and not modified afterwards.
type LaunchConfig struct {
	TemplateName  string
	Image         string
	ContainerName string
	Ports         []PortMapping
	Env           map[string]string
	Volumes       []VolumeBinding
	RestartPolicy string

	// Memory is the requested RAM in bytes, 0 when the template takes none.
	Memory int64
}

// PortMap returns the "<internal>/<proto>" → host port view of the bindings.
func (c *LaunchConfig) PortMap() map[string]int {
	m := make(map[string]int, len(c.Ports))
	for _, p := range c.Ports {
		m[PortKey(p.ContainerPort, p.Protocol)] = p.HostPort
	}
	return m
}

// PrimaryPort returns the binding with the lowest internal port.
func (c *LaunchConfig) PrimaryPort() (PortMapping, bool) {
	if len(c.Ports) == 0 {
		return PortMapping{}, false
	}
	ports := make([]PortMapping, len(c.Ports))
	copy(ports, c.Ports)
	sort.Slice(ports, func(i, j int) bool { return ports[i].ContainerPort < ports[j].ContainerPort })
	return ports[0], true
}

// VolumeMap returns the host path → binding view of the volumes.
func (c *LaunchConfig) VolumeMap() map[string]VolumeBinding {
	m := make(map[string]VolumeBinding, len(c.Volumes))
	for _, v := range c.Volumes {
		m[v.HostPath] = v
	}
	return m
}
