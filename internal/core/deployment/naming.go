package deployment

import (
	"fmt"
	"path/filepath"
)

// =============================================================================
// Resource Naming Functions
// =============================================================================

// DataDirName returns the host directory name for a container's primary volume.
// Pattern: {containerName}_data
//
// Example:
//
//	DataDirName("mc1") // returns "mc1_data"
func DataDirName(containerName string) string {
	return fmt.Sprintf("%s_data", containerName)
}

// VolumeHostPath returns the absolute-or-base-relative host path of a container's
// primary volume. containerName must already be validated.
func VolumeHostPath(baseDir, containerName string) string {
	return filepath.Join(baseDir, DataDirName(containerName))
}

// PortForwardDescription is the label attached to a gateway port mapping.
func PortForwardDescription(containerName string) string {
	return fmt.Sprintf("Docker %s", containerName)
}
