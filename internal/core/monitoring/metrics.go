// Package monitoring provides pure functions for container monitoring logic.
// This package contains NO I/O.
package monitoring

import (
	"errors"
	"fmt"
	"time"

	"github.com/artpar/launchpad/internal/core/domain"
)

// =============================================================================
// Sampling Errors
// =============================================================================

// SamplingErrorKind classifies why no sample could be taken.
type SamplingErrorKind string

const (
	NotFound   SamplingErrorKind = "not_found"
	NotRunning SamplingErrorKind = "not_running"
)

var (
	ErrNotFound   = errors.New("container not found")
	ErrNotRunning = errors.New("container is not running")
)

// SamplingError reports a container that cannot produce stats.
type SamplingError struct {
	Kind        SamplingErrorKind
	ContainerID string
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("sample %s: %s", e.ContainerID, e.Unwrap())
}

func (e *SamplingError) Unwrap() error {
	if e.Kind == NotRunning {
		return ErrNotRunning
	}
	return ErrNotFound
}

// =============================================================================
// Raw Stats
// =============================================================================

// RawStats holds the cumulative counters of one stats reading: the current values
// and the runtime's previous reading of the same counters.
type RawStats struct {
	CPUTotalUsage    uint64
	PreCPUTotalUsage uint64
	SystemUsage      uint64
	PreSystemUsage   uint64
	OnlineCPUs       uint32
	MemoryUsage      uint64
	MemoryLimit      uint64
	Read             time.Time
}

const bytesPerMB = 1024 * 1024

// =============================================================================
// Sampling (Pure Functions)
// =============================================================================

// Sample converts a raw reading into utilization percentages.
//
// CPU percent is (cpu delta / system delta) × online CPUs × 100 and is 0 unless the
// system delta is positive. Zero online CPUs count as one. RAM percent is 0 unless
// the memory limit is positive.
func Sample(raw RawStats) domain.MetricSample {
	sample := domain.MetricSample{Timestamp: raw.Read}

	cpuDelta := float64(raw.CPUTotalUsage) - float64(raw.PreCPUTotalUsage)
	systemDelta := float64(raw.SystemUsage) - float64(raw.PreSystemUsage)
	cpuCount := float64(raw.OnlineCPUs)
	if cpuCount == 0 {
		cpuCount = 1
	}
	if systemDelta > 0 && cpuDelta > 0 {
		sample.CPUPercent = (cpuDelta / systemDelta) * cpuCount * 100.0
	}

	if raw.MemoryLimit > 0 {
		sample.RAMPercent = float64(raw.MemoryUsage) / float64(raw.MemoryLimit) * 100.0
	}
	sample.RAMUsedMB = float64(raw.MemoryUsage) / bytesPerMB

	return sample
}
