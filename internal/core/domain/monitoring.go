package domain

import "time"

// =============================================================================
// Metric Types
// =============================================================================

// MetricSample is a point-in-time utilization reading for one container.
type MetricSample struct {
	CPUPercent float64   `json:"cpu_usage"`
	RAMPercent float64   `json:"ram_usage"`
	RAMUsedMB  float64   `json:"ram_used_mb"`
	Timestamp  time.Time `json:"timestamp"`
}
