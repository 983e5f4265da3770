package api

import "github.com/artpar/launchpad/internal/core/domain"

// =============================================================================
// Request Types
// =============================================================================

// LaunchRequest is the request body for launching a template.
// User input values may be JSON strings or numbers.
type LaunchRequest struct {
	ServiceName string         `json:"service_name"`
	UserInputs  map[string]any `json:"user_inputs"`
}

// =============================================================================
// Response Types
// =============================================================================

// LaunchResponse is returned once a launch job is queued.
type LaunchResponse struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// MetricsResponse wraps one utilization sample.
type MetricsResponse struct {
	Status  string              `json:"status"`
	Metrics domain.MetricSample `json:"metrics"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Error codes.
const (
	codeValidation         = "validation_error"
	codeRuntimeUnavailable = "runtime_unavailable"
	codeTemplateNotFound   = "template_not_found"
	codeJobNotFound        = "job_not_found"
	codeContainerNotFound  = "container_not_found"
	codeNotRunning         = "container_not_running"
	codeInternal           = "internal_error"
)
