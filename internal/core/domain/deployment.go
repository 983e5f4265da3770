package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// =============================================================================
// Deployment Errors
// =============================================================================

var (
	ErrContainerNameRequired = errors.New("container name is required")
	ErrContainerNameInvalid  = errors.New("container name may only contain letters, digits, '_', '.' and '-', and must start with a letter or digit")
)

// containerNameRegex is the runtime's own container name pattern, capped in length.
var containerNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]{0,127}$`)

// ValidateContainerName checks that name is safe to use as a runtime resource name
// and as a file system path component.
func ValidateContainerName(name string) error {
	if name == "" {
		return ErrContainerNameRequired
	}
	if !containerNameRegex.MatchString(name) || strings.Contains(name, "..") {
		return ErrContainerNameInvalid
	}
	return nil
}

// =============================================================================
// Deployment Types
// =============================================================================

// DeploymentType is a heuristic label shown on the dashboard.
type DeploymentType string

const (
	DeploymentTypeMinecraft  DeploymentType = "minecraft"
	DeploymentTypeDiscordBot DeploymentType = "discord-bot"
	DeploymentTypeMiniApp    DeploymentType = "mini-app"
	DeploymentTypeCustom     DeploymentType = "custom"
)

// TypeRule labels any image whose name contains Substring.
type TypeRule struct {
	Substring string
	Type      DeploymentType
}

// DefaultTypeRules is evaluated in order; the first match wins.
var DefaultTypeRules = []TypeRule{
	{Substring: "minecraft", Type: DeploymentTypeMinecraft},
	{Substring: "discord", Type: DeploymentTypeDiscordBot},
	{Substring: "node", Type: DeploymentTypeMiniApp},
	{Substring: "nginx", Type: DeploymentTypeMiniApp},
	{Substring: "httpd", Type: DeploymentTypeMiniApp},
}

// InferDeploymentType applies rules to an image reference, case-insensitively.
func InferDeploymentType(image string, rules []TypeRule) DeploymentType {
	image = strings.ToLower(image)
	for _, r := range rules {
		if strings.Contains(image, r.Substring) {
			return r.Type
		}
	}
	return DeploymentTypeCustom
}

// =============================================================================
// Deployment View
// =============================================================================

// DeploymentStatus is the two-state status shown on the dashboard.
type DeploymentStatus string

const (
	DeploymentRunning DeploymentStatus = "running"
	DeploymentStopped DeploymentStatus = "stopped"
)

// DeploymentStatusOf collapses a runtime container state into running or
// stopped. Only "running" counts as running.
func DeploymentStatusOf(state string) DeploymentStatus {
	if state == string(DeploymentRunning) {
		return DeploymentRunning
	}
	return DeploymentStopped
}

// DeploymentView is a read-only projection of a live container.
type DeploymentView struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Type          DeploymentType   `json:"type"`
	Image         string           `json:"image"`
	Status        DeploymentStatus `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	MemoryLimitMB int64            `json:"memory_mb"`
	CPUCoreLimit  float64          `json:"cpu_cores"`
	HostPort      string           `json:"host_port"`
}

// =============================================================================
// Action Result
// =============================================================================

// Action result statuses.
const (
	ActionSuccess = "success"
	ActionError   = "error"
)

// ActionResult is the uniform outcome of a synchronous container operation.
type ActionResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Succeeded builds a success result.
func Succeeded(message string) ActionResult {
	return ActionResult{Status: ActionSuccess, Message: message}
}

// Failed builds an error result.
func Failed(message string) ActionResult {
	return ActionResult{Status: ActionError, Message: message}
}
