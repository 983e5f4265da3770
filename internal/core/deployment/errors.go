package deployment

import (
	"errors"
	"fmt"
)

// =============================================================================
// Config Errors
// =============================================================================

// ConfigErrorKind classifies why a template and inputs could not be resolved.
type ConfigErrorKind string

const (
	MissingRequiredField  ConfigErrorKind = "missing_required_field"
	InvalidPort           ConfigErrorKind = "invalid_port"
	InvalidValue          ConfigErrorKind = "invalid_value"
	UnresolvedPlaceholder ConfigErrorKind = "unresolved_placeholder"
)

// ConfigError is returned by Resolve. No partial configuration accompanies it.
type ConfigError struct {
	Kind    ConfigErrorKind
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error (%s) %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("config error (%s): %s", e.Kind, e.Message)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(kind ConfigErrorKind, field, message string) *ConfigError {
	return &ConfigError{Kind: kind, Field: field, Message: message}
}

// IsConfigError reports whether err is a ConfigError of the given kind.
// An empty kind matches any ConfigError.
func IsConfigError(err error, kind ConfigErrorKind) bool {
	var cErr *ConfigError
	if !errors.As(err, &cErr) {
		return false
	}
	return kind == "" || cErr.Kind == kind
}
