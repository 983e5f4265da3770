// Package domain contains the core domain types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrTemplateNameRequired  = errors.New("template name is required")
	ErrTemplateImageRequired = errors.New("template image is required")
	ErrContainerNameArg      = errors.New("template must declare exactly one container name argument")
	ErrArgLabelRequired      = errors.New("argument label is required")
	ErrArgDuplicate          = errors.New("duplicate argument label")
	ErrArgInvalidKind        = errors.New("invalid argument kind")
	ErrUnknownPlaceholder    = errors.New("unknown placeholder")
	ErrUnderivedPlaceholder  = errors.New("placeholder has no source argument")
	ErrInvalidInternalPort   = errors.New("internal port must be an integer between 1 and 65535")
	ErrInvalidMountPath      = errors.New("container mount path must be absolute")
	ErrInvalidHostPath       = errors.New("host volume path must be absolute")
)

// =============================================================================
// Substitution Keys
// =============================================================================

// SubstitutionKey is the closed set of placeholder names a template may reference.
type SubstitutionKey string

const (
	KeyName   SubstitutionKey = "NAME"
	KeyPort   SubstitutionKey = "PORT"
	KeyRAM    SubstitutionKey = "RAM"
	KeyVolume SubstitutionKey = "VOLUME"
)

// IsValid checks if the key is one of the known substitution keys.
func (k SubstitutionKey) IsValid() bool {
	switch k {
	case KeyName, KeyPort, KeyRAM, KeyVolume:
		return true
	default:
		return false
	}
}

// Token returns the placeholder form of the key, e.g. "${PORT}".
func (k SubstitutionKey) Token() string {
	return "${" + string(k) + "}"
}

// placeholderRegex matches a value that is exactly one ${KEY} token.
var placeholderRegex = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// ParsePlaceholder reports whether value is syntactically a placeholder token and
// returns the key it names. The key is not checked against the known set.
func ParsePlaceholder(value string) (SubstitutionKey, bool) {
	m := placeholderRegex.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	return SubstitutionKey(m[1]), true
}

// =============================================================================
// Argument Specs
// =============================================================================

// ArgKind declares what a user-facing field feeds into.
type ArgKind string

const (
	ArgKindContainerName ArgKind = "container_name"
	ArgKindPort          ArgKind = "port"
	ArgKindMemory        ArgKind = "memory"
	ArgKindText          ArgKind = "text"
)

// IsValid checks if the argument kind is valid.
func (k ArgKind) IsValid() bool {
	switch k {
	case ArgKindContainerName, ArgKindPort, ArgKindMemory, ArgKindText:
		return true
	default:
		return false
	}
}

// Key returns the substitution key fed by this kind of argument.
// Text arguments are shown to the user but never substituted.
func (k ArgKind) Key() (SubstitutionKey, bool) {
	switch k {
	case ArgKindContainerName:
		return KeyName, true
	case ArgKindPort:
		return KeyPort, true
	case ArgKindMemory:
		return KeyRAM, true
	default:
		return "", false
	}
}

// ArgSpec is one field of a template's input schema.
type ArgSpec struct {
	Label   string  `json:"label" yaml:"label"`
	Kind    ArgKind `json:"kind" yaml:"kind"`
	Default string  `json:"default" yaml:"default"`
}

// =============================================================================
// Service Template
// =============================================================================

// ServiceTemplate is a declarative description of a launchable service.
//
// Ports map a placeholder token to the internal container port, Environment maps
// variable names to literals or placeholder tokens, and Volumes map a placeholder
// token or an absolute host path to the container mount path.
type ServiceTemplate struct {
	Name        string            `json:"name" yaml:"name"`
	Image       string            `json:"image" yaml:"image"`
	Args        []ArgSpec         `json:"args" yaml:"args"`
	Ports       map[string]string `json:"ports" yaml:"ports"`
	Environment map[string]string `json:"environment" yaml:"environment"`
	Volumes     map[string]string `json:"volumes" yaml:"volumes"`
}

// ArgFor returns the first argument of the given kind.
func (t *ServiceTemplate) ArgFor(kind ArgKind) (ArgSpec, bool) {
	for _, a := range t.Args {
		if a.Kind == kind {
			return a, true
		}
	}
	return ArgSpec{}, false
}

// Validate checks the template's structure and that every placeholder it references
// can be derived from its arguments.
func (t *ServiceTemplate) Validate() error {
	if t.Name == "" {
		return ErrTemplateNameRequired
	}
	if t.Image == "" {
		return ErrTemplateImageRequired
	}

	derivable := map[SubstitutionKey]bool{KeyVolume: true}
	seen := make(map[string]bool, len(t.Args))
	nameArgs := 0
	for _, a := range t.Args {
		if a.Label == "" {
			return ErrArgLabelRequired
		}
		if seen[a.Label] {
			return fmt.Errorf("%w: %q", ErrArgDuplicate, a.Label)
		}
		seen[a.Label] = true
		if !a.Kind.IsValid() {
			return fmt.Errorf("%w: %q", ErrArgInvalidKind, a.Kind)
		}
		if a.Kind == ArgKindContainerName {
			nameArgs++
		}
		if key, ok := a.Kind.Key(); ok {
			derivable[key] = true
		}
	}
	if nameArgs != 1 {
		return ErrContainerNameArg
	}

	check := func(where, value string) error {
		key, ok := ParsePlaceholder(value)
		if !ok {
			return nil
		}
		if !key.IsValid() {
			return fmt.Errorf("%s: %w %s", where, ErrUnknownPlaceholder, value)
		}
		if !derivable[key] {
			return fmt.Errorf("%s: %w %s", where, ErrUnderivedPlaceholder, value)
		}
		return nil
	}

	for token, internal := range t.Ports {
		if err := check("ports", token); err != nil {
			return err
		}
		if p, err := strconv.Atoi(internal); err != nil || p < 1 || p > 65535 {
			return fmt.Errorf("ports %s: %w", token, ErrInvalidInternalPort)
		}
	}
	for name, value := range t.Environment {
		if err := check("environment "+name, value); err != nil {
			return err
		}
	}
	for token, target := range t.Volumes {
		if err := check("volumes", token); err != nil {
			return err
		}
		if _, ok := ParsePlaceholder(token); !ok && !path.IsAbs(token) {
			return fmt.Errorf("volumes %s: %w", token, ErrInvalidHostPath)
		}
		if len(target) == 0 || target[0] != '/' {
			return fmt.Errorf("volumes %s: %w", token, ErrInvalidMountPath)
		}
	}
	return nil
}
