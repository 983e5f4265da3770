package deployment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/artpar/launchpad/internal/core/domain"
	"github.com/docker/go-units"
)

// =============================================================================
// Resolver
// =============================================================================

// Options holds deployment-wide settings that are not part of the template.
type Options struct {
	// VolumeBaseDir is the directory under which per-deployment data directories live.
	VolumeBaseDir string
}

// Resolve builds the launch configuration for tpl from the user's inputs.
//
// Inputs are keyed by argument label; a missing or blank input falls back to the
// argument's default. Only arguments whose kind feeds a substitution key take part in
// substitution. The ${VOLUME} value is derived from the container name and never
// taken from the user.
//
// Resolve returns either a complete configuration or a *ConfigError.
func Resolve(tpl *domain.ServiceTemplate, inputs map[string]string, opts Options) (*LaunchConfig, error) {
	value := func(kind domain.ArgKind) (domain.ArgSpec, string, bool) {
		arg, ok := tpl.ArgFor(kind)
		if !ok {
			return arg, "", false
		}
		v := strings.TrimSpace(inputs[arg.Label])
		if v == "" {
			v = strings.TrimSpace(arg.Default)
		}
		return arg, v, true
	}

	// 1. Container name
	nameArg, name, _ := value(domain.ArgKindContainerName)
	if name == "" {
		return nil, NewConfigError(MissingRequiredField, nameArg.Label, "container name is required")
	}
	if err := domain.ValidateContainerName(name); err != nil {
		return nil, NewConfigError(InvalidValue, nameArg.Label, err.Error())
	}

	// 2. Substitution values
	subs := Substitutions{
		domain.KeyName:   name,
		domain.KeyVolume: VolumeHostPath(opts.VolumeBaseDir, name),
	}
	if arg, v, ok := value(domain.ArgKindPort); ok && v != "" {
		if _, err := ParsePort(v); err != nil {
			return nil, NewConfigError(InvalidPort, arg.Label, err.Error())
		}
		subs[domain.KeyPort] = v
	}
	var memory int64
	if arg, v, ok := value(domain.ArgKindMemory); ok && v != "" {
		bytes, err := units.RAMInBytes(v)
		if err != nil || bytes <= 0 {
			return nil, NewConfigError(InvalidValue, arg.Label, fmt.Sprintf("%q is not a memory size", v))
		}
		memory = bytes
		subs[domain.KeyRAM] = v
	}

	cfg := &LaunchConfig{
		TemplateName:  tpl.Name,
		Image:         tpl.Image,
		ContainerName: name,
		Env:           make(map[string]string, len(tpl.Environment)),
		RestartPolicy: RestartUnlessStopped,
		Memory:        memory,
	}

	// 3. Ports
	for _, token := range sortedKeys(tpl.Ports) {
		host, err := subs.Lookup("ports", token)
		if err != nil {
			return nil, err
		}
		hostPort, err := ParsePort(host)
		if err != nil {
			return nil, NewConfigError(InvalidPort, "ports", fmt.Sprintf("host port: %v", err))
		}
		containerPort, err := ParsePort(tpl.Ports[token])
		if err != nil {
			return nil, NewConfigError(InvalidPort, "ports", fmt.Sprintf("container port: %v", err))
		}
		cfg.Ports = append(cfg.Ports, PortMapping{
			ContainerPort: containerPort,
			HostPort:      hostPort,
			Protocol:      "tcp",
		})
	}

	// 4. Environment
	for k, v := range tpl.Environment {
		resolved, err := subs.Lookup("environment "+k, v)
		if err != nil {
			return nil, err
		}
		cfg.Env[k] = resolved
	}

	// 5. Volumes
	for _, token := range sortedKeys(tpl.Volumes) {
		hostPath, err := subs.Lookup("volumes", token)
		if err != nil {
			return nil, err
		}
		cfg.Volumes = append(cfg.Volumes, VolumeBinding{
			HostPath:      hostPath,
			ContainerPath: tpl.Volumes[token],
			Mode:          ModeReadWrite,
		})
	}

	return cfg, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
