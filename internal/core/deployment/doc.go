// Package deployment provides pure functions for deployment planning.
//
// This package turns a service template plus the user's inputs into a concrete
// launch configuration. All functions are pure (no I/O, no side effects); the
// imperative shell (internal/shell/launcher) creates volume directories and hands the
// configuration to the Docker orchestrator.
//
// # Functions
//
//   - Resolve: template + inputs → LaunchConfig or *ConfigError
//   - Naming: DataDirName, VolumeHostPath
//   - Variables: placeholder lookup against resolved substitution values
//   - Ports: PortKey and host port parsing
//
// # Usage
//
//	cfg, err := deployment.Resolve(&tpl, inputs, deployment.Options{VolumeBaseDir: base})
//	if deployment.IsConfigError(err, deployment.InvalidPort) { ... }
package deployment
