// Package templates holds the registry of launchable service templates.
package templates

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/artpar/launchpad/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// ErrTemplateNotFound is returned when no template has the requested name.
var ErrTemplateNotFound = errors.New("template not found")

// MinecraftServer is the name of the built-in Minecraft template.
const MinecraftServer = "Minecraft Server"

// Builtin returns the templates every registry starts with.
func Builtin() []domain.ServiceTemplate {
	return []domain.ServiceTemplate{
		{
			Name:  MinecraftServer,
			Image: "itzg/minecraft-server",
			Args: []domain.ArgSpec{
				{Label: "Nome do Container", Kind: domain.ArgKindContainerName, Default: "meu-minecraft"},
				{Label: "Porta Local (Host)", Kind: domain.ArgKindPort, Default: "25565"},
				{Label: "Memória RAM (ex: 2G)", Kind: domain.ArgKindMemory, Default: "2G"},
			},
			Ports:       map[string]string{"${PORT}": "25565"},
			Environment: map[string]string{"EULA": "TRUE", "MEMORY": "${RAM}"},
			Volumes:     map[string]string{"${VOLUME}": "/data"},
		},
	}
}

// Store is a registry of validated templates keyed by name. Templates are
// copied on the way in and out, so callers never share a template's maps.
type Store struct {
	mu        sync.RWMutex
	templates map[string]domain.ServiceTemplate
}

// NewStore creates a store holding the built-in templates.
func NewStore() *Store {
	s := &Store{templates: make(map[string]domain.ServiceTemplate)}
	for _, tpl := range Builtin() {
		if err := s.Register(tpl); err != nil {
			panic(fmt.Sprintf("invalid built-in template %q: %v", tpl.Name, err))
		}
	}
	return s
}

// Register validates tpl and adds it, replacing any template with the same name.
func (s *Store) Register(tpl domain.ServiceTemplate) error {
	if err := tpl.Validate(); err != nil {
		return fmt.Errorf("template %q: %w", tpl.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tpl.Name] = clone(tpl)
	return nil
}

// templateFile is the on-disk format read by LoadFile.
type templateFile struct {
	Templates []domain.ServiceTemplate `yaml:"templates"`
}

// LoadFile registers every template in a YAML file. Nothing is registered if
// any template in the file is invalid.
func (s *Store) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read templates file: %w", err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse templates file: %w", err)
	}

	for _, tpl := range file.Templates {
		if err := tpl.Validate(); err != nil {
			return 0, fmt.Errorf("template %q: %w", tpl.Name, err)
		}
	}
	for _, tpl := range file.Templates {
		if err := s.Register(tpl); err != nil {
			return 0, err
		}
	}
	return len(file.Templates), nil
}

// Get returns the named template.
func (s *Store) Get(name string) (domain.ServiceTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[name]
	if !ok {
		return domain.ServiceTemplate{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return clone(tpl), nil
}

// All returns every template keyed by name.
func (s *Store) All() map[string]domain.ServiceTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.ServiceTemplate, len(s.templates))
	for name, tpl := range s.templates {
		out[name] = clone(tpl)
	}
	return out
}

// Names returns the template names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.templates))
}

// Marshal renders every template as a YAML document in the LoadFile format.
func (s *Store) Marshal() ([]byte, error) {
	file := templateFile{}
	for _, name := range s.Names() {
		tpl, _ := s.Get(name)
		file.Templates = append(file.Templates, tpl)
	}
	return yaml.Marshal(file)
}

func clone(tpl domain.ServiceTemplate) domain.ServiceTemplate {
	tpl.Args = slices.Clone(tpl.Args)
	tpl.Ports = maps.Clone(tpl.Ports)
	tpl.Environment = maps.Clone(tpl.Environment)
	tpl.Volumes = maps.Clone(tpl.Volumes)
	return tpl
}
