package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/artpar/launchpad/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const nginxYAML = `
templates:
  - name: Static Site
    image: nginx:alpine
    args:
      - label: Name
        kind: container_name
        default: site
      - label: Port
        kind: port
        default: "8080"
    ports:
      "${PORT}": "80"
    volumes:
      "${VOLUME}": /usr/share/nginx/html
`

// =============================================================================
// Built-in Tests
// =============================================================================

func TestNewStore_Builtin(t *testing.T) {
	s := NewStore()

	tpl, err := s.Get(MinecraftServer)
	require.NoError(t, err)
	assert.Equal(t, "itzg/minecraft-server", tpl.Image)
	require.Len(t, tpl.Args, 3)
	assert.Equal(t, "Nome do Container", tpl.Args[0].Label)
	assert.Equal(t, "Porta Local (Host)", tpl.Args[1].Label)
	assert.Equal(t, "Memória RAM (ex: 2G)", tpl.Args[2].Label)
	assert.Equal(t, []string{MinecraftServer}, s.Names())
}

func TestGet_NotFound(t *testing.T) {
	_, err := NewStore().Get("Factorio")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := NewStore()
	tpl, err := s.Get(MinecraftServer)
	require.NoError(t, err)

	tpl.Environment["EULA"] = "FALSE"
	tpl.Args[0].Default = "changed"

	again, err := s.Get(MinecraftServer)
	require.NoError(t, err)
	assert.Equal(t, "TRUE", again.Environment["EULA"])
	assert.Equal(t, "meu-minecraft", again.Args[0].Default)
}

// =============================================================================
// Registration Tests
// =============================================================================

func TestRegister_RejectsInvalid(t *testing.T) {
	s := NewStore()
	err := s.Register(domain.ServiceTemplate{
		Name:        "Broken",
		Image:       "busybox",
		Args:        []domain.ArgSpec{{Label: "Name", Kind: domain.ArgKindContainerName}},
		Environment: map[string]string{"HOME": "${HOME}"},
	})
	assert.ErrorIs(t, err, domain.ErrUnknownPlaceholder)

	_, err = s.Get("Broken")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestLoadFile(t *testing.T) {
	s := NewStore()
	n, err := s.LoadFile(writeFile(t, nginxYAML))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tpl, err := s.Get("Static Site")
	require.NoError(t, err)
	assert.Equal(t, "nginx:alpine", tpl.Image)
	assert.Equal(t, domain.ArgKindPort, tpl.Args[1].Kind)
	assert.Equal(t, "8080", tpl.Args[1].Default)
	assert.Equal(t, map[string]string{"${PORT}": "80"}, tpl.Ports)
	assert.Equal(t, []string{MinecraftServer, "Static Site"}, s.Names())
}

func TestLoadFile_OverridesBuiltin(t *testing.T) {
	s := NewStore()
	_, err := s.LoadFile(writeFile(t, `
templates:
  - name: Minecraft Server
    image: itzg/minecraft-server:java21
    args:
      - label: Name
        kind: container_name
        default: mc
`))
	require.NoError(t, err)

	tpl, err := s.Get(MinecraftServer)
	require.NoError(t, err)
	assert.Equal(t, "itzg/minecraft-server:java21", tpl.Image)
}

func TestLoadFile_AllOrNothing(t *testing.T) {
	s := NewStore()
	_, err := s.LoadFile(writeFile(t, nginxYAML+`
  - name: Bad
    image: busybox
    args: []
`))
	assert.ErrorIs(t, err, domain.ErrContainerNameArg)
	assert.Equal(t, []string{MinecraftServer}, s.Names())
}

func TestLoadFile_Errors(t *testing.T) {
	s := NewStore()

	_, err := s.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = s.LoadFile(writeFile(t, "templates: [unterminated"))
	assert.Error(t, err)
}

func TestMarshal_RoundTripsThroughLoadFile(t *testing.T) {
	data, err := NewStore().Marshal()
	require.NoError(t, err)

	var file templateFile
	require.NoError(t, yaml.Unmarshal(data, &file))
	require.Len(t, file.Templates, 1)
	assert.Equal(t, Builtin()[0], file.Templates[0])

	other := &Store{templates: map[string]domain.ServiceTemplate{}}
	n, err := other.LoadFile(writeFile(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
