package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/droneforge/internal/core/assembly"
	"github.com/zeusync/droneforge/internal/core/observability/log"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.True(t, c.Guided)
	assert.Equal(t, 5.0, c.MaxElevation)
	assert.Equal(t, log.LevelInfo, c.Level())
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	c, err := LoadYAML(strings.NewReader(`
listen_addr: 0.0.0.0:9000
log_level: debug
guided: false
carry_on_spawn: true
spawn_point: {x: 2, y: 0, z: -2}
history_limit: 10
shutdown_timeout: 2s
`))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", c.ListenAddr)
	assert.Equal(t, log.LevelDebug, c.Level())
	assert.False(t, c.Guided)
	assert.True(t, c.CarryOnSpawn)
	assert.Equal(t, assembly.Vec3{X: 2, Z: -2}, c.SpawnPoint)
	assert.Equal(t, 10, c.HistoryLimit)
	assert.Equal(t, 2*time.Second, c.ShutdownTimeout)
	assert.Equal(t, 1024, c.ReadBufferSize)
	assert.Len(t, c.StoreOptions(), 4)
}

func TestLoadYAMLEmpty(t *testing.T) {
	c, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("history_limit: 0\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadYAML(strings.NewReader("max_elevation: -1\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadYAML(strings.NewReader("listen_addr: [\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: 127.0.0.1:0\n"), 0o644))
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", c.ListenAddr)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
