package injector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/droneforge/internal/config"
	"github.com/zeusync/droneforge/internal/core/catalog"
	"github.com/zeusync/droneforge/internal/core/observability/log"
)

func TestProvideCatalogDefault(t *testing.T) {
	cat, err := ProvideCatalog(config.Default(), log.NewNop())
	require.NoError(t, err)
	assert.True(t, cat.Guided())
	assert.True(t, cat.Has(catalog.BottomPlate))
}

func TestProvideCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
parts:
  - kind: wheel
    label: Wheel
    category: other
  - kind: axle
    category: frame
sequence:
  - id: first_axle
    kind: axle
`), 0o644))

	logPath := filepath.Join(t.TempDir(), "out.log")
	logger := log.NewWithOutput(log.LevelInfo, logPath)

	cfg := config.Default()
	cfg.CatalogPath = path
	cat, err := ProvideCatalog(cfg, logger)
	require.NoError(t, err)
	assert.True(t, cat.Guided())
	assert.True(t, cat.Has("wheel"))

	require.NoError(t, logger.Sync())
	out, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"parts":2`)
	assert.Contains(t, string(out), `"steps":1`)

	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = ProvideCatalog(cfg, log.NewNop())
	assert.Error(t, err)
}

func TestInitializeServer(t *testing.T) {
	srv, err := InitializeServer(config.Default())
	require.NoError(t, err)
	require.NotNil(t, srv)
	assert.NotNil(t, srv.Handler())
}
