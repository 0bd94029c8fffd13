package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "127.0.0.1:8000", cfg.ListenAddr())
	assert.Equal(t, 800.0, cfg.Layout.Width)
	assert.Equal(t, 600.0, cfg.Layout.Height)
	assert.Equal(t, 100.0, cfg.Layout.LinkDistance)
	assert.Equal(t, -300.0, cfg.Layout.Charge)
	assert.Equal(t, 30.0, cfg.Layout.CollideRadius)
	assert.Equal(t, 0.3, cfg.Layout.DragAlpha)
	assert.Equal(t, "drop", cfg.Layout.LinkPolicy)
	assert.Equal(t, 16*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout())
}

func TestBackendURLFallsBackToSelf(t *testing.T) {
	cfg := Default()
	cfg.Server.Bind = "0.0.0.0"
	cfg.Server.Port = 9100
	assert.Equal(t, "http://127.0.0.1:9100", cfg.BackendURL())

	cfg.Backend.URL = "http://books.internal"
	assert.Equal(t, "http://books.internal", cfg.BackendURL())
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("THOUGHTGRAPH_DB", "")
	t.Setenv("THOUGHTGRAPH_BACKEND_URL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv("THOUGHTGRAPH_DB", "/tmp/books.db")
	t.Setenv("THOUGHTGRAPH_BACKEND_URL", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	doc := `
[server]
port = 9000

[layout]
link_distance = 140.0
link_policy = "fail"

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Bind, "unset keys keep defaults")
	assert.Equal(t, 140.0, cfg.Layout.LinkDistance)
	assert.Equal(t, -300.0, cfg.Layout.Charge)
	assert.Equal(t, "fail", cfg.Layout.LinkPolicy)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/books.db", cfg.Database.Path)
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport="), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("THOUGHTGRAPH_DB", "")
	t.Setenv("THOUGHTGRAPH_BACKEND_URL", "")

	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Layout.Charge = -120

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, -120.0, loaded.Layout.Charge)
}

func TestPath(t *testing.T) {
	t.Setenv("THOUGHTGRAPH_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/thoughtgraph/config.toml", Path())

	t.Setenv("THOUGHTGRAPH_CONFIG", "/etc/thoughtgraph.toml")
	assert.Equal(t, "/etc/thoughtgraph.toml", Path())
}
