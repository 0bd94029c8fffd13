package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all thoughtgraph configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Backend  BackendConfig  `toml:"backend"`
	Layout   LayoutConfig   `toml:"layout"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Bind        string   `toml:"bind"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

type DatabaseConfig struct {
	Path string `toml:"path"` // empty: resolved via store.DefaultDBPath()
}

// BackendConfig points the viewer at a content API. An empty URL means
// the server's own content API.
type BackendConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // seconds
}

type LayoutConfig struct {
	Width         float64 `toml:"width"`
	Height        float64 `toml:"height"`
	LinkDistance  float64 `toml:"link_distance"`
	Charge        float64 `toml:"charge"`
	CollideRadius float64 `toml:"collide_radius"`
	DragAlpha     float64 `toml:"drag_alpha"`
	TickMillis    int     `toml:"tick_ms"`
	LinkPolicy    string  `toml:"link_policy"` // "drop" or "fail"
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind:        "127.0.0.1",
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Backend: BackendConfig{
			Timeout: 10,
		},
		Layout: LayoutConfig{
			Width:         800,
			Height:        600,
			LinkDistance:  100,
			Charge:        -300,
			CollideRadius: 30,
			DragAlpha:     0.3,
			TickMillis:    16,
			LinkPolicy:    "drop",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// SelfURL is the base URL of this server's own content API.
func (c *Config) SelfURL() string {
	host := c.Server.Bind
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Server.Port)
}

// BackendURL is where the viewer fetches graph data from.
func (c *Config) BackendURL() string {
	if c.Backend.URL != "" {
		return c.Backend.URL
	}
	return c.SelfURL()
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.Timeout) * time.Second
}

func (c *Config) TickInterval() time.Duration {
	if c.Layout.TickMillis <= 0 {
		return 16 * time.Millisecond
	}
	return time.Duration(c.Layout.TickMillis) * time.Millisecond
}

// Dir returns the thoughtgraph config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "thoughtgraph")
}

// Path returns the config file path, honouring THOUGHTGRAPH_CONFIG.
func Path() string {
	if p := os.Getenv("THOUGHTGRAPH_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file at path over the defaults. A missing file is
// not an error. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("THOUGHTGRAPH_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("THOUGHTGRAPH_BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	return cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
