// Package config loads the server configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/droneforge/internal/core/assembly"
	"github.com/zeusync/droneforge/internal/core/history"
	"github.com/zeusync/droneforge/internal/core/observability/log"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds server and assembly settings.
type Config struct {
	// Network settings
	ListenAddr      string        `yaml:"listen_addr"`
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// AuthToken, when set, must be passed as ?token= on websocket connections.
	AuthToken string `yaml:"auth_token"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Assembly settings
	CatalogPath  string        `yaml:"catalog_path"`
	Guided       bool          `yaml:"guided"`
	CarryOnSpawn bool          `yaml:"carry_on_spawn"`
	SpawnPoint   assembly.Vec3 `yaml:"spawn_point"`
	MaxElevation float64       `yaml:"max_elevation"`
	HistoryLimit int           `yaml:"history_limit"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		ListenAddr:      "127.0.0.1:8080",
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		ShutdownTimeout: 5 * time.Second,
		LogLevel:        "info",
		Guided:          true,
		MaxElevation:    5.0,
		HistoryLimit:    history.DefaultLimit,
	}
}

// Load reads a YAML file on top of Default. An empty path yields Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// LoadYAML decodes YAML on top of Default and validates the result.
func LoadYAML(r io.Reader) (Config, error) {
	c := Default()
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("%w: listen_addr is required", ErrInvalidConfig)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig)
	case c.HistoryLimit <= 0:
		return fmt.Errorf("%w: history_limit must be positive", ErrInvalidConfig)
	case c.MaxElevation < 0:
		return fmt.Errorf("%w: max_elevation must not be negative", ErrInvalidConfig)
	case c.ReadBufferSize < 0 || c.WriteBufferSize < 0:
		return fmt.Errorf("%w: buffer sizes must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c Config) Level() log.Level {
	return log.ParseLevel(c.LogLevel)
}

// StoreOptions maps the assembly settings onto store options.
func (c Config) StoreOptions() []assembly.Option {
	return []assembly.Option{
		assembly.WithGuided(c.Guided),
		assembly.WithCarryOnSpawn(c.CarryOnSpawn),
		assembly.WithSpawnPoint(c.SpawnPoint),
		assembly.WithMaxElevation(c.MaxElevation),
	}
}
