package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// EnvFile names the environment variable that points at a TOML config file.
const EnvFile = "LOCALBOARD_CONFIG"

// Config holds the host's settings. Keys absent from a config file keep their
// defaults; keys present override them, zero values included.
type Config struct {
	Bind            string `toml:"bind"`
	Port            int    `toml:"port"`
	CanvasWidth     int    `toml:"canvas_width"`
	CanvasHeight    int    `toml:"canvas_height"`
	Advertise       bool   `toml:"advertise"`
	ServiceName     string `toml:"service_name"`
	SendQueue       int    `toml:"send_queue"`
	MaxMessageBytes int64  `toml:"max_message_bytes"`
}

func Default() Config {
	return Config{
		Bind:            "",
		Port:            8888,
		CanvasWidth:     1200,
		CanvasHeight:    800,
		Advertise:       true,
		ServiceName:     "_localboard._tcp",
		SendQueue:       256,
		MaxMessageBytes: 1 << 20,
	}
}

// Load returns the defaults overlaid with the file at path. An empty path
// falls back to $LOCALBOARD_CONFIG; if that is unset too the defaults are
// returned as is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvFile)
	}
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail later at runtime.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		errs = append(errs, fmt.Errorf("canvas %dx%d must be positive", c.CanvasWidth, c.CanvasHeight))
	}
	if c.SendQueue <= 0 {
		errs = append(errs, fmt.Errorf("send_queue must be positive"))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_message_bytes must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
