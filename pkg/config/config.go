// Package config loads the timecalc configuration from a TOML file and the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "TIMECALC_CONFIG"

// Config holds the complete application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	History HistoryConfig `toml:"history"`
	Cache   CacheConfig   `toml:"cache"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig holds the HTTP and gRPC listener settings.
type ServerConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	GRPCPort     int      `toml:"grpc_port"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	EnableUI     *bool    `toml:"enable_ui"`
}

// HistoryConfig bounds the in-memory evaluation history.
type HistoryConfig struct {
	Capacity int `toml:"capacity"`
}

// CacheConfig bounds the result cache. A negative size disables it.
type CacheConfig struct {
	Size int `toml:"size"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// Duration wraps time.Duration for TOML strings such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file, then applies environment
// overrides and defaults. An empty path loads only the environment and
// defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		path = os.ExpandEnv(path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config keys: %v", undecoded)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by TIMECALC_CONFIG, if set.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(EnvConfig))
}

// applyDefaults sets default values for missing configuration.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8787
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = 8788
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 30 * time.Second
	}
	if c.Server.EnableUI == nil {
		enabled := true
		c.Server.EnableUI = &enabled
	}
	if c.History.Capacity == 0 {
		c.History.Capacity = 1000
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 256
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// applyEnv overrides file values with TIMECALC_* environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("TIMECALC_HOST"); v != "" {
		c.Server.Host = v
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"TIMECALC_PORT", &c.Server.Port},
		{"TIMECALC_GRPC_PORT", &c.Server.GRPCPort},
		{"TIMECALC_HISTORY_CAPACITY", &c.History.Capacity},
		{"TIMECALC_CACHE_SIZE", &c.Cache.Size},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", e.key, v, err)
		}
		*e.dst = n
	}
	if v := os.Getenv("TIMECALC_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TIMECALC_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d out of range", c.Server.GRPCPort)
	}
	if c.History.Capacity < 0 {
		return fmt.Errorf("history.capacity must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// HTTPAddr returns the HTTP listen address.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GRPCAddr returns the gRPC listen address.
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

// UIEnabled reports whether the web UI should be served.
func (c *Config) UIEnabled() bool {
	return c.Server.EnableUI == nil || *c.Server.EnableUI
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
