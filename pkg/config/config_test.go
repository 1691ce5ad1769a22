package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timecalc.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.HTTPAddr() != "0.0.0.0:8787" {
		t.Errorf("unexpected HTTP addr %s", cfg.HTTPAddr())
	}
	if cfg.GRPCAddr() != "0.0.0.0:8788" {
		t.Errorf("unexpected gRPC addr %s", cfg.GRPCAddr())
	}
	if cfg.History.Capacity != 1000 || cfg.Cache.Size != 256 {
		t.Errorf("unexpected bounds %+v %+v", cfg.History, cfg.Cache)
	}
	if cfg.Server.ReadTimeout.Duration != 30*time.Second {
		t.Errorf("unexpected read timeout %v", cfg.Server.ReadTimeout)
	}
	if !cfg.UIEnabled() {
		t.Error("expected UI enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9000
read_timeout = "5s"
enable_ui = false

[history]
capacity = 10

[cache]
size = -1

[log]
level = "debug"
format = "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr() != "127.0.0.1:9000" {
		t.Errorf("unexpected HTTP addr %s", cfg.HTTPAddr())
	}
	if cfg.Server.GRPCPort != 8788 {
		t.Errorf("expected default gRPC port, got %d", cfg.Server.GRPCPort)
	}
	if cfg.Server.ReadTimeout.Duration != 5*time.Second {
		t.Errorf("unexpected read timeout %v", cfg.Server.ReadTimeout)
	}
	if cfg.UIEnabled() {
		t.Error("expected UI disabled")
	}
	if cfg.History.Capacity != 10 || cfg.Cache.Size != -1 {
		t.Errorf("unexpected bounds %+v %+v", cfg.History, cfg.Cache)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "[server]\nport = 9000\n")
	t.Setenv("TIMECALC_PORT", "9100")
	t.Setenv("TIMECALC_HOST", "localhost")
	t.Setenv("TIMECALC_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr() != "localhost:9100" {
		t.Errorf("unexpected HTTP addr %s", cfg.HTTPAddr())
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("unexpected level %s", cfg.Log.Level)
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "[history]\ncapacity = 3\n")
	t.Setenv(EnvConfig, path)
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.History.Capacity != 3 {
		t.Errorf("unexpected capacity %d", cfg.History.Capacity)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		want    string
	}{
		{"bad toml", "[server\n", nil, "failed to parse config"},
		{"unknown key", "[server]\nprot = 1\n", nil, "unknown config keys"},
		{"bad duration", "[server]\nread_timeout = \"soon\"\n", nil, "failed to parse config"},
		{"bad port", "[server]\nport = 70000\n", nil, "out of range"},
		{"bad level", "[log]\nlevel = \"loud\"\n", nil, "invalid log level"},
		{"bad format", "[log]\nformat = \"xml\"\n", nil, "log.format"},
		{"bad env", "", map[string]string{"TIMECALC_PORT": "http"}, "invalid TIMECALC_PORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	if err != nil || level != slog.LevelDebug {
		t.Errorf("got %v, %v", level, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error")
	}
}
