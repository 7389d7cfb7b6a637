package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8099 {
		t.Errorf("default port = %d, want 8099", cfg.Server.Port)
	}
	if got := cfg.Cache.MetadataTTL(); got != 10*time.Minute {
		t.Errorf("metadata TTL = %v, want 10m", got)
	}
	if got := cfg.Cache.DeviceTTL(); got != 5*time.Minute {
		t.Errorf("device TTL = %v, want 5m", got)
	}
	if got := cfg.Cache.DeviceScanInterval(); got != time.Minute {
		t.Errorf("scan interval = %v, want 1m", got)
	}
	if !cfg.Playback.AutoPlay {
		t.Error("auto_play should default to true")
	}
	if cfg.Playback.Mode != "sequential" {
		t.Errorf("mode = %q, want sequential", cfg.Playback.Mode)
	}
}

func TestExampleConfigHasNoStrayKeys(t *testing.T) {
	var cfg Config
	meta, err := toml.Decode(string(exampleConf), &cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range meta.Undecoded() {
		t.Errorf("example config key %q maps to no struct field", key)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
host = "10.0.0.5"
port = 9000
base_url = "http://bridge.local:9000/"

[playback]
default_targets = ["Living Room", "Kitchen speaker"]
mode = "shuffle"

[cache]
metadata_ttl_seconds = 60
device_ttl_seconds = 30
device_scan_interval_seconds = 10
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Host != "10.0.0.5" {
		t.Errorf("host = %q", cfg.Server.Host)
	}
	if len(cfg.Playback.DefaultTargets) != 2 {
		t.Errorf("default targets = %v", cfg.Playback.DefaultTargets)
	}
	if got := cfg.BaseURL(); got != "http://bridge.local:9000" {
		t.Errorf("BaseURL() = %q, trailing slash should be trimmed", got)
	}
}

func TestLoadConfigRejectsBadMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nport = 8099\n[playback]\nmode = \"bogus\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("YTB_SERVER_PORT", "9123")
	t.Setenv("YTB_DEFAULT_TARGETS", "Den, Office ")

	cfg := DefaultConfig()
	if cfg.Server.Port != 9123 {
		t.Errorf("port = %d, want 9123", cfg.Server.Port)
	}
	want := []string{"Den", "Office"}
	if len(cfg.Playback.DefaultTargets) != len(want) {
		t.Fatalf("targets = %v", cfg.Playback.DefaultTargets)
	}
	for i := range want {
		if cfg.Playback.DefaultTargets[i] != want[i] {
			t.Errorf("target[%d] = %q, want %q", i, cfg.Playback.DefaultTargets[i], want[i])
		}
	}
}

func TestBaseURLDerived(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.BaseURL = ""
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8099
	if got := cfg.BaseURL(); got != "http://127.0.0.1:8099" {
		t.Errorf("BaseURL() = %q", got)
	}
}
