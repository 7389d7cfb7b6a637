// Package config loads the bridge configuration from TOML with embedded
// defaults and environment overrides for container deployments.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
)

//go:embed config.example.toml
var exampleConf []byte

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Playback PlaybackConfig `toml:"playback"`
	Cache    CacheConfig    `toml:"cache"`
	Source   SourceConfig   `toml:"source"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// BaseURL is the externally reachable prefix for relay URLs handed to
	// cast devices. Defaults to http://<host>:<port> when empty.
	BaseURL string `toml:"base_url"`
}

type PlaybackConfig struct {
	DefaultTargets []string `toml:"default_targets"`
	PreferMusicApp bool     `toml:"prefer_music_app"`
	AutoPlay       bool     `toml:"auto_play"`
	Mode           string   `toml:"mode"`
}

type CacheConfig struct {
	MetadataTTLSeconds       int `toml:"metadata_ttl_seconds"`
	DeviceTTLSeconds         int `toml:"device_ttl_seconds"`
	DeviceScanIntervalSecond int `toml:"device_scan_interval_seconds"`
}

func (c CacheConfig) MetadataTTL() time.Duration {
	return time.Duration(c.MetadataTTLSeconds) * time.Second
}

func (c CacheConfig) DeviceTTL() time.Duration {
	return time.Duration(c.DeviceTTLSeconds) * time.Second
}

func (c CacheConfig) DeviceScanInterval() time.Duration {
	return time.Duration(c.DeviceScanIntervalSecond) * time.Second
}

type SourceConfig struct {
	// ProxyURL points at a ytmusicapi HTTP proxy. Empty disables the proxy
	// rung of the playlist fallback chain.
	ProxyURL string `toml:"proxy_url"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file, then applies
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultConfig returns a Config loaded from the embedded example config,
// with environment overrides applied.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile writes the embedded example config to path.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("YTB_SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("YTB_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("YTB_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("YTB_DEFAULT_TARGETS"); v != "" {
		c.Playback.DefaultTargets = splitTargets(v)
	}
	if v := os.Getenv("YTB_PROXY_URL"); v != "" {
		c.Source.ProxyURL = v
	}
	if v := os.Getenv("YTB_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return domain.NewError(domain.CodeConfigInvalid, fmt.Sprintf("invalid server port %d", c.Server.Port))
	}
	if _, err := domain.ParsePlaybackMode(c.Playback.Mode); err != nil {
		return domain.WrapError(domain.CodeConfigInvalid, "invalid playback mode", err)
	}
	return nil
}

// BaseURL returns the configured base URL or one derived from host and port.
func (c *Config) BaseURL() string {
	if c.Server.BaseURL != "" {
		return strings.TrimSuffix(c.Server.BaseURL, "/")
	}
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Server.Port)
}

func splitTargets(raw string) []string {
	var targets []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			targets = append(targets, trimmed)
		}
	}
	return targets
}
