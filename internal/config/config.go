// Package config resolves runtime settings: defaults, then an optional TOML
// file, then TODOD_* environment variables. Command-line flags are applied
// last by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultCheckInterval   = 30 * time.Second
	DefaultSchedulerBuffer = 64
	DefaultLogLevel        = "info"
)

type RuntimeConfig struct {
	DBPath               string
	LogPath              string
	LogLevel             string
	CheckInterval        time.Duration
	DesktopNotifications bool
	Sound                bool
	SchedulerBuffer      int
}

// fileConfig mirrors config.toml. Pointers tell an absent key from a zero
// value.
type fileConfig struct {
	DBPath               *string `toml:"db_path"`
	LogPath              *string `toml:"log_path"`
	LogLevel             *string `toml:"log_level"`
	CheckInterval        *string `toml:"check_interval"`
	DesktopNotifications *bool   `toml:"desktop_notifications"`
	Sound                *bool   `toml:"sound"`
	SchedulerBuffer      *int    `toml:"scheduler_buffer"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DBPath:               filepath.Join(dataDir(), "todod", "todod.db"),
		LogLevel:             DefaultLogLevel,
		CheckInterval:        DefaultCheckInterval,
		DesktopNotifications: true,
		Sound:                true,
		SchedulerBuffer:      DefaultSchedulerBuffer,
	}
}

// DefaultPath is where Load looks for config.toml when TODOD_CONFIG is unset.
func DefaultPath() string {
	if v := strings.TrimSpace(os.Getenv("TODOD_CONFIG")); v != "" {
		return v
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "todod", "config.toml")
}

// Load layers the config file at path (if it exists) and the environment
// over the defaults.
func Load(path string) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	if path != "" {
		var err error
		cfg, err = RuntimeConfigFromFile(cfg, path)
		if err != nil {
			return RuntimeConfig{}, err
		}
	}
	return RuntimeConfigFromEnv(cfg), nil
}

// RuntimeConfigFromFile applies the keys present in the TOML file. A
// missing file leaves base unchanged.
func RuntimeConfigFromFile(base RuntimeConfig, path string) (RuntimeConfig, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return base, nil
		}
		return base, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := base
	if fc.DBPath != nil && strings.TrimSpace(*fc.DBPath) != "" {
		cfg.DBPath = expandHome(*fc.DBPath)
	}
	if fc.LogPath != nil {
		cfg.LogPath = expandHome(*fc.LogPath)
	}
	if fc.LogLevel != nil && strings.TrimSpace(*fc.LogLevel) != "" {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.CheckInterval != nil {
		d, ok := parseInterval(*fc.CheckInterval)
		if !ok {
			return base, fmt.Errorf("config %s: invalid check_interval %q", path, *fc.CheckInterval)
		}
		cfg.CheckInterval = d
	}
	if fc.DesktopNotifications != nil {
		cfg.DesktopNotifications = *fc.DesktopNotifications
	}
	if fc.Sound != nil {
		cfg.Sound = *fc.Sound
	}
	if fc.SchedulerBuffer != nil && *fc.SchedulerBuffer > 0 {
		cfg.SchedulerBuffer = *fc.SchedulerBuffer
	}
	return cfg, nil
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v := strings.TrimSpace(os.Getenv("TODOD_DB_PATH")); v != "" {
		cfg.DBPath = expandHome(v)
	}
	if v := strings.TrimSpace(os.Getenv("TODOD_LOG_PATH")); v != "" {
		cfg.LogPath = expandHome(v)
	}
	if v := strings.TrimSpace(os.Getenv("TODOD_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if d, ok := parseInterval(os.Getenv("TODOD_CHECK_INTERVAL")); ok {
		cfg.CheckInterval = d
	}
	if v, ok := getEnvBool("TODOD_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvBool("TODOD_SOUND"); ok {
		cfg.Sound = v
	}
	if v, ok := getEnvInt("TODOD_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	return cfg
}

// ResolvedLogPath is LogPath, or todod.log next to the database.
func (c RuntimeConfig) ResolvedLogPath() string {
	if strings.TrimSpace(c.LogPath) != "" {
		return c.LogPath
	}
	if c.DBPath == ":memory:" {
		return ""
	}
	return filepath.Join(filepath.Dir(c.DBPath), "todod.log")
}

// parseInterval accepts a Go duration ("45s") or a plain number of seconds.
func parseInterval(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n <= 0 {
			return 0, false
		}
		return time.Duration(n) * time.Second, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

func dataDir() string {
	if v := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); v != "" {
		return v
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}

func expandHome(path string) string {
	path = strings.TrimSpace(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
