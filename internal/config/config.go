package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
	Library LibraryConfig
}

type ServerConfig struct {
	Port       int
	MCPEnabled bool
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type LibraryConfig struct {
	CacheTTL      string
	DefaultFormat string
}

// Formats lists the profile document formats the CLI reads and writes.
var Formats = []string{"json", "yaml", "toml"}

const defaultCacheTTL = 60 * time.Second

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4040,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Library: LibraryConfig{
			CacheTTL:      defaultCacheTTL.String(),
			DefaultFormat: "json",
		},
	}
}

// Load reads configuration from the platform-native backend and environment
// variables.
//
// On macOS the backend is UserDefaults (domain: com.tfstudio.app).
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/tfstudio/config.json.
//
// Environment variables (TFSTUDIO_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if !isFormat(c.Library.DefaultFormat) {
		return fmt.Errorf("invalid library.default_format %q (want one of %s)",
			c.Library.DefaultFormat, strings.Join(Formats, ", "))
	}
	return nil
}

func isFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// TTL returns the library cache TTL, falling back to the default when the
// configured value does not parse.
func (c LibraryConfig) TTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d < 0 {
		slog.Warn("invalid library cache TTL, using default", "value", c.CacheTTL, "default", defaultCacheTTL)
		return defaultCacheTTL
	}
	return d
}

// SlogLevel maps log.level onto a slog level.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
