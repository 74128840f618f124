package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the server's loadable configuration. Values come from an
// optional YAML file, individually overridable by environment variables.
type Config struct {
	// Port the HTTP server listens on.
	Port string `yaml:"port"`

	// DataDir is where BadgerDB stores its files.
	DataDir string `yaml:"data_dir"`

	// MaxMemoryMB bounds BadgerDB memory usage.
	MaxMemoryMB int64 `yaml:"max_memory_mb"`

	// InMemory runs storage without persistence (dev only).
	InMemory bool `yaml:"in_memory"`

	// LogFile enables rotating file logging when set.
	LogFile string `yaml:"log_file"`

	// Simulator enables the built-in sample generator.
	Simulator SimulatorConfig `yaml:"simulator"`
}

// SimulatorConfig configures the built-in generator.
type SimulatorConfig struct {
	Enabled bool     `yaml:"enabled"`
	Objects []string `yaml:"objects"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:        DefaultPort,
		DataDir:     DefaultDataDir,
		MaxMemoryMB: DefaultMaxMemoryMB,
	}
}

// Load reads configuration from path (optional, "" skips the file) and
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Port = port
	}
	if dir := os.Getenv("TELEMETRY_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if logFile := os.Getenv("TELEMETRY_LOG_FILE"); logFile != "" {
		c.LogFile = logFile
	}
	if raw := os.Getenv("TELEMETRY_MAX_MEMORY_MB"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			c.MaxMemoryMB = parsed
		}
	}
	if raw := os.Getenv("TELEMETRY_SIMULATOR"); raw != "" {
		c.Simulator.Enabled = raw == "1" || raw == "true"
	}
}
