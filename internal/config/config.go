// Package config loads prophex-match settings: tool locations, logging,
// pipeline defaults and config file backups.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectConfigName is the per-directory configuration file.
const ProjectConfigName = ".prophex-match.yaml"

// Config represents the complete prophex-match configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Tools    ToolsConfig    `yaml:"tools" json:"tools"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline"`
	Backup   BackupConfig   `yaml:"backup" json:"backup"`
}

// ToolsConfig locates the external binaries.
type ToolsConfig struct {
	// BWA is the bwa executable used for the four index steps.
	BWA string `yaml:"bwa" json:"bwa"`
	// Prophex is the prophex executable used for k-LCP and query.
	Prophex string `yaml:"prophex" json:"prophex"`
	// Shell runs command lines through bash in strict mode instead of
	// executing the argument vector directly.
	Shell bool `yaml:"shell" json:"shell"`
}

// LoggingConfig configures the persistent log sink and slog level.
type LoggingConfig struct {
	// File is the persistent log sink. Empty means screen only.
	File string `yaml:"file" json:"file"`
	// Level is the slog level (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`
}

// PipelineConfig holds defaults for run flags.
type PipelineConfig struct {
	// Threads is the default -t value.
	Threads int `yaml:"threads" json:"threads"`
	// Lock takes an advisory lock on the reference for the whole run.
	Lock bool `yaml:"lock" json:"lock"`
}

// NewConfig creates a new Config with defaults: tools resolved from PATH,
// no log file, one thread.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Tools: ToolsConfig{
			BWA:     "bwa",
			Prophex: "prophex",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Pipeline: PipelineConfig{
			Threads: 1,
		},
		Backup: BackupConfig{
			Keep: DefaultBackupKeep,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/prophex-match/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/prophex-match/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "prophex-match", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "prophex-match", "config.yaml")
	}
	return filepath.Join(home, ".config", "prophex-match", "config.yaml")
}

// ProjectConfigPath returns the project configuration file for dir.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, ProjectConfigName)
}

// Load loads configuration for a run started in dir.
// Precedence, lowest first:
//  1. Hardcoded defaults
//  2. User config (~/.config/prophex-match/config.yaml)
//  3. Project config (.prophex-match.yaml in dir)
//  4. Environment variables (PROPHEX_MATCH_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	projectPath := ProjectConfigPath(dir)
	if fileExists(projectPath) {
		if err := cfg.loadYAML(projectPath); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
// Booleans can only be switched on by a later layer.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Tools.BWA != "" {
		c.Tools.BWA = other.Tools.BWA
	}
	if other.Tools.Prophex != "" {
		c.Tools.Prophex = other.Tools.Prophex
	}
	if other.Tools.Shell {
		c.Tools.Shell = true
	}

	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}

	if other.Pipeline.Threads != 0 {
		c.Pipeline.Threads = other.Pipeline.Threads
	}
	if other.Pipeline.Lock {
		c.Pipeline.Lock = true
	}

	if other.Backup.Keep != 0 {
		c.Backup.Keep = other.Backup.Keep
	}
}

// applyEnvOverrides applies PROPHEX_MATCH_* variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PROPHEX_MATCH_BWA"); v != "" {
		c.Tools.BWA = v
	}
	if v := os.Getenv("PROPHEX_MATCH_PROPHEX"); v != "" {
		c.Tools.Prophex = v
	}
	if v := os.Getenv("PROPHEX_MATCH_SHELL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Tools.Shell = b
		}
	}
	if v := os.Getenv("PROPHEX_MATCH_LOG"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("PROPHEX_MATCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PROPHEX_MATCH_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pipeline.Threads = n
		}
	}
	if v := os.Getenv("PROPHEX_MATCH_LOCK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Pipeline.Lock = b
		}
	}
	if v := os.Getenv("PROPHEX_MATCH_BACKUP_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backup.Keep = n
		}
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Tools.BWA) == "" {
		return fmt.Errorf("tools.bwa must not be empty")
	}
	if strings.TrimSpace(c.Tools.Prophex) == "" {
		return fmt.Errorf("tools.prophex must not be empty")
	}
	if c.Pipeline.Threads < 1 {
		return fmt.Errorf("pipeline.threads must be positive, got %d", c.Pipeline.Threads)
	}
	if c.Backup.Keep < 1 {
		return fmt.Errorf("backup.keep must be at least 1, got %d", c.Backup.Keep)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
