package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Rotation modes for the tailed output files.
const (
	ModeSize  = "size"
	ModeDaily = "daily"
)

// GCloud contains settings for the external Cloud SDK command.
type GCloud struct {
	Project string `toml:"project"`
	Binary  string `toml:"binary"`
}

// Paths contains directory configuration.
type Paths struct {
	LogDir string `toml:"log_dir"`
}

// Rotation contains output file rotation policy settings.
type Rotation struct {
	Mode        string `toml:"mode"`
	MaxLogSize  int64  `toml:"max_log_size"`
	BackupCount int    `toml:"backup_count"`
	FilePrefix  string `toml:"file_prefix"`
}

// Logging contains settings for gaelog's own diagnostic log.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Limits contains resource guardrails checked before a session starts.
type Limits struct {
	MinFreeMB int64 `toml:"min_free_mb"`
}

// Config encapsulates all configuration values for gaelog.
//
// Sections by subsystem:
//   - GCloud: project id and gcloud binary used for tailing
//   - Paths: where tailed output and daemon state live
//   - Rotation: size/daily rotation policy for the output files
//   - Logging: format and level of gaelog's own diagnostics
//   - Limits: free disk space required to start a session
type Config struct {
	GCloud   GCloud   `toml:"gcloud"`
	Paths    Paths    `toml:"paths"`
	Rotation Rotation `toml:"rotation"`
	Logging  Logging  `toml:"logging"`
	Limits   Limits   `toml:"limits"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/gaelog/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file actually existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gaelog.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for daemon operation.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// OutputDir is where the tailed application output files are rotated.
func (c *Config) OutputDir() string {
	return filepath.Join(c.Paths.LogDir, "output")
}

// GCloudBinary returns the gcloud executable name.
func (c *Config) GCloudBinary() string {
	if strings.TrimSpace(c.GCloud.Binary) != "" {
		return c.GCloud.Binary
	}
	return "gcloud"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
