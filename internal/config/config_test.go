package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"gaelog/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("GCLOUD_PROJECT", "env-project")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogDir := filepath.Join(tempHome, ".local", "share", "gaelog", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if cfg.GCloud.Project != "env-project" {
		t.Fatalf("expected project from env, got %q", cfg.GCloud.Project)
	}
	if cfg.Rotation.Mode != config.ModeSize {
		t.Fatalf("unexpected default mode %q", cfg.Rotation.Mode)
	}
	if cfg.Rotation.MaxLogSize != 5*1024*1024 {
		t.Fatalf("unexpected default size threshold %d", cfg.Rotation.MaxLogSize)
	}
	if cfg.Rotation.BackupCount != 3 {
		t.Fatalf("unexpected default backup count %d", cfg.Rotation.BackupCount)
	}
	if cfg.GCloudBinary() != "gcloud" {
		t.Fatalf("unexpected gcloud binary %q", cfg.GCloudBinary())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	info, err := os.Stat(cfg.Paths.LogDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected log dir to exist: %v", err)
	}
	if cfg.OutputDir() != filepath.Join(cfg.Paths.LogDir, "output") {
		t.Fatalf("unexpected output dir %q", cfg.OutputDir())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "gaelog.toml")

	type payload struct {
		GCloud struct {
			Project string `toml:"project"`
		} `toml:"gcloud"`
		Paths struct {
			LogDir string `toml:"log_dir"`
		} `toml:"paths"`
		Rotation struct {
			Mode        string `toml:"mode"`
			BackupCount int    `toml:"backup_count"`
		} `toml:"rotation"`
	}
	custom := payload{}
	custom.GCloud.Project = "demo-app"
	custom.Paths.LogDir = filepath.Join(tempDir, "logs")
	custom.Rotation.Mode = "daily"
	custom.Rotation.BackupCount = 7

	encoded, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(configPath, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected resolved existing path %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.GCloud.Project != "demo-app" {
		t.Fatalf("unexpected project %q", cfg.GCloud.Project)
	}
	if cfg.Rotation.Mode != config.ModeDaily {
		t.Fatalf("unexpected mode %q", cfg.Rotation.Mode)
	}
	if cfg.Rotation.BackupCount != 7 {
		t.Fatalf("unexpected backup count %d", cfg.Rotation.BackupCount)
	}
	// Defaults survive for values the file does not set.
	if cfg.Rotation.FilePrefix != "gcloud" {
		t.Fatalf("unexpected file prefix %q", cfg.Rotation.FilePrefix)
	}
}

func TestLoadRejectsInvalidRotation(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "gaelog.toml")

	cases := []struct {
		name string
		body string
	}{
		{"bad mode", "[rotation]\nmode = \"hourly\"\n"},
		{"zero threshold", "[rotation]\nmode = \"size\"\nmax_log_size = 0\n"},
		{"negative backups", "[rotation]\nmode = \"daily\"\nbackup_count = -1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := os.WriteFile(configPath, []byte(tc.body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(configPath); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if cfg.Rotation.Mode != config.ModeSize {
		t.Fatalf("sample should default to size mode, got %q", cfg.Rotation.Mode)
	}
}
