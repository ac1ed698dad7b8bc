package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gaelog/internal/config"
	"gaelog/internal/daemon"
	"gaelog/internal/ipc"
	"gaelog/internal/logging"
	"gaelog/internal/session"
	"gaelog/internal/store"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

// writeFakeGCloud installs a script that answers --version and streams
// the given tail body for everything else.
func writeFakeGCloud(t *testing.T, tailBody string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake gcloud scripts require a POSIX shell")
	}
	script := "#!/bin/sh\n" +
		"if [ \"$1\" = \"--version\" ]; then\n" +
		"  echo 'Google Cloud SDK 512.0.0'\n" +
		"  exit 0\n" +
		"fi\n" +
		tailBody
	path := filepath.Join(t.TempDir(), "gcloud")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func setupCLITestEnv(t *testing.T, tailBody string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.GCloud.Project = "demo-project"
	cfg.GCloud.Binary = writeFakeGCloud(t, tailBody)
	cfg.Limits.MinFreeMB = 0
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	configPath := filepath.Join(homeDir, ".config", "gaelog", "config.toml")
	writeTestConfig(t, configPath, &cfg)

	st, err := store.Open(&cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	logger := logging.NewNop()
	sessions := session.NewManager(&cfg, st, logger)
	d, err := daemon.New(&cfg, st, logger, sessions)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        &cfg,
		store:      st,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		_ = d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content := "[gcloud]\n" +
		"project = \"" + cfg.GCloud.Project + "\"\n" +
		"binary = \"" + cfg.GCloud.Binary + "\"\n\n" +
		"[paths]\n" +
		"log_dir = \"" + cfg.Paths.LogDir + "\"\n\n" +
		"[limits]\n" +
		"min_free_mb = 0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
