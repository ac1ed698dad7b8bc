package main

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestTailWithoutOutputExplains(t *testing.T) {
	env := setupCLITestEnv(t, "sleep 60\n")

	out, _, err := runCLI(t, []string{"tail"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	requireContains(t, out, "No log output yet")
}

func TestTailShowsSessionOutput(t *testing.T) {
	env := setupCLITestEnv(t, "echo alpha\necho beta\nsleep 60\n")
	ctx := context.Background()

	if _, err := env.daemon.StartSession(ctx, ""); err != nil {
		t.Fatalf("start session: %v", err)
	}
	defer func() { _, _ = env.daemon.StopSession(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if env.daemon.SessionSnapshot().Lines >= 2 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	out, _, err := runCLI(t, []string{"tail", "-n", "0"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	requireContains(t, out, "Google Cloud SDK 512.0.0")
	requireContains(t, out, "alpha")
	requireContains(t, out, "beta")
}

func TestTailDaemonLog(t *testing.T) {
	env := setupCLITestEnv(t, "sleep 60\n")
	if err := os.WriteFile(env.daemon.LogPath(), []byte("daemon ready\n"), 0o644); err != nil {
		t.Fatalf("seed daemon log: %v", err)
	}

	out, _, err := runCLI(t, []string{"tail", "--daemon", "-n", "0"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("tail --daemon: %v", err)
	}
	requireContains(t, out, "daemon ready")
}
