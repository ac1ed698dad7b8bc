package main

import (
	"context"
	"testing"
	"time"
)

func TestStatusShowsRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t, "sleep 60\n")

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running (pid")
	requireContains(t, out, env.cfg.Paths.LogDir)
	requireContains(t, out, "Idle")
	requireContains(t, out, "No sessions recorded")
}

func TestStatusShowsActiveSession(t *testing.T) {
	env := setupCLITestEnv(t, "echo alpha\nsleep 60\n")

	ctx := context.Background()
	if _, err := env.daemon.StartSession(ctx, ""); err != nil {
		t.Fatalf("start session: %v", err)
	}
	defer func() { _, _ = env.daemon.StopSession(ctx) }()

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Tailing demo-project")
	requireContains(t, out, "Running")
}

func TestStatusOfflineFallsBackToStore(t *testing.T) {
	env := setupCLITestEnv(t, "sleep 60\n")
	env.server.Close()
	env.cancel()
	time.Sleep(50 * time.Millisecond)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status offline: %v", err)
	}
	requireContains(t, out, "Not running")
}
