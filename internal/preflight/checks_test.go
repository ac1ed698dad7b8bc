package preflight_test

import (
	"os"
	"path/filepath"
	"testing"

	"gaelog/internal/preflight"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Log directory", dir)
	if !result.Passed {
		t.Fatalf("expected writable temp dir to pass: %+v", result)
	}

	result = preflight.CheckDirectoryAccess("Log directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatalf("expected missing dir to fail: %+v", result)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result = preflight.CheckDirectoryAccess("Log directory", file)
	if result.Passed {
		t.Fatalf("expected plain file to fail: %+v", result)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckFreeSpace("Disk space", dir, 0)
	if !result.Passed || result.Detail != "disabled" {
		t.Fatalf("expected disabled check to pass: %+v", result)
	}

	result = preflight.CheckFreeSpace("Disk space", dir, 1)
	if !result.Passed {
		t.Fatalf("expected at least 1 MB free in temp dir: %+v", result)
	}

	// An absurd requirement must fail rather than silently pass.
	result = preflight.CheckFreeSpace("Disk space", dir, 1<<40)
	if result.Passed {
		t.Fatalf("expected impossible requirement to fail: %+v", result)
	}
}
