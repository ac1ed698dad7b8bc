package sdk_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"gaelog/internal/sdk"
)

func TestInstalled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX shell availability")
	}
	if !sdk.Installed("sh") {
		t.Fatal("expected sh to be on PATH")
	}
	missing := filepath.Join(t.TempDir(), "no-such-gcloud")
	if sdk.Installed(missing) {
		t.Fatalf("expected %q to be missing", missing)
	}
}
