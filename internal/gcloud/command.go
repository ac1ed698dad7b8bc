package gcloud

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
)

// command builds the exec.Cmd for a gcloud invocation. On Windows the
// SDK ships as a PowerShell-wrapped launcher, so the call goes through
// pwsh the way the desktop app always has.
func command(ctx context.Context, binary string, args ...string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		joined := binary + " " + strings.Join(args, " ")
		return exec.CommandContext(ctx, "pwsh",
			"-NoLogo", "-NoProfile", "-NonInteractive", "-Command", joined)
	}
	return exec.CommandContext(ctx, binary, args...)
}
