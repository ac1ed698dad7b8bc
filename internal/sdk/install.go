// Package sdk installs the Google Cloud SDK through the platform package
// manager, streaming installer output back to the caller.
package sdk

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// chocolateyInstallPS bootstraps Chocolatey when it is missing on Windows.
const chocolateyInstallPS = "Set-ExecutionPolicy Bypass -Scope Process -Force;" +
	"[System.Net.ServicePointManager]::SecurityProtocol = " +
	"[System.Net.ServicePointManager]::SecurityProtocol -bor 3072;" +
	"iex ((New-Object System.Net.WebClient).DownloadString('" +
	"https://community.chocolatey.org/install.ps1'))"

// OutputFunc receives one line of installer output at a time.
type OutputFunc func(line string)

// Installed reports whether the gcloud binary is on PATH.
func Installed(binary string) bool {
	if strings.TrimSpace(binary) == "" {
		binary = "gcloud"
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

// Install runs the platform installer for the Google Cloud SDK:
// Homebrew on macOS, Chocolatey on Windows (bootstrapping Chocolatey
// first when absent), apt-get elsewhere. A non-zero installer exit is an
// error; there are no retries.
func Install(ctx context.Context, output OutputFunc) error {
	if output == nil {
		output = func(string) {}
	}

	switch runtime.GOOS {
	case "darwin":
		output(">>> Installing Google Cloud SDK via Homebrew")
		return stream(ctx, output, exec.CommandContext(ctx, "brew", "install", "google-cloud-sdk"))
	case "windows":
		if err := ensureChocolatey(ctx, output); err != nil {
			return err
		}
		output(">>> Installing Google Cloud SDK via Chocolatey")
		return stream(ctx, output, exec.CommandContext(ctx, "choco", "install", "gcloudsdk", "-y"))
	default:
		output(">>> Installing Google Cloud SDK via apt-get")
		if err := stream(ctx, output, exec.CommandContext(ctx, "sudo", "apt-get", "update")); err != nil {
			return err
		}
		return stream(ctx, output, exec.CommandContext(ctx, "sudo", "apt-get", "install", "google-cloud-sdk", "-y"))
	}
}

func ensureChocolatey(ctx context.Context, output OutputFunc) error {
	if _, err := exec.LookPath("choco"); err == nil {
		return nil
	}

	shell := "powershell"
	if _, err := exec.LookPath("pwsh"); err == nil {
		shell = "pwsh"
	}

	output(">>> Bootstrapping Chocolatey via PowerShell")
	cmd := exec.CommandContext(ctx, shell, "-NoProfile", "-ExecutionPolicy", "Bypass", "-Command", chocolateyInstallPS)
	if err := stream(ctx, output, cmd); err != nil {
		return fmt.Errorf("bootstrap chocolatey: %w", err)
	}
	if _, err := exec.LookPath("choco"); err != nil {
		return fmt.Errorf("chocolatey install appears to have failed, install manually from https://chocolatey.org/install")
	}
	return nil
}

// stream runs the command and forwards its merged stdout/stderr line by
// line to the output callback.
func stream(ctx context.Context, output OutputFunc, cmd *exec.Cmd) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("installer pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start installer %q: %w", cmd.Path, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		output(scanner.Text())
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("installer exited: %w", err)
	}
	return nil
}
