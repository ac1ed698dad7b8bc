// Package deps reports availability of the external binaries gaelog
// shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Requirement defines an external dependency gaelog relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Defaults returns the dependency set for the current platform. The
// package managers are optional: they only matter for `gaelog sdk install`.
func Defaults(gcloudBinary string) []Requirement {
	requirements := []Requirement{
		{
			Name:        "Google Cloud SDK",
			Command:     gcloudBinary,
			Description: "Required for tailing App Engine logs",
		},
	}
	switch runtime.GOOS {
	case "darwin":
		requirements = append(requirements, Requirement{
			Name:        "Homebrew",
			Command:     "brew",
			Description: "Used by `gaelog sdk install`",
			Optional:    true,
		})
	case "windows":
		requirements = append(requirements,
			Requirement{
				Name:        "PowerShell",
				Command:     "pwsh",
				Description: "Required to invoke gcloud on Windows",
			},
			Requirement{
				Name:        "Chocolatey",
				Command:     "choco",
				Description: "Used by `gaelog sdk install`",
				Optional:    true,
			})
	default:
		requirements = append(requirements, Requirement{
			Name:        "apt-get",
			Command:     "apt-get",
			Description: "Used by `gaelog sdk install`",
			Optional:    true,
		})
	}
	return requirements
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
