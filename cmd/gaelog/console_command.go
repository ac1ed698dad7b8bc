package main

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

const consoleBaseURL = "https://console.cloud.google.com"

func newConsoleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Open the Google Cloud console for the configured project",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := consoleURL(ctx.configValue().GCloud.Project)
			stdout := cmd.OutOrStdout()
			if err := openBrowser(target); err != nil {
				fmt.Fprintf(stdout, "Could not open a browser (%v); visit:\n", err)
			} else {
				fmt.Fprintln(stdout, "Opening the Google Cloud console:")
			}
			fmt.Fprintf(stdout, "  %s\n", target)
			return nil
		},
	}
}

// consoleURL links straight to the project settings page. Placeholder or
// empty project ids get the generic console instead.
func consoleURL(project string) string {
	project = strings.TrimSpace(project)
	if project == "" || project == "your-project-id" {
		return consoleBaseURL
	}
	return consoleBaseURL + "/iam-admin/settings?project=" + url.QueryEscape(project)
}

func openBrowser(target string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", target).Start()
	case "windows":
		return exec.Command("pwsh", "-NoProfile", "-Command", "Start-Process", target).Start()
	default:
		return exec.Command("xdg-open", target).Start()
	}
}
