package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gaelog/internal/daemonctl"
	"gaelog/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startProject string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon and begin tailing App Engine logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}
			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Start(startProject)
				if err != nil {
					return err
				}
				if !resp.Started {
					fmt.Fprintln(stdout, resp.Message)
					return nil
				}
				fmt.Fprintf(stdout, "Tailing logs for project %s (session %s)\n",
					resp.Session.ProjectID, resp.Session.ID)
				fmt.Fprintf(stdout, "Writing to %s\n", resp.Session.File)
				return nil
			})
		},
	}
	startCmd.Flags().StringVarP(&startProject, "project", "p", "", "Google Cloud project id (defaults to gcloud.project)")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop tailing and terminate the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the gaelog daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, session, and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			statusResp, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if statusResp.Running {
				fmt.Fprintln(stdout, renderStatusLine("Gaelog", statusOK, fmt.Sprintf("Running (pid %d)", statusResp.PID), colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Gaelog", statusWarn, "Not running (run `gaelog start`)", colorize))
			}
			fmt.Fprintln(stdout, renderStatusLine("Log directory", statusInfo, statusResp.LogDir, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Output directory", statusInfo, statusResp.OutputDir, colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Tail Session", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range sessionLines(statusResp.Session, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range dependencyLines(statusResp.Dependencies, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Session History", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := buildSessionStatsRows(statusResp.SessionStats)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "No sessions recorded")
				return nil
			}
			fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func sessionLines(session ipc.SessionInfo, colorize bool) []string {
	if !session.Active {
		return []string{renderStatusLine("Session", statusInfo, "Idle", colorize)}
	}
	return []string{
		renderStatusLine("Session", statusOK, fmt.Sprintf("Tailing %s (%s mode)", session.ProjectID, session.Mode), colorize),
		renderStatusLine("Started", statusInfo, fmt.Sprintf("%s (%s ago)", formatTimestamp(session.StartedAt), formatSince(session.StartedAt)), colorize),
		renderStatusLine("Lines", statusInfo, strconv.FormatInt(session.Lines, 10), colorize),
		renderStatusLine("Bytes", statusInfo, formatBytes(session.Bytes), colorize),
		renderStatusLine("Current file", statusInfo, session.File, colorize),
	}
}

func dependencyLines(deps []ipc.DependencyStatus, colorize bool) []string {
	lines := make([]string, 0, len(deps))
	missing := make([]string, 0)
	for _, dep := range deps {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		if !dep.Optional {
			missing = append(missing, dep.Name)
		}
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn,
			fmt.Sprintf("%s (run `gaelog sdk install`)", strings.Join(missing, ", ")), colorize))
	}
	return lines
}

func buildSessionStatsRows(stats map[string]int) [][]string {
	names := make([]string, 0, len(stats))
	for name, count := range stats {
		if count > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{titleCase(name), strconv.Itoa(stats[name])})
	}
	return rows
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
