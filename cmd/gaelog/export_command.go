package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gaelog/internal/daemonctl"
	"gaelog/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "export [destination]",
		Short: "Copy the current log file, or archive the whole log tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := ""
			if len(args) == 1 {
				dest = strings.TrimSpace(args[0])
			}
			stdout := cmd.OutOrStdout()

			if all {
				if dest == "" {
					dest = export.DefaultArchiveName(time.Now())
				}
				logDir := ctx.configValue().OutputDir()
				count := 0
				if err := export.Archive(logDir, dest, func(rel string) {
					fmt.Fprintf(stdout, "  added %s\n", rel)
					count++
				}); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Archived %d file(s) to %s\n", count, dest)
				return nil
			}

			source, err := currentOutputFile(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			if dest == "" {
				dest = filepath.Base(source)
			}
			if err := export.File(source, dest); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Copied %s to %s\n", source, dest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Archive every tailed log file into a zip")
	return cmd
}

// currentOutputFile finds the file the active session is writing, or the
// most recent session's last file when nothing is running.
func currentOutputFile(cmdCtx context.Context, ctx *commandContext) (string, error) {
	statusResp, err := daemonctl.BuildStatusSnapshot(cmdCtx, ctx.socketPath(), ctx.configValue())
	if err != nil {
		return "", err
	}
	if statusResp.Session.File != "" {
		return statusResp.Session.File, nil
	}

	sessions, err := fetchSessions(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(sessions) > 0 && sessions[0].File != "" {
		return sessions[0].File, nil
	}
	return "", errors.New("no log output to export; start a session with `gaelog start`")
}
