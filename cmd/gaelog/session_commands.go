package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gaelog/internal/ipc"
	"gaelog/internal/store"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect tail session history",
	}
	sessionsCmd.AddCommand(newSessionsListCommand(ctx))
	sessionsCmd.AddCommand(newSessionsShowCommand(ctx))
	sessionsCmd.AddCommand(newSessionsClearCommand(ctx))
	return sessionsCmd
}

func newSessionsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := fetchSessions(ctx, limit)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(stdout, "No sessions recorded")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, session := range sessions {
				rows = append(rows, []string{
					shortID(session.ID),
					session.ProjectID,
					session.Mode,
					titleCase(session.Status),
					formatTimestamp(session.StartedAt),
					strconv.FormatInt(session.Lines, 10),
					formatBytes(session.Bytes),
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"ID", "Project", "Mode", "Status", "Started", "Lines", "Bytes"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to show (0 for all)")
	return cmd
}

func newSessionsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one session in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := fetchSession(ctx, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "ID:       %s\n", session.ID)
			fmt.Fprintf(stdout, "Project:  %s\n", session.ProjectID)
			fmt.Fprintf(stdout, "Mode:     %s\n", session.Mode)
			fmt.Fprintf(stdout, "Status:   %s\n", titleCase(session.Status))
			fmt.Fprintf(stdout, "Started:  %s\n", formatTimestamp(session.StartedAt))
			if session.StoppedAt != nil {
				fmt.Fprintf(stdout, "Stopped:  %s\n", formatTimestamp(*session.StoppedAt))
			}
			fmt.Fprintf(stdout, "Lines:    %d\n", session.Lines)
			fmt.Fprintf(stdout, "Bytes:    %s\n", formatBytes(session.Bytes))
			fmt.Fprintf(stdout, "File:     %s\n", session.File)
			fmt.Fprintf(stdout, "Active:   %s\n", yesNo(session.Active))
			if session.Error != "" {
				fmt.Fprintf(stdout, "Error:    %s\n", session.Error)
			}
			return nil
		},
	}
}

func newSessionsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all session history",
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed int64
			err := ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SessionClear()
				if err != nil {
					return err
				}
				removed = resp.Removed
				return nil
			})
			if err != nil {
				// Daemon offline: clear the store directly.
				st, openErr := store.Open(ctx.configValue())
				if openErr != nil {
					return err
				}
				defer st.Close()
				removed, err = st.Clear(cmd.Context())
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d session(s)\n", removed)
			return nil
		},
	}
}

// fetchSessions asks the daemon for history, falling back to reading the
// store directly when the daemon is offline.
func fetchSessions(ctx *commandContext, limit int) ([]ipc.SessionInfo, error) {
	var sessions []ipc.SessionInfo
	err := ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.SessionList(limit)
		if err != nil {
			return err
		}
		sessions = resp.Sessions
		return nil
	})
	if err == nil {
		return sessions, nil
	}

	st, openErr := store.Open(ctx.configValue())
	if openErr != nil {
		return nil, err
	}
	defer st.Close()
	records, listErr := st.List(context.Background(), limit)
	if listErr != nil {
		return nil, listErr
	}
	for _, record := range records {
		sessions = append(sessions, sessionInfoFromRecord(record))
	}
	return sessions, nil
}

// fetchSession resolves an exact session id or a unique id prefix, the
// way `sessions list` displays them.
func fetchSession(ctx *commandContext, id string) (ipc.SessionInfo, error) {
	sessions, err := fetchSessions(ctx, 0)
	if err != nil {
		return ipc.SessionInfo{}, err
	}

	var matches []ipc.SessionInfo
	for _, session := range sessions {
		if session.ID == id {
			return session, nil
		}
		if strings.HasPrefix(session.ID, id) {
			matches = append(matches, session)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return ipc.SessionInfo{}, fmt.Errorf("session %q not found", id)
	default:
		return ipc.SessionInfo{}, fmt.Errorf("session id %q is ambiguous (%d matches)", id, len(matches))
	}
}

func sessionInfoFromRecord(record *store.Session) ipc.SessionInfo {
	return ipc.SessionInfo{
		ID:        record.ID,
		ProjectID: record.ProjectID,
		Mode:      record.Mode,
		StartedAt: record.StartedAt,
		StoppedAt: record.StoppedAt,
		Lines:     record.Lines,
		Bytes:     record.Bytes,
		File:      record.LastFile,
		Status:    string(record.Status),
		Error:     record.Error,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
