package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"clipwatch/internal/api"
	"clipwatch/internal/catalog"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"ls"},
		Short:   "List recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := normalizeStatuses(statuses)
			if err != nil {
				return err
			}
			handle, err := ctx.openSessions()
			if err != nil {
				return err
			}
			defer handle.Close()

			sessions, err := handle.Access.List(cmd.Context(), limit, normalized)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, api.SessionListResponse{Sessions: sessions})
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions found")
				return nil
			}
			fmt.Fprint(out, renderTable(
				[]string{"ID", "Session", "Status", "Duration", "Detections", "Clips", "Size"},
				sessionRows(sessions),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			fmt.Fprintln(out)
			if !handle.Live {
				fmt.Fprintln(out, "(daemon offline; read from the session catalog)")
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Only show sessions with these statuses")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output sessions as JSON")

	cmd.AddCommand(newSessionShowCommand(ctx))
	cmd.AddCommand(newSessionRemoveCommand(ctx))
	return cmd
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := ctx.openSessions()
			if err != nil {
				return err
			}
			defer handle.Close()

			session, err := handle.Access.Describe(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if session == nil {
				return fmt.Errorf("session %s not found", args[0])
			}
			if asJSON {
				return writeJSON(cmd, api.SessionResponse{Session: *session})
			}
			printSessionDetail(cmd.OutOrStdout(), *session)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the session as JSON")
	return cmd
}

func newSessionRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Remove sessions from the catalog (recording files stay on disk)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := ctx.openSessions()
			if err != nil {
				return err
			}
			defer handle.Close()

			removed, err := handle.Access.Remove(cmd.Context(), args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch removed {
			case 0:
				fmt.Fprintln(out, "No matching sessions")
			case 1:
				fmt.Fprintln(out, "Removed 1 session")
			default:
				fmt.Fprintf(out, "Removed %d sessions\n", removed)
			}
			return nil
		},
	}
}

func normalizeStatuses(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, value := range values {
		parsed, ok := catalog.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown session status %q", value)
		}
		out = append(out, string(parsed))
	}
	return out, nil
}

func sessionRows(sessions []api.Session) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.ID,
			s.Name,
			titleCase(s.Status),
			formatSeconds(s.DurationSeconds),
			fmt.Sprintf("%d", s.Detections),
			fmt.Sprintf("%d", s.Clips),
			formatBytes(s.RecordingBytes),
		})
	}
	return rows
}

func printSessionDetail(out io.Writer, s api.Session) {
	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(out, "%-12s %s\n", label+":", value)
	}
	field("ID", s.ID)
	field("Session", s.Name)
	field("Status", titleCase(s.Status))
	field("Folder", s.Folder)
	field("Recording", s.RecordingPath)
	field("Started", s.StartedAt)
	field("Ended", s.EndedAt)
	field("Duration", formatSeconds(s.DurationSeconds))
	field("Size", formatBytes(s.RecordingBytes))
	field("Detections", fmt.Sprintf("%d", s.Detections))
	field("Clips", fmt.Sprintf("%d", s.Clips))
	field("Merged", s.MergedPath)
	if s.MergedDuration > 0 {
		field("Reel length", formatSeconds(s.MergedDuration))
	}
	if s.ErrorMessage != "" {
		field("Error", fmt.Sprintf("%s (%s)", s.ErrorMessage, s.ErrorKind))
	}
}
