package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"clipwatch/internal/api"
	"clipwatch/internal/catalog"
	"clipwatch/internal/ipc"
)

func newRecordingCommands(ctx *commandContext) []*cobra.Command {
	var folder string
	var startJSON bool
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start a recording on the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Start(folder)
				if err != nil {
					return err
				}
				if startJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Recording session %s\n", resp.Session.Name)
				fmt.Fprintf(out, "Output: %s\n", resp.Session.OutputPath)
				return nil
			})
		},
	}
	startCmd.Flags().StringVarP(&folder, "folder", "f", "", "Recording folder (defaults to paths.recordings_dir)")
	startCmd.Flags().BoolVar(&startJSON, "json", false, "Output the started session as JSON")

	var wait bool
	var stopJSON bool
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the active recording and extract highlights",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop(wait)
				if err != nil {
					return err
				}
				if stopJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Stopped session %s\n", resp.Session.Name)
				if resp.Outcome == nil {
					fmt.Fprintln(out, "Highlights are processing; follow progress with `clipwatch watch`")
					return nil
				}
				printOutcome(out, *resp.Outcome)
				return nil
			})
		},
	}
	stopCmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for highlight processing to finish")
	stopCmd.Flags().BoolVar(&stopJSON, "json", false, "Output the stop result as JSON")

	return []*cobra.Command{startCmd, stopCmd}
}

// printOutcome summarizes a finished session.
func printOutcome(out io.Writer, session api.Session) {
	switch catalog.Status(session.Status) {
	case catalog.StatusComplete:
		fmt.Fprintf(out, "Highlights: %d clips from %d detections\n", session.Clips, session.Detections)
		if session.MergedDuration > 0 {
			fmt.Fprintf(out, "Merged: %s (%s)\n", session.MergedPath, formatSeconds(session.MergedDuration))
		} else {
			fmt.Fprintf(out, "Merged: %s\n", session.MergedPath)
		}
	case catalog.StatusNoHighlights:
		fmt.Fprintln(out, "No markers detected; the recording was kept without highlights")
		fmt.Fprintf(out, "Recording: %s\n", session.RecordingPath)
	case catalog.StatusFailed:
		detail := strings.TrimSpace(session.ErrorMessage)
		if kind := strings.TrimSpace(session.ErrorKind); kind != "" {
			detail = fmt.Sprintf("%s (%s)", detail, kind)
		}
		fmt.Fprintf(out, "Session failed: %s\n", detail)
	default:
		fmt.Fprintf(out, "Status: %s\n", session.Status)
	}
}
