package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clipwatch/internal/ipc"
	"clipwatch/internal/logs"
)

const logFollowWaitMillis = 5000

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var session string
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			out := cmd.OutOrStdout()
			emit := func(line string) {
				if raw {
					fmt.Fprintln(out, line)
					return
				}
				fmt.Fprintln(out, logs.FormatLine(line))
			}
			return ctx.withClient(func(client *ipc.Client) error {
				return tailDaemonLog(signalCtx, client, out, lines, follow, session, emit)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&session, "session", "", "Only show lines for this session (its folder name)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print log lines unformatted")
	return cmd
}

func tailDaemonLog(ctx context.Context, client *ipc.Client, out io.Writer, lines int, follow bool, session string, emit func(string)) error {
	resp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: lines, SessionID: session})
	if err != nil {
		return err
	}
	if len(resp.Lines) == 0 && !follow {
		fmt.Fprintln(out, "No log lines")
		return nil
	}
	for _, line := range resp.Lines {
		emit(line)
	}
	offset := resp.Offset
	for follow && ctx.Err() == nil {
		resp, err := client.LogTail(ipc.LogTailRequest{
			Offset:     offset,
			Follow:     true,
			WaitMillis: logFollowWaitMillis,
			SessionID:  session,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for _, line := range resp.Lines {
			emit(line)
		}
		offset = resp.Offset
	}
	return nil
}
