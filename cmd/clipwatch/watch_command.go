package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/rpc"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clipwatch/internal/api"
	"clipwatch/internal/ipc"
)

const watchPollMillis = 20000

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var limit int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the daemon status stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return ctx.withClient(func(client *ipc.Client) error {
				return streamEvents(signalCtx, client, cmd.OutOrStdout(), limit, follow)
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", true, "Keep waiting for new events")
	cmd.Flags().IntVarP(&limit, "lines", "n", 20, "Number of recent events to show first")
	return cmd
}

// streamEvents prints the last limit events, then long-polls for more while
// follow is set.
func streamEvents(ctx context.Context, client *ipc.Client, out io.Writer, limit int, follow bool) error {
	resp, err := client.Events(ipc.EventsRequest{})
	if err != nil {
		return err
	}
	events := resp.Events
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	for _, evt := range events {
		printEvent(out, evt)
	}
	next := resp.Next

	for follow {
		if ctx.Err() != nil {
			return nil
		}
		resp, err := client.Events(ipc.EventsRequest{Since: next, Follow: true, WaitMillis: watchPollMillis})
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			if errors.Is(err, rpc.ErrShutdown) || errors.Is(err, io.ErrUnexpectedEOF) {
				fmt.Fprintln(out, "Daemon connection closed")
				return nil
			}
			return err
		}
		for _, evt := range resp.Events {
			printEvent(out, evt)
		}
		next = resp.Next
	}
	return nil
}

func printEvent(out io.Writer, evt api.StatusEvent) {
	stamp := evt.Timestamp
	if ts := api.ParseTime(evt.Timestamp); !ts.IsZero() {
		stamp = ts.Local().Format(time.TimeOnly)
	}
	fmt.Fprintf(out, "%s  %-10s %s\n", stamp, evt.Phase, evt.Message)
}
