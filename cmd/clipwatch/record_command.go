package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clipwatch/internal/api"
	"clipwatch/internal/catalog"
	"clipwatch/internal/config"
	"clipwatch/internal/daemon"
	"clipwatch/internal/daemonrun"
	"clipwatch/internal/logging"
	"clipwatch/internal/recorder"
	"clipwatch/internal/status"
)

const recordHubCapacity = 256

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record in the foreground without a daemon; press Enter or Ctrl-C to stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runForegroundRecording(cmd.Context(), cmd, cfg, folder)
		},
	}
	cmd.Flags().StringVarP(&folder, "folder", "f", "", "Recording folder (defaults to paths.recordings_dir)")
	return cmd
}

func runForegroundRecording(parent context.Context, cmd *cobra.Command, cfg *config.Config, folder string) error {
	out := cmd.OutOrStdout()
	signalCtx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logPath := logging.RunLogPath(cfg.Paths.LogDir, "record", time.Now())
	logger, err := logging.NewWithLogFile(cfg, logPath)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	// The HTTP API belongs to the daemon.
	local := *cfg
	local.API.Bind = ""
	cfg = &local

	store, err := catalog.Open(cfg)
	if err != nil {
		return err
	}
	hub := status.NewHub(recordHubCapacity)
	d, err := daemon.New(cfg, store, logger, daemonrun.NewRecorderDependencies(cfg, logger, hub))
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create recorder: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("%w; a running daemon records with `clipwatch start`", err)
	}

	events, unsubscribe := hub.Subscribe(64)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for evt := range events {
			fmt.Fprintf(out, "%s  %s\n", evt.Timestamp.Format("15:04:05"), evt.Message)
		}
	}()
	defer func() {
		unsubscribe()
		<-printed
	}()

	session, err := d.StartRecording(signalCtx, folder)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Recording to %s; press Enter to stop\n", session.OutputPath)

	waitForStop(signalCtx, cmd.InOrStdin())

	// The signal context is already cancelled on Ctrl-C; processing gets its own.
	// ErrNotRecording means the encoder already ended the session on its own.
	if _, err := d.StopRecording(context.Background()); err != nil && !errors.Is(err, recorder.ErrNotRecording) {
		return err
	}
	if err := d.WaitIdle(context.Background()); err != nil {
		return err
	}

	row, err := d.Session(context.Background(), session.ID)
	if err != nil {
		return err
	}
	if row == nil {
		return errors.New("session missing from catalog after processing")
	}
	unsubscribe()
	<-printed
	printOutcome(out, api.FromSession(row))
	return nil
}

// waitForStop returns on the first line of input, EOF, or ctx cancellation.
func waitForStop(ctx context.Context, in io.Reader) {
	lines := make(chan struct{})
	go func() {
		reader := bufio.NewReader(in)
		_, _ = reader.ReadString('\n')
		close(lines)
	}()
	select {
	case <-ctx.Done():
	case <-lines:
	}
}
