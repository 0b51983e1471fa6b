package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rxkshit04/nightpulse/internal/controller"
	"github.com/rxkshit04/nightpulse/internal/location"
	"github.com/rxkshit04/nightpulse/internal/presentation"
)

type WatchOptions struct {
	*RootOptions
	Positions string
	Interval  time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Replay a position feed and print every view",
		Long: `Replay a JSON-lines position feed through the controller and print
the view after every change.

Each line is either a fix or a location error:
  {"lat": 12.97, "lng": 77.59}
  {"error": "permission_denied"}`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Positions, "positions", "-", "position feed file, - for stdin")
	cmd.Flags().DurationVar(&opts.Interval, "interval", time.Second, "delay between replayed readings")

	return cmd
}

func runWatch(ctx context.Context, opts *WatchOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	var r io.Reader = cmd.InOrStdin()
	if opts.Positions != "-" {
		f, err := os.Open(opts.Positions)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open position feed", err)
		}
		defer f.Close()
		r = f
	}

	replay := location.NewReplaySource(r, opts.Interval)

	ctrl := controller.New(opts.client(), location.NewTracker(replay, opts.Location))
	id, updates := ctrl.Subscribe()
	defer ctrl.Unsubscribe(id)

	if err := ctrl.Start(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to start tracking", err)
	}

	replayErr := make(chan error, 1)
	go func() {
		err := replay.Run(ctx)
		// Closing the source lets the tracker deliver what is buffered and
		// then stop; Done follows once the controller has handled it all.
		replay.Close()
		<-ctrl.Done()
		ctrl.Close()
		replayErr <- err
	}()

	var printed uint64
	for snap := range updates {
		printed = snap.Version
		if err := out.View(presentation.Render(snap)); err != nil {
			slog.Warn("error writing view", "error", err)
		}
	}

	// Slow terminals can miss intermediate views; always end on the latest.
	if last := ctrl.Snapshot(); last.Version != printed {
		if err := out.View(presentation.Render(last)); err != nil {
			slog.Warn("error writing view", "error", err)
		}
	}

	if err := <-replayErr; err != nil && ctx.Err() == nil {
		return WrapExitError(ExitCommandError, "failed to replay positions", err)
	}
	return nil
}
