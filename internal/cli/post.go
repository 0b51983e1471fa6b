package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/rxkshit04/nightpulse/internal/controller"
	"github.com/rxkshit04/nightpulse/internal/location"
	"github.com/rxkshit04/nightpulse/internal/models"
	"github.com/rxkshit04/nightpulse/internal/presentation"
)

type PostOptions struct {
	*RootOptions
	Title       string
	Description string
	Category    string
	Lat         float64
	Lng         float64
}

// NewPostCommand creates the post command.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PostOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post an alert at a position",
		Long: `Post an alert at the given position and print the refreshed view.

Example:
  nightpulse post --title "Street lights out" --category power-outage --lat 12.97 --lng 77.59`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "alert title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "alert description")
	cmd.Flags().StringVar(&opts.Category, "category", string(models.DefaultCategory()), "alert category")
	cmd.Flags().Float64Var(&opts.Lat, "lat", 0, "latitude of the alert")
	cmd.Flags().Float64Var(&opts.Lng, "lng", 0, "longitude of the alert")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")

	return cmd
}

func runPost(ctx context.Context, opts *PostOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	ctrl, stop, err := startAt(ctx, opts.client(), opts.Location, location.Fix{Lat: opts.Lat, Lng: opts.Lng, Time: time.Now()})
	if err != nil {
		return WrapExitError(ExitFailure, "location unavailable", err)
	}
	defer stop()

	form := models.Form{
		Title:       opts.Title,
		Description: opts.Description,
		Category:    models.ParseCategory(opts.Category),
	}
	if err := ctrl.Submit(ctx, form); err != nil {
		if errors.Is(err, controller.ErrValidation) {
			return WrapExitError(ExitCommandError, "invalid alert", err)
		}
		return WrapExitError(ExitFailure, "failed to post alert", err)
	}

	return out.View(presentation.Render(ctrl.Snapshot()))
}
