package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rxkshit04/nightpulse/internal/controller"
	"github.com/rxkshit04/nightpulse/internal/models"
	"github.com/rxkshit04/nightpulse/internal/presentation"
)

type DeleteOptions struct {
	*RootOptions
	Yes bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <alert-id>",
		Short: "Delete an alert after confirmation",
		Long: `Delete an alert. The alert title is shown and the deletion only
happens once it is confirmed, either at the prompt or with --yes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func runDelete(ctx context.Context, opts *DeleteOptions, id string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	// Deleting needs no position, so the controller is never started.
	ctrl := controller.New(opts.client(), nil)
	defer ctrl.Close()

	if err := ctrl.Refresh(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to load alerts", err)
	}
	alert, ok := findAlert(ctrl.Snapshot().Alerts, id)
	if !ok {
		return NewExitError(ExitFailure, fmt.Sprintf("alert %s not found", id))
	}

	ctrl.RequestDelete(alert.ID, alert.Title)

	if !opts.Yes && !confirm(cmd, alert) {
		ctrl.CancelDelete()
		fmt.Fprintln(cmd.ErrOrStderr(), "Deletion cancelled.")
		return out.View(presentation.Render(ctrl.Snapshot()))
	}

	if err := ctrl.ConfirmDelete(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to delete alert", err)
	}
	return out.View(presentation.Render(ctrl.Snapshot()))
}

func findAlert(alerts []models.Alert, id string) (models.Alert, bool) {
	for _, a := range alerts {
		if a.ID == id {
			return a, true
		}
	}
	return models.Alert{}, false
}

func confirm(cmd *cobra.Command, alert models.Alert) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "Delete %q? [y/N] ", alert.Title)

	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
