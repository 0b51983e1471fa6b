package cli

import (
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List every alert in the store",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			alerts, err := rootOpts.client().List(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load alerts", err)
			}
			return out.Alerts(alerts)
		},
	}
}
