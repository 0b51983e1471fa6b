// Package cli implements the nightpulse command line client. Each command
// runs a lifecycle controller locally against a remote alert store.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rxkshit04/nightpulse/internal/config"
	"github.com/rxkshit04/nightpulse/internal/location"
	"github.com/rxkshit04/nightpulse/internal/logging"
	"github.com/rxkshit04/nightpulse/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	StoreURL string
	Timeout  time.Duration
	Format   string // "json" | "text"
	LogLevel string
	Location location.Options
}

var ValidFormats = []string{"text", "json"}

func (o *RootOptions) client() store.Client {
	return store.NewHTTPClient(o.StoreURL, o.Timeout)
}

// NewRootCommand creates the root command. cfg supplies the flag defaults.
func NewRootCommand(cfg *config.ClientConfig) *cobra.Command {
	opts := &RootOptions{
		Location: location.Options{
			HighAccuracy: cfg.Location.HighAccuracy,
			MaximumAge:   cfg.Location.MaximumAge,
			Timeout:      cfg.Location.Timeout,
		},
	}

	cmd := &cobra.Command{
		Use:   "nightpulse",
		Short: "NightPulse - neighbourhood night alerts",
		Long:  "Post, list, delete and watch location-tagged safety alerts on a NightPulse store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			logging.SetupTo(cmd.ErrOrStderr(), opts.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.StoreURL, "store-url", cfg.StoreURL, "base URL of the alert store")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", cfg.Timeout, "store request timeout")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", cfg.Logging.Level, "log level (debug|info|warn|error)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewPostCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
