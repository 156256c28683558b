package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"callhistory/pkg/logger"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for calllogctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "calllogctl",
		Short: "Operate a call history store",
		Long:  "Issue API tokens, seed local SQLite stores and run call log requests without the HTTP service.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging on stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewInitDBCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))

	return cmd
}

// newLogger returns the command logger. Debug records need --verbose.
func (o *RootOptions) newLogger(w io.Writer) *slog.Logger {
	if o.Verbose {
		return logger.NewWriter("dev", w)
	}
	return logger.NewWriter("production", w)
}
