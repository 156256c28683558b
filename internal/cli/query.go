package cli

import (
	"context"
	"fmt"
	"time"

	"callhistory/internal/calllog"
	"callhistory/internal/contacts"
	"callhistory/internal/permission"
	"callhistory/internal/phone"
	"callhistory/internal/reporting"
	"callhistory/pkg/utils"

	"github.com/spf13/cobra"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	DB          string
	Region      string
	Args        map[string]string
	Concurrency int
	Timeout     time.Duration
	Summary     bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <get|query>",
		Short: "Run a call log request against a SQLite store",
		Long: `Run a call log request against a SQLite store and print the enriched entries,
newest first. The read permission is granted up front.

Example:
  calllogctl query query --db calls.db --region US --arg durationFrom=30 --arg number=555`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite file path")
	cmd.Flags().StringVar(&opts.Region, "region", "", "ISO 3166 region used to canonicalize numbers")
	cmd.Flags().StringToStringVar(&opts.Args, "arg", nil, "query argument key=value (repeatable)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", calllog.DefaultEnrichConcurrency, "parallel contact lookups")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "execution timeout")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "print aggregate counts instead of entries")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, method string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := utils.OpenSQLite(ctx, utils.SQLiteConfig{Path: opts.DB, ReadOnly: true})
	if err != nil {
		return err
	}
	defer db.Close()

	broker := permission.NewBroker()
	broker.Grant(calllog.CapabilityReadCallLog)

	pipeline := &calllog.Pipeline{
		Directory:   contacts.NewSQLDirectory(db, calllog.DialectSQLite),
		Normalizer:  phone.Default(),
		Concurrency: opts.Concurrency,
	}
	ctrl := calllog.NewController(broker, calllog.NewSQLStore(db, calllog.DialectSQLite), pipeline, calllog.Options{
		Region:      opts.Region,
		ExecTimeout: opts.Timeout,
		Logger:      opts.newLogger(cmd.ErrOrStderr()),
	})
	broker.OnResult(ctrl.OnPermissionResult)

	entries, err := ctrl.Do(ctx, calllog.Request{Method: method, Args: opts.Args})
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	if opts.Summary {
		sum := reporting.Summarize(entries, 0)
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), sum)
		}
		renderSummary(cmd.OutOrStdout(), sum)
		return nil
	}
	if opts.Format == "json" {
		if entries == nil {
			entries = []calllog.EnrichedCallEntry{}
		}
		return writeJSON(cmd.OutOrStdout(), entries)
	}
	renderEntries(cmd.OutOrStdout(), entries)
	return nil
}
