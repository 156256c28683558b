package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"callhistory/internal/calllog"
	"callhistory/internal/contacts"
	"callhistory/pkg/utils"

	"github.com/spf13/cobra"
)

// InitDBOptions holds flags for the init-db command.
type InitDBOptions struct {
	*RootOptions
	DB   string
	Seed string
}

// NewInitDBCommand creates the init-db command.
func NewInitDBCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitDBOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create a local SQLite call log and contact directory",
		Long: `Create the calls and contact_phones tables in a SQLite file, optionally
loading rows from a JSON seed file.

Seed format:
  {"calls":    [{"number": "555-1234", "type": 1, "date": 1700000000000, "duration": 45}],
   "contacts": [{"display_name": "Ann", "normalized_number": "+15551234"}]}`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initDB(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite file path")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "JSON seed file")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

type seedFile struct {
	Calls    []seedCall    `json:"calls"`
	Contacts []seedContact `json:"contacts"`
}

type seedCall struct {
	FormattedNumber *string `json:"formatted_number"`
	Number          string  `json:"number"`
	Type            int     `json:"type"`
	Date            int64   `json:"date"`
	Duration        int64   `json:"duration"`
	Name            *string `json:"name"`
	NumberType      int     `json:"numbertype"`
	NumberLabel     *int    `json:"numberlabel"`
}

type seedContact struct {
	RawContactID      *string `json:"raw_contact_id"`
	DisplayName       *string `json:"display_name"`
	ContactID         *int64  `json:"contact_id"`
	PhotoURI          *string `json:"photo_uri"`
	PhotoThumbURI     *string `json:"photo_thumb_uri"`
	NormalizedNumber  string  `json:"normalized_number"`
	LastTimeContacted *int64  `json:"last_time_contacted"`
}

type initDBOutput struct {
	Path     string `json:"path"`
	Calls    int    `json:"calls"`
	Contacts int    `json:"contacts"`
}

func initDB(cmd *cobra.Command, opts *InitDBOptions) error {
	if opts.DB == ":memory:" {
		return errors.New("--db must be a file path")
	}

	var seed seedFile
	if opts.Seed != "" {
		raw, err := os.ReadFile(opts.Seed)
		if err != nil {
			return fmt.Errorf("read seed: %w", err)
		}
		if err := json.Unmarshal(raw, &seed); err != nil {
			return fmt.Errorf("parse seed: %w", err)
		}
	}

	ctx := cmd.Context()
	db, err := utils.OpenSQLite(ctx, utils.SQLiteConfig{Path: opts.DB})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := createSchema(ctx, db); err != nil {
		return err
	}
	if err := loadSeed(ctx, db, seed); err != nil {
		return err
	}

	out := initDBOutput{Path: opts.DB, Calls: len(seed.Calls), Contacts: len(seed.Contacts)}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "initialized %s (%d calls, %d contacts)\n", out.Path, out.Calls, out.Contacts)
	return err
}

func createSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range []string{calllog.SQLiteSchema, contacts.SQLiteSchema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func loadSeed(ctx context.Context, db *sql.DB, seed seedFile) (err error) {
	if len(seed.Calls) == 0 && len(seed.Contacts) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, c := range seed.Calls {
		if c.Number == "" {
			return fmt.Errorf("seed call %d: number required", i)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO calls (formatted_number, number, type, date, duration, name, numbertype, numberlabel)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.FormattedNumber, c.Number, c.Type, c.Date, c.Duration, c.Name, c.NumberType, c.NumberLabel); err != nil {
			return fmt.Errorf("seed call %d: %w", i, err)
		}
	}
	for i, c := range seed.Contacts {
		if c.NormalizedNumber == "" {
			return fmt.Errorf("seed contact %d: normalized_number required", i)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO contact_phones (raw_contact_id, display_name, contact_id, photo_uri, photo_thumb_uri, normalized_number, last_time_contacted)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.RawContactID, c.DisplayName, c.ContactID, c.PhotoURI, c.PhotoThumbURI, c.NormalizedNumber, c.LastTimeContacted); err != nil {
			return fmt.Errorf("seed contact %d: %w", i, err)
		}
	}
	return tx.Commit()
}
