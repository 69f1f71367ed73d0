package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/db"
)

// surveyWriter is the part of the survey stores ingest needs.
type surveyWriter interface {
	InsertSurvey(ctx context.Context, row db.SurveyRow) (int64, error)
	CountSurveys(ctx context.Context) (int, error)
}

type ingestOptions struct {
	input   string
	migrate bool
}

func newIngestCmd(root *rootOptions) *cobra.Command {
	opts := &ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load survey responses into the survey database",
		Long: "Reads a JSON array of alumni_survey rows and inserts them into the configured " +
			"Postgres or SQLite database.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Path to a JSON array of survey rows (required)")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "Apply migrations before inserting")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}
	return cmd
}

func runIngest(cmd *cobra.Command, root *rootOptions, opts *ingestOptions) error {
	data, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("failed to read survey rows %s: %w", opts.input, err)
	}
	var rows []db.SurveyRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("failed to parse survey rows: %w", err)
	}

	e, err := root.setup("")
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	ctx := cmd.Context()
	if opts.migrate {
		target, err := e.openMigrator(ctx)
		if err != nil {
			return err
		}
		err = target.migrator.Up()
		target.close()
		if err != nil {
			return err
		}
	}

	var (
		store surveyWriter
		done  func()
	)
	switch {
	case e.cfg.DatabaseURL != "":
		pool, err := db.Connect(ctx, e.cfg.DatabaseURL)
		if err != nil {
			return err
		}
		store, done = pool, pool.Close
	case e.cfg.SQLitePath != "":
		lite, err := db.OpenSQLite(ctx, e.cfg.SQLitePath)
		if err != nil {
			return err
		}
		store, done = lite, func() { _ = lite.Close() }
	default:
		return fmt.Errorf("ingest needs DATABASE_URL or SQLITE_PATH")
	}
	defer done()

	for i, row := range rows {
		id, err := store.InsertSurvey(ctx, row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		e.logger.Debug("inserted survey", zap.Int64("id", id))
	}

	total, err := store.CountSurveys(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully inserted %d surveys (%d total)\n", len(rows), total)
	return nil
}
