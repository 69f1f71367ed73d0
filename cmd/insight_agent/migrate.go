package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/db"
)

// migrationTarget is the survey database selected by the configuration.
type migrationTarget struct {
	migrator *db.Migrator
	close    func()
}

// openMigrator prefers DATABASE_URL and falls back to SQLITE_PATH.
func (e *env) openMigrator(ctx context.Context) (*migrationTarget, error) {
	if e.cfg.DatabaseURL != "" {
		m, err := db.NewPostgresMigrator(e.cfg.DatabaseURL, e.logger)
		if err != nil {
			return nil, err
		}
		return &migrationTarget{migrator: m, close: func() { _ = m.Close() }}, nil
	}

	if e.cfg.SQLitePath != "" {
		store, err := db.OpenSQLite(ctx, e.cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		m, err := db.NewSQLiteMigrator(store, e.logger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		return &migrationTarget{migrator: m, close: func() {
			_ = m.Close()
			_ = store.Close()
		}}, nil
	}

	return nil, fmt.Errorf("migrations need DATABASE_URL or SQLITE_PATH")
}

func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the alumni_survey schema",
		Long:  "Apply, roll back or inspect the embedded schema migrations on the configured Postgres or SQLite database.",
	}

	run := func(fn func(cmd *cobra.Command, m *db.Migrator, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			e, err := root.setup("")
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			target, err := e.openMigrator(cmd.Context())
			if err != nil {
				return err
			}
			defer target.close()
			return fn(cmd, target.migrator, args)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, m *db.Migrator, _ []string) error {
				if err := m.Up(); err != nil {
					return err
				}
				return printVersion(cmd, m)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(_ *cobra.Command, m *db.Migrator, _ []string) error {
				return m.Down()
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, m *db.Migrator, _ []string) error {
				return printVersion(cmd, m)
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(_ *cobra.Command, m *db.Migrator, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return m.Force(version)
			}),
		},
	)
	return cmd
}

func printVersion(cmd *cobra.Command, m *db.Migrator) error {
	version, dirty, ok, err := m.Version()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch {
	case !ok:
		_, _ = fmt.Fprintln(out, "Schema version: none")
	case dirty:
		_, _ = fmt.Fprintf(out, "Schema version: %d (dirty)\n", version)
	default:
		_, _ = fmt.Fprintf(out, "Schema version: %d\n", version)
	}
	return nil
}
