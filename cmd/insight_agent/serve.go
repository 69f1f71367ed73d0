package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/config"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/export"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/server"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/server/ratelimit"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

type serveOptions struct {
	port  int
	input string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the insights HTTP API",
		Long: "Start an HTTP server exposing insights, trends, CSV export and reports. " +
			"Bearer authentication is enabled when JWT_SECRET is set.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, root, opts)
		},
	}

	cmd.Flags().IntVar(&opts.port, "port", 0, "Port to listen on (default: port from config)")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Serve a local aggregates JSON file")
	return cmd
}

func runServe(cmd *cobra.Command, root *rootOptions, opts *serveOptions) error {
	e, err := root.setup(opts.input)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	jwtConfig, err := config.OptionalJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}
	if jwtConfig == nil {
		e.logger.Warn("JWT_SECRET not set; /insights routes are unauthenticated")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := e.openSource(ctx, "")
	if err != nil {
		return err
	}
	defer src.close()

	port := opts.port
	if port == 0 {
		port = e.cfg.Port
	}

	srv, err := server.New(server.Config{
		Port:           port,
		Provider:       src.provider,
		Store:          src.store,
		JWT:            jwtConfig,
		RateLimit:      ratelimit.LoadConfig(),
		TrendYears:     e.cfg.TrendYears,
		YearOrder:      types.ParseYearOrder(e.cfg.YearOrder),
		RequestTimeout: e.cfg.RequestTimeout.Std(),
		PDFTimeout:     export.DefaultPDFTimeout,
		Logger:         e.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
