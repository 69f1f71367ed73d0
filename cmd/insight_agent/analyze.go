package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/decision"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/export"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/insights"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/observability"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/schemas"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
	schemafiles "github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/schemas"
)

type analyzeOptions struct {
	input    string
	year     string
	program  string
	format   string
	out      string
	validate bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the survey aggregates for one filter",
		Long: "Fetches the aggregate snapshot for a year/program filter and prints the employment " +
			"analysis, program-to-job matches, decision nodes and recommendations.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Path to an aggregates JSON file (overrides the configured source)")
	cmd.Flags().StringVarP(&opts.year, "year", "y", "", "Graduation year filter (default: all)")
	cmd.Flags().StringVarP(&opts.program, "program", "p", "", "Program filter (default: all)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "Validate JSON output against the insights schema")
	return cmd
}

func runAnalyze(cmd *cobra.Command, root *rootOptions, opts *analyzeOptions) error {
	format, err := parseFormat(opts.format, "text", "json")
	if err != nil {
		return err
	}
	filter, err := types.NewFilter(opts.year, opts.program)
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	e, err := root.setup(opts.input)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	ctx := cmd.Context()
	src, err := e.openSource(ctx, filter.Program)
	if err != nil {
		return err
	}
	defer src.close()

	snap, err := src.provider.Snapshot(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to load snapshot for %s: %w", filter.Describe(), err)
	}

	engine, err := decision.NewEngine(e.logger)
	if err != nil {
		return err
	}
	ins := insights.NewAnalyzer(engine).Analyze(snap)
	e.logger.Debug("analysis complete",
		zap.String("filter", filter.Describe()),
		zap.Int("responses", ins.ResponseCount),
		zap.Int("matches", len(ins.Matches)),
	)

	if root.verbose {
		p := observability.NewPrinter(cmd.ErrOrStderr())
		p.PrintSnapshot(&snap)
		p.PrintMatches(ins.Matches)
		p.PrintDecisions(&ins)
	}

	var data []byte
	switch format {
	case "json":
		data, err = json.MarshalIndent(ins, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal insights: %w", err)
		}
		if opts.validate {
			if err := schemas.ValidateBytes(schemafiles.Insights, data); err != nil {
				return fmt.Errorf("output failed schema validation: %w", err)
			}
		}
		data = append(data, '\n')
	default:
		data = []byte(export.TextReport(ins, export.ReportOptions{GeneratedAt: time.Now()}))
	}

	return writeOutput(cmd.OutOrStdout(), opts.out, data)
}
