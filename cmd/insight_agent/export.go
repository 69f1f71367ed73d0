package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/decision"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/export"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/insights"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/trend"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

type exportOptions struct {
	input      string
	year       string
	program    string
	format     string
	out        string
	withTrend  bool
	template   string
	pdfTimeout time.Duration
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a snapshot as CSV or a report as HTML, text or PDF",
		Long: "Writes the dashboard CSV export of a snapshot, or renders the insights report. " +
			"PDF output requires a local Chrome or Chromium.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Path to an aggregates JSON file (overrides the configured source)")
	cmd.Flags().StringVarP(&opts.year, "year", "y", "", "Graduation year filter (default: all)")
	cmd.Flags().StringVarP(&opts.program, "program", "p", "", "Program filter (default: all)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "csv", "Output format: csv, html, text or pdf")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default: stdout; pdf defaults to the download name)")
	cmd.Flags().BoolVar(&opts.withTrend, "trend", false, "Include the employment trend ending at the filter year")
	cmd.Flags().StringVar(&opts.template, "template", "", "Custom HTML report template")
	cmd.Flags().DurationVar(&opts.pdfTimeout, "pdf-timeout", export.DefaultPDFTimeout, "Timeout for PDF rendering")
	return cmd
}

func runExport(cmd *cobra.Command, root *rootOptions, opts *exportOptions) error {
	format, err := parseFormat(opts.format, "csv", "html", "text", "pdf")
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

	if format == "csv" {
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, snap); err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), opts.out, buf.Bytes())
	}

	engine, err := decision.NewEngine(e.logger)
	if err != nil {
		return err
	}
	ins := insights.NewAnalyzer(engine).Analyze(snap)

	reportOpts := export.ReportOptions{GeneratedAt: time.Now(), TemplatePath: opts.template}
	if opts.withTrend {
		topts := trend.Options{
			Years:   e.cfg.TrendYears,
			Program: filter.Program,
			Order:   types.ParseYearOrder(e.cfg.YearOrder),
		}
		if y, err := parseYear(filter.Year); err == nil {
			topts.EndYear = y
		}
		series, err := trend.NewAnalyzer(src.provider, e.logger).Analyze(ctx, topts)
		if err != nil {
			return fmt.Errorf("trend analysis failed: %w", err)
		}
		reportOpts.Trend = &series
	}

	if format == "text" {
		return writeOutput(cmd.OutOrStdout(), opts.out, []byte(export.TextReport(ins, reportOpts)))
	}

	html, err := export.HTMLReport(ins, reportOpts)
	if err != nil {
		return err
	}
	if format == "html" {
		return writeOutput(cmd.OutOrStdout(), opts.out, []byte(html))
	}

	pdf, err := export.PDF(ctx, html, opts.pdfTimeout)
	if err != nil {
		return err
	}
	out := opts.out
	if out == "" {
		out = pdfFilename(filter)
	}
	if err := writeOutput(cmd.OutOrStdout(), out, pdf); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Successfully wrote PDF report to %s\n", out)
	return nil
}

func pdfFilename(f types.Filter) string {
	name := export.CSVFilename(f)
	return name[:len(name)-len(".csv")] + ".pdf"
}
