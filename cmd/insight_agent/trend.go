package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/observability"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/schemas"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/trend"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
	schemafiles "github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/schemas"
)

type trendOptions struct {
	input       string
	years       int
	endYear     int
	program     string
	order       string
	concurrency int
	format      string
	out         string
	validate    bool
}

func newTrendCmd(root *rootOptions) *cobra.Command {
	opts := &trendOptions{}

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Compute the multi-year employment trend",
		Long: "Fetches one snapshot per year, computes the employed-within-six-months rate for each " +
			"and fits a least-squares slope to classify the trend.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrend(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Path to a year-keyed aggregates JSON file")
	cmd.Flags().IntVar(&opts.years, "years", 0, "Number of years (default: trend_years from config)")
	cmd.Flags().IntVar(&opts.endYear, "end-year", 0, "Most recent year (default: current year)")
	cmd.Flags().StringVarP(&opts.program, "program", "p", "", "Program filter (default: all)")
	cmd.Flags().StringVar(&opts.order, "order", "", "Display order: asc or desc (default: year_order from config)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "Maximum simultaneous fetches")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "Validate JSON output against the trend schema")
	return cmd
}

func runTrend(cmd *cobra.Command, root *rootOptions, opts *trendOptions) error {
	format, err := parseFormat(opts.format, "text", "json")
	if err != nil {
		return err
	}
	filter, err := types.NewFilter("", opts.program)
	if err != nil {
		return fmt.Errorf("invalid program: %w", err)
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

	years := opts.years
	if years <= 0 {
		years = e.cfg.TrendYears
	}
	order := opts.order
	if order == "" {
		order = e.cfg.YearOrder
	}

	series, err := trend.NewAnalyzer(src.provider, e.logger).Analyze(ctx, trend.Options{
		Years:       years,
		EndYear:     opts.endYear,
		Program:     filter.Program,
		Order:       types.ParseYearOrder(order),
		Concurrency: opts.concurrency,
	})
	if err != nil {
		return fmt.Errorf("trend analysis failed: %w", err)
	}

	if root.verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintTrend(&series)
	}

	var data []byte
	switch format {
	case "json":
		data, err = json.MarshalIndent(series, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal trend: %w", err)
		}
		if opts.validate {
			if err := schemas.ValidateBytes(schemafiles.Trend, data); err != nil {
				return fmt.Errorf("output failed schema validation: %w", err)
			}
		}
		data = append(data, '\n')
	default:
		data = []byte(trendText(series))
	}
	return writeOutput(cmd.OutOrStdout(), opts.out, data)
}

func trendText(series types.TrendSeries) string {
	var b strings.Builder
	b.WriteString(trend.Summary(series) + "\n")
	for i, y := range series.Years {
		if v := series.Values[i]; v != nil {
			fmt.Fprintf(&b, "  %s: %d%%\n", y, *v)
		} else {
			fmt.Fprintf(&b, "  %s: no data\n", y)
		}
	}
	return b.String()
}
