// Package trend fits a linear employment-rate trend across graduation years.
package trend

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/aggregates"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// DefaultYears is the number of years analyzed when Options.Years is unset.
const DefaultYears = 5

// Options selects the years and program to analyze.
type Options struct {
	// Years is how many years to cover, ending at EndYear.
	Years int
	// EndYear is the most recent year; 0 means the current year.
	EndYear int
	Program string
	Order   types.YearOrder
	// Concurrency caps simultaneous fetches; 0 fetches every year at once.
	Concurrency int
}

// Analyzer fetches one snapshot per year and fits the trend.
type Analyzer struct {
	provider aggregates.SnapshotProvider
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnalyzer creates an Analyzer. A nil logger disables logging.
func NewAnalyzer(provider aggregates.SnapshotProvider, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{provider: provider, logger: logger, now: time.Now}
}

// Years returns the chronological list of years covered by opts.
func (a *Analyzer) Years(opts Options) []string {
	n := opts.Years
	if n <= 0 {
		n = DefaultYears
	}
	end := opts.EndYear
	if end <= 0 {
		end = a.now().Year()
	}

	years := make([]string, n)
	for i := range years {
		years[i] = strconv.Itoa(end - (n - 1) + i)
	}
	return years
}

// Analyze fetches every year concurrently and waits for all of them before
// fitting the regression. A year whose fetch fails or has no yes/no answers
// becomes a nil value. The only error returned is the context's.
func (a *Analyzer) Analyze(ctx context.Context, opts Options) (types.TrendSeries, error) {
	years := a.Years(opts)
	values := make([]*int, len(years))

	g, gCtx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for i, year := range years {
		g.Go(func() error {
			filter := types.Filter{Year: year, Program: opts.Program}
			snap, err := a.provider.Snapshot(gCtx, filter)
			if err != nil {
				a.logger.Warn("trend year fetch failed",
					zap.String("year", year),
					zap.String("program", opts.Program),
					zap.Error(err),
				)
				return nil
			}
			if pct, ok := snap.EmployedWithin.Percent(); ok {
				values[i] = &pct
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return types.TrendSeries{}, err
	}

	series := Compute(years, values, opts.Order)
	series.Program = opts.Program
	a.logger.Debug("trend computed",
		zap.Strings("years", years),
		zap.String("direction", string(series.Direction)),
	)
	return series, nil
}
