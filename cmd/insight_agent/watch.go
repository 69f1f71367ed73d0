package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/decision"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/insights"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

type watchOptions struct {
	input string
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompute insights for each filter read from stdin",
		Long: "Reads one filter per line as \"<year|all> [program]\" and recomputes insights for it. " +
			"A new line cancels the computation still in flight; only the newest result is printed, " +
			"as one JSON object per line.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Path to an aggregates JSON file (overrides the configured source)")
	return cmd
}

// parseFilterLine reads "<year|all> [program words...]".
func parseFilterLine(line string) (types.Filter, bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return types.Filter{}, false, nil
	}
	f, err := types.NewFilter(fields[0], strings.Join(fields[1:], " "))
	if err != nil {
		return types.Filter{}, false, fmt.Errorf("invalid filter %q: %w", line, err)
	}
	return f, true, nil
}

func runWatch(cmd *cobra.Command, root *rootOptions, opts *watchOptions) error {
	e, err := root.setup(opts.input)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	ctx := cmd.Context()
	src, err := e.openSource(ctx, "")
	if err != nil {
		return err
	}
	defer src.close()

	engine, err := decision.NewEngine(e.logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	rc := insights.NewRecomputer(src.provider, insights.NewAnalyzer(engine), e.logger, func(ins types.Insights) {
		if err := enc.Encode(ins); err != nil {
			e.logger.Warn("failed to write result", zap.Error(err))
		}
	})

	var wg sync.WaitGroup
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		filter, ok, err := parseFilterLine(scanner.Text())
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			continue
		}
		if !ok {
			continue
		}

		wg.Add(1)
		rc.Go(ctx, filter, func(_ types.Insights, err error) {
			defer wg.Done()
			switch {
			case err == nil:
			case errors.Is(err, insights.ErrSuperseded):
				e.logger.Debug("superseded", zap.String("filter", filter.Describe()))
			default:
				e.logger.Warn("recompute failed", zap.String("filter", filter.Describe()), zap.Error(err))
			}
		})
	}
	wg.Wait()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read filters: %w", err)
	}
	return nil
}
