package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/aggregates"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/config"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/db"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/logging"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/server"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// env bundles the loaded configuration and logger for one command run.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

// setup loads configuration and builds the logger. inputPath, when set,
// overrides the configured source with a local aggregates file.
func (o *rootOptions) setup(inputPath string) (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if inputPath != "" {
		if _, err := os.Stat(inputPath); err != nil {
			return nil, fmt.Errorf("input file not found: %s", inputPath)
		}
		cfg.Source = config.SourceFile
		cfg.InputPath = inputPath
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}

// source is an opened snapshot source. store is nil unless the source
// is a survey database.
type source struct {
	provider aggregates.SnapshotProvider
	store    server.AggregatesStore
	close    func()
}

// openSource builds the provider selected by the configuration. program is
// the program year-keyed input files are filed under.
func (e *env) openSource(ctx context.Context, program string) (*source, error) {
	cfg := e.cfg
	ttl := cfg.CacheTTL.Std()
	cached := func(p aggregates.SnapshotProvider) aggregates.SnapshotProvider {
		if ttl <= 0 {
			return p
		}
		return aggregates.NewCachedProvider(p, ttl)
	}

	switch src := cfg.EffectiveSource(); src {
	case config.SourceFile:
		p, err := loadInput(cfg.InputPath, program)
		if err != nil {
			return nil, err
		}
		return &source{provider: p, close: func() {}}, nil

	case config.SourceHTTP:
		p, err := aggregates.NewHTTPProvider(cfg.AggregatesURL, &aggregates.Options{
			Timeout:   cfg.RequestTimeout.Std(),
			UserAgent: aggregates.DefaultUserAgent,
		}, e.logger)
		if err != nil {
			return nil, err
		}
		return &source{provider: cached(p), close: func() {}}, nil

	case config.SourcePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &source{provider: cached(pool), store: pool, close: pool.Close}, nil

	case config.SourceSQLite:
		store, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &source{provider: cached(store), store: store, close: func() { _ = store.Close() }}, nil

	case "":
		return nil, fmt.Errorf("no snapshot source configured: set --input, AGGREGATES_URL, DATABASE_URL or SQLITE_PATH")
	default:
		return nil, fmt.Errorf("unknown snapshot source %q", src)
	}
}

// loadInput reads either a year-keyed file ({"2023": {...}, "2024": {...}})
// or a single aggregates payload, which then answers every filter. An empty
// object is a single payload with every key missing.
func loadInput(path, program string) (aggregates.SnapshotProvider, error) {
	if p, err := aggregates.LoadYearsFile(path, program); err == nil {
		return p, nil
	}

	if _, err := aggregates.LoadFile(path, types.Filter{}); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}
	return aggregates.ProviderFunc(func(ctx context.Context, filter types.Filter) (types.AggregateSnapshot, error) {
		if err := ctx.Err(); err != nil {
			return types.AggregateSnapshot{}, err
		}
		return aggregates.LoadFile(path, filter)
	}), nil
}

// writeOutput writes data to path, or to stdout when path is empty or "-".
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// parseFormat lower-cases f and checks it against allowed.
func parseFormat(f string, allowed ...string) (string, error) {
	f = strings.ToLower(strings.TrimSpace(f))
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q (want one of %s)", f, strings.Join(allowed, ", "))
}

// parseYear parses a four-digit filter year.
func parseYear(year string) (int, error) {
	if len(year) != 4 {
		return 0, fmt.Errorf("invalid year %q", year)
	}
	return strconv.Atoi(year)
}
