// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Snapshot sources.
const (
	SourceHTTP     = "http"
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Defaults applied by Default and MergeWithDefaults.
const (
	DefaultPort           = 8080
	DefaultTrendYears     = 5
	DefaultYearOrder      = "desc"
	DefaultCacheTTL       = 5 * time.Minute
	DefaultRequestTimeout = 15 * time.Second
	DefaultLogLevel       = "info"
)

// Duration is a time.Duration written as "90s" or "5m" in config files.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.parse(s)
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalYAML accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if secs, err := strconv.ParseFloat(node.Value, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the engine configuration. It can be loaded from a JSON or YAML
// file and is then overridden by the environment.
type Config struct {
	// Source selects where snapshots come from. When empty it is inferred
	// from which location is set.
	Source        string `json:"source,omitempty" yaml:"source,omitempty" validate:"omitempty,oneof=http file postgres sqlite"`
	AggregatesURL string `json:"aggregates_url,omitempty" yaml:"aggregates_url,omitempty" validate:"omitempty,url"`
	DatabaseURL   string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	SQLitePath    string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
	// InputPath is an aggregates JSON file, or a year-keyed file for trends.
	InputPath string `json:"input_path,omitempty" yaml:"input_path,omitempty"`

	TrendYears int    `json:"trend_years,omitempty" yaml:"trend_years,omitempty" validate:"omitempty,min=2,max=50"`
	YearOrder  string `json:"year_order,omitempty" yaml:"year_order,omitempty" validate:"omitempty,oneof=asc desc"`

	Port           int      `json:"port,omitempty" yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	CacheTTL       Duration `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty" validate:"min=0"`
	RequestTimeout Duration `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty" validate:"min=0"`

	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogJSON  bool   `json:"log_json,omitempty" yaml:"log_json,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TrendYears:     DefaultTrendYears,
		YearOrder:      DefaultYearOrder,
		Port:           DefaultPort,
		CacheTTL:       Duration(DefaultCacheTTL),
		RequestTimeout: Duration(DefaultRequestTimeout),
		LogLevel:       DefaultLogLevel,
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Load reads the optional config file at path, fills unset fields with
// defaults, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	merged := cfg.MergeWithDefaults(Default())
	if err := merged.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvSource         = "INSIGHT_SOURCE"
	EnvAggregatesURL  = "AGGREGATES_URL"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvSQLitePath     = "SQLITE_PATH"
	EnvInputPath      = "INSIGHT_INPUT"
	EnvTrendYears     = "TREND_YEARS"
	EnvYearOrder      = "YEAR_ORDER"
	EnvPort           = "PORT"
	EnvCacheTTL       = "CACHE_TTL"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogJSON        = "LOG_JSON"
)

// ApplyEnv overrides fields with environment values. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvSource, &c.Source)
	str(EnvAggregatesURL, &c.AggregatesURL)
	str(EnvDatabaseURL, &c.DatabaseURL)
	str(EnvSQLitePath, &c.SQLitePath)
	str(EnvInputPath, &c.InputPath)
	str(EnvYearOrder, &c.YearOrder)
	str(EnvLogLevel, &c.LogLevel)

	var errs []error
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	integer(EnvTrendYears, &c.TrendYears)
	integer(EnvPort, &c.Port)

	duration := func(key string, dst *Duration) {
		if v, ok := lookup(key); ok && v != "" {
			if err := dst.parse(v); err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
			}
		}
	}
	duration(EnvCacheTTL, &c.CacheTTL)
	duration(EnvRequestTimeout, &c.RequestTimeout)

	if v, ok := lookup(EnvLogJSON); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", EnvLogJSON, err))
		} else {
			c.LogJSON = b
		}
	}
	return errors.Join(errs...)
}

// EffectiveSource returns Source, or the source implied by the first
// configured location: database, SQLite file, aggregates URL, input file.
func (c *Config) EffectiveSource() string {
	switch {
	case c.Source != "":
		return c.Source
	case c.DatabaseURL != "":
		return SourcePostgres
	case c.SQLitePath != "":
		return SourceSQLite
	case c.AggregatesURL != "":
		return SourceHTTP
	case c.InputPath != "":
		return SourceFile
	default:
		return ""
	}
}

// FieldError is a single invalid configuration value.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invalid configuration value.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "config error: " + strings.Join(parts, "; ")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges and that the selected source has a location.
func (c *Config) Validate() error {
	var fields []FieldError

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config error: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   jsonName(fe.StructField()),
				Message: fmt.Sprintf("failed %q check (value %v)", fe.Tag(), fe.Value()),
			})
		}
	}

	required := map[string]struct {
		field string
		value string
	}{
		SourceHTTP:     {"aggregates_url", c.AggregatesURL},
		SourceFile:     {"input_path", c.InputPath},
		SourcePostgres: {"database_url", c.DatabaseURL},
		SourceSQLite:   {"sqlite_path", c.SQLitePath},
	}
	if req, ok := required[c.Source]; ok && req.value == "" {
		fields = append(fields, FieldError{Field: req.field, Message: "required when source is " + c.Source})
	}

	if c.InputPath != "" {
		if _, err := os.Stat(c.InputPath); os.IsNotExist(err) {
			fields = append(fields, FieldError{Field: "input_path", Message: "file not found: " + c.InputPath})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Errors: fields}
	}
	return nil
}

func jsonName(field string) string {
	names := map[string]string{
		"Source":         "source",
		"AggregatesURL":  "aggregates_url",
		"TrendYears":     "trend_years",
		"YearOrder":      "year_order",
		"Port":           "port",
		"CacheTTL":       "cache_ttl",
		"RequestTimeout": "request_timeout",
		"LogLevel":       "log_level",
	}
	if n, ok := names[field]; ok {
		return n
	}
	return field
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Source == "" {
		result.Source = defaults.Source
	}
	if result.AggregatesURL == "" {
		result.AggregatesURL = defaults.AggregatesURL
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SQLitePath == "" {
		result.SQLitePath = defaults.SQLitePath
	}
	if result.InputPath == "" {
		result.InputPath = defaults.InputPath
	}
	if result.YearOrder == "" {
		result.YearOrder = defaults.YearOrder
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	if result.TrendYears == 0 {
		result.TrendYears = defaults.TrendYears
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.CacheTTL == 0 {
		result.CacheTTL = defaults.CacheTTL
	}
	if result.RequestTimeout == 0 {
		result.RequestTimeout = defaults.RequestTimeout
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}
