package aggregates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; InsightAgent/1.0)"

// AggregatesPath is the survey-aggregates endpoint relative to the API base.
const AggregatesPath = "/api/survey-aggregates/"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 8 << 20

// FetchError represents an error while obtaining a snapshot over HTTP.
type FetchError struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Options configures the HTTP provider.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// HTTPProvider fetches snapshots from a survey-aggregates API.
type HTTPProvider struct {
	baseURL string
	options *Options
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPProvider creates a provider for the API rooted at baseURL.
func NewHTTPProvider(baseURL string, opts *Options, logger *zap.Logger) (*HTTPProvider, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &FetchError{URL: baseURL, Message: "invalid URL", Cause: err}
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		options: opts,
		client:  &http.Client{Timeout: opts.Timeout},
		logger:  logger,
	}, nil
}

// URLFor returns the request URL for filter. Unset filter fields are omitted.
func (p *HTTPProvider) URLFor(filter types.Filter) string {
	params := url.Values{}
	if filter.Year != "" {
		params.Set("year", filter.Year)
	}
	if filter.Program != "" {
		params.Set("program", filter.Program)
	}
	u := p.baseURL + AggregatesPath
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// Snapshot performs GET on the aggregates endpoint and decodes the body leniently.
// Non-200 responses and transport failures return a *FetchError.
func (p *HTTPProvider) Snapshot(ctx context.Context, filter types.Filter) (types.AggregateSnapshot, error) {
	urlStr := p.URLFor(filter)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return types.AggregateSnapshot{}, &FetchError{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", p.options.UserAgent)
	req.Header.Set("Accept", "application/json")
	for key, value := range p.options.Headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return types.AggregateSnapshot{}, &FetchError{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return types.AggregateSnapshot{}, &FetchError{URL: urlStr, Message: "failed to read response body", StatusCode: resp.StatusCode, Cause: err}
	}

	p.logger.Debug("fetched aggregates",
		zap.String("url", urlStr),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return types.AggregateSnapshot{}, &FetchError{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	snap, err := types.DecodeSnapshot(body, filter)
	if err != nil {
		return types.AggregateSnapshot{}, &FetchError{URL: urlStr, Message: "invalid aggregates payload", StatusCode: resp.StatusCode, Cause: err}
	}
	return snap, nil
}
