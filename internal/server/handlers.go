package server

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/export"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/trend"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// maxTrendYears bounds the years query parameter.
const maxTrendYears = 30

// attachment builds a Content-Disposition value, quoting name as needed.
func attachment(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestContext applies the configured per-request timeout.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.requestTimeout > 0 {
		return context.WithTimeout(r.Context(), s.requestTimeout)
	}
	return context.WithCancel(r.Context())
}

// parseFilter reads the year and program query parameters.
func parseFilter(r *http.Request) (types.Filter, error) {
	q := r.URL.Query()
	f, err := types.NewFilter(q.Get("year"), q.Get("program"))
	if err != nil {
		return types.Filter{}, &ErrValidation{Field: "filter", Message: "year must be four digits and program at most 255 characters"}
	}
	return f, nil
}

// insightsFor fetches the snapshot for the request filter and analyzes it.
func (s *Server) insightsFor(ctx context.Context, r *http.Request) (types.AggregateSnapshot, types.Insights, error) {
	filter, err := parseFilter(r)
	if err != nil {
		return types.AggregateSnapshot{}, types.Insights{}, err
	}
	snap, err := s.provider.Snapshot(ctx, filter)
	if err != nil {
		return types.AggregateSnapshot{}, types.Insights{}, err
	}
	return snap, s.analyzer.Analyze(snap), nil
}

// handleInsights returns narrative, matches, decision nodes and recommendations.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	_, ins, err := s.insightsFor(ctx, r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ins)
}

// trendOptions reads years, end_year, program and order. Missing values fall
// back to the server defaults.
func (s *Server) trendOptions(r *http.Request) (trend.Options, error) {
	q := r.URL.Query()
	opts := trend.Options{Years: s.trendYears, Order: s.yearOrder}

	if v := q.Get("years"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTrendYears {
			return trend.Options{}, &ErrValidation{Field: "years", Message: "must be between 1 and " + strconv.Itoa(maxTrendYears)}
		}
		opts.Years = n
	}
	if v := q.Get("end_year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || len(v) != 4 {
			return trend.Options{}, &ErrValidation{Field: "end_year", Message: "must be a four-digit year"}
		}
		opts.EndYear = n
	}
	if v := q.Get("order"); v != "" {
		opts.Order = types.ParseYearOrder(strings.ToLower(v))
	}

	filter, err := types.NewFilter("", q.Get("program"))
	if err != nil {
		return trend.Options{}, &ErrValidation{Field: "program", Message: "must be at most 255 characters"}
	}
	opts.Program = filter.Program
	return opts, nil
}

// handleTrend returns the per-year employment series for a program.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	opts, err := s.trendOptions(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	series, err := s.trend.Analyze(ctx, opts)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, series)
}

// handleExportCSV downloads the snapshot as the dashboard's CSV export.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	filter, err := parseFilter(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	snap, err := s.provider.Snapshot(ctx, filter)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(export.CSVFilename(filter)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(export.CSV(snap)))
}

// renderReport builds the HTML report, optionally with a trend section
// ending at the filter year.
func (s *Server) renderReport(ctx context.Context, r *http.Request) (string, error) {
	_, ins, err := s.insightsFor(ctx, r)
	if err != nil {
		return "", err
	}

	opts := export.ReportOptions{GeneratedAt: s.now()}
	if withTrend, _ := strconv.ParseBool(r.URL.Query().Get("trend")); withTrend {
		topts := trend.Options{Years: s.trendYears, Order: s.yearOrder, Program: ins.Filter.Program}
		if y, err := strconv.Atoi(ins.Filter.Year); err == nil {
			topts.EndYear = y
		}
		series, err := s.trend.Analyze(ctx, topts)
		if err != nil {
			return "", err
		}
		opts.Trend = &series
	}
	return export.HTMLReport(ins, opts)
}

// handleReport returns the printable HTML report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	html, err := s.renderReport(ctx, r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// handleReportPDF renders the HTML report to PDF.
func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	html, err := s.renderReport(ctx, r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	pdf, err := s.pdf(ctx, html)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	filter, _ := parseFilter(r)
	name := strings.TrimSuffix(export.CSVFilename(filter), ".csv") + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// handleAggregates serves the raw aggregates payload computed from the
// survey table, in the shape the HTTP provider consumes.
func (s *Server) handleAggregates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	filter, err := parseFilter(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	payload, err := s.store.Aggregates(ctx, filter)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, payload)
}
