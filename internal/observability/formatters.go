// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most width runes, marking the cut with "...".
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// PrintSnapshot outputs the response counts and the largest categories of a snapshot.
func (p *Printer) PrintSnapshot(s *types.AggregateSnapshot) {
	if s == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Filter:     %s\n", s.Filter.Describe())
	fmt.Fprintf(&sb, "Responses:  %d", s.ResponseCount)
	if s.TotalCount > 0 {
		fmt.Fprintf(&sb, " of %d", s.TotalCount)
	}
	sb.WriteString("\n")
	if pct, ok := s.EmployedWithin.Percent(); ok {
		fmt.Fprintf(&sb, "Employed within 6 months: %d%% (%d yes / %d no)\n", pct, s.EmployedWithin.Yes, s.EmployedWithin.No)
	} else {
		sb.WriteString("Employed within 6 months: no answers\n")
	}

	writeTop(&sb, "Programs", s.Programs)
	writeTop(&sb, "Jobs related to experience", s.JobsRelated)
	writeTop(&sb, "Work performance", s.Performance)

	p.printBox("SURVEY SNAPSHOT", strings.TrimSuffix(sb.String(), "\n"))
}

func writeTop(sb *strings.Builder, title string, m types.CountMap) {
	entries := m.SortedByCount()
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	count := min(len(entries), maxItemsToShow)
	for _, e := range entries[:count] {
		fmt.Fprintf(sb, "  • %s (%d)\n", e.Label, e.Count)
	}
	if len(entries) > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", len(entries)-maxItemsToShow)
	}
}

// PrintMatches outputs the program → job matches with their confidence.
func (p *Printer) PrintMatches(matches []types.ProgramJobMatch) {
	if len(matches) == 0 {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Programs matched: %d\n\n", len(matches))

	count := min(len(matches), maxItemsToShow)
	for i, m := range matches[:count] {
		fmt.Fprintf(&sb, "#%d  %s (%d)\n", i+1, m.Program, m.ProgramCount)
		if m.MatchedJob == nil {
			sb.WriteString("    no matching job\n")
		} else {
			fmt.Fprintf(&sb, "    → %s  %d%% (%d job responses)\n", *m.MatchedJob, m.Confidence, m.MatchJobCount)
		}
	}
	if len(matches) > maxItemsToShow {
		fmt.Fprintf(&sb, "\n... and %d more programs", len(matches)-maxItemsToShow)
	}

	p.printBox("PROGRAM → JOB MATCHES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDecisions outputs the fired decision nodes and the recommendations.
func (p *Printer) PrintDecisions(ins *types.Insights) {
	if ins == nil || (len(ins.Nodes) == 0 && len(ins.Recommendations) == 0) {
		return
	}

	var sb strings.Builder
	for _, n := range ins.Nodes {
		fmt.Fprintf(&sb, "%s\n", n.String())
	}
	if len(ins.Recommendations) > 0 {
		sb.WriteString("\nRecommendations:\n")
		for i, r := range ins.Recommendations {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, r)
		}
	}

	p.printBox("DECISION SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTrend outputs a per-year employment series as a small bar chart.
func (p *Printer) PrintTrend(series *types.TrendSeries) {
	if series == nil || len(series.Years) == 0 {
		return
	}

	const barWidth = 30
	var sb strings.Builder
	for i, year := range series.Years {
		v := series.Values[i]
		if v == nil {
			fmt.Fprintf(&sb, "%s  %-*s  —\n", year, barWidth, "")
			continue
		}
		filled := min(max(*v*barWidth/100, 0), barWidth)
		fmt.Fprintf(&sb, "%s  %s%s  %d%%\n", year, strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), *v)
	}
	fmt.Fprintf(&sb, "\nDirection: %s", series.Direction)
	if series.Slope != nil {
		fmt.Fprintf(&sb, " (slope %.2f)", *series.Slope)
	}

	title := "EMPLOYMENT TREND"
	if series.Program != "" {
		title += " — " + series.Program
	}
	p.printBox(title, sb.String())
}
