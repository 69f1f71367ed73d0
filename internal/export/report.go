package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/trend"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// Generator is the attribution line printed under the report title.
const Generator = "DOrSU Alumni Tracer"

// NoJobPlaceholder is shown for matches without a job.
const NoJobPlaceholder = "—"

// missingRate is shown for trend years without data.
const missingRate = "—"

//go:embed templates/report.html.tmpl
var templateFS embed.FS

// ReportOptions configures report rendering.
type ReportOptions struct {
	// Trend, when set, adds an employment trend section.
	Trend *types.TrendSeries
	// GeneratedAt is printed under the title when non-zero.
	GeneratedAt time.Time
	// TemplatePath overrides the embedded HTML template.
	TemplatePath string
}

// ReportData is the data passed to the HTML template.
type ReportData struct {
	Title        string
	Generator    string
	GeneratedAt  string
	Insights     types.Insights
	Trend        *types.TrendSeries
	TrendSummary string
	TrendValues  []string
}

func newReportData(ins types.Insights, opts ReportOptions) ReportData {
	data := ReportData{
		Title:     ins.Filter.Title(),
		Generator: Generator,
		Insights:  ins,
		Trend:     opts.Trend,
	}
	if !opts.GeneratedAt.IsZero() {
		data.GeneratedAt = opts.GeneratedAt.Format("2006-01-02 15:04")
	}
	if opts.Trend != nil {
		data.TrendSummary = trend.Summary(*opts.Trend)
		data.TrendValues = make([]string, len(opts.Trend.Values))
		for i, v := range opts.Trend.Values {
			data.TrendValues[i] = formatRate(v)
		}
	}
	return data
}

func formatRate(v *int) string {
	if v == nil {
		return missingRate
	}
	return strconv.Itoa(*v) + "%"
}

// HTMLReport renders insights as a self-contained printable HTML document.
// Every value is escaped by html/template.
func HTMLReport(ins types.Insights, opts ReportOptions) (string, error) {
	tmpl, err := parseTemplate(opts.TemplatePath)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newReportData(ins, opts)); err != nil {
		return "", &TemplateError{
			Message: "failed to execute template",
			Cause:   err,
		}
	}
	return buf.String(), nil
}

// parseTemplate loads the report template from path, or the embedded default
// when path is empty.
func parseTemplate(path string) (*template.Template, error) {
	var content []byte
	var err error
	if path == "" {
		content, err = templateFS.ReadFile("templates/report.html.tmpl")
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{
				Message: fmt.Sprintf("template file not found: %s", path),
				Cause:   err,
			}
		}
		return nil, &TemplateError{
			Message: "failed to read template",
			Cause:   err,
		}
	}

	tmpl, err := template.New("report").Parse(string(content))
	if err != nil {
		return nil, &TemplateError{
			Message: "failed to parse template",
			Cause:   err,
		}
	}
	return tmpl, nil
}

// TextReport renders insights as plain text for terminals and logs.
func TextReport(ins types.Insights, opts ReportOptions) string {
	data := newReportData(ins, opts)
	var b strings.Builder

	b.WriteString(data.Title + "\n")
	b.WriteString(strings.Repeat("=", len([]rune(data.Title))) + "\n")
	b.WriteString("Generated by " + data.Generator)
	if data.GeneratedAt != "" {
		b.WriteString(" on " + data.GeneratedAt)
	}
	b.WriteString("\n\nAnalysis\n")
	if len(ins.Analysis) == 0 {
		b.WriteString("  None\n")
	}
	for _, a := range ins.Analysis {
		b.WriteString("  - " + a + "\n")
	}

	b.WriteString("\nDecision tree\n")
	if len(ins.Nodes) == 0 {
		b.WriteString("  Decision tree: insufficient data\n")
	}
	for _, n := range ins.Nodes {
		b.WriteString("  " + n.String() + "\n")
	}

	b.WriteString("\nRecommendations\n")
	if len(ins.Recommendations) == 0 {
		b.WriteString("  None\n")
	}
	for i, r := range ins.Recommendations {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, r)
	}

	b.WriteString("\nProgram → Job Matches\n")
	if len(ins.Matches) == 0 {
		b.WriteString("  No matches available.\n")
	}
	for _, m := range ins.Matches {
		fmt.Fprintf(&b, "  %s → %s (%d%%, %d job responses, %d responses)\n",
			m.Program, m.JobLabel(NoJobPlaceholder), m.Confidence, m.MatchJobCount, m.ProgramCount)
	}

	if data.Trend != nil {
		b.WriteString("\nEmployment trend\n")
		b.WriteString("  " + data.TrendSummary + "\n")
		for i, y := range data.Trend.Years {
			fmt.Fprintf(&b, "  %s: %s\n", y, data.TrendValues[i])
		}
	}
	return b.String()
}
