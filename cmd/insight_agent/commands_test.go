package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/config"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/server"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
	schemafiles "github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/schemas"
)

func TestAnalyzeCommand_JSON(t *testing.T) {
	isolateEnv(t)
	input := writeTemp(t, "aggregates.json", samplePayload)

	stdout, _, err := execute(t, "", "analyze", "--input", input, "--year", "2024", "--format", "json", "--validate")
	require.NoError(t, err)

	var ins types.Insights
	require.NoError(t, json.Unmarshal([]byte(stdout), &ins))
	assert.Equal(t, types.Filter{Year: "2024"}, ins.Filter)
	assert.Equal(t, 10, ins.ResponseCount)
	assert.Equal(t, "Approximately 80% employed within 6 months (based on 10 responses).", ins.Analysis[0])
	require.NotEmpty(t, ins.Matches)
	assert.Equal(t, "BS Computer Science", ins.Matches[0].Program)
	require.NotEmpty(t, ins.Nodes)
	assert.Equal(t, "high employment", ins.Nodes[0].Outcome)
}

func TestAnalyzeCommand_TextAndVerbose(t *testing.T) {
	isolateEnv(t)
	input := writeTemp(t, "aggregates.json", samplePayload)

	stdout, stderr, err := execute(t, "", "analyze", "--input", input, "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Analysis Results")
	assert.Contains(t, stdout, "Recommendations")
	assert.Contains(t, stderr, "┌", "verbose output goes to stderr in boxes")
}

func TestAnalyzeCommand_OutFile(t *testing.T) {
	isolateEnv(t)
	input := writeTemp(t, "aggregates.json", samplePayload)
	out := filepath.Join(t.TempDir(), "nested", "insights.json")

	stdout, _, err := execute(t, "", "analyze", "--input", input, "--format", "json", "--out", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	_, _, err = execute(t, "", "validate", "--schema", schemafiles.Insights, "--json", out)
	assert.NoError(t, err)
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	isolateEnv(t)
	input := writeTemp(t, "aggregates.json", samplePayload)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", []string{"analyze"}, "no snapshot source configured"},
		{"bad format", []string{"analyze", "--input", input, "--format", "xml"}, "unsupported format"},
		{"bad year", []string{"analyze", "--input", input, "--year", "24"}, "invalid filter"},
		{"missing input", []string{"analyze", "--input", filepath.Join(t.TempDir(), "nope.json")}, "input file not found"},
		{"malformed input", []string{"analyze", "--input", writeTemp(t, "bad.json", "[1,2")}, "failed to load"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAnalyzeCommand_EmptyObjectInput(t *testing.T) {
	isolateEnv(t)
	input := writeTemp(t, "empty.json", `{}`)

	stdout, _, err := execute(t, "", "analyze", "--input", input, "--year", "2024", "--format", "json")
	require.NoError(t, err)

	var ins types.Insights
	require.NoError(t, json.Unmarshal([]byte(stdout), &ins))
	assert.Equal(t, types.Filter{Year: "2024"}, ins.Filter)
	assert.Equal(t, 0, ins.ResponseCount)
	require.NotEmpty(t, ins.Nodes)
	assert.Equal(t, "insufficient data", ins.Nodes[0].Rule)
}

func TestTrendCommand(t *testing.T) {
	isolateEnv(t)
	input := writeTemp(t, "years.json", yearsPayload)

	stdout, _, err := execute(t, "", "trend", "--input", input, "--years", "3", "--end-year", "2024",
		"--order", "asc", "--format", "json", "--validate")
	require.NoError(t, err)

	var series types.TrendSeries
	require.NoError(t, json.Unmarshal([]byte(stdout), &series))
	assert.Equal(t, []string{"2022", "2023", "2024"}, series.Years)
	assert.Equal(t, types.TrendIncreasing, series.Direction)

	stdout, _, err = execute(t, "", "trend", "--input", input, "--years", "4", "--end-year", "2024")
	require.NoError(t, err)
	assert.Contains(t, stdout, "increasing")
	assert.Contains(t, stdout, "2024: 80%")
	assert.Contains(t, stdout, "2021: no data")
	assert.Less(t, strings.Index(stdout, "2024"), strings.Index(stdout, "2021"), "newest first by default")
}

func TestExportCommand(t *testing.T) {
	isolateEnv(t)
	input := writeTemp(t, "aggregates.json", samplePayload)

	stdout, _, err := execute(t, "", "export", "--input", input, "--year", "2024")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Filters: year=2024,program=all\n"), stdout)
	assert.Contains(t, stdout, `"BS Computer Science",50`)

	out := filepath.Join(t.TempDir(), "report.html")
	_, _, err = execute(t, "", "export", "--input", input, "--format", "html", "--out", out)
	require.NoError(t, err)
	html, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Analysis Results")

	stdout, _, err = execute(t, "", "export", "--input", input, "--format", "TEXT")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Program → Job Matches")

	_, _, err = execute(t, "", "export", "--input", input, "--format", "docx")
	assert.Error(t, err)
}

func TestWatchCommand(t *testing.T) {
	isolateEnv(t)
	input := writeTemp(t, "aggregates.json", samplePayload)

	stdout, stderr, err := execute(t, "2023\n\nnot-a-year BSIT\nall BS Computer Science\n", "watch", "--input", input)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Warning: invalid filter")

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.NotEmpty(t, lines)
	var last types.Insights
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.Equal(t, types.Filter{Program: "BS Computer Science"}, last.Filter, "the newest filter is always published")
}

func TestValidateCommand(t *testing.T) {
	isolateEnv(t)
	valid := writeTemp(t, "trend.json", `{"years": ["2024"], "values": [80], "direction": "insufficient-data", "slope": null, "order": "desc"}`)
	invalid := writeTemp(t, "bad.json", `{"years": ["2024"], "values": [80], "direction": "sideways", "slope": null, "order": "desc"}`)

	stdout, _, err := execute(t, "", "validate", "--schema", schemafiles.Trend, "--json", valid)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Validation passed")

	_, stderr, err := execute(t, "", "validate", "--schema", schemafiles.Trend, "--json", invalid)
	require.Error(t, err)
	assert.Contains(t, stderr, "Validation failed")
	assert.Contains(t, stderr, "direction")

	_, _, err = execute(t, "", "validate", "--json", valid)
	assert.Error(t, err, "schema flag is required")
}

func TestTokenCommand(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "", "token", "--subject", "registrar")
	require.Error(t, err, "JWT_SECRET is required")

	t.Setenv("JWT_SECRET", "test-secret-key-for-jwt-signing-minimum-32-bytes")
	stdout, _, err := execute(t, "", "token", "--subject", "registrar")
	require.NoError(t, err)

	jwtConfig, err := config.NewJWTConfig()
	require.NoError(t, err)
	claims, err := server.NewJWTService(jwtConfig).ValidateToken(strings.TrimSpace(stdout))
	require.NoError(t, err)
	assert.Equal(t, "registrar", claims.Subject)
}

func TestServeCommand_NoSource(t *testing.T) {
	isolateEnv(t)
	_, _, err := execute(t, "", "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no snapshot source configured")
}

func TestMigrateAndIngest_SQLite(t *testing.T) {
	isolateEnv(t)
	t.Setenv(config.EnvSQLitePath, filepath.Join(t.TempDir(), "survey.db"))

	stdout, _, err := execute(t, "", "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Schema version: none")

	stdout, _, err = execute(t, "", "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Schema version: 1")

	rows := writeTemp(t, "rows.json", `[
		{"year_graduated": "2024", "course_program": "BS Computer Science", "employed_after_graduation": "Yes",
		 "jobs_related_to_experience": "Software Developer", "has_own_business": "no", "job_difficulties": ["Lack of experience"]},
		{"year_graduated": "2024", "course_program": "BS Education", "employed_after_graduation": "No",
		 "job_difficulties": "Low salary, Distance"},
		{"year_graduated": "2023", "course_program": "BS Computer Science", "employed_after_graduation": "Yes"}
	]`)
	stdout, _, err = execute(t, "", "ingest", "--input", rows)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Successfully inserted 3 surveys (3 total)")

	stdout, _, err = execute(t, "", "analyze", "--year", "2024", "--format", "json")
	require.NoError(t, err)
	var ins types.Insights
	require.NoError(t, json.Unmarshal([]byte(stdout), &ins))
	assert.Equal(t, 2, ins.ResponseCount)
	assert.Equal(t, "Approximately 50% employed within 6 months (based on 2 responses).", ins.Analysis[0])

	stdout, _, err = execute(t, "", "export", "--program", "computer")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"BS Computer Science",2`)

	_, _, err = execute(t, "", "migrate", "down")
	require.NoError(t, err)
	stdout, _, err = execute(t, "", "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Schema version: none")

	_, _, err = execute(t, "", "migrate", "force", "x")
	assert.Error(t, err)
}

func TestIngest_RequiresDatabase(t *testing.T) {
	isolateEnv(t)
	rows := writeTemp(t, "rows.json", `[]`)

	_, _, err := execute(t, "", "ingest", "--input", rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL or SQLITE_PATH")
}

func TestParseFilterLine(t *testing.T) {
	tests := []struct {
		line   string
		want   types.Filter
		ok     bool
		hasErr bool
	}{
		{"", types.Filter{}, false, false},
		{"   ", types.Filter{}, false, false},
		{"2024", types.Filter{Year: "2024"}, true, false},
		{"all BS Computer Science", types.Filter{Program: "BS Computer Science"}, true, false},
		{"2023  BSIT ", types.Filter{Year: "2023", Program: "BSIT"}, true, false},
		{"23 BSIT", types.Filter{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok, err := parseFilterLine(tt.line)
			if tt.hasErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPDFFilename(t *testing.T) {
	assert.Equal(t, "survey_aggregates_2024_BS_Computer_Science.pdf", pdfFilename(types.Filter{Year: "2024", Program: "BS Computer Science"}))
	assert.Equal(t, "survey_aggregates_all_all.pdf", pdfFilename(types.Filter{}))
}
