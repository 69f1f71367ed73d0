package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/config"
)

const samplePayload = `{
	"employed": {"Yes": 8, "No": 2},
	"sources": {"Referral": 5, "Job fair": 3},
	"performance": {"Very Good": 6, "Good": 3},
	"programs": {"BS Computer Science": 50, "BS Education": 30},
	"promoted": {"Yes": 2, "No": 8},
	"jobs_related": {"Software Developer": 40, "Teacher": 2},
	"self_employment": {"Yes": 0, "No": 10},
	"job_difficulties": {"Lack of experience": 4},
	"count": 10
}`

const yearsPayload = `{
	"2022": {"employed": {"Yes": 5, "No": 5}, "count": 10},
	"2023": {"employed": {"Yes": 6, "No": 4}, "count": 10},
	"2024": {"employed": {"Yes": 8, "No": 2}, "count": 10}
}`

// isolateEnv clears every variable that selects a snapshot source, so the
// developer's .env cannot leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvSource, config.EnvAggregatesURL, config.EnvDatabaseURL,
		config.EnvSQLitePath, config.EnvInputPath, "JWT_SECRET", "JWT_ISSUER",
	} {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvLogLevel, "error")
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs the CLI in-process.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
