package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/fieldprompts/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cli runs commands against a fresh SQLite database.
type cli struct {
	t   *testing.T
	dir string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(dir, "cli.db"))
	t.Setenv("LOG_LEVEL", "error")
	return &cli{t: t, dir: dir}
}

func (c *cli) writeFile(name, content string) string {
	c.t.Helper()
	path := filepath.Join(c.dir, name)
	require.NoError(c.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

const exportCSV = "Area,Sub Area,Field,Prompt\n" +
	"Finance,Tax,Rate,Enter the tax rate\n" +
	"Finance,Tax,Rate,Enter the applicable tax rate\n" +
	"Finance,Tax,,orphan\n" +
	"HR,Payroll,Salary,Base pay\n"

func TestIngest_DryRunByDefault(t *testing.T) {
	c := newCLI(t)
	path := c.writeFile("export.csv", exportCSV)

	out, _, err := c.run("ingest", path)
	require.NoError(t, err)

	var report core.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Applied)
	assert.Equal(t, "export.csv", report.Source)
	require.NotNil(t, report.Preview)
	assert.Equal(t, 2, report.Preview.New)
	assert.Equal(t, 1, report.Normalize.Incomplete)
	assert.Nil(t, report.Result)

	out, _, err = c.run("stats")
	require.NoError(t, err)
	var stats core.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Zero(t, stats.TotalRecords)
}

func TestIngest_ApplyAndBrowse(t *testing.T) {
	c := newCLI(t)
	path := c.writeFile("export.csv", exportCSV)

	out, stderr, err := c.run("ingest", "--apply", "--verbose", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Finance|Tax|Rate")

	var report core.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.NotNil(t, report.Result)
	assert.Equal(t, 2, report.Result.Inserted)

	out, _, err = c.run("areas", "--area", "Finance", "--sub-area", "Tax")
	require.NoError(t, err)
	var prompts []core.FieldPrompt
	require.NoError(t, json.Unmarshal([]byte(out), &prompts))
	require.Len(t, prompts, 1)
	assert.Equal(t, "Enter the applicable tax rate", prompts[0].Prompt)

	out, _, err = c.run("update", "--area", "Finance", "--sub-area", "Tax", "--field", "Rate", "--prompt", "  New text ")
	require.NoError(t, err)
	assert.JSONEq(t, `{"changed":true}`, out)

	// A re-import leaves the edited prompt alone.
	out, _, err = c.run("ingest", "--apply", path)
	require.NoError(t, err)
	report = core.RunReport{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 0, report.Result.Inserted)
	assert.Equal(t, 2, report.Result.SkippedExisting)

	out, _, err = c.run("areas", "--area", "Finance", "--sub-area", "Tax")
	require.NoError(t, err)
	prompts = nil
	require.NoError(t, json.Unmarshal([]byte(out), &prompts))
	assert.Equal(t, "New text", prompts[0].Prompt)

	out, _, err = c.run("history", "-n", "5")
	require.NoError(t, err)
	var runs []core.RunRecord
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	assert.Len(t, runs, 2)
}

func TestExitCodes(t *testing.T) {
	c := newCLI(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing file", []string{"ingest", filepath.Join(c.dir, "nope.csv")}, exitUsage},
		{"bad header", []string{"ingest", c.writeFile("bad.csv", "A,B\n1,2\n")}, exitInput},
		{"update without key", []string{"update", "--prompt", "x"}, exitUsage},
		{"update unknown id", []string{"update", "--id", "42", "--prompt", "x"}, exitInput},
		{"sub area without area", []string{"areas", "--sub-area", "Tax"}, exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.run(tt.args...)
			var ee *exitError
			require.True(t, errors.As(err, &ee), "error %v has no exit code", err)
			assert.Equal(t, tt.code, ee.code)
		})
	}
}

func TestBadConfigIsUsageError(t *testing.T) {
	c := newCLI(t)
	t.Setenv("DB_DRIVER", "mysql")

	_, _, err := c.run("stats")
	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, exitUsage, ee.code)
}

func TestUserError(t *testing.T) {
	err := classified(&core.InputFormatError{Err: core.ErrEmptyInput})
	assert.Contains(t, userError(err), "(FILE005)")

	plain := errors.New("boom")
	assert.Equal(t, "boom", userError(withCode(exitInternal, plain)))
}
