package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timebank/calendar"
)

const export = `{"time_entries": [
  {"id": 1, "spent_date": "2024-03-04", "hours": 8.5, "project": {"name": "Webshop"}, "client": {"name": "Acme AS"}, "task": {"name": "Development"}, "created_at": "2024-03-04T16:00:00Z", "updated_at": "2024-03-04T16:00:00Z"},
  {"id": 2, "spent_date": "2024-03-05", "hours": 8, "project": {"name": "Webshop"}, "client": {"name": "Acme AS"}, "task": {"name": "Development"}, "created_at": "2024-03-05T16:00:00Z", "updated_at": "2024-03-05T16:00:00Z"},
  {"id": 3, "spent_date": "2024-03-06", "hours": 8, "project": {"name": "Webshop"}, "client": {"name": "Acme AS"}, "task": {"name": "Development"}, "created_at": "2024-03-06T16:00:00Z", "updated_at": "2024-03-06T16:00:00Z"},
  {"id": 4, "spent_date": "2024-03-07", "hours": 6, "project": {"name": "Webshop"}, "client": {"name": "Acme AS"}, "task": {"name": "Development"}, "created_at": "2024-03-07T16:00:00Z", "updated_at": "2024-03-07T16:00:00Z"},
  {"id": 5, "spent_date": "2024-03-07", "hours": 2, "project": {"name": "Kompetanse"}, "client": {"name": "Intern"}, "task": {"name": "Fagtimer"}, "created_at": "2024-03-07T16:00:00Z", "updated_at": "2024-03-07T16:00:00Z"},
  {"id": 6, "spent_date": "2024-03-08", "hours": 8, "project": {"name": "Webshop"}, "client": {"name": "Acme AS"}, "task": {"name": "Development"}, "created_at": "2024-03-08T12:00:00Z", "updated_at": "2024-03-08T12:00:00Z"}
]}`

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(export), 0o600))

	cfg := filepath.Join(t.TempDir(), "timebank.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("rules:\n  timezone: UTC\n"), 0o600))
	t.Setenv("TIMEBANK_CONFIG_PATH", cfg)
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBalanceCommand_Table(t *testing.T) {
	path := writeExport(t)

	out, err := run(t, "--entries", path, "balance", "--from", "2024-03-04", "--to", "2024-03-08")

	require.NoError(t, err)
	assert.Contains(t, out, "2024-W10")
	assert.Contains(t, out, "40.5")
	assert.Contains(t, out, "0.5")
}

func TestBalanceCommand_JSON(t *testing.T) {
	path := writeExport(t)

	out, err := run(t, "--entries", path, "--json", "balance", "--from", "2024-03-04", "--to", "2024-03-08")

	require.NoError(t, err)
	var got struct {
		TotalLogged string `json:"total_logged"`
		Balance     string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "40.5", got.TotalLogged)
	assert.Equal(t, "0.5", got.Balance)
}

func TestFagtimerCommand(t *testing.T) {
	path := writeExport(t)

	out, err := run(t, "--entries", path, "fagtimer", "--from", "2024-03-01", "--to", "2024-03-31")

	require.NoError(t, err)
	assert.Contains(t, out, "2024-03")
	assert.Contains(t, out, "Used 25.0% of available fagtimer")
}

func TestPatternCommand(t *testing.T) {
	path := writeExport(t)

	out, err := run(t, "--entries", path, "pattern", "--from", "2024-03-01", "--to", "2024-03-08")

	require.NoError(t, err)
	assert.Contains(t, out, "Weekly target")
	assert.Contains(t, out, "Billable 2024-W10")
}

func TestEligibilityCommand(t *testing.T) {
	path := writeExport(t)

	out, err := run(t, "--entries", path, "eligibility", "--friday", "2024-03-08")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-W10: eligible")

	out, err = run(t, "--entries", path, "eligibility", "--friday", "2024-03-07")
	require.NoError(t, err)
	assert.Contains(t, out, "not_friday")
}

func TestRootCommand_RequiresEntries(t *testing.T) {
	_, err := run(t, "balance")

	assert.Error(t, err)
}

func TestRangeFlags_DefaultToYearToDate(t *testing.T) {
	rng := rangeFlags{}
	today := time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)

	p, err := rng.period(calendar.DateOf(today))

	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", p.Start.String())
	assert.Equal(t, "2024-05-02", p.End.String())

	rng.from = "2024-06-01"
	_, err = rng.period(calendar.DateOf(today))
	assert.Error(t, err, "from after today")
	assert.True(t, strings.Contains(err.Error(), "invalid period"))
}
