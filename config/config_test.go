package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/config"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("TIMEBANK_CONFIG_PATH", "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "timebank.db", cfg.DB.Path)
	assert.False(t, cfg.Harvest.Enabled())

	interval, err := cfg.Harvest.Interval()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, interval)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timebank.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
db:
  path: /var/lib/timebank.db
harvest:
  account_id: "123"
  users: ["1001", "1002"]
  sync_interval: 15m
rules:
  cutoff: "14:30"
  timezone: Europe/Oslo
`), 0o600))
	t.Setenv("TIMEBANK_PORT", "9100")
	t.Setenv("TIMEBANK_HARVEST_TOKEN", "pat-token")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "environment wins over file")
	assert.Equal(t, "/var/lib/timebank.db", cfg.DB.Path)
	assert.Equal(t, []string{"1001", "1002"}, cfg.Harvest.Users)
	assert.True(t, cfg.Harvest.Enabled())

	rules, err := cfg.EngineRules()
	require.NoError(t, err)
	assert.Equal(t, 14, rules.CutoffHour)
	assert.Equal(t, 30, rules.CutoffMinute)
	assert.Equal(t, "Europe/Oslo", rules.Location.String())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestEngineRules_Overrides(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
rules:
  competency_task_keywords: ["learning"]
  monthly_fagtimer_allowance: 7.5
  excluded_fagtimer_months: [7]
  eligibility_daily_hours: 7.5
  holidays: ["2024-12-25", "2024-12-26"]
`))
	require.NoError(t, err)

	rules, err := cfg.EngineRules()
	require.NoError(t, err)

	assert.Equal(t, []string{"learning"}, rules.CompetencyTaskKeywords)
	assert.NotEmpty(t, rules.AbsenceTaskKeywords, "unset lists keep defaults")
	assert.True(t, decimal.RequireFromString("7.5").Equal(rules.MonthlyFagtimerAllowance))
	assert.True(t, decimal.RequireFromString("7.5").Equal(rules.EligibilityDailyHours))
	assert.Equal(t, []time.Month{time.July}, rules.ExcludedFagtimerMonths)
	assert.True(t, rules.Holidays.IsHoliday(calendar.MustParseDate("2024-12-26")))

	_, err = cfg.Engine()
	assert.NoError(t, err)
}

func TestEngineRules_PatternThresholds(t *testing.T) {
	// GIVEN a config tuning the pattern detector
	cfg, err := config.FromYAML([]byte(`
rules:
  full_day_threshold: 6.5
  min_full_days: 4
  pattern_average_threshold: 7.6
`))
	require.NoError(t, err)

	// WHEN the rules are built
	rules, err := cfg.EngineRules()
	require.NoError(t, err)

	// THEN the thresholds replace the defaults
	assert.True(t, decimal.RequireFromString("6.5").Equal(rules.FullDayThreshold))
	assert.Equal(t, 4, rules.MinFullDays)
	assert.True(t, decimal.RequireFromString("7.6").Equal(rules.PatternAverageThreshold))
}

func TestEngineRules_PatternThresholdsDefault(t *testing.T) {
	rules, err := config.Default().EngineRules()
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(7).Equal(rules.FullDayThreshold))
	assert.Equal(t, 5, rules.MinFullDays)
	assert.True(t, decimal.RequireFromString("7.75").Equal(rules.PatternAverageThreshold))
}

func TestEngineRules_RejectsInvalidValues(t *testing.T) {
	for _, doc := range []string{
		"rules:\n  cutoff: \"3pm\"\n",
		"rules:\n  timezone: Mars/Olympus\n",
		"rules:\n  holidays: [\"2024-13-01\"]\n",
		"rules:\n  expected_daily_hours: 0\n",
		"rules:\n  min_full_days: 0\n",
		"rules:\n  pattern_average_threshold: -1\n",
	} {
		cfg, err := config.FromYAML([]byte(doc))
		require.NoError(t, err)

		_, err = cfg.EngineRules()
		assert.ErrorIs(t, err, calendar.ErrInvalidRules, doc)
	}
}
