// Package config loads server, store, provider and engine settings.
//
// Precedence, lowest first: built-in defaults, the YAML file, TIMEBANK_*
// environment variables, command-line flags (applied by the caller).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/timeaccount"
	"gopkg.in/yaml.v3"
)

// Config is the root of timebank.yml.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	DB      DBConfig      `yaml:"db"`
	Harvest HarvestConfig `yaml:"harvest"`
	Rules   RulesConfig   `yaml:"rules"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

// HarvestConfig enables syncing from the provider when AccessToken is set.
type HarvestConfig struct {
	BaseURL      string   `yaml:"base_url"`
	AccountID    string   `yaml:"account_id"`
	AccessToken  string   `yaml:"access_token"`
	Users        []string `yaml:"users"`
	SyncInterval string   `yaml:"sync_interval"`
	SyncWeeks    int      `yaml:"sync_weeks"`
}

// Enabled reports whether a provider token is configured.
func (h HarvestConfig) Enabled() bool { return h.AccessToken != "" }

// Interval parses SyncInterval, defaulting to one hour.
func (h HarvestConfig) Interval() (time.Duration, error) {
	if h.SyncInterval == "" {
		return time.Hour, nil
	}
	d, err := time.ParseDuration(h.SyncInterval)
	if err != nil {
		return 0, fmt.Errorf("harvest.sync_interval: %w", err)
	}
	return d, nil
}

// RulesConfig overrides timeaccount.DefaultRules. Unset fields keep the default.
type RulesConfig struct {
	AbsenceProjectKeywords []string `yaml:"absence_project_keywords"`
	AbsenceTaskKeywords    []string `yaml:"absence_task_keywords"`
	TimeOffInLieuKeywords  []string `yaml:"time_off_in_lieu_keywords"`
	InternalClientKeywords []string `yaml:"internal_client_keywords"`
	CompetencyTaskKeywords []string `yaml:"competency_task_keywords"`

	ExpectedDailyHours       *float64 `yaml:"expected_daily_hours"`
	MonthlyFagtimerAllowance *float64 `yaml:"monthly_fagtimer_allowance"`
	ExcludedFagtimerMonths   []int    `yaml:"excluded_fagtimer_months"`
	EligibilityDailyHours    *float64 `yaml:"eligibility_daily_hours"`
	FullDayThreshold         *float64 `yaml:"full_day_threshold"`
	MinFullDays              *int     `yaml:"min_full_days"`
	PatternAverageThreshold  *float64 `yaml:"pattern_average_threshold"`
	Cutoff                   string   `yaml:"cutoff"` // HH:MM
	Timezone                 string   `yaml:"timezone"`
	Holidays                 []string `yaml:"holidays"` // YYYY-MM-DD
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		DB: DBConfig{Path: "timebank.db"},
		Harvest: HarvestConfig{
			SyncInterval: "1h",
			SyncWeeks:    8,
		},
	}
}

// Load reads configuration from an optional YAML file and the environment.
// An empty path falls back to TIMEBANK_CONFIG_PATH, then to defaults only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TIMEBANK_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromYAML parses a YAML document on top of the defaults.
func FromYAML(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if portStr := os.Getenv("TIMEBANK_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid TIMEBANK_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("TIMEBANK_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if token := os.Getenv("TIMEBANK_HARVEST_TOKEN"); token != "" {
		cfg.Harvest.AccessToken = token
	}
	if account := os.Getenv("TIMEBANK_HARVEST_ACCOUNT_ID"); account != "" {
		cfg.Harvest.AccountID = account
	}
	if users := os.Getenv("TIMEBANK_HARVEST_USERS"); users != "" {
		cfg.Harvest.Users = strings.Split(users, ",")
	}
	if tz := os.Getenv("TIMEBANK_TIMEZONE"); tz != "" {
		cfg.Rules.Timezone = tz
	}
	return nil
}

// =============================================================================
// ENGINE RULES
// =============================================================================

// EngineRules merges the configured overrides onto timeaccount.DefaultRules.
func (c Config) EngineRules() (timeaccount.Rules, error) {
	rules := timeaccount.DefaultRules()
	rc := c.Rules

	override := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	override(&rules.AbsenceProjectKeywords, rc.AbsenceProjectKeywords)
	override(&rules.AbsenceTaskKeywords, rc.AbsenceTaskKeywords)
	override(&rules.TimeOffInLieuKeywords, rc.TimeOffInLieuKeywords)
	override(&rules.InternalClientKeywords, rc.InternalClientKeywords)
	override(&rules.CompetencyTaskKeywords, rc.CompetencyTaskKeywords)

	if rc.ExpectedDailyHours != nil {
		rules.ExpectedDailyHours = decimal.NewFromFloat(*rc.ExpectedDailyHours)
	}
	if rc.MonthlyFagtimerAllowance != nil {
		rules.MonthlyFagtimerAllowance = decimal.NewFromFloat(*rc.MonthlyFagtimerAllowance)
	}
	if rc.EligibilityDailyHours != nil {
		rules.EligibilityDailyHours = decimal.NewFromFloat(*rc.EligibilityDailyHours)
	}
	if rc.FullDayThreshold != nil {
		rules.FullDayThreshold = decimal.NewFromFloat(*rc.FullDayThreshold)
	}
	if rc.MinFullDays != nil {
		rules.MinFullDays = *rc.MinFullDays
	}
	if rc.PatternAverageThreshold != nil {
		rules.PatternAverageThreshold = decimal.NewFromFloat(*rc.PatternAverageThreshold)
	}
	if rc.ExcludedFagtimerMonths != nil {
		rules.ExcludedFagtimerMonths = make([]time.Month, len(rc.ExcludedFagtimerMonths))
		for i, m := range rc.ExcludedFagtimerMonths {
			rules.ExcludedFagtimerMonths[i] = time.Month(m)
		}
	}

	if rc.Cutoff != "" {
		clock, err := time.Parse("15:04", rc.Cutoff)
		if err != nil {
			return timeaccount.Rules{}, fmt.Errorf("%w: rules.cutoff %q is not HH:MM", calendar.ErrInvalidRules, rc.Cutoff)
		}
		rules.CutoffHour, rules.CutoffMinute = clock.Hour(), clock.Minute()
	}
	if rc.Timezone != "" {
		loc, err := time.LoadLocation(rc.Timezone)
		if err != nil {
			return timeaccount.Rules{}, fmt.Errorf("%w: rules.timezone: %v", calendar.ErrInvalidRules, err)
		}
		rules.Location = loc
	}
	if len(rc.Holidays) > 0 {
		dates := make([]calendar.Date, 0, len(rc.Holidays))
		for _, s := range rc.Holidays {
			d, err := calendar.ParseDate(s)
			if err != nil {
				return timeaccount.Rules{}, fmt.Errorf("%w: rules.holidays: %v", calendar.ErrInvalidRules, err)
			}
			dates = append(dates, d)
		}
		rules.Holidays = calendar.NewFixedHolidays(dates...)
	}

	if err := rules.Validate(); err != nil {
		return timeaccount.Rules{}, err
	}
	return rules, nil
}

// Engine builds the engine described by the configuration.
func (c Config) Engine() (*timeaccount.Engine, error) {
	rules, err := c.EngineRules()
	if err != nil {
		return nil, err
	}
	return timeaccount.NewEngine(rules)
}
