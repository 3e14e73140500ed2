package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/config"
	"github.com/warp/timebank/harvest"
	"github.com/warp/timebank/timeaccount"
)

// cliOptions holds the persistent flags shared by every subcommand.
type cliOptions struct {
	entriesPath string
	configPath  string
	asJSON      bool

	out io.Writer
	now func() time.Time
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &cliOptions{out: out, now: time.Now}

	root := &cobra.Command{
		Use:   "timebank",
		Short: "Hour ledgers and lottery eligibility from time-tracking exports",
		Long: `timebank reads a time-tracking provider export (the time_entries
listing or a bare array of entries) and computes flex balance, continuing
education budget, work pattern and weekly lottery eligibility.`,
		SilenceUsage: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&opts.entriesPath, "entries", "", "provider JSON export, - for stdin")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file with rule overrides")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	_ = root.MarkPersistentFlagRequired("entries")

	root.AddCommand(
		newBalanceCmd(opts),
		newFagtimerCmd(opts),
		newPatternCmd(opts),
		newEligibilityCmd(opts),
	)
	return root
}

// load builds the engine and reads the entry export.
func (o *cliOptions) load(cmd *cobra.Command) (*timeaccount.Engine, []timeaccount.TimeEntry, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	engine, err := cfg.Engine()
	if err != nil {
		return nil, nil, err
	}

	var data []byte
	if o.entriesPath == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(o.entriesPath)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read entries: %w", err)
	}

	entries, err := harvest.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return engine, entries, nil
}

func (o *cliOptions) today(engine *timeaccount.Engine) calendar.Date {
	return calendar.DateOf(o.now().In(engine.Rules().Location))
}

// rangeFlags adds --from/--to, defaulting to year-to-date.
type rangeFlags struct {
	from, to string
}

func (r *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.from, "from", "", "first day, YYYY-MM-DD (default: January 1st)")
	cmd.Flags().StringVar(&r.to, "to", "", "last day, YYYY-MM-DD (default: today)")
}

func (r *rangeFlags) period(today calendar.Date) (calendar.Period, error) {
	p := calendar.YearToDate(today)
	if r.from != "" {
		d, err := calendar.ParseDate(r.from)
		if err != nil {
			return calendar.Period{}, fmt.Errorf("--from: %w", err)
		}
		p.Start = d
	}
	if r.to != "" {
		d, err := calendar.ParseDate(r.to)
		if err != nil {
			return calendar.Period{}, fmt.Errorf("--to: %w", err)
		}
		p.End = d
	}
	return p, p.Validate()
}

func (o *cliOptions) printJSON(v any) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
