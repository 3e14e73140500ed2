package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/timebank/calendar"
	"github.com/warp/timebank/timeaccount"
)

func newBalanceCmd(opts *cliOptions) *cobra.Command {
	var rng rangeFlags
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Weekly and cumulative flex balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, entries, err := opts.load(cmd)
			if err != nil {
				return err
			}
			p, err := rng.period(opts.today(engine))
			if err != nil {
				return err
			}
			balance, err := engine.CalculateTimeBalance(entries, p)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return opts.printJSON(balance)
			}

			tw := opts.newTable()
			tw.AppendHeader(table.Row{"Week", "From", "To", "Days", "Logged", "Expected", "TOIL", "Balance", "Cumulative"})
			for _, w := range balance.WeeklyBreakdown {
				tw.AppendRow(table.Row{
					w.WeekKey, w.WeekStart, w.WeekEnd, w.WorkingDays,
					w.Logged, w.Expected, w.TimeOffInLieu, w.Balance, w.CumulativeBalance,
				})
			}
			tw.AppendFooter(table.Row{
				"Total", p.Start, p.End, "",
				balance.TotalLogged, balance.TotalExpected, balance.TotalTimeOffInLieu, balance.Balance, "",
			})
			tw.Render()
			return nil
		},
	}
	rng.register(cmd)
	return cmd
}

func newFagtimerCmd(opts *cliOptions) *cobra.Command {
	var rng rangeFlags
	cmd := &cobra.Command{
		Use:   "fagtimer",
		Short: "Continuing education budget usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, entries, err := opts.load(cmd)
			if err != nil {
				return err
			}
			p, err := rng.period(opts.today(engine))
			if err != nil {
				return err
			}
			budget, err := engine.CalculateFagtimerBalance(entries, p)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return opts.printJSON(budget)
			}

			tw := opts.newTable()
			tw.AppendHeader(table.Row{"Month", "Allowance", "Used"})
			for _, m := range budget.Months {
				allowance := m.Allowance.String()
				if m.Excluded {
					allowance = "excluded"
				}
				tw.AppendRow(table.Row{m.Month.Time.Format("2006-01"), allowance, m.Used})
			}
			tw.AppendFooter(table.Row{"Total", budget.Available, budget.Used})
			tw.Render()
			fmt.Fprintf(opts.out, "Used %s%% of available fagtimer\n", budget.Percentage.StringFixed(1))
			return nil
		},
	}
	rng.register(cmd)
	return cmd
}

func newPatternCmd(opts *cliOptions) *cobra.Command {
	var rng rangeFlags
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Detected daily work pattern and possible overtime in the last week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, entries, err := opts.load(cmd)
			if err != nil {
				return err
			}
			p, err := rng.period(opts.today(engine))
			if err != nil {
				return err
			}
			inRange := timeaccount.FilterPeriod(entries, p)
			pattern := engine.DetectPattern(inRange)
			billable := timeaccount.BillableHours(inRange, calendar.ISOWeekOf(p.End))
			overtime := timeaccount.PossibleOvertime(pattern, billable)

			if opts.asJSON {
				return opts.printJSON(struct {
					timeaccount.WorkPattern
					WeekKey          string          `json:"week_key"`
					BillableHours    decimal.Decimal `json:"billable_hours"`
					PossibleOvertime decimal.Decimal `json:"possible_overtime"`
				}{pattern, p.End.WeekKey(), billable, overtime})
			}

			tw := opts.newTable()
			tw.AppendRows([]table.Row{
				{"Daily target", pattern.DailyTarget},
				{"Weekly target", pattern.WeeklyTarget},
				{"Full days", pattern.FullDays},
				{"Average full day", pattern.AverageFullDay.StringFixed(2)},
				{"Billable " + p.End.WeekKey(), billable},
				{"Possible overtime", overtime},
			})
			tw.Render()
			return nil
		},
	}
	rng.register(cmd)
	return cmd
}

func newEligibilityCmd(opts *cliOptions) *cobra.Command {
	var friday string
	cmd := &cobra.Command{
		Use:   "eligibility",
		Short: "Weekly lottery eligibility for the week ending on --friday",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, entries, err := opts.load(cmd)
			if err != nil {
				return err
			}
			result := engine.CheckEligibility(entries, friday)
			if opts.asJSON {
				return opts.printJSON(result)
			}

			if result.Reason.IsStructural() {
				fmt.Fprintf(opts.out, "Not eligible: %s (%q)\n", result.Reason, result.ReasonData.Input)
				return nil
			}

			tw := opts.newTable()
			tw.AppendHeader(table.Row{"Date", "Day", "Hours", "OK", "Last updated"})
			for _, d := range result.DailyHours {
				updated := ""
				if d.LastUpdated != nil {
					updated = d.LastUpdated.In(engine.Rules().Location).Format("2006-01-02 15:04")
					if d.EditedAfterCutoff {
						updated += " (late)"
					}
				}
				tw.AppendRow(table.Row{d.Date, d.Weekday.String()[:3], d.Hours, check(d.MeetsRequirement), updated})
			}
			tw.Render()

			switch result.Reason {
			case timeaccount.ReasonNone:
				fmt.Fprintf(opts.out, "%s: eligible\n", result.WeekKey)
			case timeaccount.ReasonMissingHours:
				days := make([]string, len(result.ReasonData.MissingDays))
				for i, d := range result.ReasonData.MissingDays {
					days[i] = d.String()
				}
				fmt.Fprintf(opts.out, "%s: not eligible, missing hours on %s\n", result.WeekKey, strings.Join(days, ", "))
			case timeaccount.ReasonEntriesUpdatedAfterDeadline:
				fmt.Fprintf(opts.out, "%s: not eligible, entries updated after %s\n",
					result.WeekKey, result.CutoffTime.Format("2006-01-02 15:04 MST"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&friday, "friday", "", "Friday ending the week, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("friday")
	return cmd
}

func (o *cliOptions) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(o.out)
	return tw
}

func check(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
