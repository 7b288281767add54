package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/terminal/config"
	"github.com/rustyeddy/terminal/journal"
)

func newJournalCmd(rc *config.RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query journaled deals",
		Long: `Query deal records from the SQLite journal and print them as Org-mode.

Examples:
  terminal journal deal <deal-id>
  terminal journal today
  terminal journal day 2026-01-24
  terminal journal equity 2026-01-24`,
	}

	open := func() (*journal.SQLite, error) {
		j, err := journal.NewSQLite(rc.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return j, nil
	}

	dealsOn := func(cmd *cobra.Command, day string) error {
		start, end, err := dayBounds(time.Local, day)
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		j, err := open()
		if err != nil {
			return err
		}
		defer j.Close()

		recs, err := j.ListDealsClosedBetween(start, end)
		if err != nil {
			return fmt.Errorf("query deals: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), journal.FormatDealsOrg(recs))
		return nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "deal <deal-id>",
			Short: "Get details of a specific deal",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				j, err := open()
				if err != nil {
					return err
				}
				defer j.Close()

				rec, err := j.GetDeal(args[0])
				if err != nil {
					return fmt.Errorf("get deal: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), journal.FormatDealOrg(rec))
				return nil
			},
		},
		&cobra.Command{
			Use:   "today",
			Short: "List deals closed today",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return dealsOn(cmd, time.Now().In(time.Local).Format("2006-01-02"))
			},
		},
		&cobra.Command{
			Use:   "day <YYYY-MM-DD>",
			Short: "List deals closed on a specific day",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return dealsOn(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:   "equity <YYYY-MM-DD>",
			Short: "List equity points recorded on a specific day",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				start, end, err := dayBounds(time.Local, args[0])
				if err != nil {
					return fmt.Errorf("date: %w", err)
				}
				j, err := open()
				if err != nil {
					return err
				}
				defer j.Close()

				recs, err := j.ListEquity(start, end)
				if err != nil {
					return fmt.Errorf("query equity: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "time,balance,equity,min,max")
				for _, r := range recs {
					fmt.Fprintf(out, "%s,%.2f,%.2f,%.2f,%.2f\n",
						r.Time.UTC().Format(time.RFC3339), r.Balance, r.Equity, r.Min, r.Max)
				}
				return nil
			},
		},
	)

	return cmd
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), nil
}
