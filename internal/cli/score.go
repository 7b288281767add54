package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/terminal/config"
	"github.com/rustyeddy/terminal/journal"
	"github.com/rustyeddy/terminal/market"
	"github.com/rustyeddy/terminal/score"
)

func newScoreCmd(rc *config.RootConfig) *cobra.Command {
	var (
		accountID  string
		balance    float64
		fromStr    string
		toStr      string
		showSeries bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Recompute the equity series from journaled deals",
		Long: `Read closed deals from the SQLite journal and print the equity series
statistics. Days are YYYY-MM-DD in local time or RFC3339 timestamps.

Examples:
  terminal score --db ./terminal.sqlite
  terminal score --account TERM-001 --from 2026-01-02 --to 2026-01-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd, rc)
			if err != nil {
				return err
			}

			path := rc.DBPath
			if !cmd.Flags().Changed("db") && cfg.Journal.Type == "sqlite" {
				path = cfg.Journal.DBPath
			}
			if !cmd.Flags().Changed("balance") {
				balance = cfg.Account.Balance
			}

			start, err := parseBound(fromStr, time.Time{}, false)
			if err != nil {
				return fmt.Errorf("bad --from: %w", err)
			}
			end, err := parseBound(toStr, time.Now().AddDate(100, 0, 0), true)
			if err != nil {
				return fmt.Errorf("bad --to: %w", err)
			}

			j, err := journal.NewSQLite(path)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer j.Close()

			var recs []journal.DealRecord
			if fromStr == "" && toStr == "" {
				recs, err = j.ListDeals()
			} else {
				recs, err = j.ListDealsClosedBetween(start, end)
			}
			if err != nil {
				return fmt.Errorf("query deals: %w", err)
			}

			var positions []market.Position
			for _, rec := range recs {
				if accountID != "" && rec.Account != accountID {
					continue
				}
				positions = append(positions, rec.Position())
			}

			points := score.Series(balance, positions)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Journal:  %s (%d deals)\n", path, len(positions))
			printStats(out, score.Summarize(points))
			if showSeries {
				printSeries(out, points)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Only score deals of this account")
	cmd.Flags().Float64Var(&balance, "balance", 100000, "Initial balance")
	cmd.Flags().StringVar(&fromStr, "from", "", "Deals closed at or after (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&toStr, "to", "", "Deals closed before (YYYY-MM-DD, inclusive day, or RFC3339)")
	cmd.Flags().BoolVar(&showSeries, "series", false, "Print every point of the equity series")

	return cmd
}

// parseBound parses a day or a timestamp. An empty value yields def; an
// inclusive day ends at the following midnight.
func parseBound(s string, def time.Time, inclusive bool) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	if inclusive {
		day = day.AddDate(0, 0, 1)
	}
	return day, nil
}
