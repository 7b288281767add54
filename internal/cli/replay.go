package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/terminal/account"
	"github.com/rustyeddy/terminal/config"
	"github.com/rustyeddy/terminal/logger"
	"github.com/rustyeddy/terminal/replay"
	"github.com/rustyeddy/terminal/score"
)

func newReplayCmd(rc *config.RootConfig) *cobra.Command {
	var (
		continueOnError bool
		showSeries      bool
	)

	cmd := &cobra.Command{
		Use:   "replay <file>...",
		Short: "Feed recorded broker messages into an account and score it",
		Long: `Replay JSON lines envelope files or CSV tick files, in order, into one
account. Closed deals go to the configured journal.

Examples:
  terminal replay session.jsonl
  terminal replay --db ./terminal.sqlite day1.jsonl day2.jsonl
  terminal replay --config terminal.yaml --continue session.jsonl`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd, rc)
			if err != nil {
				return err
			}
			log, err := setupLogger(cfg, rc)
			if err != nil {
				return err
			}

			j, err := openJournal(cfg.Journal)
			if err != nil {
				return err
			}
			defer j.Close()

			s, err := newSession(cfg, log, j)
			if err != nil {
				return err
			}

			entry := log.WithComponent("replay")
			s.OnChange(func(snap account.Snapshot) {
				entry.WithFields(logger.Fields{
					"balance":   snap.Balance,
					"equity":    snap.Equity(),
					"positions": len(snap.Positions),
					"deals":     len(snap.Deals),
				}).Debug("account changed")
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			opts := replay.Options{ContinueOnError: continueOnError, Logger: log}
			var total replay.Result
			for _, path := range args {
				res, err := replay.File(ctx, path, s, opts)
				total.Lines += res.Lines
				total.Applied += res.Applied
				total.Failed += res.Failed
				if err != nil {
					s.Close()
					if errors.Is(err, context.Canceled) {
						return fmt.Errorf("replay interrupted in %s", path)
					}
					return fmt.Errorf("replay %s: %w", path, err)
				}
				entry.WithFields(logger.Fields{
					"file":    path,
					"lines":   res.Lines,
					"applied": res.Applied,
					"failed":  res.Failed,
				}).Info("replayed")
			}
			s.Close()

			snap := s.Account().Snapshot()
			points := score.FromSnapshot(snap)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Replayed: %d lines (%d applied, %d failed)\n", total.Lines, total.Applied, total.Failed)
			fmt.Fprintf(out, "Account:  %s\n", snap.Descriptor)
			fmt.Fprintf(out, "Open:     %d positions, %d orders\n", len(snap.Positions), len(snap.Orders))
			printStats(out, score.Summarize(points))
			if showSeries {
				printSeries(out, points)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&continueOnError, "continue", false, "Log failing lines and keep going")
	cmd.Flags().BoolVar(&showSeries, "series", false, "Print every point of the equity series")

	return cmd
}
