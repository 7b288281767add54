package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/terminal/score"
)

func printStats(w io.Writer, s score.Stats) {
	fmt.Fprintf(w, "Balance:  %.2f -> %.2f (net %+.2f)\n", s.Initial, s.Final, s.Net)
	fmt.Fprintf(w, "Trades:   %d (%d wins, %d losses, %d long, %d short)\n", s.Trades, s.Wins, s.Losses, s.Longs, s.Shorts)
	if s.Trades == 0 {
		return
	}
	fmt.Fprintf(w, "Win rate: %.1f%%\n", s.WinRate*100)
	fmt.Fprintf(w, "Gross:    %+.2f / %+.2f (profit factor %.2f)\n", s.GrossProfit, s.GrossLoss, s.ProfitFactor)
	fmt.Fprintf(w, "Average:  win %.2f, loss %.2f, expectancy %.2f\n", s.AverageWin, s.AverageLoss, s.Expectancy)
	fmt.Fprintf(w, "Drawdown: %.2f (%.2f%%), run-up %.2f, worst excursion %.2f\n", s.MaxDrawdown, s.MaxDrawdownPct*100, s.MaxRunUp, s.WorstExcursion)
	fmt.Fprintf(w, "Fees:     %.2f (net after fees %+.2f)\n", s.Commissions, s.NetCommissions)
}

func printSeries(w io.Writer, points []score.Point) {
	fmt.Fprintln(w, "time,instrument,value,min,max,commission,direction")
	for _, p := range points {
		fmt.Fprintf(w, "%s,%s,%.2f,%.2f,%.2f,%.2f,%d\n",
			p.Time.UTC().Format(time.RFC3339), p.Instrument, p.Value, p.Min, p.Max, p.Commission, p.Direction)
	}
}
