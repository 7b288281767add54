package score

import (
	"math"

	"github.com/shopspring/decimal"
)

// Stats summarizes an equity curve.
type Stats struct {
	Initial float64
	Final   float64
	Net     float64

	Trades  int
	Wins    int
	Losses  int
	Longs   int
	Shorts  int
	WinRate float64

	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64
	AverageWin   float64
	AverageLoss  float64
	Expectancy   float64

	// MaxDrawdown is the largest fall of Value from a previous peak and
	// MaxDrawdownPct that fall relative to the peak.
	MaxDrawdown    float64
	MaxDrawdownPct float64
	MaxRunUp       float64

	// WorstExcursion is the largest distance of the Min envelope below the
	// running peak of Value.
	WorstExcursion float64

	Commissions    float64
	NetCommissions float64
}

// Summarize computes statistics over a series built by Series. ProfitFactor
// is zero when there are no losing trades.
func Summarize(points []Point) Stats {
	var s Stats
	if len(points) == 0 {
		return s
	}

	s.Initial = points[0].Value
	s.Final = points[len(points)-1].Value
	s.Net = s.Final - s.Initial

	var (
		profit = decimal.Zero
		loss   = decimal.Zero
		fees   = decimal.Zero
	)

	peak, trough := s.Initial, s.Initial
	for i := 1; i < len(points); i++ {
		p := points[i]
		gain := p.Value - points[i-1].Value

		s.Trades++
		switch {
		case gain > 0:
			s.Wins++
			profit = profit.Add(decimal.NewFromFloat(gain))
		case gain < 0:
			s.Losses++
			loss = loss.Add(decimal.NewFromFloat(gain))
		}
		switch {
		case p.Direction > 0:
			s.Longs++
		case p.Direction < 0:
			s.Shorts++
		}
		fees = fees.Add(decimal.NewFromFloat(p.Commission))

		if excursion := peak - p.Min; excursion > s.WorstExcursion {
			s.WorstExcursion = excursion
		}

		if p.Value > peak {
			peak = p.Value
		}
		if dd := peak - p.Value; dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
			if peak != 0 {
				s.MaxDrawdownPct = dd / peak
			}
		}

		if p.Value < trough {
			trough = p.Value
		}
		s.MaxRunUp = math.Max(s.MaxRunUp, p.Value-trough)
	}

	s.GrossProfit = profit.InexactFloat64()
	s.GrossLoss = loss.InexactFloat64()
	s.Commissions = fees.InexactFloat64()
	s.NetCommissions = decimal.NewFromFloat(s.Net).Sub(fees).InexactFloat64()

	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
		s.Expectancy = s.Net / float64(s.Trades)
	}
	if s.Wins > 0 {
		s.AverageWin = s.GrossProfit / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AverageLoss = s.GrossLoss / float64(s.Losses)
		s.ProfitFactor = s.GrossProfit / math.Abs(s.GrossLoss)
	}
	return s
}
