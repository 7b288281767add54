// Package score derives equity curves and trade statistics from positions.
package score

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/terminal/account"
	"github.com/rustyeddy/terminal/market"
)

// Point is one step of the equity curve. Min and Max are the value the
// account would have had at the worst and best excursion of the position.
// Commission is the round trip commission of the position.
type Point struct {
	Time       time.Time
	Instrument string
	Value      float64
	Min        float64
	Max        float64
	Commission float64
	Direction  int
}

// Series builds the equity curve of positions, ordered by entry time. The
// first point is the initial balance at the time of the first position.
// Series keeps no state between calls.
func Series(initial float64, positions []market.Position) []Point {
	if len(positions) == 0 {
		return nil
	}

	sorted := make([]market.Position, len(positions))
	copy(sorted, positions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time().Before(sorted[j].Time())
	})

	value := decimal.NewFromFloat(initial)
	out := make([]Point, 0, len(sorted)+1)
	out = append(out, Point{
		Time:  sorted[0].Time(),
		Value: initial,
		Min:   initial,
		Max:   initial,
	})

	for _, p := range sorted {
		prev := value
		value = prev.Add(decimal.NewFromFloat(p.GainLoss))
		out = append(out, Point{
			Time:       p.Time(),
			Instrument: p.Name(),
			Value:      value.InexactFloat64(),
			Min:        prev.Add(decimal.NewFromFloat(p.GainMin)).InexactFloat64(),
			Max:        prev.Add(decimal.NewFromFloat(p.GainMax)).InexactFloat64(),
			Commission: decimal.NewFromFloat(p.Commission()).Mul(decimal.NewFromInt(2)).InexactFloat64(),
			Direction:  p.Side.Direction(),
		})
	}
	return out
}

// FromSnapshot scores the deals and open positions of one or more accounts
// against their combined initial balance.
func FromSnapshot(snaps ...account.Snapshot) []Point {
	var (
		initial   float64
		positions []market.Position
	)
	for _, s := range snaps {
		initial += s.InitialBalance
		positions = append(positions, s.History()...)
	}
	return Series(initial, positions)
}
