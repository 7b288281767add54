// journal/journal.go
package journal

import (
	"time"

	"github.com/rustyeddy/terminal/market"
)

// DealRecord is a closed position.
type DealRecord struct {
	DealID     string
	Account    string
	Instrument string
	Class      string
	Side       string
	Volume     float64
	OpenPrice  float64
	ClosePrice float64
	OpenTime   time.Time
	CloseTime  time.Time
	GainLoss   float64
	GainMin    float64
	GainMax    float64
	Commission float64
}

// EquityRecord is one point of an account's equity curve.
type EquityRecord struct {
	Time    time.Time
	Balance float64
	Equity  float64
	Min     float64
	Max     float64
}

type Journal interface {
	RecordDeal(DealRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}

// FromPosition flattens a closed position.
func FromPosition(account string, p market.Position) DealRecord {
	rec := DealRecord{
		DealID:     p.ID(),
		Account:    account,
		Instrument: p.Name(),
		Side:       p.Side.String(),
		OpenPrice:  p.OpenPrice,
		ClosePrice: p.ClosePrice,
		OpenTime:   p.Time(),
		CloseTime:  p.Closed,
		GainLoss:   p.GainLoss,
		GainMin:    p.GainMin,
		GainMax:    p.GainMax,
		Commission: p.Commission(),
	}
	if p.Transaction != nil {
		rec.Volume = p.Transaction.Volume
		if p.Transaction.Instrument != nil {
			rec.Class = p.Transaction.Instrument.Class.String()
		}
	}
	return rec
}

// Position rebuilds the closed position a record was made from. Volume is
// restored as the requested volume; the held volume of a closed position
// is zero.
func (r DealRecord) Position() market.Position {
	var side market.Side
	_ = side.UnmarshalText([]byte(r.Side))
	var class market.InstrumentClass
	_ = class.UnmarshalText([]byte(r.Class))

	return market.Position{
		Order: market.Order{
			Side:        side,
			Type:        market.TypeMarket,
			Instruction: market.InstructionSingle,
			Transaction: &market.Transaction{
				ID: r.DealID,
				Instrument: &market.Instrument{
					Name:       r.Instrument,
					Class:      class,
					Commission: r.Commission,
				},
				Price:  r.OpenPrice,
				Volume: r.Volume,
				Time:   r.OpenTime,
				Status: market.StatusFilled,
			},
			GainLoss: r.GainLoss,
			GainMin:  r.GainMin,
			GainMax:  r.GainMax,
		},
		OpenPrice:  r.OpenPrice,
		ClosePrice: r.ClosePrice,
		Realized:   r.GainLoss,
		Closed:     r.CloseTime,
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordDeal(DealRecord) error     { return nil }
func (Nop) RecordEquity(EquityRecord) error { return nil }
func (Nop) Close() error                    { return nil }
