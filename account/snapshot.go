package account

import (
	"sort"

	"github.com/rustyeddy/terminal/market"
)

// Snapshot is a deep copy of an account taken under one lock. Changing it
// does not affect the account.
type Snapshot struct {
	Descriptor     string
	Balance        float64
	InitialBalance float64
	Instruments    map[string]*market.Instrument
	Orders         map[string]market.Order
	Positions      map[string]market.Position
	Deals          []market.Position
}

// Snapshot copies the account state.
func (a *Account) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := Snapshot{
		Descriptor:     a.descriptor,
		Balance:        a.balance,
		InitialBalance: a.initial,
		Instruments:    make(map[string]*market.Instrument, len(a.instruments)),
		Orders:         make(map[string]market.Order, len(a.orders)),
		Positions:      make(map[string]market.Position, len(a.positions)),
		Deals:          make([]market.Position, len(a.deals)),
	}
	for name, inst := range a.instruments {
		s.Instruments[name] = inst.Clone()
	}
	for oid, o := range a.orders {
		s.Orders[oid] = o.Clone()
	}
	for name, p := range a.positions {
		s.Positions[name] = p.Clone()
	}
	for i, d := range a.deals {
		s.Deals[i] = d.Clone()
	}
	return s
}

// Quote returns the current point of an instrument.
func (s Snapshot) Quote(name string) (market.Point, bool) {
	inst, ok := s.Instruments[name]
	if !ok || inst.Point == nil {
		return market.Point{}, false
	}
	return *inst.Point, true
}

// Equity is the balance plus the gain of open positions.
func (s Snapshot) Equity() float64 {
	eq := s.Balance
	for _, p := range s.Positions {
		eq += p.GainLoss
	}
	return eq
}

// OpenPositions lists open positions by entry time.
func (s Snapshot) OpenPositions() []market.Position {
	out := make([]market.Position, 0, len(s.Positions))
	for _, p := range s.Positions {
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Time(), out[j].Time()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

// History lists deals followed by open positions.
func (s Snapshot) History() []market.Position {
	out := make([]market.Position, 0, len(s.Deals)+len(s.Positions))
	out = append(out, s.Deals...)
	return append(out, s.OpenPositions()...)
}
