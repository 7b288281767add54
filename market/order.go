package market

import (
	"strings"
	"time"
)

// Transaction is the execution record of an order.
type Transaction struct {
	ID           string
	Descriptor   string
	Instrument   *Instrument
	Price        float64 // average fill or entry price
	Volume       float64 // requested
	FilledVolume float64
	Time         time.Time
	Status       Status
}

// Name is the traded instrument name, or "" when unknown.
func (t *Transaction) Name() string {
	if t == nil || t.Instrument == nil {
		return ""
	}
	return t.Instrument.Name
}

// Remaining is the unfilled part of the requested volume.
func (t *Transaction) Remaining() float64 {
	if t == nil || t.FilledVolume >= t.Volume {
		return 0
	}
	return t.Volume - t.FilledVolume
}

func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	out := *t
	out.Instrument = t.Instrument.Clone()
	return &out
}

// Order is a trading intent or its record. Group orders carry their legs in
// Orders; only the legs are executable.
type Order struct {
	Side            Side
	Type            OrderType
	TimeSpan        TimeSpan
	Price           float64
	ActivationPrice float64
	Instruction     Instruction
	Transaction     *Transaction
	Orders          []Order

	GainLoss float64
	GainMin  float64
	GainMax  float64
}

// ID returns the transaction id.
func (o *Order) ID() string {
	if o.Transaction == nil {
		return ""
	}
	return o.Transaction.ID
}

// Name returns the traded instrument name.
func (o *Order) Name() string {
	return o.Transaction.Name()
}

// IsGroup reports whether the order is a multi-leg container.
func (o *Order) IsGroup() bool {
	return o.Instruction == InstructionGroup
}

// Clone deep-copies the order and its legs.
func (o Order) Clone() Order {
	o.Transaction = o.Transaction.Clone()
	if o.Orders != nil {
		legs := make([]Order, len(o.Orders))
		for i, leg := range o.Orders {
			legs[i] = leg.Clone()
		}
		o.Orders = legs
	}
	return o
}

// GroupName joins leg symbols the way pooled group instruments are named.
func GroupName(names []string) string {
	return strings.Join(names, " / ")
}

// LastPrice prefers the ask and falls back to the bid.
func LastPrice(ask, bid *float64) float64 {
	switch {
	case ask != nil:
		return *ask
	case bid != nil:
		return *bid
	default:
		return 0
	}
}

// TickLastPrice takes the side that traded most recently. Without usable
// timestamps it behaves like LastPrice.
//
// The rule compares arrival times, not price magnitude. Brokers with
// unreliable per-side timestamps will report the wrong side.
func TickLastPrice(ask, bid *float64, askTime, bidTime time.Time) float64 {
	if ask == nil || bid == nil || askTime.IsZero() || bidTime.IsZero() {
		return LastPrice(ask, bid)
	}
	if askTime.After(bidTime) {
		return *ask
	}
	return *bid
}
