package market

import (
	"math"
	"time"
)

// Position is a filled order that is still open or has been closed. The
// embedded order's GainLoss, GainMin and GainMax hold the position's gain
// and the extremes of its gain since entry.
type Position struct {
	Order

	OpenPrice  float64
	ClosePrice float64

	// High and Low are the price extremes observed since entry.
	High float64
	Low  float64

	// Realized accumulates gains of volume already closed out.
	Realized float64

	Closed time.Time
}

// NewPosition opens a position from a filled order at the given entry price.
func NewPosition(o Order, price float64) Position {
	p := Position{
		Order:     o.Clone(),
		OpenPrice: price,
		High:      price,
		Low:       price,
	}
	p.GainLoss, p.GainMin, p.GainMax = 0, 0, 0
	return p
}

// Volume is the filled volume held by the position.
func (p Position) Volume() float64 {
	if p.Transaction == nil {
		return 0
	}
	return p.Transaction.FilledVolume
}

// IsOpen reports whether the position still holds volume.
func (p Position) IsOpen() bool {
	return p.Closed.IsZero() && p.Volume() != 0
}

// Time is the entry time used to order positions.
func (p Position) Time() time.Time {
	if p.Transaction == nil {
		return time.Time{}
	}
	return p.Transaction.Time
}

// Commission is the per-unit commission of the traded instrument.
func (p Position) Commission() float64 {
	if p.Transaction == nil || p.Transaction.Instrument == nil {
		return 0
	}
	return p.Transaction.Instrument.Commission
}

// Gain is the signed gain of moving from the open price to price.
func (p Position) Gain(price float64) float64 {
	if price == 0 || p.OpenPrice == 0 {
		return 0
	}
	var mult float64 = 1
	if p.Transaction != nil {
		mult = p.Transaction.Instrument.Multiplier()
	}
	return (price - p.OpenPrice) * p.Volume() * mult * float64(p.Side.Direction())
}

// Revalue marks the position at price. High and Low only widen, so GainMin
// never increases and GainMax never decreases while the position is open.
func (p *Position) Revalue(price float64) {
	if price == 0 {
		return
	}
	if p.High == 0 || price > p.High {
		p.High = price
	}
	if p.Low == 0 || price < p.Low {
		p.Low = price
	}

	p.GainLoss = p.Realized + p.Gain(price)

	best, worst := p.Gain(p.High), p.Gain(p.Low)
	if p.Side == SideSell {
		best, worst = worst, best
	}
	p.GainMax = math.Max(p.GainMax, p.Realized+best)
	p.GainMin = math.Min(p.GainMin, p.Realized+worst)
}

// Reduce closes out volume at price and keeps the rest open. It returns the
// gain realized by the reduction.
func (p *Position) Reduce(volume, price float64) float64 {
	if p.Transaction == nil || volume <= 0 {
		return 0
	}
	volume = math.Min(volume, p.Transaction.FilledVolume)
	gain := 0.0
	if price != 0 && p.OpenPrice != 0 {
		gain = (price - p.OpenPrice) * volume * p.Transaction.Instrument.Multiplier() * float64(p.Side.Direction())
	}
	p.Realized += gain
	p.Transaction.FilledVolume -= volume
	p.Revalue(price)
	return gain
}

// Increase adds volume at price and moves the open price to the volume
// weighted average.
func (p *Position) Increase(volume, price float64) {
	if p.Transaction == nil || volume <= 0 {
		return
	}
	held := p.Transaction.FilledVolume
	if price != 0 && held+volume != 0 {
		p.OpenPrice = (p.OpenPrice*held + price*volume) / (held + volume)
	}
	p.Transaction.FilledVolume += volume
	if p.Transaction.FilledVolume > p.Transaction.Volume {
		p.Transaction.Volume = p.Transaction.FilledVolume
	}
	p.Transaction.Price = p.OpenPrice
	p.Revalue(price)
}

// Close realizes the position at price.
func (p *Position) Close(price float64, at time.Time) {
	p.Revalue(price)
	p.ClosePrice = price
	p.Closed = at
	if p.Transaction != nil {
		p.Transaction.Status = StatusFilled
	}
}

func (p Position) Clone() Position {
	p.Order = p.Order.Clone()
	return p
}
