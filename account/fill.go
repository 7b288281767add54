package account

import (
	"math"
	"time"

	"github.com/rustyeddy/terminal/internal/id"
	"github.com/rustyeddy/terminal/logger"
	"github.com/rustyeddy/terminal/market"
)

// merge applies the set fields of upd onto a copy of prev. Filled volume
// never decreases.
func merge(prev, upd market.Order) market.Order {
	out := prev.Clone()

	if upd.Side != market.SideNone {
		out.Side = upd.Side
	}
	if upd.Type != market.TypeNone {
		out.Type = upd.Type
	}
	if upd.TimeSpan != market.SpanNone {
		out.TimeSpan = upd.TimeSpan
	}
	if upd.Price != 0 {
		out.Price = upd.Price
	}
	if upd.ActivationPrice != 0 {
		out.ActivationPrice = upd.ActivationPrice
	}
	if upd.Instruction != market.InstructionNone {
		out.Instruction = upd.Instruction
	}

	t, u := out.Transaction, upd.Transaction
	if t == nil {
		t = &market.Transaction{ID: u.ID}
		out.Transaction = t
	}
	if u.Descriptor != "" {
		t.Descriptor = u.Descriptor
	}
	if u.Instrument != nil && u.Instrument.Name != "" {
		t.Instrument = u.Instrument
	}
	if u.Price != 0 {
		t.Price = u.Price
	}
	if u.Volume != 0 {
		t.Volume = u.Volume
	}
	if u.FilledVolume > t.FilledVolume {
		t.FilledVolume = u.FilledVolume
	}
	if !u.Time.IsZero() {
		t.Time = u.Time
	}
	if u.Status != market.StatusNone {
		t.Status = u.Status
	}

	if len(upd.Orders) > 0 {
		legs := upd.Orders
		for i := range legs {
			if i >= len(prev.Orders) || legs[i].Transaction == nil || prev.Orders[i].Transaction == nil {
				continue
			}
			if f := prev.Orders[i].Transaction.FilledVolume; f > legs[i].Transaction.FilledVolume {
				legs[i].Transaction.FilledVolume = f
			}
		}
		out.Orders = legs
	}
	return out
}

// normalize caps filled volume at the requested volume and spreads the
// fill ratio of a group over legs that do not report their own fills.
func normalize(o *market.Order) {
	t := o.Transaction
	if t == nil {
		return
	}
	if t.Volume == 0 {
		t.Volume = t.FilledVolume
	}
	if t.FilledVolume > t.Volume {
		t.FilledVolume = t.Volume
	}

	if !o.IsGroup() {
		o.Orders = nil
		return
	}
	ratio := 0.0
	if t.Volume > 0 {
		ratio = t.FilledVolume / t.Volume
	}
	for i := range o.Orders {
		leg := &o.Orders[i]
		if leg.Transaction == nil {
			continue
		}
		if f := leg.Transaction.Volume * ratio; f > leg.Transaction.FilledVolume {
			leg.Transaction.FilledVolume = f
		}
		normalize(leg)
	}
}

// executeLocked nets the volume filled since before into the position on
// the order's instrument.
func (a *Account) executeLocked(before *market.Order, o market.Order, at time.Time) []market.Position {
	if o.Transaction == nil || o.Name() == "" || o.Side == market.SideNone {
		return nil
	}

	var prevFilled, prevPrice float64
	if before != nil && before.Transaction != nil {
		prevFilled = before.Transaction.FilledVolume
		prevPrice = before.Transaction.Price
	}
	delta := o.Transaction.FilledVolume - prevFilled
	if delta <= 0 {
		return nil
	}

	price := o.Transaction.Price
	if price != 0 && prevFilled > 0 && prevPrice > 0 {
		// Average fill price covers all fills so far; recover the price of
		// the new ones.
		if p := (price*o.Transaction.FilledVolume - prevPrice*prevFilled) / delta; p > 0 {
			price = p
		}
	}
	if price == 0 {
		price = o.Price
	}
	if price == 0 {
		price = a.markLocked(o.Transaction.Instrument)
	}
	return a.fillLocked(o, delta, price, at)
}

func (a *Account) fillLocked(o market.Order, volume, price float64, at time.Time) []market.Position {
	name := o.Name()
	pos, ok := a.positions[name]
	if ok && pos.Side == o.Side {
		pos.Increase(volume, price)
		return nil
	}

	var closed []market.Position
	if ok {
		n := math.Min(volume, pos.Volume())
		pos.Reduce(n, price)
		volume -= n
		if pos.Volume() == 0 {
			closed = append(closed, a.closeLocked(pos, price, at))
		}
	}
	if volume > 0 {
		a.openLocked(o, volume, price, at)
	}
	return closed
}

func (a *Account) openLocked(o market.Order, volume, price float64, at time.Time) {
	inst := a.instrumentLocked(o.Transaction.Instrument)
	entry := market.Order{
		Side:        o.Side,
		Type:        o.Type,
		TimeSpan:    o.TimeSpan,
		Price:       price,
		Instruction: market.InstructionSingle,
		Transaction: &market.Transaction{
			ID:           id.At(at),
			Descriptor:   a.descriptor,
			Price:        price,
			Volume:       volume,
			FilledVolume: volume,
			Time:         at,
			Status:       market.StatusFilled,
		},
	}
	pos := market.NewPosition(entry, price)
	pos.Transaction.Instrument = inst
	if m := a.markLocked(inst); m != 0 {
		pos.Revalue(m)
	}
	a.positions[inst.Name] = &pos

	a.log.WithFields(logger.Fields{
		"instrument": inst.Name,
		"side":       pos.Side.String(),
		"volume":     volume,
		"price":      price,
	}).Debug("position opened")
}

// adoptLocked opens a position reported by a broker snapshot.
func (a *Account) adoptLocked(p market.Position, inst *market.Instrument, at time.Time) {
	p.Transaction.ID = id.At(at)
	p.Transaction.Instrument = inst
	p.Transaction.Time = at
	if p.Transaction.Descriptor == "" {
		p.Transaction.Descriptor = a.descriptor
	}
	if p.Transaction.Volume < p.Transaction.FilledVolume {
		p.Transaction.Volume = p.Transaction.FilledVolume
	}
	if p.High == 0 {
		p.High = p.OpenPrice
	}
	if p.Low == 0 {
		p.Low = p.OpenPrice
	}
	p.Instruction = market.InstructionSingle
	p.Orders = nil
	p.Realized = 0
	p.ClosePrice = 0
	p.Closed = time.Time{}

	gain := p.GainLoss
	p.GainLoss, p.GainMin, p.GainMax = 0, 0, 0
	a.revalueLocked(&p, gain)
	a.positions[inst.Name] = &p
}

// revalueLocked marks a position at its instrument's price, or takes the
// broker reported gain when no price is known.
func (a *Account) revalueLocked(p *market.Position, reported float64) {
	if m := a.markLocked(p.Transaction.Instrument); m != 0 {
		p.Revalue(m)
		return
	}
	p.GainLoss = reported
	p.GainMin = math.Min(p.GainMin, reported)
	p.GainMax = math.Max(p.GainMax, reported)
}

// closeLocked realizes what is left of p, credits the gain to the balance
// and moves p to the deals.
func (a *Account) closeLocked(p *market.Position, price float64, at time.Time) market.Position {
	if price == 0 {
		price = a.markLocked(p.Transaction.Instrument)
	}
	if held := p.Volume(); held > 0 {
		p.Reduce(held, price)
	}
	p.Close(price, at)
	p.GainLoss = p.Realized
	p.GainMin = math.Min(p.GainMin, p.GainLoss)
	p.GainMax = math.Max(p.GainMax, p.GainLoss)

	a.balance += p.GainLoss
	delete(a.positions, p.Name())

	deal := p.Clone()
	a.deals = append(a.deals, deal)

	a.log.WithFields(logger.Fields{
		"instrument": deal.Name(),
		"gain":       deal.GainLoss,
		"balance":    a.balance,
	}).Debug("deal closed")
	return deal
}
