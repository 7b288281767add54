// Package ib maps the callbacks of the Interactive Brokers socket API onto
// the market model.
package ib

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/terminal/broker"
	"github.com/rustyeddy/terminal/market"
)

// Name identifies the broker in envelopes and configuration.
const Name = "ib"

// Adapter maps socket callbacks. The zero value uses the wall clock for
// callbacks that carry no timestamp.
type Adapter struct {
	Now func() time.Time
}

var _ broker.Gateway[SnapshotMessage, HistoricalDataMessage, OpenOrderMessage, PositionMessage, PlaceOrderRequest] = Adapter{}

func (a Adapter) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

// ResolveInstrumentClass maps a security type. Unknown types yield ClassNone.
func (a Adapter) ResolveInstrumentClass(secType string) market.InstrumentClass {
	return secTypes.Get(secType)
}

// ResolveStreamFieldMap returns the tick type codes of a class.
func (a Adapter) ResolveStreamFieldMap(class market.InstrumentClass) broker.FieldMap {
	return tickFields[class]
}

func parseBarTime(s string) time.Time {
	f := strings.Fields(s)
	switch {
	case len(f) == 0:
		return time.Time{}
	case len(f) == 1 && len(f[0]) == 8:
		t, err := time.Parse("20060102", f[0])
		if err != nil {
			return time.Time{}
		}
		return t
	case len(f) == 1:
		n, err := strconv.ParseInt(f[0], 10, 64)
		if err != nil {
			return time.Time{}
		}
		return time.Unix(n, 0).UTC()
	}

	loc := time.UTC
	if len(f) > 2 {
		if l, err := time.LoadLocation(f[2]); err == nil {
			loc = l
		}
	}
	t, err := time.ParseInLocation("20060102 15:04:05", f[0]+" "+f[1], loc)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func parseExpiration(s string) time.Time {
	for _, layout := range []string{"20060102", "200601"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t
		}
	}
	return time.Time{}
}

func exchange(c Contract) string {
	if c.Exchange == "SMART" && c.PrimaryExchange != "" {
		return c.PrimaryExchange
	}
	return c.Exchange
}

// MapContract builds the instrument of a contract. Options default to a
// multiplier of 100 and refer to their underlying symbol as basis; BAG
// contracts are named after their legs.
func (a Adapter) MapContract(c Contract) *market.Instrument {
	class := secTypes.Get(c.SecType)
	inst := &market.Instrument{
		Name:     c.Name(),
		Exchange: exchange(c),
		Class:    class,
	}

	if m, err := strconv.ParseFloat(c.Multiplier, 64); err == nil && m > 0 {
		inst.Leverage = m
	} else if class == market.ClassOptions {
		inst.Leverage = 100
	}

	if class.IsDerivative() {
		inst.Derivative = &market.Derivative{
			Strike:     c.Strike,
			Expiration: parseExpiration(c.LastTradeDateOrContractMonth),
			Side:       rights.Get(c.Right),
		}
		basis := market.ClassShares
		if class == market.ClassFuturesOptions {
			basis = market.ClassFutures
		}
		inst.Basis = &market.Instrument{Name: c.Symbol, Class: basis}
	}

	if len(c.ComboLegs) > 0 {
		names := make([]string, 0, len(c.ComboLegs))
		for _, leg := range c.ComboLegs {
			names = append(names, legName(leg))
		}
		inst.Name = market.GroupName(names)
	}
	return inst
}

func legName(leg ComboLeg) string {
	if leg.Symbol != "" {
		return leg.Symbol
	}
	return strconv.FormatInt(leg.ConID, 10)
}

// MapQuote folds the ticks of a snapshot into one point. Each price tick
// stamps its side's time so the last price follows the tick rule.
func (a Adapter) MapQuote(msg SnapshotMessage) market.Point {
	inst := a.MapContract(msg.Contract)
	fields := a.ResolveStreamFieldMap(inst.Class)
	if fields == nil {
		fields = baseTicks
	}

	v := broker.Values{}
	for _, tick := range msg.Ticks {
		name := fields.Name(strconv.Itoa(tick.Type))
		x, ok := tick.value()
		if name == "" || !ok {
			continue
		}
		v[name] = x
		if tick.Time <= 0 {
			continue
		}
		ms := float64(tick.Time)
		if field, ok := timeFields[name]; ok {
			v[field] = ms
		}
		if ms > v[broker.FieldQuoteTime] {
			v[broker.FieldQuoteTime] = ms
		}
	}

	p := v.Point(inst.Name, a.now())
	p.Instrument = inst
	if inst.Derivative != nil {
		inst.Derivative.OpenInterest = v[broker.FieldOpenInterest]
		inst.Derivative.Volatility = v[broker.FieldVolatility]
	}
	return p
}

// MapBar maps a historical bar to a point whose prices all equal the close.
func (a Adapter) MapBar(msg HistoricalDataMessage) market.Point {
	t := parseBarTime(msg.Bar.Date)
	if t.IsZero() {
		t = a.now()
	}
	volume := msg.Bar.Volume.InexactFloat64()
	c := msg.Bar.Close
	return market.Point{
		Bid:     c,
		Ask:     c,
		Last:    c,
		BidSize: volume,
		AskSize: volume,
		Volume:  volume,
		Time:    t,
		Bar: &market.Bar{
			Open:   msg.Bar.Open,
			High:   msg.Bar.High,
			Low:    msg.Bar.Low,
			Close:  c,
			Volume: volume,
			Time:   t,
		},
		Instrument: a.MapContract(msg.Contract),
	}
}

func orderID(ids ...int64) string {
	for _, id := range ids {
		if id != 0 {
			return strconv.FormatInt(id, 10)
		}
	}
	return ""
}

// MapOrder maps an openOrder callback. BAG contracts become group orders
// whose legs hold ratio times the total quantity; leg actions are relative
// to the order action.
func (a Adapter) MapOrder(msg OpenOrderMessage) market.Order {
	ord := msg.Order
	total := ord.TotalQuantity.InexactFloat64()

	span := tifs.Get(ord.Tif)
	if span == market.SpanDay && ord.OutsideRth {
		span = market.SpanPm
	}

	o := market.Order{
		Side:        actions.Get(ord.Action),
		Type:        orderTypes.Get(ord.OrderType),
		TimeSpan:    span,
		Instruction: market.InstructionSingle,
		Transaction: &market.Transaction{
			ID:         orderID(msg.OrderID, ord.OrderID, ord.PermID),
			Descriptor: ord.Account,
			Instrument: a.MapContract(msg.Contract),
			Volume:     total,
			Time:       a.now(),
			Status:     statuses.Get(msg.State.Status),
		},
	}

	switch o.Type {
	case market.TypeLimit:
		o.Price = price(ord.LmtPrice)
	case market.TypeStop:
		o.Price = price(ord.AuxPrice)
	case market.TypeStopLimit:
		o.Price = price(ord.LmtPrice)
		o.ActivationPrice = price(ord.AuxPrice)
	}

	if o.Transaction.Status == market.StatusFilled {
		o.Transaction.FilledVolume = total
	}

	if len(msg.Contract.ComboLegs) == 0 {
		return o
	}

	o.Instruction = market.InstructionGroup
	fill := 0.0
	if total > 0 {
		fill = o.Transaction.FilledVolume / total
	}
	for _, leg := range msg.Contract.ComboLegs {
		side := actions.Get(leg.Action)
		if o.Side == market.SideSell {
			side = side.Opposite()
		}
		volume := float64(leg.Ratio) * total
		o.Orders = append(o.Orders, market.Order{
			Side:        side,
			Instruction: market.InstructionSingle,
			Transaction: &market.Transaction{
				Instrument: &market.Instrument{
					Name:     legName(leg),
					Exchange: leg.Exchange,
					Class:    secTypes.Get(leg.SecType),
				},
				Volume:       volume,
				FilledVolume: volume * fill,
				Time:         o.Transaction.Time,
			},
		})
	}
	return o
}

// MapOrderStatus maps an orderStatus callback to a partial order that only
// carries the id, fill progress and status. Working orders with fills are
// reported as partitioned.
func (a Adapter) MapOrderStatus(msg OrderStatusMessage) market.Order {
	filled := msg.Filled.InexactFloat64()
	remaining := msg.Remaining.InexactFloat64()

	status := statuses.Get(msg.Status)
	if status == market.StatusPending && filled > 0 && remaining > 0 {
		status = market.StatusPartitioned
	}

	t := a.now()
	if msg.Time > 0 {
		t = time.UnixMilli(msg.Time).UTC()
	}

	return market.Order{
		Transaction: &market.Transaction{
			ID:           orderID(msg.OrderID, msg.PermID),
			Price:        msg.AvgFillPrice,
			Volume:       filled + remaining,
			FilledVolume: filled,
			Time:         t,
			Status:       status,
		},
	}
}

// MapPosition maps a position callback. The side follows the sign of the
// quantity and the open price is the average cost per unit of multiplier.
func (a Adapter) MapPosition(msg PositionMessage) market.Position {
	qty := msg.Position.InexactFloat64()
	side := market.SideNone
	switch {
	case qty > 0:
		side = market.SideBuy
	case qty < 0:
		side = market.SideSell
	}

	inst := a.MapContract(msg.Contract)
	open := msg.AvgCost / inst.Multiplier()
	volume := math.Abs(qty)

	o := market.Order{
		Side:        side,
		Type:        market.TypeMarket,
		Instruction: market.InstructionSingle,
		Price:       open,
		Transaction: &market.Transaction{
			ID:           inst.Name,
			Descriptor:   msg.Account,
			Instrument:   inst,
			Price:        open,
			Volume:       volume,
			FilledVolume: volume,
			Time:         a.now(),
			Status:       market.StatusFilled,
		},
	}
	return market.NewPosition(o, open)
}

// MapOptionComputation maps model or market greeks of an option.
func (a Adapter) MapOptionComputation(msg OptionComputationMessage) *market.Instrument {
	inst := a.MapContract(msg.Contract)
	if inst.Derivative == nil {
		inst.Derivative = &market.Derivative{}
	}
	inst.Derivative.Volatility = price(msg.ImpliedVol)
	inst.Derivative.Greeks = market.Greeks{
		Delta: price(msg.Delta),
		Gamma: price(msg.Gamma),
		Theta: price(msg.Theta),
		Vega:  price(msg.Vega),
	}

	t := a.now()
	if msg.Time > 0 {
		t = time.UnixMilli(msg.Time).UTC()
	}
	if px := price(msg.OptPrice); px != 0 {
		inst.Point = &market.Point{Last: px, Time: t, Instrument: inst}
	}
	if px := price(msg.UndPrice); px != 0 && inst.Basis != nil {
		inst.Basis.Point = &market.Point{Last: px, Time: t, Instrument: inst.Basis}
	}
	return inst
}

func contractFor(inst *market.Instrument) Contract {
	if inst == nil {
		return Contract{SecType: "STK", Exchange: "SMART"}
	}
	c := Contract{
		Symbol:   inst.Name,
		SecType:  secTypeNames[inst.Class],
		Exchange: inst.Exchange,
	}
	if c.SecType == "" {
		c.SecType = "STK"
	}
	if c.Exchange == "" {
		c.Exchange = "SMART"
	}
	if inst.Leverage != 0 {
		c.Multiplier = strconv.FormatFloat(inst.Leverage, 'f', -1, 64)
	}
	if d := inst.Derivative; d != nil {
		c.LocalSymbol = inst.Name
		if inst.Basis != nil {
			c.Symbol = inst.Basis.Name
		}
		c.Strike = d.Strike
		if !d.Expiration.IsZero() {
			c.LastTradeDateOrContractMonth = d.Expiration.Format("20060102")
		}
		switch d.Side {
		case market.OptionPut:
			c.Right = "P"
		case market.OptionCall:
			c.Right = "C"
		}
	}
	return c
}

// MapOutgoingOrder builds placeOrder arguments. Stops travel in AuxPrice,
// stop limits in LmtPrice and AuxPrice, and groups become BAG contracts with
// leg ratios relative to the group volume.
func (a Adapter) MapOutgoingOrder(o market.Order) PlaceOrderRequest {
	var total float64
	if o.Transaction != nil {
		total = o.Transaction.Volume
	}

	ord := Order{
		Action:    actionNames[o.Side],
		OrderType: orderTypeNames[o.Type],
		Tif:       tifNames[o.TimeSpan],
		Transmit:  true,
	}
	switch o.TimeSpan {
	case market.SpanPm:
		ord.Tif, ord.OutsideRth = "DAY", true
	case market.SpanNone:
		ord.Tif = "DAY"
	}

	px, activation := o.Price, o.ActivationPrice
	switch o.Type {
	case market.TypeLimit:
		ord.LmtPrice = &px
	case market.TypeStop:
		ord.AuxPrice = &px
	case market.TypeStopLimit:
		ord.LmtPrice = &px
		ord.AuxPrice = &activation
	}

	id, _ := strconv.ParseInt(o.ID(), 10, 64)
	req := PlaceOrderRequest{OrderID: id}

	if !o.IsGroup() {
		ord.TotalQuantity = decimal.NewFromFloat(total)
		req.Order = ord
		if o.Transaction != nil {
			req.Contract = contractFor(o.Transaction.Instrument)
		} else {
			req.Contract = contractFor(nil)
		}
		return req
	}

	if total <= 0 {
		total = 1
	}
	ord.TotalQuantity = decimal.NewFromFloat(total)
	req.Order = ord
	req.Contract = Contract{SecType: "BAG", Exchange: "SMART"}
	for _, child := range o.Orders {
		side := child.Side
		if o.Side == market.SideSell {
			side = side.Opposite()
		}

		var volume float64
		var class market.InstrumentClass
		leg := ComboLeg{Symbol: child.Name(), Exchange: "SMART"}
		if child.Transaction != nil {
			volume = child.Transaction.Volume
			if inst := child.Transaction.Instrument; inst != nil {
				class = inst.Class
				if inst.Exchange != "" {
					leg.Exchange = inst.Exchange
				}
				if req.Contract.Symbol == "" && inst.Basis != nil {
					req.Contract.Symbol = inst.Basis.Name
				}
			}
		}
		leg.SecType = secTypeNames[class]
		leg.Action = actionNames[side]
		leg.Ratio = int64(math.Max(1, math.Round(volume/total)))
		req.Contract.ComboLegs = append(req.Contract.ComboLegs, leg)
	}
	if req.Contract.Symbol == "" && len(req.Contract.ComboLegs) > 0 {
		req.Contract.Symbol = req.Contract.ComboLegs[0].Symbol
	}
	return req
}
