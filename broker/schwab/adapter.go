// Package schwab maps the REST and streamer messages of the Schwab trader
// API onto the market model.
package schwab

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/rustyeddy/terminal/broker"
	"github.com/rustyeddy/terminal/market"
)

// Name identifies the broker in envelopes and configuration.
const Name = "schwab"

// Adapter maps Schwab messages. The zero value uses the wall clock for
// messages that carry no timestamp.
type Adapter struct {
	Now func() time.Time
}

var _ broker.Gateway[AssetMessage, BarMessage, OrderMessage, PositionMessage, OrderRequest] = Adapter{}

func (a Adapter) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

// ResolveInstrumentClass maps an asset type. Unknown types yield ClassNone.
func (a Adapter) ResolveInstrumentClass(assetType string) market.InstrumentClass {
	return assetTypes.Get(assetType)
}

// ResolveSubscriptionClass maps a streamer service name.
func (a Adapter) ResolveSubscriptionClass(service string) market.InstrumentClass {
	return services.Get(service)
}

// ResolveStreamFieldMap returns the field codes of the class's level one
// service, or nil when the class is not streamed.
func (a Adapter) ResolveStreamFieldMap(class market.InstrumentClass) broker.FieldMap {
	return streamFields[class]
}

func (q QuoteMessage) values() broker.Values {
	v := broker.Values{}
	set := func(name string, x *float64) {
		if x != nil {
			v[name] = *x
		}
	}
	setTime := func(name string, ms *int64) {
		if ms != nil {
			v[name] = float64(*ms)
		}
	}
	set(broker.FieldAskPrice, q.AskPrice)
	set(broker.FieldAskSize, q.AskSize)
	set(broker.FieldBidPrice, q.BidPrice)
	set(broker.FieldBidSize, q.BidSize)
	set(broker.FieldLastPrice, q.LastPrice)
	set(broker.FieldLastSize, q.LastSize)
	set(broker.FieldOpenPrice, q.OpenPrice)
	set(broker.FieldHighPrice, q.HighPrice)
	set(broker.FieldLowPrice, q.LowPrice)
	set(broker.FieldClosePrice, q.ClosePrice)
	set(broker.FieldTotalVolume, q.TotalVolume)
	set(broker.FieldMark, q.Mark)
	set(broker.FieldNetChange, q.NetChange)
	setTime(broker.FieldQuoteTime, q.QuoteTime)
	setTime(broker.FieldTradeTime, q.TradeTime)
	setTime(broker.FieldAskTime, q.AskTime)
	setTime(broker.FieldBidTime, q.BidTime)
	return v
}

// MapQuote maps one entry of a quotes response.
func (a Adapter) MapQuote(msg AssetMessage) market.Point {
	p := msg.Quote.values().Point(msg.Symbol, a.now())
	p.Instrument = &market.Instrument{
		Name:  msg.Symbol,
		Class: assetTypes.Get(msg.AssetMainType),
	}
	if msg.Reference != nil {
		p.Instrument.Exchange = msg.Reference.ExchangeName
	}
	return p
}

// MapBar maps a candle to a point whose prices all equal the close.
func (a Adapter) MapBar(msg BarMessage) market.Point {
	t := millis(msg.Datetime)
	if t.IsZero() {
		t = a.now()
	}
	return market.Point{
		Bid:     msg.Close,
		Ask:     msg.Close,
		Last:    msg.Close,
		BidSize: msg.Volume,
		AskSize: msg.Volume,
		Volume:  msg.Volume,
		Time:    t,
		Bar: &market.Bar{
			Open:   msg.Open,
			High:   msg.High,
			Low:    msg.Low,
			Close:  msg.Close,
			Volume: msg.Volume,
			Time:   t,
		},
		Instrument: &market.Instrument{Name: msg.Symbol},
	}
}

// MapBars maps a price history response in candle order.
func (a Adapter) MapBars(msg CandleListMessage) []market.Point {
	points := make([]market.Point, 0, len(msg.Candles))
	for _, c := range msg.Candles {
		if c.Symbol == "" {
			c.Symbol = msg.Symbol
		}
		points = append(points, a.MapBar(c))
	}
	return points
}

func (a Adapter) underlying(chain OptionChainMessage) *market.Instrument {
	inst := &market.Instrument{Name: chain.Symbol, Class: market.ClassShares}
	point := &market.Point{Time: a.now(), Instrument: inst}

	if u := chain.Underlying; u != nil {
		if u.Symbol != "" {
			inst.Name = u.Symbol
		}
		inst.Exchange = u.ExchangeName
		point.Bid = value(u.Bid)
		point.Ask = value(u.Ask)
		point.BidSize = value(u.BidSize)
		point.AskSize = value(u.AskSize)
		point.Volume = value(u.TotalVolume)
		point.Last = valueOr(u.Last, market.LastPrice(u.Ask, u.Bid))
		if t := millis(u.QuoteTime); !t.IsZero() {
			point.Time = t
		}
	}
	if chain.UnderlyingPrice != nil && point.Last == 0 {
		point.Last = *chain.UnderlyingPrice
	}
	inst.Point = point
	return inst
}

// MapOption maps one contract of a chain. The chain's underlying becomes the
// option's basis.
func (a Adapter) MapOption(msg OptionMessage, chain OptionChainMessage) *market.Instrument {
	return a.option(msg, a.underlying(chain))
}

func (a Adapter) option(msg OptionMessage, basis *market.Instrument) *market.Instrument {
	inst := &market.Instrument{
		Name:     msg.Symbol,
		Exchange: msg.ExchangeName,
		Class:    market.ClassOptions,
		Leverage: valueOr(msg.Multiplier, 100),
		Basis:    basis,
		Derivative: &market.Derivative{
			Strike:         msg.StrikePrice,
			Expiration:     parseTime(msg.ExpirationDate),
			Side:           putCalls.Get(msg.PutCall),
			OpenInterest:   value(msg.OpenInterest),
			IntrinsicValue: value(msg.IntrinsicValue),
			Volatility:     value(msg.Volatility),
			Greeks: market.Greeks{
				Delta: value(msg.Delta),
				Gamma: value(msg.Gamma),
				Theta: value(msg.Theta),
				Vega:  value(msg.Vega),
				Rho:   value(msg.Rho),
			},
		},
	}

	t := millis(msg.QuoteTime)
	if t.IsZero() {
		t = a.now()
	}
	inst.Point = &market.Point{
		Bid:        value(msg.Bid),
		Ask:        value(msg.Ask),
		BidSize:    value(msg.BidSize),
		AskSize:    value(msg.AskSize),
		Last:       valueOr(msg.Last, market.LastPrice(msg.Ask, msg.Bid)),
		Volume:     value(msg.TotalVolume),
		Time:       t,
		Instrument: inst,
	}
	if msg.OpenPrice != nil || msg.HighPrice != nil || msg.LowPrice != nil {
		inst.Point.Bar = &market.Bar{
			Open:   value(msg.OpenPrice),
			High:   value(msg.HighPrice),
			Low:    value(msg.LowPrice),
			Close:  value(msg.ClosePrice),
			Volume: value(msg.TotalVolume),
			Time:   t,
		}
	}
	return inst
}

// MapOptionChain flattens a chain into option instruments ordered by
// expiration, strike and name. All contracts share one underlying.
func (a Adapter) MapOptionChain(chain OptionChainMessage) []*market.Instrument {
	basis := a.underlying(chain)

	var out []*market.Instrument
	for _, side := range []map[string]map[string][]OptionMessage{chain.CallExpDateMap, chain.PutExpDateMap} {
		for _, strikes := range side {
			for _, contracts := range strikes {
				for _, c := range contracts {
					out = append(out, a.option(c, basis))
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		x, y := out[i].Derivative, out[j].Derivative
		if !x.Expiration.Equal(y.Expiration) {
			return x.Expiration.Before(y.Expiration)
		}
		if x.Strike != y.Strike {
			return x.Strike < y.Strike
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (a Adapter) instrument(msg InstrumentMessage) *market.Instrument {
	inst := &market.Instrument{
		Name:  msg.Symbol,
		Class: assetTypes.Get(msg.AssetType),
	}
	if inst.Class.IsDerivative() {
		inst.Derivative = &market.Derivative{Side: putCalls.Get(msg.PutCall)}
		if msg.UnderlyingSymbol != "" {
			inst.Basis = &market.Instrument{Name: msg.UnderlyingSymbol}
		}
	}
	if inst.Class == market.ClassOptions {
		inst.Leverage = 100
	}
	return inst
}

// timeSpan reads the duration first; the AM and PM sessions only apply to
// orders without a known duration.
func timeSpan(duration, session string) market.TimeSpan {
	if d, ok := durations.Lookup(duration); ok {
		return d
	}
	return sessions.Get(session)
}

func spanCodes(span market.TimeSpan) (duration, session string) {
	switch span {
	case market.SpanAm:
		return "", "AM"
	case market.SpanPm:
		return "", "PM"
	}
	if d, ok := durationNames[span]; ok {
		return d, "NORMAL"
	}
	return "DAY", "NORMAL"
}

func orderSide(msg OrderMessage) market.Side {
	if s, ok := netSides.Lookup(msg.OrderType); ok {
		return s
	}
	if len(msg.OrderLegCollection) > 0 {
		return instructions.Get(msg.OrderLegCollection[0].Instruction)
	}
	return market.SideNone
}

// fillPrices averages execution prices per leg id. Key 0 holds the average
// over all executions.
func fillPrices(msg OrderMessage) map[int64]float64 {
	type acc struct{ amount, qty float64 }
	sums := map[int64]*acc{0: {}}
	for _, activity := range msg.OrderActivityCollection {
		for _, leg := range activity.ExecutionLegs {
			if leg.Quantity <= 0 {
				continue
			}
			if sums[leg.LegID] == nil {
				sums[leg.LegID] = &acc{}
			}
			sums[leg.LegID].amount += leg.Price * leg.Quantity
			sums[leg.LegID].qty += leg.Quantity
			if leg.LegID != 0 {
				sums[0].amount += leg.Price * leg.Quantity
				sums[0].qty += leg.Quantity
			}
		}
	}
	out := make(map[int64]float64, len(sums))
	for id, s := range sums {
		if s.qty > 0 {
			out[id] = s.amount / s.qty
		}
	}
	return out
}

// MapOrder maps an order report. Orders with more than one leg become a
// group whose children carry the leg instrument, volume and side; the
// group's filled fraction is applied to every leg.
func (a Adapter) MapOrder(msg OrderMessage) market.Order {
	t := parseTime(msg.EnteredTime)
	if t.IsZero() {
		t = a.now()
	}

	filled := math.Min(msg.FilledQuantity, msg.Quantity)
	ratio := 0.0
	if msg.Quantity > 0 {
		ratio = filled / msg.Quantity
	}

	var id string
	if msg.OrderID != 0 {
		id = strconv.FormatInt(msg.OrderID, 10)
	}

	o := market.Order{
		Side:        orderSide(msg),
		Type:        orderTypes.Get(msg.OrderType),
		TimeSpan:    timeSpan(msg.Duration, msg.Session),
		Instruction: market.InstructionSingle,
		Transaction: &market.Transaction{
			ID:           id,
			Descriptor:   msg.AccountNumber,
			Volume:       msg.Quantity,
			FilledVolume: filled,
			Time:         t,
			Status:       statuses.Get(msg.Status),
		},
	}

	switch o.Type {
	case market.TypeStop:
		o.Price = valueOr(msg.StopPrice, value(msg.Price))
	case market.TypeStopLimit:
		o.Price = value(msg.Price)
		o.ActivationPrice = value(msg.StopPrice)
	default:
		o.Price = value(msg.Price)
	}

	prices := fillPrices(msg)
	o.Transaction.Price = prices[0]

	legs := msg.OrderLegCollection
	switch {
	case len(legs) > 1:
		o.Instruction = market.InstructionGroup
		names := make([]string, 0, len(legs))
		for _, leg := range legs {
			names = append(names, leg.Instrument.Symbol)
			o.Orders = append(o.Orders, market.Order{
				Side:        instructions.Get(leg.Instruction),
				Instruction: market.InstructionSingle,
				Transaction: &market.Transaction{
					Instrument:   a.instrument(leg.Instrument),
					Price:        prices[leg.LegID],
					Volume:       leg.Quantity,
					FilledVolume: leg.Quantity * ratio,
					Time:         t,
				},
			})
		}
		o.Transaction.Instrument = &market.Instrument{Name: market.GroupName(names)}
		if o.Price != 0 {
			o.Transaction.Price = o.Price
		}
	case len(legs) == 1:
		o.Transaction.Instrument = a.instrument(legs[0].Instrument)
	}
	return o
}

// MapPosition maps a position entry. Volume is the sum of the long and short
// quantities and the gain fields carry the open P/L of the held side.
func (a Adapter) MapPosition(msg PositionMessage) market.Position {
	side := market.SideNone
	var pl *float64
	switch {
	case msg.LongQuantity > 0:
		side, pl = market.SideBuy, msg.LongOpenProfitLoss
	case msg.ShortQuantity > 0:
		side, pl = market.SideSell, msg.ShortOpenProfitLoss
	}

	volume := msg.LongQuantity + msg.ShortQuantity
	o := market.Order{
		Side:        side,
		Type:        market.TypeMarket,
		Instruction: market.InstructionSingle,
		Price:       msg.AveragePrice,
		Transaction: &market.Transaction{
			ID:           msg.Instrument.Symbol,
			Instrument:   a.instrument(msg.Instrument),
			Price:        msg.AveragePrice,
			Volume:       volume,
			FilledVolume: volume,
			Time:         a.now(),
			Status:       market.StatusFilled,
		},
	}

	p := market.NewPosition(o, msg.AveragePrice)
	p.GainLoss = value(pl)
	p.GainMin = p.GainLoss
	p.GainMax = p.GainLoss
	return p
}

// MapStream maps a streamer data frame to one point per content record.
// Frames of services without a field map yield nothing.
func (a Adapter) MapStream(msg StreamMessage) []market.Point {
	class := services.Get(msg.Service)
	fields := a.ResolveStreamFieldMap(class)
	if fields == nil {
		return nil
	}

	at := a.now()
	if msg.Timestamp > 0 {
		at = time.UnixMilli(msg.Timestamp).UTC()
	}

	points := make([]market.Point, 0, len(msg.Content))
	for _, record := range msg.Content {
		row := fields.Translate(record)
		name, _ := record["key"].(string)
		if name == "" {
			name, _ = row[broker.FieldSymbol].(string)
		}
		if name == "" {
			continue
		}

		v := broker.Numbers(row)
		p := v.Point(name, at)
		p.Instrument.Class = class
		if exchange, ok := row[broker.FieldExchange].(string); ok {
			p.Instrument.Exchange = exchange
		}
		if m := v[broker.FieldMultiplier]; m > 0 {
			p.Instrument.Leverage = m
		}
		if class.IsDerivative() {
			contract, _ := row[broker.FieldContractType].(string)
			p.Instrument.Derivative = &market.Derivative{
				Strike:         v[broker.FieldStrikePrice],
				Side:           putCalls.Get(contract),
				OpenInterest:   v[broker.FieldOpenInterest],
				IntrinsicValue: v[broker.FieldIntrinsicValue],
				Volatility:     v[broker.FieldVolatility],
				Greeks:         v.Greeks(),
			}
			if u, _ := row[broker.FieldUnderlying].(string); u != "" {
				p.Instrument.Basis = &market.Instrument{Name: u}
				if px := v[broker.FieldUnderlyingPx]; px > 0 {
					p.Instrument.Basis.Point = &market.Point{Last: px, Time: p.Time, Instrument: p.Instrument.Basis}
				}
			}
		}
		points = append(points, p)
	}
	return points
}

func legInstruction(side market.Side, class market.InstrumentClass) string {
	option := class == market.ClassOptions || class == market.ClassFuturesOptions
	switch {
	case side == market.SideBuy && option:
		return "BUY_TO_OPEN"
	case side == market.SideSell && option:
		return "SELL_TO_OPEN"
	case side == market.SideBuy:
		return "BUY"
	case side == market.SideSell:
		return "SELL"
	}
	return ""
}

func outgoingLeg(o market.Order) OrderLegMessage {
	leg := OrderLegMessage{Instruction: legInstruction(o.Side, market.ClassNone)}
	if o.Transaction == nil {
		return leg
	}
	leg.Quantity = o.Transaction.Volume
	if inst := o.Transaction.Instrument; inst != nil {
		leg.Instruction = legInstruction(o.Side, inst.Class)
		leg.Instrument = InstrumentMessage{Symbol: inst.Name, AssetType: assetNames[inst.Class]}
		if leg.Instrument.AssetType == "" {
			leg.Instrument.AssetType = "EQUITY"
		}
	}
	return leg
}

// MapOutgoingOrder builds a place order request. Priced groups are sent as
// net debit or net credit orders with one leg per child.
func (a Adapter) MapOutgoingOrder(o market.Order) OrderRequest {
	req := OrderRequest{
		OrderType:         orderTypeNames[o.Type],
		OrderStrategyType: "SINGLE",
	}
	req.Duration, req.Session = spanCodes(o.TimeSpan)

	price, activation := o.Price, o.ActivationPrice
	switch o.Type {
	case market.TypeLimit:
		req.Price = &price
	case market.TypeStop:
		req.StopPrice = &price
	case market.TypeStopLimit:
		req.Price = &price
		req.StopPrice = &activation
	}

	if !o.IsGroup() {
		req.OrderLegCollection = []OrderLegMessage{outgoingLeg(o)}
		return req
	}

	req.ComplexOrderStrategyType = "CUSTOM"
	if o.Type == market.TypeLimit {
		switch o.Side {
		case market.SideBuy:
			req.OrderType = "NET_DEBIT"
		case market.SideSell:
			req.OrderType = "NET_CREDIT"
		}
	}
	for i, child := range o.Orders {
		leg := outgoingLeg(child)
		leg.LegID = int64(i + 1)
		req.OrderLegCollection = append(req.OrderLegCollection, leg)
	}
	return req
}
