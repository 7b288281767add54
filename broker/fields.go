package broker

import (
	"time"

	"github.com/rustyeddy/terminal/market"
)

// FieldMap translates abbreviated stream field codes to canonical names.
type FieldMap map[string]string

// Canonical stream attribute names.
const (
	FieldSymbol         = "symbol"
	FieldDescription    = "description"
	FieldBidPrice       = "bidPrice"
	FieldAskPrice       = "askPrice"
	FieldLastPrice      = "lastPrice"
	FieldBidSize        = "bidSize"
	FieldAskSize        = "askSize"
	FieldLastSize       = "lastSize"
	FieldTotalVolume    = "totalVolume"
	FieldOpenPrice      = "openPrice"
	FieldHighPrice      = "highPrice"
	FieldLowPrice       = "lowPrice"
	FieldClosePrice     = "closePrice"
	FieldNetChange      = "netChange"
	FieldMark           = "mark"
	FieldQuoteTime      = "quoteTime"
	FieldTradeTime      = "tradeTime"
	FieldBidTime        = "bidTime"
	FieldAskTime        = "askTime"
	FieldExchange       = "exchange"
	FieldOpenInterest   = "openInterest"
	FieldVolatility     = "volatility"
	FieldIntrinsicValue = "intrinsicValue"
	FieldMultiplier     = "multiplier"
	FieldStrikePrice    = "strikePrice"
	FieldContractType   = "contractType"
	FieldUnderlying     = "underlying"
	FieldUnderlyingPx   = "underlyingPrice"
	FieldExpiration     = "expirationDate"
	FieldDelta          = "delta"
	FieldGamma          = "gamma"
	FieldTheta          = "theta"
	FieldVega           = "vega"
	FieldRho            = "rho"
	FieldSettlement     = "settlementPrice"
)

// Name returns the canonical name of code, or "" when the code is not mapped.
func (m FieldMap) Name(code string) string {
	return m[code]
}

// Translate renames the coded keys of a stream record. Unmapped codes are
// dropped; keys that already are canonical names pass through.
func (m FieldMap) Translate(record map[string]any) map[string]any {
	canonical := make(map[string]string, len(m))
	for _, name := range m {
		canonical[name] = name
	}
	out := make(map[string]any, len(record))
	for k, v := range record {
		if name, ok := m[k]; ok {
			out[name] = v
			continue
		}
		if name, ok := canonical[k]; ok {
			out[name] = v
		}
	}
	return out
}

// Values is a set of numeric canonical attributes.
type Values map[string]float64

// Numbers extracts the numeric attributes of a translated record.
func Numbers(record map[string]any) Values {
	out := make(Values, len(record))
	for k, v := range record {
		switch n := v.(type) {
		case float64:
			out[k] = n
		case float32:
			out[k] = float64(n)
		case int:
			out[k] = float64(n)
		case int64:
			out[k] = float64(n)
		}
	}
	return out
}

func (v Values) get(name string) *float64 {
	if x, ok := v[name]; ok {
		return &x
	}
	return nil
}

func (v Values) or(name string) float64 {
	return v[name]
}

// Millis interprets a value as epoch milliseconds.
func (v Values) Millis(name string) time.Time {
	ms, ok := v[name]
	if !ok || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}

// Point builds a quote from canonical values. Last follows the tick rule over
// bid and ask times and falls back to the traded price when neither side is
// quoted. Time is the quote time, then the trade time, then fallback.
func (v Values) Point(name string, fallback time.Time) market.Point {
	ask, bid := v.get(FieldAskPrice), v.get(FieldBidPrice)

	p := market.Point{
		Bid:        v.or(FieldBidPrice),
		Ask:        v.or(FieldAskPrice),
		BidSize:    v.or(FieldBidSize),
		AskSize:    v.or(FieldAskSize),
		Volume:     v.or(FieldTotalVolume),
		Time:       v.Millis(FieldQuoteTime),
		Instrument: &market.Instrument{Name: name},
	}
	if p.Time.IsZero() {
		p.Time = v.Millis(FieldTradeTime)
	}
	if p.Time.IsZero() {
		p.Time = fallback
	}

	p.Last = market.TickLastPrice(ask, bid, v.Millis(FieldAskTime), v.Millis(FieldBidTime))
	if p.Last == 0 {
		p.Last = v.or(FieldLastPrice)
	}

	_, hasOpen := v[FieldOpenPrice]
	_, hasHigh := v[FieldHighPrice]
	_, hasLow := v[FieldLowPrice]
	if hasOpen || hasHigh || hasLow {
		p.Bar = &market.Bar{
			Open:   v.or(FieldOpenPrice),
			High:   v.or(FieldHighPrice),
			Low:    v.or(FieldLowPrice),
			Close:  v.or(FieldClosePrice),
			Volume: v.or(FieldTotalVolume),
			Time:   p.Time,
		}
	}
	return p
}

// Greeks collects option sensitivities, zero when absent.
func (v Values) Greeks() market.Greeks {
	return market.Greeks{
		Delta: v.or(FieldDelta),
		Gamma: v.or(FieldGamma),
		Theta: v.or(FieldTheta),
		Vega:  v.or(FieldVega),
		Rho:   v.or(FieldRho),
	}
}
