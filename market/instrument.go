package market

import "time"

// Bar is one sampling interval of prices.
type Bar struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Time   time.Time
}

// Greeks are option sensitivities. Absent values stay zero.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// Derivative describes the contract terms of an option.
type Derivative struct {
	Strike         float64
	Expiration     time.Time
	Side           OptionSide
	OpenInterest   float64
	IntrinsicValue float64
	Volatility     float64
	Greeks         Greeks
}

// Point is a quote snapshot for one instrument.
type Point struct {
	Bid     float64
	Ask     float64
	BidSize float64
	AskSize float64
	Last    float64
	Volume  float64
	Time    time.Time
	Bar     *Bar

	// Instrument refers back to the quoted instrument. Adapters usually set
	// only its Name; the account resolves it against its own instruments.
	Instrument *Instrument
}

// Name returns the name of the quoted instrument, if any.
func (p Point) Name() string {
	if p.Instrument == nil {
		return ""
	}
	return p.Instrument.Name
}

// Mid is the midpoint of bid and ask, or Last when one side is missing.
func (p Point) Mid() float64 {
	if p.Bid == 0 || p.Ask == 0 {
		return p.Last
	}
	return (p.Bid + p.Ask) / 2
}

// Spread is ask minus bid.
func (p Point) Spread() float64 {
	return p.Ask - p.Bid
}

// Clone copies the point. The instrument back-reference is shared.
func (p Point) Clone() Point {
	if p.Bar != nil {
		bar := *p.Bar
		p.Bar = &bar
	}
	return p
}

// Instrument is a tradable contract.
type Instrument struct {
	Name       string
	Exchange   string
	Class      InstrumentClass
	Leverage   float64
	Commission float64
	Point      *Point

	// Basis points at the underlying of a derivative. It is a relation,
	// the underlying is owned elsewhere.
	Basis      *Instrument
	Derivative *Derivative
}

// Multiplier is the contract size applied to price moves.
func (i *Instrument) Multiplier() float64 {
	if i == nil || i.Leverage == 0 {
		return 1
	}
	return i.Leverage
}

// Clone returns a deep copy. The point's back-reference is rebound to the
// copy and the basis is copied one level deep.
func (i *Instrument) Clone() *Instrument {
	if i == nil {
		return nil
	}
	out := *i
	if i.Point != nil {
		p := i.Point.Clone()
		p.Instrument = &out
		out.Point = &p
	}
	if i.Derivative != nil {
		d := *i.Derivative
		out.Derivative = &d
	}
	if i.Basis != nil {
		b := *i.Basis
		if b.Point != nil {
			p := b.Point.Clone()
			p.Instrument = &b
			b.Point = &p
		}
		b.Basis = nil
		out.Basis = &b
	}
	return &out
}
