package broker

import (
	"errors"

	"github.com/rustyeddy/terminal/market"
)

// ErrUnknownKind is returned by decoders for message kinds they do not map.
var ErrUnknownKind = errors.New("unknown message kind")

// Resolver translates broker classification codes.
type Resolver interface {
	ResolveInstrumentClass(tag string) market.InstrumentClass
	ResolveStreamFieldMap(class market.InstrumentClass) FieldMap
}

// Gateway is the mapping contract every broker adapter implements. Q, B, O
// and P are the broker's quote, bar, order and position messages and R is its
// outgoing order request. Implementations are pure: they build model values
// and never touch account state.
type Gateway[Q, B, O, P, R any] interface {
	Resolver

	MapQuote(Q) market.Point
	MapBar(B) market.Point
	MapOrder(O) market.Order
	MapPosition(P) market.Position
	MapOutgoingOrder(market.Order) R
}

// Kind labels the payload of a decoded event.
type Kind string

const (
	KindQuote      Kind = "quote"
	KindBar        Kind = "bar"
	KindOrder      Kind = "order"
	KindPosition   Kind = "position"
	KindInstrument Kind = "instrument"
)

// Event is one mapped entity ready to be applied to an account.
type Event struct {
	Kind       Kind
	Point      *market.Point
	Order      *market.Order
	Position   *market.Position
	Instrument *market.Instrument
}

// QuoteEvent wraps a mapped point.
func QuoteEvent(p market.Point) Event {
	return Event{Kind: KindQuote, Point: &p}
}

// BarEvent wraps a point mapped from a bar.
func BarEvent(p market.Point) Event {
	return Event{Kind: KindBar, Point: &p}
}

// OrderEvent wraps a mapped order.
func OrderEvent(o market.Order) Event {
	return Event{Kind: KindOrder, Order: &o}
}

// PositionEvent wraps a mapped position.
func PositionEvent(p market.Position) Event {
	return Event{Kind: KindPosition, Position: &p}
}

// InstrumentEvent wraps a mapped instrument.
func InstrumentEvent(i *market.Instrument) Event {
	return Event{Kind: KindInstrument, Instrument: i}
}

// Decoder bridges already received wire payloads and the model. Decode
// unmarshals a payload of the given broker message kind and maps it; Encode
// maps an order to the broker's request value.
type Decoder interface {
	Decode(kind string, payload []byte) ([]Event, error)
	Encode(order market.Order) (any, error)
}
