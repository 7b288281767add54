// Package risk checks outgoing orders against the current market.
package risk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/terminal/market"
)

// Violation codes.
const (
	CodeRequired         = "REQUIRED"
	CodeNotPositive      = "NOT_POSITIVE"
	CodeOverfilled       = "OVERFILLED"
	CodeUnexpected       = "UNEXPECTED"
	CodeQuoteUnavailable = "QUOTE_UNAVAILABLE"
	CodeAboveAsk         = "ABOVE_ASK"
	CodeBelowAsk         = "BELOW_ASK"
	CodeAboveBid         = "ABOVE_BID"
	CodeBelowBid         = "BELOW_BID"
	CodeAboveActivation  = "ABOVE_ACTIVATION"
	CodeBelowActivation  = "BELOW_ACTIVATION"
)

// ErrInvalidOrder is wrapped by Error.
var ErrInvalidOrder = errors.New("invalid order")

// QuoteSource supplies the current point of an instrument.
type QuoteSource interface {
	Quote(name string) (market.Point, bool)
}

// Violation is one failed constraint. Field names the order attribute,
// with an "Orders[i]." prefix for legs of a group.
type Violation struct {
	Field string
	Code  string
	Msg   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Msg)
}

// Error carries the violations of a rejected order.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("%v: %s", ErrInvalidOrder, strings.Join(msgs, "; "))
}

func (e *Error) Unwrap() error { return ErrInvalidOrder }

// Check returns an *Error when the order has violations.
func Check(o market.Order, quotes QuoteSource) error {
	if vs := Validate(o, quotes); len(vs) > 0 {
		return &Error{Violations: vs}
	}
	return nil
}

type reference int

const (
	refAsk reference = iota + 1
	refBid
	refActivation
)

func (r reference) String() string {
	switch r {
	case refAsk:
		return "ask"
	case refBid:
		return "bid"
	default:
		return "activation price"
	}
}

// bound constrains Field to be at least (min) or at most (!min) the
// referenced value.
type bound struct {
	field string
	min   bool
	ref   reference
}

type key struct {
	Type market.OrderType
	Side market.Side
}

// rules holds the price constraints per order type and side. Market orders
// and orders without a type have none.
var rules = map[key][]bound{
	{market.TypeStop, market.SideBuy}:  {{"Price", true, refAsk}},
	{market.TypeStop, market.SideSell}: {{"Price", false, refBid}},

	{market.TypeLimit, market.SideBuy}:  {{"Price", false, refAsk}},
	{market.TypeLimit, market.SideSell}: {{"Price", true, refBid}},

	{market.TypeStopLimit, market.SideBuy}: {
		{"ActivationPrice", true, refAsk},
		{"Price", true, refActivation},
	},
	{market.TypeStopLimit, market.SideSell}: {
		{"ActivationPrice", false, refBid},
		{"Price", false, refActivation},
	},
}

// Validate returns the violated constraints of o in rule order. An empty
// result means the order is valid. Validate reads quotes and nothing else.
func Validate(o market.Order, quotes QuoteSource) []Violation {
	var vs []Violation

	vs = append(vs, base("", o)...)

	if o.IsGroup() {
		if len(o.Orders) == 0 {
			vs = append(vs, Violation{"Orders", CodeRequired, "group order has no legs"})
		}
		for i, leg := range o.Orders {
			prefix := fmt.Sprintf("Orders[%d].", i)
			vs = append(vs, base(prefix, leg)...)
			if leg.Side == market.SideNone {
				vs = append(vs, Violation{prefix + "Side", CodeRequired, "leg side is required"})
			}
		}
		return vs
	}

	if len(o.Orders) > 0 {
		vs = append(vs, Violation{"Orders", CodeUnexpected, "legs are only allowed on group orders"})
	}
	if o.Type != market.TypeNone && o.Type != market.TypeMarket && o.Price == 0 {
		vs = append(vs, Violation{"Price", CodeRequired, fmt.Sprintf("price is required for %s orders", o.Type)})
	}
	return append(vs, prices(o, quotes)...)
}

func base(prefix string, o market.Order) []Violation {
	t := o.Transaction
	if t == nil {
		return []Violation{{prefix + "Transaction", CodeRequired, "transaction is required"}}
	}

	var vs []Violation
	if t.Instrument == nil || t.Instrument.Name == "" {
		vs = append(vs, Violation{prefix + "Transaction.Instrument", CodeRequired, "instrument is required"})
	}
	if t.Volume <= 0 {
		vs = append(vs, Violation{prefix + "Transaction.Volume", CodeNotPositive, fmt.Sprintf("volume %v must be positive", t.Volume)})
	}
	if t.FilledVolume > t.Volume {
		vs = append(vs, Violation{prefix + "Transaction.FilledVolume", CodeOverfilled,
			fmt.Sprintf("filled volume %v exceeds volume %v", t.FilledVolume, t.Volume)})
	}
	return vs
}

func prices(o market.Order, quotes QuoteSource) []Violation {
	set := rules[key{o.Type, o.Side}]
	if len(set) == 0 {
		return nil
	}

	var vs []Violation
	if o.Type == market.TypeStopLimit && o.ActivationPrice == 0 {
		vs = append(vs, Violation{"ActivationPrice", CodeRequired, "activation price is required for STOP_LIMIT orders"})
	}

	var (
		point market.Point
		found bool
	)
	if quotes != nil && o.Name() != "" {
		point, found = quotes.Quote(o.Name())
	}

	for _, b := range set {
		value := o.Price
		if b.field == "ActivationPrice" {
			value = o.ActivationPrice
		}
		if value == 0 {
			continue
		}

		var ref float64
		switch b.ref {
		case refAsk:
			ref = point.Ask
		case refBid:
			ref = point.Bid
		case refActivation:
			ref = o.ActivationPrice
			if ref == 0 {
				continue
			}
		}
		if b.ref != refActivation && (!found || ref == 0) {
			vs = append(vs, Violation{"Transaction.Instrument", CodeQuoteUnavailable,
				fmt.Sprintf("no %s quote for %q", b.ref, o.Name())})
			continue
		}

		if b.min && value < ref {
			vs = append(vs, Violation{b.field, belowCode(b.ref), fmt.Sprintf("%v must be at least %s %v", value, b.ref, ref)})
		}
		if !b.min && value > ref {
			vs = append(vs, Violation{b.field, aboveCode(b.ref), fmt.Sprintf("%v must be at most %s %v", value, b.ref, ref)})
		}
	}
	return vs
}

func belowCode(r reference) string {
	switch r {
	case refAsk:
		return CodeBelowAsk
	case refBid:
		return CodeBelowBid
	default:
		return CodeBelowActivation
	}
}

func aboveCode(r reference) string {
	switch r {
	case refAsk:
		return CodeAboveAsk
	case refBid:
		return CodeAboveBid
	default:
		return CodeAboveActivation
	}
}
