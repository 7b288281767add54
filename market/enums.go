package market

import (
	"fmt"
	"strings"
)

// InstrumentClass is the asset class of an instrument.
type InstrumentClass int

const (
	ClassNone InstrumentClass = iota
	ClassShares
	ClassFutures
	ClassCurrencies
	ClassOptions
	ClassFuturesOptions
	ClassBonds
)

var classNames = []string{"NONE", "SHARES", "FUTURES", "CURRENCIES", "OPTIONS", "FUTURES_OPTIONS", "BONDS"}

func (c InstrumentClass) String() string { return enumName(classNames, int(c)) }

func (c InstrumentClass) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *InstrumentClass) UnmarshalText(b []byte) error {
	v, err := enumParse(classNames, "instrument class", b)
	*c = InstrumentClass(v)
	return err
}

// IsDerivative reports whether instruments of this class carry a Derivative block.
func (c InstrumentClass) IsDerivative() bool {
	return c == ClassOptions || c == ClassFuturesOptions
}

// Side is the direction of an order.
type Side int

const (
	SideNone Side = iota
	SideBuy
	SideSell
)

var sideNames = []string{"NONE", "BUY", "SELL"}

func (s Side) String() string { return enumName(sideNames, int(s)) }

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	v, err := enumParse(sideNames, "side", b)
	*s = Side(v)
	return err
}

// Direction is +1 for buys, -1 for sells and 0 otherwise.
func (s Side) Direction() int {
	switch s {
	case SideBuy:
		return 1
	case SideSell:
		return -1
	default:
		return 0
	}
}

// Opposite returns the closing side.
func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	default:
		return SideNone
	}
}

// OrderType is the execution style of an order.
type OrderType int

const (
	TypeNone OrderType = iota
	TypeMarket
	TypeLimit
	TypeStop
	TypeStopLimit
)

var typeNames = []string{"NONE", "MARKET", "LIMIT", "STOP", "STOP_LIMIT"}

func (t OrderType) String() string { return enumName(typeNames, int(t)) }

func (t OrderType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *OrderType) UnmarshalText(b []byte) error {
	v, err := enumParse(typeNames, "order type", b)
	*t = OrderType(v)
	return err
}

// Priced reports whether orders of this type must carry a Price.
func (t OrderType) Priced() bool {
	return t != TypeNone && t != TypeMarket
}

// TimeSpan is the time in force of an order.
type TimeSpan int

const (
	SpanNone TimeSpan = iota
	SpanDay
	SpanGtc
	SpanFok
	SpanIoc
	SpanAm
	SpanPm
)

var spanNames = []string{"NONE", "DAY", "GTC", "FOK", "IOC", "AM", "PM"}

func (s TimeSpan) String() string { return enumName(spanNames, int(s)) }

func (s TimeSpan) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *TimeSpan) UnmarshalText(b []byte) error {
	v, err := enumParse(spanNames, "time span", b)
	*s = TimeSpan(v)
	return err
}

// Instruction tells single orders apart from multi-leg groups.
type Instruction int

const (
	InstructionNone Instruction = iota
	InstructionSingle
	InstructionGroup
)

var instructionNames = []string{"NONE", "SINGLE", "GROUP"}

func (i Instruction) String() string { return enumName(instructionNames, int(i)) }

func (i Instruction) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Instruction) UnmarshalText(b []byte) error {
	v, err := enumParse(instructionNames, "instruction", b)
	*i = Instruction(v)
	return err
}

// Status is the lifecycle state of a transaction.
type Status int

const (
	StatusNone Status = iota
	StatusPending
	StatusPartitioned
	StatusFilled
	StatusCanceled
)

var statusNames = []string{"NONE", "PENDING", "PARTITIONED", "FILLED", "CANCELED"}

func (s Status) String() string { return enumName(statusNames, int(s)) }

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	v, err := enumParse(statusNames, "status", b)
	*s = Status(v)
	return err
}

// Terminal reports whether no further updates are expected.
func (s Status) Terminal() bool {
	return s == StatusFilled || s == StatusCanceled
}

// OptionSide is put or call.
type OptionSide int

const (
	OptionNone OptionSide = iota
	OptionPut
	OptionCall
)

var optionNames = []string{"NONE", "PUT", "CALL"}

func (o OptionSide) String() string { return enumName(optionNames, int(o)) }

func (o OptionSide) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *OptionSide) UnmarshalText(b []byte) error {
	v, err := enumParse(optionNames, "option side", b)
	*o = OptionSide(v)
	return err
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return names[0]
	}
	return names[i]
}

func enumParse(names []string, kind string, b []byte) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(string(b)))
	if s == "" {
		return 0, nil
	}
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}
