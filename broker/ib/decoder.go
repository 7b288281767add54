package ib

import (
	"encoding/json"
	"fmt"

	"github.com/rustyeddy/terminal/broker"
	"github.com/rustyeddy/terminal/market"
)

// Callback kinds understood by Decode.
const (
	KindSnapshot          = "snapshot"
	KindHistoricalData    = "historicalData"
	KindOpenOrder         = "openOrder"
	KindOrderStatus       = "orderStatus"
	KindPosition          = "position"
	KindOptionComputation = "optionComputation"
	KindContract          = "contract"
)

// Decoder unmarshals JSON encoded callbacks and maps them with an Adapter.
type Decoder struct {
	Adapter Adapter
}

var _ broker.Decoder = Decoder{}

func decode[T any](kind string, payload []byte) (T, error) {
	var msg T
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, fmt.Errorf("ib: decode %s: %w", kind, err)
	}
	return msg, nil
}

// Decode maps a callback payload of the given kind.
func (d Decoder) Decode(kind string, payload []byte) ([]broker.Event, error) {
	a := d.Adapter

	switch kind {
	case KindSnapshot:
		msg, err := decode[SnapshotMessage](kind, payload)
		if err != nil {
			return nil, err
		}
		return []broker.Event{broker.QuoteEvent(a.MapQuote(msg))}, nil

	case KindHistoricalData:
		msg, err := decode[HistoricalDataMessage](kind, payload)
		if err != nil {
			return nil, err
		}
		return []broker.Event{broker.BarEvent(a.MapBar(msg))}, nil

	case KindOpenOrder:
		msg, err := decode[OpenOrderMessage](kind, payload)
		if err != nil {
			return nil, err
		}
		return []broker.Event{broker.OrderEvent(a.MapOrder(msg))}, nil

	case KindOrderStatus:
		msg, err := decode[OrderStatusMessage](kind, payload)
		if err != nil {
			return nil, err
		}
		return []broker.Event{broker.OrderEvent(a.MapOrderStatus(msg))}, nil

	case KindPosition:
		msg, err := decode[PositionMessage](kind, payload)
		if err != nil {
			return nil, err
		}
		return []broker.Event{broker.PositionEvent(a.MapPosition(msg))}, nil

	case KindOptionComputation:
		msg, err := decode[OptionComputationMessage](kind, payload)
		if err != nil {
			return nil, err
		}
		return []broker.Event{broker.InstrumentEvent(a.MapOptionComputation(msg))}, nil

	case KindContract:
		msg, err := decode[Contract](kind, payload)
		if err != nil {
			return nil, err
		}
		return []broker.Event{broker.InstrumentEvent(a.MapContract(msg))}, nil
	}

	return nil, fmt.Errorf("ib: %w %q", broker.ErrUnknownKind, kind)
}

// Encode maps an order to placeOrder arguments.
func (d Decoder) Encode(order market.Order) (any, error) {
	return d.Adapter.MapOutgoingOrder(order), nil
}
