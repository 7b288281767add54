package schwab

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rustyeddy/terminal/broker"
	"github.com/rustyeddy/terminal/market"
)

// Message kinds understood by Decode.
const (
	KindQuote      = "quote"
	KindQuotes     = "quotes"
	KindBar        = "bar"
	KindCandles    = "candles"
	KindChain      = "chain"
	KindOrder      = "order"
	KindOrders     = "orders"
	KindPosition   = "position"
	KindAccount    = "account"
	KindStream     = "stream"
	KindInstrument = "instrument"
)

type accountMessage struct {
	SecuritiesAccount struct {
		AccountNumber string            `json:"accountNumber"`
		Positions     []PositionMessage `json:"positions"`
	} `json:"securitiesAccount"`
}

type streamFrame struct {
	Data []StreamMessage `json:"data"`
}

// Decoder unmarshals Schwab JSON payloads and maps them with an Adapter.
type Decoder struct {
	Adapter Adapter
}

var _ broker.Decoder = Decoder{}

// Decode maps a payload of the given kind.
func (d Decoder) Decode(kind string, payload []byte) ([]broker.Event, error) {
	a := d.Adapter

	switch kind {
	case KindQuote:
		var msg AssetMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("schwab: decode quote: %w", err)
		}
		return []broker.Event{broker.QuoteEvent(a.MapQuote(msg))}, nil

	case KindQuotes:
		var msgs map[string]AssetMessage
		if err := json.Unmarshal(payload, &msgs); err != nil {
			return nil, fmt.Errorf("schwab: decode quotes: %w", err)
		}
		symbols := make([]string, 0, len(msgs))
		for symbol := range msgs {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)
		events := make([]broker.Event, 0, len(msgs))
		for _, symbol := range symbols {
			msg := msgs[symbol]
			if msg.Symbol == "" {
				msg.Symbol = symbol
			}
			events = append(events, broker.QuoteEvent(a.MapQuote(msg)))
		}
		return events, nil

	case KindBar:
		var msg BarMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("schwab: decode bar: %w", err)
		}
		return []broker.Event{broker.BarEvent(a.MapBar(msg))}, nil

	case KindCandles:
		var msg CandleListMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("schwab: decode candles: %w", err)
		}
		var events []broker.Event
		for _, p := range a.MapBars(msg) {
			events = append(events, broker.BarEvent(p))
		}
		return events, nil

	case KindChain:
		var msg OptionChainMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("schwab: decode chain: %w", err)
		}
		var events []broker.Event
		for _, inst := range a.MapOptionChain(msg) {
			events = append(events, broker.InstrumentEvent(inst))
		}
		return events, nil

	case KindInstrument:
		var msg InstrumentMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("schwab: decode instrument: %w", err)
		}
		return []broker.Event{broker.InstrumentEvent(a.instrument(msg))}, nil

	case KindOrder:
		var msg OrderMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("schwab: decode order: %w", err)
		}
		return []broker.Event{broker.OrderEvent(a.MapOrder(msg))}, nil

	case KindOrders:
		var msgs []OrderMessage
		if err := json.Unmarshal(payload, &msgs); err != nil {
			return nil, fmt.Errorf("schwab: decode orders: %w", err)
		}
		events := make([]broker.Event, 0, len(msgs))
		for _, msg := range msgs {
			events = append(events, broker.OrderEvent(a.MapOrder(msg)))
		}
		return events, nil

	case KindPosition:
		var msg PositionMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("schwab: decode position: %w", err)
		}
		return []broker.Event{broker.PositionEvent(a.MapPosition(msg))}, nil

	case KindAccount:
		var msg accountMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("schwab: decode account: %w", err)
		}
		events := make([]broker.Event, 0, len(msg.SecuritiesAccount.Positions))
		for _, pos := range msg.SecuritiesAccount.Positions {
			p := a.MapPosition(pos)
			p.Transaction.Descriptor = msg.SecuritiesAccount.AccountNumber
			events = append(events, broker.PositionEvent(p))
		}
		return events, nil

	case KindStream:
		var frame streamFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			return nil, fmt.Errorf("schwab: decode stream: %w", err)
		}
		if len(frame.Data) == 0 {
			var msg StreamMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				return nil, fmt.Errorf("schwab: decode stream: %w", err)
			}
			frame.Data = []StreamMessage{msg}
		}
		var events []broker.Event
		for _, msg := range frame.Data {
			for _, p := range a.MapStream(msg) {
				events = append(events, broker.QuoteEvent(p))
			}
		}
		return events, nil
	}

	return nil, fmt.Errorf("schwab: %w %q", broker.ErrUnknownKind, kind)
}

// Encode maps an order to a place order request.
func (d Decoder) Encode(order market.Order) (any, error) {
	return d.Adapter.MapOutgoingOrder(order), nil
}
