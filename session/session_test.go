package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/terminal/account"
	"github.com/rustyeddy/terminal/broker"
	"github.com/rustyeddy/terminal/broker/ib"
	"github.com/rustyeddy/terminal/broker/schwab"
	"github.com/rustyeddy/terminal/logger"
	"github.com/rustyeddy/terminal/market"
	"github.com/rustyeddy/terminal/risk"
	"github.com/rustyeddy/terminal/schedule"
)

var t0 = time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)

func clock() time.Time { return t0 }

func newSession(t *testing.T, log *logger.Log) *Session {
	t.Helper()
	if log == nil {
		log = logger.Discard()
	}
	acct := account.New("acct-1", 10000, account.WithLogger(log), account.WithClock(clock))
	s := New(acct, &schedule.Runner{Count: 100, Span: 10 * time.Millisecond}, log)
	s.Register(schwab.Name, schwab.Decoder{Adapter: schwab.Adapter{Now: clock}})
	s.Register(ib.Name, ib.Decoder{Adapter: ib.Adapter{Now: clock}})
	t.Cleanup(s.Close)
	return s
}

func envelope(brokerName, kind, payload string) Envelope {
	return Envelope{Broker: brokerName, Kind: kind, Payload: json.RawMessage(payload)}
}

const aaplQuote = `{"symbol": "AAPL", "assetMainType": "EQUITY", "quote": {"askPrice": 100, "bidPrice": 99}}`

func limit(price float64) market.Order {
	return market.Order{
		Side:        market.SideBuy,
		Type:        market.TypeLimit,
		TimeSpan:    market.SpanDay,
		Price:       price,
		Instruction: market.InstructionSingle,
		Transaction: &market.Transaction{
			Instrument: &market.Instrument{Name: "AAPL", Class: market.ClassShares},
			Volume:     1,
		},
	}
}

func TestHandle_QuoteAndOrder(t *testing.T) {
	t.Parallel()
	s := newSession(t, nil)

	require.NoError(t, s.Handle(envelope(schwab.Name, schwab.KindQuote, aaplQuote)))
	require.NoError(t, s.Handle(envelope(schwab.Name, schwab.KindOrder, `{
		"orderId": 1, "orderType": "MARKET", "quantity": 10, "filledQuantity": 10,
		"status": "FILLED", "price": 100, "accountNumber": "acct-1",
		"orderLegCollection": [{"instruction": "BUY", "quantity": 10, "instrument": {"symbol": "AAPL", "assetType": "EQUITY"}}]
	}`)))

	snap := s.Account().Snapshot()
	p, ok := snap.Quote("AAPL")
	require.True(t, ok)
	assert.Equal(t, 100.0, p.Ask)
	assert.Equal(t, market.ClassShares, snap.Instruments["AAPL"].Class)

	assert.Empty(t, snap.Orders)
	pos, ok := snap.Positions["AAPL"]
	require.True(t, ok)
	assert.Equal(t, market.SideBuy, pos.Side)
	assert.Equal(t, 10.0, pos.Volume())
}

func TestHandle_IBPosition(t *testing.T) {
	t.Parallel()
	s := newSession(t, nil)

	require.NoError(t, s.Handle(envelope(ib.Name, ib.KindPosition,
		`{"account": "DU1", "contract": {"symbol": "ES", "secType": "FUT", "multiplier": "50"}, "position": "-2", "avgCost": 250000}`)))

	pos := s.Account().Snapshot().Positions["ES"]
	assert.Equal(t, market.SideSell, pos.Side)
	assert.Equal(t, 2.0, pos.Volume())
	assert.Equal(t, 5000.0, pos.OpenPrice)
	assert.Equal(t, 50.0, pos.Transaction.Instrument.Multiplier())
}

func TestHandle_Errors(t *testing.T) {
	t.Parallel()
	s := newSession(t, nil)

	err := s.Handle(envelope("oanda", "quote", `{}`))
	assert.True(t, errors.Is(err, ErrUnknownBroker))

	err = s.Handle(envelope(schwab.Name, "fills", `{}`))
	assert.True(t, errors.Is(err, broker.ErrUnknownKind))

	err = s.Handle(envelope(schwab.Name, schwab.KindQuote, `{"quote": {"askPrice": 1}}`))
	assert.True(t, errors.Is(err, account.ErrNoInstrument))
}

func TestHandle_LogsDegradedCodes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.Logger()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	s := newSession(t, log)
	require.NoError(t, s.Handle(envelope(schwab.Name, schwab.KindQuote,
		`{"symbol": "XYZ", "assetMainType": "WARRANT", "quote": {"askPrice": 1}}`)))

	assert.Contains(t, buf.String(), "unmapped broker codes")
	assert.Contains(t, buf.String(), "Instrument.Class")

	inst := s.Account().Snapshot().Instruments["XYZ"]
	require.NotNil(t, inst)
	assert.Equal(t, market.ClassNone, inst.Class)
}

func TestOnChange_Coalesced(t *testing.T) {
	t.Parallel()
	s := newSession(t, nil)

	got := make(chan account.Snapshot, 10)
	s.OnChange(func(snap account.Snapshot) { got <- snap })

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Handle(envelope(schwab.Name, schwab.KindQuote, aaplQuote)))
	}

	select {
	case snap := <-got:
		assert.Contains(t, snap.Instruments, "AAPL")
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification")
	}

	select {
	case <-got:
		t.Fatal("burst was not coalesced")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPrepare(t *testing.T) {
	t.Parallel()
	s := newSession(t, nil)
	require.NoError(t, s.Handle(envelope(schwab.Name, schwab.KindQuote, aaplQuote)))

	req, err := s.Prepare(schwab.Name, limit(100))
	require.NoError(t, err)
	body, ok := req.(schwab.OrderRequest)
	require.True(t, ok)
	assert.Equal(t, "LIMIT", body.OrderType)
	require.Len(t, body.OrderLegCollection, 1)
	assert.Equal(t, "AAPL", body.OrderLegCollection[0].Instrument.Symbol)

	_, err = s.Prepare(schwab.Name, limit(101))
	var verr *risk.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Price", verr.Violations[0].Field)

	req, err = s.Prepare(ib.Name, limit(99))
	require.NoError(t, err)
	assert.IsType(t, ib.PlaceOrderRequest{}, req)

	_, err = s.Prepare("oanda", limit(100))
	assert.True(t, errors.Is(err, ErrUnknownBroker))
}
