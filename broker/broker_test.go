package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/terminal/market"
)

func TestTableDefaultsUnknownCodes(t *testing.T) {
	t.Parallel()

	sides := Codes(market.SideNone, map[string]market.Side{
		"BUY":  market.SideBuy,
		"SELL": market.SideSell,
	})

	assert.Equal(t, market.SideBuy, sides.Get(" buy "))
	assert.Equal(t, market.SideNone, sides.Get("HOLD"))
	assert.Equal(t, market.SideNone, sides.Get(""))

	v, ok := sides.Lookup("sell")
	assert.True(t, ok)
	assert.Equal(t, market.SideSell, v)

	_, ok = sides.Lookup("short")
	assert.False(t, ok)

	assert.Equal(t, []string{"BUY", "SELL"}, sides.Keys())
	assert.Equal(t, []market.Side{market.SideNone, market.SideBuy, market.SideSell}, sides.Values())
}

func TestTableReverse(t *testing.T) {
	t.Parallel()

	types := Table[string, market.OrderType]{
		Entries: map[string]market.OrderType{
			"LIMIT":      market.TypeLimit,
			"NET_CREDIT": market.TypeLimit,
			"MARKET":     market.TypeMarket,
		},
	}

	rev := types.Reverse(nil)
	assert.Equal(t, "LIMIT", rev[market.TypeLimit])
	assert.Equal(t, "MARKET", rev[market.TypeMarket])

	rev = types.Reverse(map[market.OrderType]string{market.TypeLimit: "NET_CREDIT"})
	assert.Equal(t, "NET_CREDIT", rev[market.TypeLimit])
}

func TestIntTable(t *testing.T) {
	t.Parallel()

	ticks := Table[int, string]{Entries: map[int]string{2: FieldAskPrice, 1: FieldBidPrice}}
	assert.Equal(t, []int{1, 2}, ticks.Keys())
	assert.Equal(t, "", ticks.Get(99))
}

func TestFieldMapTranslate(t *testing.T) {
	t.Parallel()

	m := FieldMap{"1": FieldBidPrice, "2": FieldAskPrice}
	out := m.Translate(map[string]any{
		"1":        10.0,
		"2":        10.5,
		"77":       1.0,
		"askPrice": 10.6,
		"key":      "AAPL",
	})

	assert.Equal(t, 10.0, out[FieldBidPrice])
	assert.Contains(t, out, FieldAskPrice)
	assert.NotContains(t, out, "77")
	assert.NotContains(t, out, "key")
}

func TestValuesPoint(t *testing.T) {
	t.Parallel()

	fallback := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	t.Run("tick rule", func(t *testing.T) {
		t.Parallel()
		v := Values{
			FieldBidPrice:  100,
			FieldAskPrice:  101,
			FieldBidTime:   2_000,
			FieldAskTime:   1_000,
			FieldQuoteTime: 3_000,
		}
		p := v.Point("AAA", fallback)
		assert.Equal(t, 100.0, p.Last)
		assert.Equal(t, time.UnixMilli(3_000).UTC(), p.Time)
		assert.Equal(t, "AAA", p.Name())
		assert.Nil(t, p.Bar)
	})

	t.Run("ask preferred without times", func(t *testing.T) {
		t.Parallel()
		p := Values{FieldBidPrice: 100, FieldAskPrice: 101}.Point("AAA", fallback)
		assert.Equal(t, 101.0, p.Last)
		assert.Equal(t, fallback, p.Time)
	})

	t.Run("traded price when unquoted", func(t *testing.T) {
		t.Parallel()
		p := Values{FieldLastPrice: 99, FieldHighPrice: 102, FieldLowPrice: 98}.Point("AAA", fallback)
		assert.Equal(t, 99.0, p.Last)
		if assert.NotNil(t, p.Bar) {
			assert.Equal(t, 102.0, p.Bar.High)
		}
	})
}

func TestNumbers(t *testing.T) {
	t.Parallel()

	v := Numbers(map[string]any{"a": 1.5, "b": 2, "c": "x", "d": int64(3)})
	assert.Equal(t, Values{"a": 1.5, "b": 2, "d": 3}, v)
	assert.Equal(t, market.Greeks{}, v.Greeks())
}
