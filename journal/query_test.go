package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/terminal/market"
)

func TestGetDeal(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	open := time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)
	close := time.Date(2024, 4, 10, 15, 30, 0, 0, time.UTC)
	expected := testDeal("D123", open, close, 375)

	require.NoError(t, j.RecordDeal(expected))

	actual, err := j.GetDeal("D123")
	require.NoError(t, err)

	assert.Equal(t, expected.DealID, actual.DealID)
	assert.Equal(t, expected.Account, actual.Account)
	assert.Equal(t, expected.Instrument, actual.Instrument)
	assert.Equal(t, expected.Class, actual.Class)
	assert.Equal(t, expected.Side, actual.Side)
	assert.InDelta(t, expected.OpenPrice, actual.OpenPrice, 1e-9)
	assert.InDelta(t, expected.ClosePrice, actual.ClosePrice, 1e-9)
	assert.True(t, actual.OpenTime.Equal(expected.OpenTime))
	assert.True(t, actual.CloseTime.Equal(expected.CloseTime))
	assert.InDelta(t, expected.GainLoss, actual.GainLoss, 1e-9)
	assert.InDelta(t, expected.GainMin, actual.GainMin, 1e-9)
	assert.InDelta(t, expected.GainMax, actual.GainMax, 1e-9)
}

func TestGetDealNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetDeal("nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListDealsClosedBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	deals := []DealRecord{
		testDeal("D4", base, base.Add(24*time.Hour), 75),
		testDeal("D3", base, base.Add(10*time.Hour), 500),
		testDeal("D1", base, base.Add(1*time.Hour), 100),
		testDeal("D2", base, base.Add(5*time.Hour), 100),
	}
	for _, d := range deals {
		require.NoError(t, j.RecordDeal(d))
	}

	results, err := j.ListDealsClosedBetween(base.Add(3*time.Hour), base.Add(12*time.Hour))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "D2", results[0].DealID)
	assert.Equal(t, "D3", results[1].DealID)

	results, err = j.ListDealsClosedBetween(base.Add(48*time.Hour), base.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDealRecordPosition(t *testing.T) {
	t.Parallel()

	open := time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)
	close := open.Add(time.Hour)

	p := market.Position{
		Order: market.Order{
			Side: market.SideSell,
			Transaction: &market.Transaction{
				ID:         "P1",
				Instrument: &market.Instrument{Name: "ES", Class: market.ClassFutures, Commission: 2.25},
				Volume:     2,
				Time:       open,
			},
			GainLoss: -125,
			GainMin:  -300,
			GainMax:  50,
		},
		OpenPrice:  5000,
		ClosePrice: 5001.25,
		Closed:     close,
	}

	rec := FromPosition("ACC-9", p)
	assert.Equal(t, "P1", rec.DealID)
	assert.Equal(t, "ACC-9", rec.Account)
	assert.Equal(t, "FUTURES", rec.Class)
	assert.Equal(t, "SELL", rec.Side)
	assert.Equal(t, 2.25, rec.Commission)

	back := rec.Position()
	assert.Equal(t, market.SideSell, back.Side)
	assert.Equal(t, market.ClassFutures, back.Transaction.Instrument.Class)
	assert.Equal(t, 2.25, back.Commission())
	assert.Equal(t, -125.0, back.GainLoss)
	assert.Equal(t, -300.0, back.GainMin)
	assert.Equal(t, 50.0, back.GainMax)
	assert.Equal(t, open, back.Time())
	assert.False(t, back.IsOpen())
}
