package account

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/terminal/journal"
	"github.com/rustyeddy/terminal/logger"
	"github.com/rustyeddy/terminal/market"
)

type testJournal struct {
	mu     sync.Mutex
	deals  []journal.DealRecord
	equity []journal.EquityRecord
}

func (j *testJournal) RecordDeal(rec journal.DealRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.deals = append(j.deals, rec)
	return nil
}

func (j *testJournal) RecordEquity(rec journal.EquityRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.equity = append(j.equity, rec)
	return nil
}

func (j *testJournal) Close() error { return nil }

var t0 = time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

func newAccount(t *testing.T, opts ...Option) (*Account, *testJournal) {
	t.Helper()
	j := &testJournal{}
	opts = append([]Option{
		WithJournal(j),
		WithLogger(logger.Discard()),
		WithClock(func() time.Time { return t0 }),
	}, opts...)
	return New("acct-1", 10000, opts...), j
}

func quote(name string, bid, ask, last float64, at time.Time) market.Point {
	return market.Point{
		Bid:        bid,
		Ask:        ask,
		Last:       last,
		Time:       at,
		Instrument: &market.Instrument{Name: name},
	}
}

func filled(oid, name string, side market.Side, volume, price float64) market.Order {
	return market.Order{
		Side:        side,
		Type:        market.TypeMarket,
		Instruction: market.InstructionSingle,
		Transaction: &market.Transaction{
			ID:           oid,
			Instrument:   &market.Instrument{Name: name},
			Price:        price,
			Volume:       volume,
			FilledVolume: volume,
			Time:         t0,
			Status:       market.StatusFilled,
		},
	}
}

func TestApplyQuote_InsertAndReplace(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t)

	require.NoError(t, a.ApplyQuote(quote("AAPL", 99, 101, 100, t0)))
	require.NoError(t, a.ApplyQuote(quote("AAPL", 100, 102, 101, t0.Add(time.Second))))

	snap := a.Snapshot()
	require.Contains(t, snap.Instruments, "AAPL")
	p, ok := snap.Quote("AAPL")
	require.True(t, ok)
	assert.Equal(t, 101.0, p.Last)
	assert.Equal(t, t0.Add(time.Second), p.Time)
	assert.Equal(t, "AAPL", p.Name())

	_, ok = snap.Quote("MSFT")
	assert.False(t, ok)
}

func TestApplyQuote_NoInstrument(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t)

	assert.ErrorIs(t, a.ApplyQuote(market.Point{Last: 1}), ErrNoInstrument)
	assert.Empty(t, a.Snapshot().Instruments)
}

func TestApplyQuote_MonotoneExtremes(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t)

	require.NoError(t, a.ApplyOrderUpdate(filled("o1", "AAPL", market.SideBuy, 10, 100)))

	prevMin, prevMax := 0.0, 0.0
	for i, last := range []float64{101, 99, 102, 98, 100, 100.5} {
		require.NoError(t, a.ApplyQuote(quote("AAPL", 0, 0, last, t0.Add(time.Duration(i)*time.Second))))

		pos := a.Snapshot().Positions["AAPL"]
		assert.LessOrEqual(t, pos.GainMin, prevMin)
		assert.GreaterOrEqual(t, pos.GainMax, prevMax)
		assert.InDelta(t, (last-100)*10, pos.GainLoss, 1e-9)
		prevMin, prevMax = pos.GainMin, pos.GainMax
	}

	pos := a.Snapshot().Positions["AAPL"]
	assert.InDelta(t, -20.0, pos.GainMin, 1e-9)
	assert.InDelta(t, 20.0, pos.GainMax, 1e-9)
	assert.Equal(t, 102.0, pos.High)
	assert.Equal(t, 98.0, pos.Low)
}

func TestApplyQuote_SellExtremes(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t)

	require.NoError(t, a.ApplyOrderUpdate(filled("o1", "ES", market.SideSell, 2, 50)))
	require.NoError(t, a.ApplyQuote(quote("ES", 0, 0, 52, t0)))
	require.NoError(t, a.ApplyQuote(quote("ES", 0, 0, 47, t0)))

	pos := a.Snapshot().Positions["ES"]
	assert.InDelta(t, 6.0, pos.GainLoss, 1e-9)
	assert.InDelta(t, -4.0, pos.GainMin, 1e-9)
	assert.InDelta(t, 6.0, pos.GainMax, 1e-9)
}

func TestApplyOrderUpdate_CloseToDeal(t *testing.T) {
	t.Parallel()

	var got []market.Position
	a, j := newAccount(t)
	a.SetListener(ListenerFunc(func(d market.Position) {
		// Reading back from the listener must not deadlock.
		_ = a.Snapshot()
		got = append(got, d)
	}))

	require.NoError(t, a.ApplyOrderUpdate(filled("o1", "AAPL", market.SideBuy, 10, 100)))
	require.NoError(t, a.ApplyOrderUpdate(filled("o2", "AAPL", market.SideSell, 10, 105)))

	snap := a.Snapshot()
	assert.Empty(t, snap.Orders)
	assert.Empty(t, snap.Positions)
	require.Len(t, snap.Deals, 1)

	deal := snap.Deals[0]
	assert.InDelta(t, 50.0, deal.GainLoss, 1e-9)
	assert.Equal(t, 105.0, deal.ClosePrice)
	assert.Equal(t, 100.0, deal.OpenPrice)
	assert.False(t, deal.Closed.IsZero())
	assert.InDelta(t, 10050.0, snap.Balance, 1e-9)
	assert.Equal(t, 10000.0, snap.InitialBalance)

	require.Len(t, got, 1)
	assert.Equal(t, deal.ID(), got[0].ID())

	require.Len(t, j.deals, 1)
	assert.Equal(t, "AAPL", j.deals[0].Instrument)
	assert.Equal(t, "acct-1", j.deals[0].Account)
	assert.Equal(t, 10.0, j.deals[0].Volume)
	require.Len(t, j.equity, 1)
	assert.InDelta(t, 10050.0, j.equity[0].Balance, 1e-9)
}

func TestApplyOrderUpdate_TerminalIdempotent(t *testing.T) {
	t.Parallel()

	open := filled("o1", "AAPL", market.SideBuy, 10, 100)
	closing := filled("o2", "AAPL", market.SideSell, 10, 90)

	once, _ := newAccount(t)
	require.NoError(t, once.ApplyOrderUpdate(open))
	require.NoError(t, once.ApplyOrderUpdate(closing))

	twice, _ := newAccount(t)
	for i := 0; i < 2; i++ {
		require.NoError(t, twice.ApplyOrderUpdate(open))
		require.NoError(t, twice.ApplyOrderUpdate(closing))
	}

	a, b := once.Snapshot(), twice.Snapshot()
	assert.Equal(t, len(a.Orders), len(b.Orders))
	assert.Equal(t, len(a.Positions), len(b.Positions))
	require.Len(t, b.Deals, 1)
	assert.InDelta(t, a.Deals[0].GainLoss, b.Deals[0].GainLoss, 1e-9)
	assert.InDelta(t, a.Balance, b.Balance, 1e-9)
}

func TestApplyOrderUpdate_PartialMerge(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t)

	require.NoError(t, a.ApplyOrderUpdate(market.Order{
		Side:        market.SideBuy,
		Type:        market.TypeLimit,
		Price:       11,
		Instruction: market.InstructionSingle,
		Transaction: &market.Transaction{
			ID:         "7",
			Instrument: &market.Instrument{Name: "AAPL", Class: market.ClassShares},
			Volume:     10,
			Status:     market.StatusPending,
		},
	}))

	snap := a.Snapshot()
	require.Contains(t, snap.Orders, "7")
	assert.Empty(t, snap.Positions)

	status := func(filled, avg float64, s market.Status) market.Order {
		return market.Order{Transaction: &market.Transaction{
			ID:           "7",
			Price:        avg,
			Volume:       10,
			FilledVolume: filled,
			Status:       s,
		}}
	}

	require.NoError(t, a.ApplyOrderUpdate(status(4, 10, market.StatusPartitioned)))
	snap = a.Snapshot()
	o := snap.Orders["7"]
	assert.Equal(t, market.SideBuy, o.Side)
	assert.Equal(t, market.TypeLimit, o.Type)
	assert.Equal(t, "AAPL", o.Name())
	assert.Equal(t, 4.0, o.Transaction.FilledVolume)
	pos := snap.Positions["AAPL"]
	assert.Equal(t, 4.0, pos.Volume())
	assert.Equal(t, 10.0, pos.OpenPrice)

	require.NoError(t, a.ApplyOrderUpdate(status(10, 10.6, market.StatusFilled)))
	snap = a.Snapshot()
	assert.Empty(t, snap.Orders)
	pos = snap.Positions["AAPL"]
	assert.Equal(t, 10.0, pos.Volume())
	assert.InDelta(t, 10.6, pos.OpenPrice, 1e-9)
	assert.Equal(t, market.ClassShares, pos.Transaction.Instrument.Class)
}

func TestApplyOrderUpdate_FilledNeverExceedsVolume(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t)

	o := filled("o1", "AAPL", market.SideBuy, 5, 100)
	o.Transaction.FilledVolume = 8
	o.Transaction.Status = market.StatusPartitioned
	require.NoError(t, a.ApplyOrderUpdate(o))

	snap := a.Snapshot()
	assert.Equal(t, 5.0, snap.Orders["o1"].Transaction.FilledVolume)
	assert.Equal(t, 5.0, snap.Positions["AAPL"].Volume())
}

func TestApplyOrderUpdate_Reversal(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t)

	require.NoError(t, a.ApplyOrderUpdate(filled("o1", "AAPL", market.SideBuy, 5, 100)))
	require.NoError(t, a.ApplyOrderUpdate(filled("o2", "AAPL", market.SideSell, 8, 110)))

	snap := a.Snapshot()
	require.Len(t, snap.Deals, 1)
	assert.InDelta(t, 50.0, snap.Deals[0].GainLoss, 1e-9)

	pos := snap.Positions["AAPL"]
	assert.Equal(t, market.SideSell, pos.Side)
	assert.Equal(t, 3.0, pos.Volume())
	assert.Equal(t, 110.0, pos.OpenPrice)
	assert.NotEqual(t, snap.Deals[0].ID(), pos.ID())
}

func TestApplyOrderUpdate_Group(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t)

	leg := func(name string, side market.Side, volume, price float64) market.Order {
		return market.Order{
			Side:        side,
			Instruction: market.InstructionSingle,
			Transaction: &market.Transaction{
				Instrument:   &market.Instrument{Name: name},
				Price:        price,
				Volume:       volume,
				FilledVolume: volume,
			},
		}
	}

	require.NoError(t, a.ApplyOrderUpdate(market.Order{
		Side:        market.SideBuy,
		Type:        market.TypeLimit,
		Price:       1.5,
		Instruction: market.InstructionGroup,
		Transaction: &market.Transaction{
			ID:           "g1",
			Instrument:   &market.Instrument{Name: market.GroupName([]string{"AAA", "BBB"})},
			Volume:       10,
			FilledVolume: 10,
			Status:       market.StatusFilled,
		},
		Orders: []market.Order{
			leg("AAA", market.SideBuy, 10, 2),
			leg("BBB", market.SideSell, 5, 1),
		},
	}))

	snap := a.Snapshot()
	require.Len(t, snap.Positions, 2)
	assert.Equal(t, market.SideBuy, snap.Positions["AAA"].Side)
	assert.Equal(t, 10.0, snap.Positions["AAA"].Volume())
	assert.Equal(t, 2.0, snap.Positions["AAA"].OpenPrice)
	assert.Equal(t, market.SideSell, snap.Positions["BBB"].Side)
	assert.Equal(t, 5.0, snap.Positions["BBB"].Volume())
	assert.NotContains(t, snap.Instruments, "AAA / BBB")
}

func TestApplyOrderUpdate_GroupStatusScalesLegs(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t)

	require.NoError(t, a.ApplyQuote(quote("AAA", 0, 0, 20, t0)))
	require.NoError(t, a.ApplyQuote(quote("BBB", 0, 0, 10, t0)))

	leg := func(name string, side market.Side, volume float64) market.Order {
		return market.Order{
			Side: side,
			Transaction: &market.Transaction{
				Instrument: &market.Instrument{Name: name},
				Volume:     volume,
			},
		}
	}
	require.NoError(t, a.ApplyOrderUpdate(market.Order{
		Side:        market.SideBuy,
		Type:        market.TypeLimit,
		Instruction: market.InstructionGroup,
		Transaction: &market.Transaction{
			ID:     "g2",
			Volume: 5,
			Status: market.StatusPending,
		},
		Orders: []market.Order{
			leg("AAA", market.SideBuy, 10),
			leg("BBB", market.SideSell, 5),
		},
	}))
	assert.Empty(t, a.Snapshot().Positions)

	require.NoError(t, a.ApplyOrderUpdate(market.Order{Transaction: &market.Transaction{
		ID:           "g2",
		Volume:       5,
		FilledVolume: 5,
		Status:       market.StatusFilled,
	}}))

	snap := a.Snapshot()
	assert.Empty(t, snap.Orders)
	assert.Equal(t, 10.0, snap.Positions["AAA"].Volume())
	assert.Equal(t, 20.0, snap.Positions["AAA"].OpenPrice)
	assert.Equal(t, 5.0, snap.Positions["BBB"].Volume())
	assert.Equal(t, 10.0, snap.Positions["BBB"].OpenPrice)
}

func TestApplyOrderUpdate_MissingID(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t)

	o := filled("", "AAPL", market.SideBuy, 10, 100)
	o.Transaction.FilledVolume = 0
	o.Transaction.Status = market.StatusPending
	require.NoError(t, a.ApplyOrderUpdate(o))

	snap := a.Snapshot()
	require.Len(t, snap.Orders, 1)
	for oid := range snap.Orders {
		assert.Len(t, oid, 26)
	}
}

func TestApplyOrderUpdate_MissingIDRepeated(t *testing.T) {
	t.Parallel()
	a, j := newAccount(t)

	pending := filled("", "AAPL", market.SideBuy, 10, 100)
	pending.Transaction.FilledVolume = 0
	pending.Transaction.Status = market.StatusPending
	require.NoError(t, a.ApplyOrderUpdate(pending))

	fill := filled("", "AAPL", market.SideBuy, 10, 100)
	require.NoError(t, a.ApplyOrderUpdate(fill))
	require.NoError(t, a.ApplyOrderUpdate(fill))

	snap := a.Snapshot()
	assert.Empty(t, snap.Orders)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, 10.0, snap.Positions["AAPL"].Volume())

	other := filled("", "AAPL", market.SideSell, 10, 100)
	other.Transaction.Time = t0.Add(time.Minute)
	require.NoError(t, a.ApplyOrderUpdate(other))
	assert.Empty(t, a.Snapshot().Positions)
	assert.Len(t, j.deals, 1)
}

func TestApplyOrderUpdate_BeforeEpoch(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t)

	o := filled("old", "AAPL", market.SideBuy, 10, 100)
	o.Transaction.Time = time.Date(1969, 12, 31, 23, 0, 0, 0, time.UTC)
	require.NotPanics(t, func() { require.NoError(t, a.ApplyOrderUpdate(o)) })

	pos := a.Snapshot().Positions["AAPL"]
	assert.Equal(t, 10.0, pos.Volume())
	assert.Len(t, pos.ID(), 26)

	o.Transaction.ID = ""
	o.Side = market.SideSell
	require.NotPanics(t, func() { require.NoError(t, a.ApplyOrderUpdate(o)) })
	assert.Empty(t, a.Snapshot().Positions)
}

type snapshotJournal struct {
	testJournal
	a    *Account
	seen []float64
}

func (j *snapshotJournal) RecordDeal(rec journal.DealRecord) error {
	j.seen = append(j.seen, j.a.Snapshot().Balance)
	return j.testJournal.RecordDeal(rec)
}

func TestApplyOrderUpdate_JournalOutsideLock(t *testing.T) {
	t.Parallel()

	j := &snapshotJournal{}
	a := New("acct-1", 10000,
		WithJournal(j),
		WithLogger(logger.Discard()),
		WithClock(func() time.Time { return t0 }),
	)
	j.a = a

	done := make(chan error, 1)
	go func() {
		if err := a.ApplyOrderUpdate(filled("1", "AAPL", market.SideBuy, 10, 100)); err != nil {
			done <- err
			return
		}
		done <- a.ApplyOrderUpdate(filled("2", "AAPL", market.SideSell, 10, 105))
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("journal write blocked on the account lock")
	}
	require.Len(t, j.seen, 1)
	assert.InDelta(t, 10050.0, j.seen[0], 1e-9)
	assert.Len(t, j.equity, 1)
}

func TestApplyPositionSnapshot_ReduceRealizes(t *testing.T) {
	t.Parallel()
	a, j := newAccount(t)

	require.NoError(t, a.ApplyOrderUpdate(filled("1", "AAPL", market.SideBuy, 10, 100)))
	require.NoError(t, a.ApplyQuote(quote("AAPL", 0, 0, 110, t0)))

	smaller := market.NewPosition(filled("AAPL", "AAPL", market.SideBuy, 4, 100), 100)
	require.NoError(t, a.ApplyPositionSnapshot(smaller))

	got := a.Snapshot().Positions["AAPL"]
	assert.Equal(t, 4.0, got.Volume())
	assert.InDelta(t, 60.0, got.Realized, 1e-9)
	assert.InDelta(t, 100.0, got.GainLoss, 1e-9)

	require.NoError(t, a.ApplyPositionSnapshot(market.NewPosition(filled("AAPL", "AAPL", market.SideNone, 0, 0), 0)))

	snap := a.Snapshot()
	assert.Empty(t, snap.Positions)
	require.Len(t, snap.Deals, 1)
	assert.InDelta(t, 100.0, snap.Deals[0].GainLoss, 1e-9)
	assert.InDelta(t, 10100.0, snap.Balance, 1e-9)
	require.Len(t, j.deals, 1)
	assert.InDelta(t, 100.0, j.deals[0].GainLoss, 1e-9)
}

func TestApplyPositionSnapshot(t *testing.T) {
	t.Parallel()
	a, j := newAccount(t)

	pos := func(side market.Side, volume, open, gain float64) market.Position {
		o := filled("AAPL", "AAPL", side, volume, open)
		p := market.NewPosition(o, open)
		p.GainLoss = gain
		return p
	}

	require.NoError(t, a.ApplyPositionSnapshot(pos(market.SideBuy, 10, 100, 25)))
	snap := a.Snapshot()
	got := snap.Positions["AAPL"]
	assert.Equal(t, 10.0, got.Volume())
	assert.Equal(t, 25.0, got.GainLoss)
	assert.Equal(t, 25.0, got.GainMax)
	assert.Equal(t, 0.0, got.GainMin)
	assert.NotEqual(t, "AAPL", got.ID())

	require.NoError(t, a.ApplyPositionSnapshot(pos(market.SideBuy, 15, 102, -10)))
	got = a.Snapshot().Positions["AAPL"]
	assert.Equal(t, 15.0, got.Volume())
	assert.Equal(t, 102.0, got.OpenPrice)
	assert.Equal(t, -10.0, got.GainMin)
	assert.Equal(t, 25.0, got.GainMax)

	require.NoError(t, a.ApplyQuote(quote("AAPL", 0, 0, 104, t0)))
	require.NoError(t, a.ApplyPositionSnapshot(pos(market.SideNone, 0, 0, 0)))

	snap = a.Snapshot()
	assert.Empty(t, snap.Positions)
	require.Len(t, snap.Deals, 1)
	assert.InDelta(t, 30.0, snap.Deals[0].GainLoss, 1e-9)
	assert.InDelta(t, 10030.0, snap.Balance, 1e-9)
	assert.Len(t, j.deals, 1)
}

func TestApplyInstrument_Merge(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t, WithCommission(1.5))

	require.NoError(t, a.ApplyQuote(quote("AAPL  240119C00150000", 1, 1.2, 1.1, t0)))
	require.NoError(t, a.ApplyInstrument(&market.Instrument{
		Name:     "AAPL  240119C00150000",
		Class:    market.ClassOptions,
		Leverage: 100,
		Basis: &market.Instrument{
			Name:  "AAPL",
			Point: &market.Point{Last: 151, Time: t0},
		},
		Derivative: &market.Derivative{
			Strike: 150,
			Side:   market.OptionCall,
			Greeks: market.Greeks{Delta: 0.55},
		},
	}))

	snap := a.Snapshot()
	inst := snap.Instruments["AAPL  240119C00150000"]
	require.NotNil(t, inst)
	assert.Equal(t, market.ClassOptions, inst.Class)
	assert.Equal(t, 100.0, inst.Multiplier())
	assert.Equal(t, 1.5, inst.Commission)
	assert.Equal(t, 1.1, inst.Point.Last)
	require.NotNil(t, inst.Basis)
	assert.Equal(t, "AAPL", inst.Basis.Name)
	assert.Equal(t, 0.55, inst.Derivative.Greeks.Delta)

	p, ok := snap.Quote("AAPL")
	require.True(t, ok)
	assert.Equal(t, 151.0, p.Last)

	require.NoError(t, a.ApplyInstrument(&market.Instrument{
		Name:       "AAPL  240119C00150000",
		Derivative: &market.Derivative{Volatility: 0.3},
	}))
	inst = a.Snapshot().Instruments["AAPL  240119C00150000"]
	assert.Equal(t, 150.0, inst.Derivative.Strike)
	assert.Equal(t, 0.3, inst.Derivative.Volatility)
	assert.Equal(t, 0.55, inst.Derivative.Greeks.Delta)
}

func TestSnapshot_DeepCopy(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t)

	require.NoError(t, a.ApplyQuote(quote("AAPL", 99, 101, 100, t0)))
	require.NoError(t, a.ApplyOrderUpdate(filled("o1", "AAPL", market.SideBuy, 10, 100)))

	snap := a.Snapshot()
	snap.Instruments["AAPL"].Point.Last = 1
	p := snap.Positions["AAPL"]
	p.Transaction.FilledVolume = 99
	snap.Balance = 0

	again := a.Snapshot()
	q, _ := again.Quote("AAPL")
	assert.Equal(t, 100.0, q.Last)
	assert.Equal(t, 10.0, again.Positions["AAPL"].Volume())
	assert.Equal(t, 10000.0, again.Balance)
	assert.InDelta(t, 10000.0, again.Equity(), 1e-9)
}

func TestAccount_Concurrent(t *testing.T) {
	t.Parallel()
	a, _ := newAccount(t)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("SYM%d", w)
			_ = a.ApplyOrderUpdate(filled(name+"-open", name, market.SideBuy, 1, 100))
			for i := 0; i < 200; i++ {
				_ = a.ApplyQuote(quote(name, 0, 0, 100+float64(i%7), t0.Add(time.Duration(i)*time.Millisecond)))
				_ = a.Snapshot()
			}
			_ = a.ApplyOrderUpdate(filled(name+"-close", name, market.SideSell, 1, 103))
		}()
	}
	wg.Wait()

	snap := a.Snapshot()
	assert.Len(t, snap.Instruments, 8)
	assert.Empty(t, snap.Positions)
	assert.Len(t, snap.Deals, 8)
	assert.InDelta(t, 10000+8*3.0, snap.Balance, 1e-9)
}
