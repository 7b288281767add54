// Package account aggregates broker updates into one owned account state.
package account

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/terminal/internal/id"
	"github.com/rustyeddy/terminal/journal"
	"github.com/rustyeddy/terminal/logger"
	"github.com/rustyeddy/terminal/market"
)

// ErrNoInstrument is returned for quotes and positions that name no
// instrument.
var ErrNoInstrument = errors.New("update has no instrument")

// Listener is notified about every position that moves to the deals list.
// It is called after the account lock is released.
type Listener interface {
	OnDealClosed(deal market.Position)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(deal market.Position)

func (f ListenerFunc) OnDealClosed(deal market.Position) { f(deal) }

// Account owns the instruments, open orders, open positions and deals of
// one broker account. All methods are safe for concurrent use.
//
// Open positions are keyed by instrument name; fills on the same
// instrument net into one position.
type Account struct {
	mu sync.RWMutex

	descriptor string
	balance    float64
	initial    float64
	commission float64

	instruments map[string]*market.Instrument
	orders      map[string]*market.Order
	positions   map[string]*market.Position
	deals       []market.Position
	terminal    map[string]market.Status

	journal  journal.Journal
	listener Listener
	log      *logger.Entry
	now      func() time.Time
}

// Option configures an Account.
type Option func(*Account)

// WithJournal records closed deals and the equity after each close.
func WithJournal(j journal.Journal) Option {
	return func(a *Account) {
		if j != nil {
			a.journal = j
		}
	}
}

func WithListener(l Listener) Option {
	return func(a *Account) { a.listener = l }
}

func WithLogger(l *logger.Log) Option {
	return func(a *Account) {
		if l != nil {
			a.log = l.WithComponent("account")
		}
	}
}

// WithCommission sets the per-unit commission of instruments that arrive
// without one.
func WithCommission(perUnit float64) Option {
	return func(a *Account) { a.commission = perUnit }
}

// WithClock replaces the clock used for updates without a time.
func WithClock(now func() time.Time) Option {
	return func(a *Account) {
		if now != nil {
			a.now = now
		}
	}
}

// New returns an empty account holding balance.
func New(descriptor string, balance float64, opts ...Option) *Account {
	a := &Account{
		descriptor:  descriptor,
		balance:     balance,
		initial:     balance,
		instruments: make(map[string]*market.Instrument),
		orders:      make(map[string]*market.Order),
		positions:   make(map[string]*market.Position),
		terminal:    make(map[string]market.Status),
		journal:     journal.Nop{},
		log:         logger.GetLogger().WithComponent("account"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithFields(logger.Fields{"account": descriptor})
	return a
}

func (a *Account) Descriptor() string { return a.descriptor }

func (a *Account) Balance() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.balance
}

func (a *Account) InitialBalance() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.initial
}

// SetListener replaces the deal listener.
func (a *Account) SetListener(l Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = l
}

// ApplyQuote stores p as the current point of its instrument, inserting the
// instrument on first sight, and revalues the open position on it.
func (a *Account) ApplyQuote(p market.Point) error {
	if p.Name() == "" {
		return ErrNoInstrument
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	inst := a.instrumentLocked(p.Instrument)
	a.quoteLocked(inst, p)
	return nil
}

// ApplyInstrument merges contract details such as class, multiplier or
// greeks into the known instrument.
func (a *Account) ApplyInstrument(src *market.Instrument) error {
	if src == nil || src.Name == "" {
		return ErrNoInstrument
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	inst := a.instrumentLocked(src)
	if src.Point != nil {
		a.quoteLocked(inst, *src.Point)
	}
	return nil
}

// ApplyOrderUpdate upserts an order by id. Updates for a known order are
// merged onto it, so partial status messages only need the id. New fill
// volume is netted into positions, leg by leg for groups. Terminal orders
// leave the open map; later updates for them are ignored.
func (a *Account) ApplyOrderUpdate(o market.Order) error {
	o = o.Clone()
	if o.Transaction == nil {
		o.Transaction = &market.Transaction{}
	}

	a.mu.Lock()

	if o.Transaction.ID == "" {
		o.Transaction.ID = id.Derive(o.Transaction.Time, orderKey(a.descriptor, o))
	}
	oid := o.Transaction.ID
	if _, done := a.terminal[oid]; done {
		a.mu.Unlock()
		return nil
	}

	prev := a.orders[oid]
	next := o
	if prev != nil {
		next = merge(*prev, o)
	}
	normalize(&next)
	a.bindLocked(&next)

	at := a.timeOf(next.Transaction.Time)
	var closed []market.Position
	if next.IsGroup() {
		for i := range next.Orders {
			var before *market.Order
			if prev != nil && i < len(prev.Orders) {
				before = &prev.Orders[i]
			}
			closed = append(closed, a.executeLocked(before, next.Orders[i], at)...)
		}
	} else {
		closed = a.executeLocked(prev, next, at)
	}

	if status := next.Transaction.Status; status.Terminal() {
		delete(a.orders, oid)
		a.terminal[oid] = status
		a.log.WithFields(logger.Fields{"order": oid, "status": status.String()}).Debug("order done")
	} else {
		a.orders[oid] = &next
	}

	out := a.outboxLocked(closed, at)
	a.mu.Unlock()

	return out.deliver()
}

// ApplyPositionSnapshot upserts the broker's view of the position on an
// instrument. A snapshot with zero volume closes the open position.
func (a *Account) ApplyPositionSnapshot(p market.Position) error {
	if p.Name() == "" {
		return ErrNoInstrument
	}
	p = p.Clone()

	a.mu.Lock()

	inst := a.instrumentLocked(p.Transaction.Instrument)
	at := a.timeOf(p.Time())
	name := inst.Name

	var closed []market.Position
	cur, ok := a.positions[name]
	switch {
	case p.Volume() == 0 || p.Side == market.SideNone:
		if ok {
			price := a.markLocked(inst)
			if price == 0 {
				price = p.ClosePrice
			}
			closed = append(closed, a.closeLocked(cur, price, at))
		}

	case ok && cur.Side == p.Side:
		if held := cur.Volume(); p.Volume() < held {
			price := a.markLocked(inst)
			if price == 0 {
				price = p.ClosePrice
			}
			cur.Reduce(held-p.Volume(), price)
		}
		cur.Transaction.FilledVolume = p.Volume()
		if cur.Transaction.Volume < p.Volume() {
			cur.Transaction.Volume = p.Volume()
		}
		if p.OpenPrice != 0 {
			cur.OpenPrice = p.OpenPrice
			cur.Transaction.Price = p.OpenPrice
		}
		a.revalueLocked(cur, p.GainLoss)

	default:
		if ok {
			closed = append(closed, a.closeLocked(cur, a.markLocked(inst), at))
		}
		a.adoptLocked(p, inst, at)
	}

	out := a.outboxLocked(closed, at)
	a.mu.Unlock()

	return out.deliver()
}

func (a *Account) timeOf(t time.Time) time.Time {
	if t.IsZero() {
		return a.now()
	}
	return t
}

func (a *Account) instrumentLocked(src *market.Instrument) *market.Instrument {
	if src == nil || src.Name == "" {
		return nil
	}
	inst, ok := a.instruments[src.Name]
	if !ok {
		inst = &market.Instrument{Name: src.Name, Commission: a.commission}
		a.instruments[src.Name] = inst
	}
	if inst != src {
		a.mergeLocked(inst, src)
	}
	return inst
}

func (a *Account) mergeLocked(dst, src *market.Instrument) {
	if src.Exchange != "" {
		dst.Exchange = src.Exchange
	}
	if src.Class != market.ClassNone {
		dst.Class = src.Class
	}
	if src.Leverage != 0 {
		dst.Leverage = src.Leverage
	}
	if src.Commission != 0 {
		dst.Commission = src.Commission
	}
	if src.Derivative != nil {
		dst.Derivative = mergeDerivative(dst.Derivative, *src.Derivative)
	}
	if src.Basis != nil && src.Basis.Name != "" && src.Basis.Name != dst.Name {
		basis := a.instrumentLocked(src.Basis)
		if src.Basis.Point != nil {
			a.quoteLocked(basis, *src.Basis.Point)
		}
		dst.Basis = basis
	}
}

func mergeDerivative(dst *market.Derivative, src market.Derivative) *market.Derivative {
	if dst == nil {
		return &src
	}
	if src.Strike != 0 {
		dst.Strike = src.Strike
	}
	if !src.Expiration.IsZero() {
		dst.Expiration = src.Expiration
	}
	if src.Side != market.OptionNone {
		dst.Side = src.Side
	}
	if src.OpenInterest != 0 {
		dst.OpenInterest = src.OpenInterest
	}
	if src.IntrinsicValue != 0 {
		dst.IntrinsicValue = src.IntrinsicValue
	}
	if src.Volatility != 0 {
		dst.Volatility = src.Volatility
	}
	if src.Greeks != (market.Greeks{}) {
		dst.Greeks = src.Greeks
	}
	return dst
}

func (a *Account) quoteLocked(inst *market.Instrument, p market.Point) {
	pt := p.Clone()
	pt.Instrument = inst
	inst.Point = &pt

	if pos, ok := a.positions[inst.Name]; ok {
		pos.Revalue(mark(pt))
	}
}

func (a *Account) markLocked(inst *market.Instrument) float64 {
	if inst == nil || inst.Point == nil {
		return 0
	}
	return mark(*inst.Point)
}

// mark is the price positions are valued at.
func mark(p market.Point) float64 {
	if p.Last != 0 {
		return p.Last
	}
	return p.Mid()
}

// bindLocked points the order and its legs at the account's instruments.
// The pooled instrument of a group is not tradable and stays unbound.
func (a *Account) bindLocked(o *market.Order) {
	if o.IsGroup() {
		for i := range o.Orders {
			a.bindLocked(&o.Orders[i])
		}
		return
	}
	if o.Transaction != nil && o.Transaction.Instrument != nil {
		if inst := a.instrumentLocked(o.Transaction.Instrument); inst != nil {
			o.Transaction.Instrument = inst
		}
	}
}

// outbox carries the journal records and listener calls of one update.
// It is built under the lock and delivered after the lock is released.
type outbox struct {
	journal  journal.Journal
	listener Listener
	closed   []market.Position
	deals    []journal.DealRecord
	equity   journal.EquityRecord
}

func (a *Account) outboxLocked(closed []market.Position, at time.Time) outbox {
	out := outbox{journal: a.journal, listener: a.listener, closed: closed}
	if len(closed) == 0 {
		return out
	}
	for _, d := range closed {
		out.deals = append(out.deals, journal.FromPosition(a.descriptor, d))
	}
	out.equity = a.equityLocked(at)
	return out
}

func (o outbox) deliver() error {
	err := o.record()
	if o.listener != nil {
		for _, d := range o.closed {
			o.listener.OnDealClosed(d.Clone())
		}
	}
	return err
}

func (o outbox) record() error {
	if len(o.deals) == 0 {
		return nil
	}
	for _, rec := range o.deals {
		if err := o.journal.RecordDeal(rec); err != nil {
			return fmt.Errorf("record deal %s: %w", rec.DealID, err)
		}
	}
	if err := o.journal.RecordEquity(o.equity); err != nil {
		return fmt.Errorf("record equity: %w", err)
	}
	return nil
}

func (a *Account) equityLocked(at time.Time) journal.EquityRecord {
	rec := journal.EquityRecord{
		Time:    at,
		Balance: a.balance,
		Equity:  a.balance,
		Min:     a.balance,
		Max:     a.balance,
	}
	for _, p := range a.positions {
		rec.Equity += p.GainLoss
		rec.Min += p.GainMin
		rec.Max += p.GainMax
	}
	return rec
}

// orderKey identifies an order that arrived without an id by the fields a
// broker repeats on every update of it. Status and fill progress are left
// out so later updates of the same order map to the same id.
func orderKey(descriptor string, o market.Order) string {
	var b strings.Builder
	b.WriteString(descriptor)
	writeOrderKey(&b, o)
	return b.String()
}

func writeOrderKey(b *strings.Builder, o market.Order) {
	fmt.Fprintf(b, "|%s|%s|%s|%s|%g|%g",
		o.Instruction, o.Side, o.Type, o.TimeSpan, o.Price, o.ActivationPrice)
	if t := o.Transaction; t != nil {
		fmt.Fprintf(b, "|%s|%s|%g|%s", t.Descriptor, t.Name(), t.Volume, t.Time.UTC().Format(time.RFC3339Nano))
	}
	for _, leg := range o.Orders {
		b.WriteString("|(")
		writeOrderKey(b, leg)
		b.WriteString(")")
	}
}
