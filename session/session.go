// Package session routes decoded broker messages into an account and
// prepares outgoing orders.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rustyeddy/terminal/account"
	"github.com/rustyeddy/terminal/broker"
	"github.com/rustyeddy/terminal/logger"
	"github.com/rustyeddy/terminal/market"
	"github.com/rustyeddy/terminal/risk"
	"github.com/rustyeddy/terminal/schedule"
)

// ErrUnknownBroker is returned for envelopes and orders naming a broker
// that has no registered decoder.
var ErrUnknownBroker = errors.New("unknown broker")

const changedKey = "changed"

// Envelope is one received broker message.
type Envelope struct {
	Broker  string          `json:"broker"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Session feeds one account from any number of brokers.
type Session struct {
	account *account.Account
	runner  *schedule.Runner
	log     *logger.Entry

	mu       sync.RWMutex
	decoders map[string]broker.Decoder
	handlers []func(account.Snapshot)
}

// New returns a session applying updates to acct. Change notifications
// are coalesced by runner; a nil runner notifies on every update.
func New(acct *account.Account, runner *schedule.Runner, log *logger.Log) *Session {
	if runner == nil {
		runner = &schedule.Runner{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Session{
		account:  acct,
		runner:   runner,
		log:      log.WithComponent("session").WithFields(logger.Fields{"account": acct.Descriptor()}),
		decoders: make(map[string]broker.Decoder),
	}
}

func (s *Session) Account() *account.Account { return s.account }

// Register adds or replaces the decoder of a broker.
func (s *Session) Register(name string, d broker.Decoder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decoders[name] = d
}

// OnChange adds a handler called with a fresh snapshot after updates.
// Bursts of updates result in one call.
func (s *Session) OnChange(fn func(account.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// Close stops change notifications. Pending notifications are dropped.
func (s *Session) Close() {
	s.runner.Close()
}

func (s *Session) decoder(name string) (broker.Decoder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decoders[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownBroker, name)
	}
	return d, nil
}

// Handle decodes env and applies the events to the account. Events that
// cannot be applied are skipped and reported in the returned error.
func (s *Session) Handle(env Envelope) error {
	d, err := s.decoder(env.Broker)
	if err != nil {
		return err
	}

	events, err := d.Decode(env.Kind, env.Payload)
	if err != nil {
		return fmt.Errorf("handle %s %s: %w", env.Broker, env.Kind, err)
	}

	var errs []error
	for _, ev := range events {
		if fields := degraded(ev); len(fields) > 0 {
			s.log.WithFields(logger.Fields{
				"broker": env.Broker,
				"kind":   env.Kind,
				"fields": fields,
			}).Debug("unmapped broker codes")
		}
		if err := s.apply(ev); err != nil {
			errs = append(errs, fmt.Errorf("apply %s: %w", ev.Kind, err))
		}
	}

	if len(events) > 0 {
		s.changed()
	}
	return errors.Join(errs...)
}

func (s *Session) apply(ev broker.Event) error {
	switch {
	case ev.Point != nil:
		return s.account.ApplyQuote(*ev.Point)
	case ev.Order != nil:
		return s.account.ApplyOrderUpdate(*ev.Order)
	case ev.Position != nil:
		return s.account.ApplyPositionSnapshot(*ev.Position)
	case ev.Instrument != nil:
		return s.account.ApplyInstrument(ev.Instrument)
	}
	return nil
}

func (s *Session) changed() {
	s.mu.RLock()
	handlers := append([]func(account.Snapshot){}, s.handlers...)
	s.mu.RUnlock()
	if len(handlers) == 0 {
		return
	}

	s.runner.SendKey(changedKey, func() {
		snap := s.account.Snapshot()
		for _, h := range handlers {
			h(snap)
		}
	})
}

// Prepare validates o against the current account state and encodes it
// for the broker. Validation failures are returned as *risk.Error.
func (s *Session) Prepare(brokerName string, o market.Order) (any, error) {
	d, err := s.decoder(brokerName)
	if err != nil {
		return nil, err
	}
	if err := risk.Check(o, s.account.Snapshot()); err != nil {
		return nil, err
	}
	req, err := d.Encode(o)
	if err != nil {
		return nil, fmt.Errorf("encode order for %s: %w", brokerName, err)
	}
	return req, nil
}

// degraded lists the attributes of ev that fell back to a none sentinel.
func degraded(ev broker.Event) []string {
	var out []string
	switch {
	case ev.Point != nil:
		if inst := ev.Point.Instrument; inst != nil && inst.Class == market.ClassNone {
			out = append(out, "Instrument.Class")
		}
	case ev.Order != nil:
		o := ev.Order
		if o.Transaction != nil && o.Transaction.Status == market.StatusNone {
			out = append(out, "Transaction.Status")
		}
		if o.Transaction != nil && o.Transaction.Instrument == nil {
			// Partial status updates carry no instrument and no side.
			break
		}
		if o.Side == market.SideNone {
			out = append(out, "Side")
		}
		if o.Type == market.TypeNone {
			out = append(out, "Type")
		}
	case ev.Position != nil:
		if ev.Position.Side == market.SideNone && ev.Position.Volume() != 0 {
			out = append(out, "Side")
		}
	case ev.Instrument != nil:
		if ev.Instrument.Class == market.ClassNone {
			out = append(out, "Class")
		}
	}
	return out
}
