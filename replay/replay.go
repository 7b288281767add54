// Package replay feeds recorded broker messages into a session.
package replay

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/terminal/logger"
	"github.com/rustyeddy/terminal/market"
	"github.com/rustyeddy/terminal/session"
)

// ErrBadLine is wrapped by errors about unreadable or unusable lines.
var ErrBadLine = errors.New("bad line")

const maxLine = 4 << 20

// Handler consumes envelopes. *session.Session implements it.
type Handler interface {
	Handle(session.Envelope) error
}

// QuoteSink consumes quotes. *account.Account implements it.
type QuoteSink interface {
	ApplyQuote(market.Point) error
}

// Options controls how replay behaves.
type Options struct {
	// ContinueOnError logs failing lines and goes on instead of stopping
	// at the first one.
	ContinueOnError bool
	Logger          *logger.Log
}

// Result counts the processed lines.
type Result struct {
	Lines   int
	Applied int
	Failed  int
}

// File replays path into s. Files ending in .csv hold ticks
// (time,instrument,bid,ask[,last]); anything else holds one JSON envelope
// per line:
//
//	{"broker":"schwab","kind":"order","payload":{...}}
func File(ctx context.Context, path string, s *session.Session, opts Options) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return CSV(ctx, f, s.Account(), opts)
	}
	return Reader(ctx, f, s, opts)
}

// Reader replays JSON lines envelopes from r in order. Blank lines and lines
// starting with # are skipped.
func Reader(ctx context.Context, r io.Reader, h Handler, opts Options) (Result, error) {
	log := entry(opts)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var res Result
	n := 0
	for sc.Scan() {
		n++
		if err := ctx.Err(); err != nil {
			return res, err
		}

		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		res.Lines++

		var env session.Envelope
		err := json.Unmarshal([]byte(line), &env)
		if err == nil && (env.Broker == "" || env.Kind == "") {
			err = errors.New("envelope needs broker and kind")
		}
		if err == nil {
			err = h.Handle(env)
		}
		if err != nil {
			res.Failed++
			err = fmt.Errorf("%w %d: %w", ErrBadLine, n, err)
			if !opts.ContinueOnError {
				return res, err
			}
			log.WithError(err).Warn("skipping line")
			continue
		}
		res.Applied++
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read envelopes: %w", err)
	}
	return res, nil
}

// CSV replays ticks from r. A first row starting with "time" is a header.
// Times are RFC 3339. Without a last column the last price follows the ask,
// falling back to the bid.
func CSV(ctx context.Context, r io.Reader, sink QuoteSink, opts Options) (Result, error) {
	log := entry(opts)
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	var res Result
	for n := 1; ; n++ {
		row, err := cr.Read()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("%w %d: %w", ErrBadLine, n, err)
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if n == 1 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			continue
		}
		res.Lines++

		p, err := tick(row)
		if err == nil {
			err = sink.ApplyQuote(p)
		}
		if err != nil {
			res.Failed++
			err = fmt.Errorf("%w %d: %w", ErrBadLine, n, err)
			if !opts.ContinueOnError {
				return res, err
			}
			log.WithError(err).Warn("skipping row")
			continue
		}
		res.Applied++
	}
}

func tick(row []string) (market.Point, error) {
	if len(row) < 4 {
		return market.Point{}, fmt.Errorf("need at least 4 columns time,instrument,bid,ask: %v", row)
	}

	t, err := time.Parse(time.RFC3339, strings.TrimSpace(row[0]))
	if err != nil {
		return market.Point{}, fmt.Errorf("bad time %q: %w", row[0], err)
	}
	bid, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return market.Point{}, fmt.Errorf("bad bid %q: %w", row[2], err)
	}
	ask, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
	if err != nil {
		return market.Point{}, fmt.Errorf("bad ask %q: %w", row[3], err)
	}

	last := market.LastPrice(&ask, &bid)
	if len(row) >= 5 && strings.TrimSpace(row[4]) != "" {
		last, err = strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		if err != nil {
			return market.Point{}, fmt.Errorf("bad last %q: %w", row[4], err)
		}
	}

	return market.Point{
		Bid:        bid,
		Ask:        ask,
		Last:       last,
		Time:       t.UTC(),
		Instrument: &market.Instrument{Name: strings.TrimSpace(row[1])},
	}, nil
}

func entry(opts Options) *logger.Entry {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	return log.WithComponent("replay")
}
