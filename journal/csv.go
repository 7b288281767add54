// journal/csv.go
package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

var (
	dealHeader   = []string{"deal_id", "account", "instrument", "class", "side", "volume", "open_price", "close_price", "open_time", "close_time", "gain_loss", "gain_min", "gain_max", "commission"}
	equityHeader = []string{"time", "balance", "equity", "min", "max"}
)

type CSV struct {
	deals  *csv.Writer
	equity *csv.Writer
	df, ef *os.File
}

func NewCSV(dealsPath, equityPath string) (*CSV, error) {
	df, err := os.Create(dealsPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		_ = df.Close()
		return nil, err
	}

	j := &CSV{deals: csv.NewWriter(df), equity: csv.NewWriter(ef), df: df, ef: ef}
	if err := j.write(j.deals, dealHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	if err := j.write(j.equity, equityHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSV) write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSV) RecordDeal(d DealRecord) error {
	return j.write(j.deals, []string{
		d.DealID,
		d.Account,
		d.Instrument,
		d.Class,
		d.Side,
		f(d.Volume),
		f(d.OpenPrice),
		f(d.ClosePrice),
		d.OpenTime.Format(time.RFC3339),
		d.CloseTime.Format(time.RFC3339),
		f(d.GainLoss),
		f(d.GainMin),
		f(d.GainMax),
		f(d.Commission),
	})
}

func (j *CSV) RecordEquity(e EquityRecord) error {
	return j.write(j.equity, []string{
		e.Time.Format(time.RFC3339),
		f(e.Balance),
		f(e.Equity),
		f(e.Min),
		f(e.Max),
	})
}

func (j *CSV) Close() error {
	j.deals.Flush()
	if err := j.deals.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.df.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
