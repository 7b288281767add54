package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// RecordDeal stores a deal. Recording the same deal id again replaces it,
// so replays into an existing database stay idempotent.
func (j *SQLite) RecordDeal(d DealRecord) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO deals
		(deal_id, account, instrument, class, side, volume, open_price, close_price,
		 open_time, close_time, gain_loss, gain_min, gain_max, commission)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.DealID, d.Account, d.Instrument, d.Class, d.Side, d.Volume, d.OpenPrice, d.ClosePrice,
		d.OpenTime, d.CloseTime, d.GainLoss, d.GainMin, d.GainMax, d.Commission,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, balance, equity, min, max)
		VALUES (?, ?, ?, ?, ?)`,
		e.Time, e.Balance, e.Equity, e.Min, e.Max,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
