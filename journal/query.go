package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const dealColumns = `deal_id, account, instrument, class, side, volume, open_price, close_price,
	open_time, close_time, gain_loss, gain_min, gain_max, commission`

type scanner interface {
	Scan(dest ...any) error
}

func scanDeal(s scanner) (DealRecord, error) {
	var rec DealRecord
	err := s.Scan(
		&rec.DealID,
		&rec.Account,
		&rec.Instrument,
		&rec.Class,
		&rec.Side,
		&rec.Volume,
		&rec.OpenPrice,
		&rec.ClosePrice,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.GainLoss,
		&rec.GainMin,
		&rec.GainMax,
		&rec.Commission,
	)
	return rec, err
}

// GetDeal returns a single deal by ID.
func (j *SQLite) GetDeal(dealID string) (DealRecord, error) {
	row := j.db.QueryRow(`SELECT `+dealColumns+` FROM deals WHERE deal_id = ?`, dealID)

	rec, err := scanDeal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DealRecord{}, fmt.Errorf("deal %q not found", dealID)
		}
		return DealRecord{}, err
	}
	return rec, nil
}

// ListDeals returns every deal ordered by open time.
func (j *SQLite) ListDeals() ([]DealRecord, error) {
	return j.queryDeals(`SELECT ` + dealColumns + ` FROM deals ORDER BY open_time ASC, deal_id ASC`)
}

// ListDealsClosedBetween returns deals whose close_time is within [start, end).
func (j *SQLite) ListDealsClosedBetween(start, end time.Time) ([]DealRecord, error) {
	return j.queryDeals(`
		SELECT `+dealColumns+`
		FROM deals
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start, end)
}

func (j *SQLite) queryDeals(query string, args ...any) ([]DealRecord, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DealRecord
	for rows.Next() {
		rec, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquity returns equity points within [start, end) in time order.
func (j *SQLite) ListEquity(start, end time.Time) ([]EquityRecord, error) {
	rows, err := j.db.Query(`
		SELECT time, balance, equity, min, max
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var rec EquityRecord
		if err := rows.Scan(&rec.Time, &rec.Balance, &rec.Equity, &rec.Min, &rec.Max); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
