// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS deals (
	deal_id TEXT PRIMARY KEY,
	account TEXT NOT NULL,
	instrument TEXT NOT NULL,
	class TEXT NOT NULL,
	side TEXT NOT NULL,
	volume REAL NOT NULL,
	open_price REAL NOT NULL,
	close_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	gain_loss REAL NOT NULL,
	gain_min REAL NOT NULL,
	gain_max REAL NOT NULL,
	commission REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL,
	min REAL NOT NULL,
	max REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deals_close_time ON deals(close_time);
CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
