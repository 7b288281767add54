package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roundTrip = `{"broker": "schwab", "kind": "quote", "payload": {"symbol": "AAPL", "assetMainType": "EQUITY", "quote": {"askPrice": 100, "bidPrice": 99.9}}}
{"broker": "schwab", "kind": "order", "payload": {"orderId": 1, "orderType": "MARKET", "quantity": 10, "filledQuantity": 10, "status": "FILLED", "price": 100, "enteredTime": "2026-01-24T09:30:05+0000", "orderLegCollection": [{"instruction": "BUY", "quantity": 10, "instrument": {"symbol": "AAPL", "assetType": "EQUITY"}}]}}
{"broker": "schwab", "kind": "quote", "payload": {"symbol": "AAPL", "assetMainType": "EQUITY", "quote": {"askPrice": 105, "bidPrice": 104.9}}}
{"broker": "schwab", "kind": "order", "payload": {"orderId": 2, "orderType": "MARKET", "quantity": 10, "filledQuantity": 10, "status": "FILLED", "price": 105, "enteredTime": "2026-01-24T09:31:00+0000", "orderLegCollection": [{"instruction": "SELL", "quantity": 10, "instrument": {"symbol": "AAPL", "assetType": "EQUITY"}}]}}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "terminal (dev)\n", out)
}

func TestConfig_InitValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terminal.yaml")

	out, err := run(t, "config", "init", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	out, err = run(t, "config", "validate", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Journal: sqlite")

	out, err = run(t, "--config", path, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "TERM-001")
}

func TestConfig_ValidateRejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  id: A\n  balance: 10\nbrokers: [oanda]\njournal:\n  type: none\n"), 0o644))

	_, err := run(t, "config", "validate", "-f", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown broker: oanda")

	_, err = run(t, "config", "validate")
	require.Error(t, err)
}

func TestReplayThenScore(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "terminal.sqlite")
	input := filepath.Join(dir, "session.jsonl")
	require.NoError(t, os.WriteFile(input, []byte(roundTrip), 0o644))

	out, err := run(t, "--log-level", "error", "--db", db, "replay", "--series", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed: 4 lines (4 applied, 0 failed)")
	assert.Contains(t, out, "Balance:  100000.00 -> 100050.00 (net +50.00)")
	assert.Contains(t, out, "Trades:   1 (1 wins, 0 losses, 1 long, 0 short)")
	assert.Contains(t, out, "time,instrument,value,min,max,commission,direction")

	out, err = run(t, "--log-level", "error", "--db", db, "score")
	require.NoError(t, err)
	assert.Contains(t, out, "(1 deals)")
	assert.Contains(t, out, "net +50.00")

	out, err = run(t, "--log-level", "error", "--db", db, "score", "--account", "OTHER")
	require.NoError(t, err)
	assert.Contains(t, out, "(0 deals)")
	assert.Contains(t, out, "Trades:   0")

	out, err = run(t, "--log-level", "error", "--db", db, "score", "--from", "2000-01-01", "--to", "2000-01-02")
	require.NoError(t, err)
	assert.Contains(t, out, "(0 deals)")

	var days strings.Builder
	for _, day := range []string{"2026-01-23", "2026-01-24", "2026-01-25"} {
		out, err = run(t, "--db", db, "journal", "day", day)
		require.NoError(t, err)
		days.WriteString(out)
	}
	assert.Equal(t, 1, strings.Count(days.String(), "** Deal: BUY AAPL"))
	assert.Contains(t, days.String(), ":GAIN_LOSS: 50.00")

	out, err = run(t, "--db", db, "journal", "equity", "2026-01-24")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "time,balance,equity,min,max\n"))

	_, err = run(t, "--db", db, "journal", "deal", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReplay_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "--log-level", "error", "replay", filepath.Join(dir, "missing.jsonl"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.jsonl")
	require.NoError(t, os.WriteFile(bad, []byte(`{"broker": "oanda", "kind": "quote", "payload": {}}`+"\n"), 0o644))

	_, err = run(t, "--log-level", "error", "replay", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replay "+bad)

	out, err := run(t, "--log-level", "error", "replay", "--continue", bad)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed: 1 lines (0 applied, 1 failed)")

	_, err = run(t, "score", "--from", "yesterday")
	assert.Error(t, err)
}

func TestParseBound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        string
		inclusive bool
		want      string
		wantErr   bool
	}{
		{name: "timestamp", in: "2026-01-24T09:30:00Z", want: "2026-01-24T09:30:00Z"},
		{name: "day start", in: "2026-01-24", want: "2026-01-24"},
		{name: "day inclusive", in: "2026-01-24", inclusive: true, want: "2026-01-25"},
		{name: "garbage", in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseBound(tt.in, time.Time{}, tt.inclusive)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if len(tt.want) == 10 {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			} else {
				assert.Equal(t, tt.want, got.UTC().Format("2006-01-02T15:04:05Z"))
			}
		})
	}
}
