package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"barstream/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to SQLite for backfill and replay.
type Reader struct {
	db *sql.DB
}

var _ model.BarReader = (*Reader)(nil)

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// ReadBars reads bars for one exchange:symbol and interval, newer than
// afterTS. Results are ordered by timestamp ascending for correct replay
// order.
func (r *Reader) ReadBars(exchange, symbol string, interval model.Interval, afterTS int64) ([]model.Bar, error) {
	rows, err := r.db.Query(`
		SELECT symbol, exchange, interval, ts, open, high, low, close, volume, turnover, open_interest
		FROM bars
		WHERE exchange = ? AND symbol = ? AND interval = ? AND ts > ?
		ORDER BY ts ASC
	`, exchange, symbol, string(interval), afterTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// ReadAllBars reads bars of one interval across all instruments, ordered by
// timestamp.
func (r *Reader) ReadAllBars(interval model.Interval, afterTS int64) ([]model.Bar, error) {
	rows, err := r.db.Query(`
		SELECT symbol, exchange, interval, ts, open, high, low, close, volume, turnover, open_interest
		FROM bars
		WHERE interval = ? AND ts > ?
		ORDER BY ts ASC
	`, string(interval), afterTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query all bars: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

func scanBars(rows *sql.Rows) ([]model.Bar, error) {
	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var interval string
		var tsUnix int64
		if err := rows.Scan(&b.Symbol, &b.Exchange, &interval, &tsUnix,
			&b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Turnover, &b.OpenInterest); err != nil {
			return nil, fmt.Errorf("sqlite scan bars: %w", err)
		}
		b.Interval = model.Interval(interval)
		b.Timestamp = time.Unix(tsUnix, 0).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
