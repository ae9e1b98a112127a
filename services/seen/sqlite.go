package seen

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"bidwatcher/internal/listing"
	"bidwatcher/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS reported (
	identity_key TEXT PRIMARY KEY,
	last_price   REAL NOT NULL,
	last_run     TEXT NOT NULL,
	reported_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteStore is the durable ledger. A single file is plenty: one process
// writes it, and the table never grows past the count of distinct listings
// ever reported.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the ledger at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewStore("failed to open seen store", err)
	}
	db.SetMaxOpenConns(1) // sqlite wants a single writer
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.NewStore("failed to ping seen store", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.NewStore("failed to migrate seen store", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT identity_key, last_price FROM reported`)
	if err != nil {
		return nil, errors.NewStore("failed to load reported listings", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var key string
		var price float64
		if err := rows.Scan(&key, &price); err != nil {
			return nil, errors.NewStore("failed to scan reported listing", err)
		}
		out[key] = price
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStore("failed to iterate reported listings", err)
	}
	return out, nil
}

func (s *SQLiteStore) MarkReported(ctx context.Context, recs []listing.Record, runID string) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStore("failed to begin seen store transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reported (identity_key, last_price, last_run, reported_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(identity_key) DO UPDATE SET
			last_price  = excluded.last_price,
			last_run    = excluded.last_run,
			reported_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return errors.NewStore("failed to prepare seen store upsert", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.IdentityKey, rec.CurrentBid, runID); err != nil {
			return errors.NewStore("failed to upsert reported listing", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStore("failed to commit seen store transaction", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
