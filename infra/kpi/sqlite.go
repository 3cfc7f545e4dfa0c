package kpi

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	corekpi "github.com/fjtyk95/bankoptimize/core/kpi"
)

// SQLiteStore persists KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS run_kpi (
        run_id TEXT PRIMARY KEY,
        ts INTEGER,
        total_fee INTEGER,
        total_shortfall INTEGER,
        runtime_sec REAL,
        status TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append inserts the run record.
func (s *SQLiteStore) Append(ctx context.Context, rec corekpi.Record) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO run_kpi (run_id, ts, total_fee, total_shortfall, runtime_sec, status)
        VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Timestamp.UTC().Unix(), rec.TotalFee, rec.TotalShortfall, rec.RuntimeSec, rec.Status)
	return err
}

// Recent returns records newer than days, oldest first.
func (s *SQLiteStore) Recent(ctx context.Context, days int) ([]corekpi.Record, error) {
	threshold := time.Now().AddDate(0, 0, -days).Unix()
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, ts, total_fee, total_shortfall, runtime_sec, status
        FROM run_kpi WHERE ts >= ? ORDER BY ts`, threshold)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []corekpi.Record
	for rows.Next() {
		var r corekpi.Record
		var ts int64
		if err := rows.Scan(&r.RunID, &ts, &r.TotalFee, &r.TotalShortfall, &r.RuntimeSec, &r.Status); err != nil {
			return nil, err
		}
		r.Timestamp = time.Unix(ts, 0).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
