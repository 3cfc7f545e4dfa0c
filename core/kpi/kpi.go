// Package kpi defines the per-run operational record appended after every
// optimization and the store abstraction that persists it. Records are for
// observability only; the optimizer never reads them back.
package kpi

import (
	"context"
	"time"
)

// Record captures the headline numbers of one optimization run.
type Record struct {
	RunID          string    `json:"run_id"`
	Timestamp      time.Time `json:"timestamp"`
	TotalFee       int64     `json:"total_fee"`
	TotalShortfall int64     `json:"total_shortfall"`
	RuntimeSec     float64   `json:"runtime_sec"`
	Status         string    `json:"status"`
}

// Store persists Records append-only and supports retrieving recent runs.
type Store interface {
	Append(ctx context.Context, rec Record) error
	// Recent returns records newer than the given number of days, oldest
	// first.
	Recent(ctx context.Context, days int) ([]Record, error)
	Close() error
}
