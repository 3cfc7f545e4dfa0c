package kpi

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	corekpi "github.com/fjtyk95/bankoptimize/core/kpi"
)

// JSONLStore appends KPI records to a JSONL file, one line per run.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONLStore creates the file if needed and returns the store.
func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

// Append writes the record as one JSON line.
func (s *JSONLStore) Append(ctx context.Context, rec corekpi.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	return enc.Encode(rec)
}

// Recent returns records newer than days, in file (append) order. Lines
// that fail to parse are skipped rather than failing the whole read.
func (s *JSONLStore) Recent(ctx context.Context, days int) ([]corekpi.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	threshold := time.Now().AddDate(0, 0, -days)
	var res []corekpi.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r corekpi.Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			continue
		}
		if r.Timestamp.Before(threshold) {
			continue
		}
		res = append(res, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *JSONLStore) Close() error { return nil }
