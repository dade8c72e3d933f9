package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Sequences hands out named, monotonically increasing counters that
// survive restarts and deletions. A value is never returned twice for the
// same name.
//
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level.
type Sequences struct {
	mu sync.Mutex
	db *sql.DB
}

func newSequences(db *sql.DB) (*Sequences, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS sequences (
		name TEXT PRIMARY KEY,
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}
	return &Sequences{db: db}, nil
}

// Next atomically returns the next value of the named counter, starting at 1.
func (s *Sequences) Next(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sequences (name, next_val) VALUES (?, 1)`, name,
	); err != nil {
		return 0, fmt.Errorf("seed sequence %q: %w", name, err)
	}

	var v int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE sequences SET next_val = next_val + 1 WHERE name = ? RETURNING next_val - 1`, name,
	).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next sequence %q: %w", name, err)
	}
	return v, nil
}

// Advance moves the named counter so the next value is strictly greater
// than floor. It never moves a counter backwards.
func (s *Sequences) Advance(ctx context.Context, name string, floor int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sequences (name, next_val) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET next_val = MAX(next_val, excluded.next_val)`,
		name, floor+1,
	)
	if err != nil {
		return fmt.Errorf("advance sequence %q: %w", name, err)
	}
	return nil
}
