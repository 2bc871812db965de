package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RunResult carries the final counters of an extraction run.
type RunResult struct {
	Seen      int
	Extracted int
	Inserted  int
	Updated   int
	Skipped   int
	Rejected  int
	Warnings  int
}

// CreateRun records the start of an extraction run and returns its ID.
func (s *Store) CreateRun(ctx context.Context) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.ExecContext(ctx,
		"INSERT INTO runs (id, status) VALUES (?, 'running')", id.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("create run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run completed and stores its counters.
func (s *Store) FinishRun(ctx context.Context, id uuid.UUID, res RunResult) error {
	_, err := s.ExecContext(ctx, `
		UPDATE runs
		SET status = 'completed',
		    finished_at = CURRENT_TIMESTAMP,
		    seen = ?, extracted = ?, inserted = ?, updated = ?,
		    skipped = ?, rejected = ?, warnings = ?
		WHERE id = ?`,
		res.Seen, res.Extracted, res.Inserted, res.Updated,
		res.Skipped, res.Rejected, res.Warnings, id.String())
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// FailRun marks a run failed with the fatal error's message. Batches
// committed before the failure stay committed.
func (s *Store) FailRun(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := s.ExecContext(ctx, `
		UPDATE runs
		SET status = 'failed', finished_at = CURRENT_TIMESTAMP, error = ?
		WHERE id = ?`,
		errMsg, id.String())
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return nil
}
