package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medshift/marketplace/internal/domain"
)

// JobByID retrieves a job by its ID.
func (s *Store) JobByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	var job domain.Job
	err := s.q(ctx).GetContext(ctx, &job,
		`SELECT id, organizer_id, nurse_id, title, status, created_at, updated_at
		 FROM jobs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find job %s: %w", id, err)
	}
	return &job, nil
}

// JobForUpdate retrieves a job and locks its row for the remainder of the
// enclosing transaction. Only meaningful inside InTx; the row lock
// serializes concurrent escrow and contract transitions on the same job.
func (s *Store) JobForUpdate(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	var job domain.Job
	err := s.q(ctx).GetContext(ctx, &job,
		`SELECT id, organizer_id, nurse_id, title, status, created_at, updated_at
		 FROM jobs WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock job %s: %w", id, err)
	}
	return &job, nil
}

// UpdateJobStatus sets the job's lifecycle status.
func (s *Store) UpdateJobStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update job %s status: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job %s status: %w", id, err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
