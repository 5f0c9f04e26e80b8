package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medshift/marketplace/internal/domain"
)

const pgUniqueViolation = "23505"

const escrowColumns = `id, job_id, amount, platform_fee, status, created_at, released_at, refunded_at`

// CreateEscrow inserts a new escrow transaction. The UNIQUE constraint on
// job_id makes the single-escrow-per-job guarantee hold under concurrent
// creation; a violation surfaces as the same business error the status
// precheck raises.
func (s *Store) CreateEscrow(ctx context.Context, esc *domain.EscrowTransaction) error {
	err := s.q(ctx).GetContext(ctx, esc,
		`INSERT INTO escrow_transactions (id, job_id, amount, platform_fee, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+escrowColumns,
		esc.ID, esc.JobID, esc.Amount, esc.PlatformFee, esc.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.BusinessError(domain.CodeEscrowAlreadyExists,
				"an escrow transaction already exists for this job")
		}
		return fmt.Errorf("create escrow for job %s: %w", esc.JobID, err)
	}
	return nil
}

// EscrowByID retrieves an escrow transaction by its ID.
func (s *Store) EscrowByID(ctx context.Context, id uuid.UUID) (*domain.EscrowTransaction, error) {
	var esc domain.EscrowTransaction
	err := s.q(ctx).GetContext(ctx, &esc,
		`SELECT `+escrowColumns+` FROM escrow_transactions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find escrow %s: %w", id, err)
	}
	return &esc, nil
}

// EscrowForUpdate retrieves an escrow and locks its row for the remainder of
// the enclosing transaction.
func (s *Store) EscrowForUpdate(ctx context.Context, id uuid.UUID) (*domain.EscrowTransaction, error) {
	var esc domain.EscrowTransaction
	err := s.q(ctx).GetContext(ctx, &esc,
		`SELECT `+escrowColumns+` FROM escrow_transactions WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock escrow %s: %w", id, err)
	}
	return &esc, nil
}

// EscrowByJobID retrieves the escrow transaction owned by a job.
func (s *Store) EscrowByJobID(ctx context.Context, jobID uuid.UUID) (*domain.EscrowTransaction, error) {
	var esc domain.EscrowTransaction
	err := s.q(ctx).GetContext(ctx, &esc,
		`SELECT `+escrowColumns+` FROM escrow_transactions WHERE job_id = $1`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find escrow for job %s: %w", jobID, err)
	}
	return &esc, nil
}

// EscrowDetails retrieves an escrow joined with its job's title and the
// paying organizer's display name.
func (s *Store) EscrowDetails(ctx context.Context, id uuid.UUID) (*domain.EscrowDetails, error) {
	var details domain.EscrowDetails
	err := s.q(ctx).GetContext(ctx, &details,
		`SELECT e.id, e.job_id, e.amount, e.platform_fee, e.status,
		        e.created_at, e.released_at, e.refunded_at,
		        j.title AS job_title, u.display_name AS payer_name
		 FROM escrow_transactions e
		 JOIN jobs j ON j.id = e.job_id
		 JOIN users u ON u.id = j.organizer_id
		 WHERE e.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find escrow details %s: %w", id, err)
	}
	return &details, nil
}

// SetEscrowHolding moves an escrow from awaiting to holding.
func (s *Store) SetEscrowHolding(ctx context.Context, id uuid.UUID) error {
	return s.setEscrowStatus(ctx, id,
		`UPDATE escrow_transactions SET status = 'holding'
		 WHERE id = $1 AND status = 'awaiting'`)
}

// SetEscrowReleased moves an escrow from holding to the terminal released
// state, recording the release time.
func (s *Store) SetEscrowReleased(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.setEscrowStatus(ctx, id,
		`UPDATE escrow_transactions SET status = 'released', released_at = $2
		 WHERE id = $1 AND status = 'holding'`, at)
}

// SetEscrowRefunded moves an escrow from holding to the terminal refunded
// state, recording the refund time.
func (s *Store) SetEscrowRefunded(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.setEscrowStatus(ctx, id,
		`UPDATE escrow_transactions SET status = 'refunded', refunded_at = $2
		 WHERE id = $1 AND status = 'holding'`, at)
}

// setEscrowStatus runs a guarded status update. The WHERE clause restates
// the expected current status so a lost race shows up as zero rows affected
// rather than a silently rewritten terminal state.
func (s *Store) setEscrowStatus(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	allArgs := append([]any{id}, args...)
	res, err := s.q(ctx).ExecContext(ctx, query, allArgs...)
	if err != nil {
		return fmt.Errorf("update escrow %s status: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update escrow %s status: %w", id, err)
	}
	if affected == 0 {
		return domain.BusinessError(domain.CodeInvalidEscrowStatus,
			"escrow transaction is not in a state that permits this transition")
	}
	return nil
}
