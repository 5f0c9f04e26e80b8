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

const orderColumns = `id, job_id, template_type, custom_document_url, terms, status, rejection_reason, created_at, accepted_at`

// CreateJobOrder inserts a new contract offer.
func (s *Store) CreateJobOrder(ctx context.Context, order *domain.JobOrder) error {
	err := s.q(ctx).GetContext(ctx, order,
		`INSERT INTO job_orders (id, job_id, template_type, custom_document_url, terms, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+orderColumns,
		order.ID, order.JobID, order.TemplateType, order.CustomDocumentURL, order.Terms, order.Status)
	if err != nil {
		return fmt.Errorf("create job order for job %s: %w", order.JobID, err)
	}
	return nil
}

// OrderByID retrieves a job order by its ID.
func (s *Store) OrderByID(ctx context.Context, id uuid.UUID) (*domain.JobOrder, error) {
	var order domain.JobOrder
	err := s.q(ctx).GetContext(ctx, &order,
		`SELECT `+orderColumns+` FROM job_orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find job order %s: %w", id, err)
	}
	return &order, nil
}

// OrderForUpdate retrieves a job order and locks its row for the remainder
// of the enclosing transaction.
func (s *Store) OrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.JobOrder, error) {
	var order domain.JobOrder
	err := s.q(ctx).GetContext(ctx, &order,
		`SELECT `+orderColumns+` FROM job_orders WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock job order %s: %w", id, err)
	}
	return &order, nil
}

// LatestOrderByJobID retrieves the most recently created order for a job.
func (s *Store) LatestOrderByJobID(ctx context.Context, jobID uuid.UUID) (*domain.JobOrder, error) {
	var order domain.JobOrder
	err := s.q(ctx).GetContext(ctx, &order,
		`SELECT `+orderColumns+` FROM job_orders
		 WHERE job_id = $1 ORDER BY created_at DESC LIMIT 1`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find latest order for job %s: %w", jobID, err)
	}
	return &order, nil
}

// OrdersForJob lists a job's orders, most recent first. Rejected and
// superseded offers accumulate; this is the full history.
func (s *Store) OrdersForJob(ctx context.Context, jobID uuid.UUID) ([]domain.JobOrder, error) {
	orders := []domain.JobOrder{}
	err := s.q(ctx).SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM job_orders
		 WHERE job_id = $1 ORDER BY created_at DESC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list orders for job %s: %w", jobID, err)
	}
	return orders, nil
}

// SetOrderStatus updates an order's status together with the fields the new
// status implies: accepted_at iff accepted, rejection_reason iff rejected.
// The partial unique index on accepted orders per job backs the at-most-one-
// accepted invariant under concurrent acceptance.
func (s *Store) SetOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, rejectionReason *string, acceptedAt *time.Time) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE job_orders
		 SET status = $2, rejection_reason = $3, accepted_at = $4
		 WHERE id = $1`,
		id, status, rejectionReason, acceptedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.BusinessError(domain.CodeAcceptedOrderExists,
				"another order has already been accepted for this job")
		}
		return fmt.Errorf("update order %s status: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order %s status: %w", id, err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// HasAcceptedOrder reports whether the job already has an accepted order
// other than exclude.
func (s *Store) HasAcceptedOrder(ctx context.Context, jobID, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := s.q(ctx).GetContext(ctx, &exists,
		`SELECT EXISTS (
		   SELECT 1 FROM job_orders
		   WHERE job_id = $1 AND status = 'accepted' AND id <> $2
		 )`, jobID, exclude)
	if err != nil {
		return false, fmt.Errorf("check accepted order for job %s: %w", jobID, err)
	}
	return exists, nil
}
