package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medshift/marketplace/internal/domain"
)

// Store defines the persistence interface consumed by the escrow and
// contract services. Implemented by repository.Store; reads that need row
// locks and all writes are only meaningful inside InTx.
type Store interface {
	// InTx runs fn in a single transaction: writes issued with the context
	// fn receives commit together or not at all.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	JobByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	JobForUpdate(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error

	CreateEscrow(ctx context.Context, esc *domain.EscrowTransaction) error
	EscrowByID(ctx context.Context, id uuid.UUID) (*domain.EscrowTransaction, error)
	EscrowForUpdate(ctx context.Context, id uuid.UUID) (*domain.EscrowTransaction, error)
	EscrowByJobID(ctx context.Context, jobID uuid.UUID) (*domain.EscrowTransaction, error)
	EscrowDetails(ctx context.Context, id uuid.UUID) (*domain.EscrowDetails, error)
	SetEscrowHolding(ctx context.Context, id uuid.UUID) error
	SetEscrowReleased(ctx context.Context, id uuid.UUID, at time.Time) error
	SetEscrowRefunded(ctx context.Context, id uuid.UUID, at time.Time) error

	CreateJobOrder(ctx context.Context, order *domain.JobOrder) error
	OrderByID(ctx context.Context, id uuid.UUID) (*domain.JobOrder, error)
	OrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.JobOrder, error)
	LatestOrderByJobID(ctx context.Context, jobID uuid.UUID) (*domain.JobOrder, error)
	OrdersForJob(ctx context.Context, jobID uuid.UUID) ([]domain.JobOrder, error)
	SetOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, rejectionReason *string, acceptedAt *time.Time) error
	HasAcceptedOrder(ctx context.Context, jobID, exclude uuid.UUID) (bool, error)
}

// ChargeResult is the gateway's acknowledgement of a successful charge. The
// transaction ID is gateway-supplied and treated as opaque; it is persisted
// only in audit metadata.
type ChargeResult struct {
	TransactionID string `json:"transaction_id"`
}

// PaymentGateway executes the actual funds movement into custody. A failed
// charge returns an error; the ledger surfaces it as a system failure and
// performs no retries.
type PaymentGateway interface {
	Charge(ctx context.Context, escrowID uuid.UUID, amount int64) (ChargeResult, error)
}

// AuditSink appends state-change records. Implementations must not fail the
// caller: append errors are an observability gap to surface out-of-band,
// never a reason to unwind a committed state change.
type AuditSink interface {
	Log(ctx context.Context, entry domain.AuditEntry)
}
