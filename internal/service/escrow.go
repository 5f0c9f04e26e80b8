package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medshift/marketplace/internal/domain"
)

// EscrowService is the escrow ledger: it owns the custody state machine
//
//	awaiting -> holding -> released | refunded
//
// and keeps every transition atomic with the owning job's status. It depends
// only on the Store, PaymentGateway and AuditSink interfaces, never on
// concrete implementations.
type EscrowService struct {
	store   Store
	gateway PaymentGateway
	audit   AuditSink
	now     func() time.Time
}

// NewEscrowService creates an EscrowService.
func NewEscrowService(store Store, gateway PaymentGateway, audit AuditSink) *EscrowService {
	return &EscrowService{
		store:   store,
		gateway: gateway,
		audit:   audit,
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (s *EscrowService) SetNowFunc(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ProcessPaymentResult reports a processed payment back to the caller.
type ProcessPaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
}

// CreateEscrow opens the escrow for a job that has an accepted contract.
// The escrow row and the job-status write commit in one transaction; the job
// must be in the escrow-holding state an accepted job order produces, and
// must not already own an escrow. Returns the enriched view with the job
// title and payer display name.
func (s *EscrowService) CreateEscrow(ctx context.Context, jobID uuid.UUID, amount, platformFee int64, actorID uuid.UUID) (*domain.EscrowDetails, error) {
	if amount <= 0 {
		return nil, domain.ValidationFailure(domain.CodeInvalidAmount,
			"escrow amount must be positive")
	}
	if platformFee < 0 {
		return nil, domain.ValidationFailure(domain.CodeInvalidAmount,
			"platform fee must not be negative")
	}

	esc := &domain.EscrowTransaction{
		ID:          uuid.New(),
		JobID:       jobID,
		Amount:      amount,
		PlatformFee: platformFee,
		Status:      domain.EscrowStatusAwaiting,
	}

	err := s.store.InTx(ctx, func(ctx context.Context) error {
		job, err := s.store.JobForUpdate(ctx, jobID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFoundError(domain.CodeJobNotFound, "job not found")
			}
			return storeFailure(err)
		}

		if _, err := s.store.EscrowByJobID(ctx, jobID); err == nil {
			return domain.BusinessError(domain.CodeEscrowAlreadyExists,
				"an escrow transaction already exists for this job")
		} else if !errors.Is(err, domain.ErrNotFound) {
			return storeFailure(err)
		}

		if job.Status != domain.JobStatusEscrowHolding {
			return domain.BusinessError(domain.CodeInvalidJobStatus,
				"job is not in a contracted state that permits escrow creation")
		}

		if err := s.store.CreateEscrow(ctx, esc); err != nil {
			return storeFailure(err)
		}
		return storeFailure(s.store.UpdateJobStatus(ctx, jobID, domain.JobStatusEscrowHolding))
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(context.WithoutCancel(ctx), domain.AuditEntry{
		ActorID: actorID,
		Action:  domain.AuditEscrowCreated,
		Target:  domain.EscrowTarget(esc.ID),
		Metadata: map[string]any{
			"job_id":       jobID.String(),
			"amount":       amount,
			"platform_fee": platformFee,
			"status":       esc.Status,
		},
	})

	details, err := s.store.EscrowDetails(ctx, esc.ID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return details, nil
}

// ProcessPayment charges the payment gateway and, on success, moves the
// escrow from awaiting into holding. A gateway failure rolls the transaction
// back with the escrow untouched; no retry is attempted here.
func (s *EscrowService) ProcessPayment(ctx context.Context, escrowID, actorID uuid.UUID) (ProcessPaymentResult, error) {
	var (
		result ProcessPaymentResult
		amount int64
	)

	err := s.store.InTx(ctx, func(ctx context.Context) error {
		esc, err := s.store.EscrowForUpdate(ctx, escrowID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFoundError(domain.CodeEscrowNotFound, "escrow transaction not found")
			}
			return storeFailure(err)
		}

		if esc.Status != domain.EscrowStatusAwaiting {
			return domain.BusinessError(domain.CodeInvalidEscrowStatus,
				"payment has already been processed for this escrow")
		}

		charge, err := s.gateway.Charge(ctx, escrowID, esc.Amount)
		if err != nil {
			return domain.SystemError(domain.CodePaymentGatewayFailed,
				"payment could not be processed", err)
		}

		if err := s.store.SetEscrowHolding(ctx, escrowID); err != nil {
			return storeFailure(err)
		}

		amount = esc.Amount
		result = ProcessPaymentResult{Success: true, TransactionID: charge.TransactionID}
		return nil
	})
	if err != nil {
		return ProcessPaymentResult{}, err
	}

	s.audit.Log(context.WithoutCancel(ctx), domain.AuditEntry{
		ActorID: actorID,
		Action:  domain.AuditPaymentProcessed,
		Target:  domain.EscrowTarget(escrowID),
		Metadata: map[string]any{
			"transaction_id": result.TransactionID,
			"amount":         amount,
			"status":         domain.EscrowStatusHolding,
		},
	})

	return result, nil
}

// ReleaseEscrow pays the held funds out: escrow to the terminal released
// state, job to paid, both in one transaction.
func (s *EscrowService) ReleaseEscrow(ctx context.Context, escrowID uuid.UUID, releaseAmount int64, reason string, actorID uuid.UUID) error {
	return s.settle(ctx, escrowID, releaseAmount, reason, actorID, settleRelease)
}

// RefundEscrow returns the held funds to the payer: escrow to the terminal
// refunded state, job to cancelled, both in one transaction.
func (s *EscrowService) RefundEscrow(ctx context.Context, escrowID uuid.UUID, refundAmount int64, reason string, actorID uuid.UUID) error {
	return s.settle(ctx, escrowID, refundAmount, reason, actorID, settleRefund)
}

type settleMode int

const (
	settleRelease settleMode = iota
	settleRefund
)

func (m settleMode) amountCode() string {
	if m == settleRelease {
		return domain.CodeInvalidReleaseAmount
	}
	return domain.CodeInvalidRefundAmount
}

// settle is the shared terminal transition for release and refund. The two
// operations differ only in the terminal status, the job's final status and
// the audit action.
func (s *EscrowService) settle(ctx context.Context, escrowID uuid.UUID, amount int64, reason string, actorID uuid.UUID, mode settleMode) error {
	if amount <= 0 {
		return domain.ValidationFailure(mode.amountCode(), "settlement amount must be positive")
	}

	var jobID uuid.UUID

	err := s.store.InTx(ctx, func(ctx context.Context) error {
		esc, err := s.store.EscrowForUpdate(ctx, escrowID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFoundError(domain.CodeEscrowNotFound, "escrow transaction not found")
			}
			return storeFailure(err)
		}

		if esc.Status != domain.EscrowStatusHolding {
			return domain.BusinessError(domain.CodeInvalidEscrowStatus,
				"escrow is not holding funds")
		}

		// Partial settlement (amount < esc.Amount) passes validation but the
		// remainder is not tracked anywhere yet. TODO: decide whether partial
		// release should be rejected or carry a running balance before a real
		// gateway replaces the mock.
		if amount > esc.Amount {
			return domain.BusinessError(mode.amountCode(),
				"settlement amount exceeds the escrowed amount")
		}

		jobID = esc.JobID
		now := s.now()

		if mode == settleRelease {
			if err := s.store.SetEscrowReleased(ctx, escrowID, now); err != nil {
				return storeFailure(err)
			}
			return storeFailure(s.store.UpdateJobStatus(ctx, jobID, domain.JobStatusPaid))
		}
		if err := s.store.SetEscrowRefunded(ctx, escrowID, now); err != nil {
			return storeFailure(err)
		}
		return storeFailure(s.store.UpdateJobStatus(ctx, jobID, domain.JobStatusCancelled))
	})
	if err != nil {
		return err
	}

	action := domain.AuditEscrowReleased
	amountKey := "release_amount"
	if mode == settleRefund {
		action = domain.AuditEscrowRefunded
		amountKey = "refund_amount"
	}
	s.audit.Log(context.WithoutCancel(ctx), domain.AuditEntry{
		ActorID: actorID,
		Action:  action,
		Target:  domain.EscrowTarget(escrowID),
		Metadata: map[string]any{
			amountKey: amount,
			"reason":  reason,
			"job_id":  jobID.String(),
		},
	})

	return nil
}

// EscrowByID returns the escrow transaction, or nil without error when none
// exists.
func (s *EscrowService) EscrowByID(ctx context.Context, escrowID uuid.UUID) (*domain.EscrowTransaction, error) {
	esc, err := s.store.EscrowByID(ctx, escrowID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, storeFailure(err)
	}
	return esc, nil
}

// EscrowByJobID returns the job's escrow transaction, or nil without error
// when none exists.
func (s *EscrowService) EscrowByJobID(ctx context.Context, jobID uuid.UUID) (*domain.EscrowTransaction, error) {
	esc, err := s.store.EscrowByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, storeFailure(err)
	}
	return esc, nil
}

// EscrowDetails returns the enriched escrow view, or nil without error when
// none exists.
func (s *EscrowService) EscrowDetails(ctx context.Context, escrowID uuid.UUID) (*domain.EscrowDetails, error) {
	details, err := s.store.EscrowDetails(ctx, escrowID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, storeFailure(err)
	}
	return details, nil
}

// storeFailure wraps unexpected persistence errors as system failures while
// letting nils and already-classified domain errors pass through.
func storeFailure(err error) error {
	if err == nil {
		return nil
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		return err
	}
	return domain.SystemError(domain.CodeStoreFailure, "storage operation failed", err)
}
