package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medshift/marketplace/internal/domain"
)

// ContractService runs the job-order workflow: an organizer offers a
// contract, the nurse accepts or rejects it. Acceptance moves the job into
// the state that gates escrow creation.
type ContractService struct {
	store Store
	audit AuditSink
	now   func() time.Time
}

// NewContractService creates a ContractService.
func NewContractService(store Store, audit AuditSink) *ContractService {
	return &ContractService{store: store, audit: audit, now: time.Now}
}

// SetNowFunc overrides the clock, for tests.
func (s *ContractService) SetNowFunc(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateOrderInput is the contract offer as it reaches the workflow, already
// shape-checked at the HTTP boundary. Exactly one of TemplateType and
// CustomDocumentURL must be set.
type CreateOrderInput struct {
	TemplateType      *string
	CustomDocumentURL *string
	Terms             domain.ContractTerms
}

// CreateJobOrder creates a pending contract offer and advances the job to
// contracted, both in one transaction.
func (s *ContractService) CreateJobOrder(ctx context.Context, jobID uuid.UUID, input CreateOrderInput, actorID uuid.UUID) (*domain.JobOrder, error) {
	if err := validateOrderInput(input); err != nil {
		return nil, err
	}

	order := &domain.JobOrder{
		ID:                uuid.New(),
		JobID:             jobID,
		TemplateType:      input.TemplateType,
		CustomDocumentURL: input.CustomDocumentURL,
		Terms:             input.Terms,
		Status:            domain.OrderStatusPending,
	}

	err := s.store.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.JobForUpdate(ctx, jobID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFoundError(domain.CodeJobNotFound, "job not found")
			}
			return storeFailure(err)
		}
		if err := s.store.CreateJobOrder(ctx, order); err != nil {
			return storeFailure(err)
		}
		return storeFailure(s.store.UpdateJobStatus(ctx, jobID, domain.JobStatusContracted))
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(context.WithoutCancel(ctx), domain.AuditEntry{
		ActorID: actorID,
		Action:  domain.AuditCreateJobOrder,
		Target:  domain.JobOrderTarget(order.ID),
		Metadata: map[string]any{
			"job_id":          jobID.String(),
			"template_type":   input.TemplateType,
			"custom_document": input.CustomDocumentURL != nil,
		},
	})

	return order, nil
}

// UpdateJobOrderStatus accepts or rejects an offer. Acceptance stamps
// accepted_at and moves the job into escrow_holding; rejection requires a
// reason and regresses the job to applied. Either way the order and job
// writes share one transaction.
//
// There is deliberately no guard against re-transitioning an order that is
// already accepted or rejected; see the regression test before tightening.
func (s *ContractService) UpdateJobOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, rejectionReason *string, actorID uuid.UUID) (*domain.JobOrder, error) {
	if status != domain.OrderStatusAccepted && status != domain.OrderStatusRejected {
		return nil, domain.ValidationFailure(domain.CodeInvalidOrderStatus,
			"status must be accepted or rejected")
	}
	if status == domain.OrderStatusRejected &&
		(rejectionReason == nil || strings.TrimSpace(*rejectionReason) == "") {
		return nil, domain.ValidationFailure(domain.CodeRejectionReasonMissing,
			"a rejection reason is required when rejecting an order")
	}

	var updated *domain.JobOrder

	err := s.store.InTx(ctx, func(ctx context.Context) error {
		order, err := s.store.OrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFoundError(domain.CodeOrderNotFound, "job order not found")
			}
			return storeFailure(err)
		}

		if _, err := s.store.JobForUpdate(ctx, order.JobID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFoundError(domain.CodeJobNotFound, "job not found")
			}
			return storeFailure(err)
		}

		switch status {
		case domain.OrderStatusAccepted:
			taken, err := s.store.HasAcceptedOrder(ctx, order.JobID, order.ID)
			if err != nil {
				return storeFailure(err)
			}
			if taken {
				return domain.BusinessError(domain.CodeAcceptedOrderExists,
					"another order has already been accepted for this job")
			}
			now := s.now()
			if err := s.store.SetOrderStatus(ctx, orderID, status, nil, &now); err != nil {
				return storeFailure(err)
			}
			if err := s.store.UpdateJobStatus(ctx, order.JobID, domain.JobStatusEscrowHolding); err != nil {
				return storeFailure(err)
			}
		case domain.OrderStatusRejected:
			if err := s.store.SetOrderStatus(ctx, orderID, status, rejectionReason, nil); err != nil {
				return storeFailure(err)
			}
			if err := s.store.UpdateJobStatus(ctx, order.JobID, domain.JobStatusApplied); err != nil {
				return storeFailure(err)
			}
		}

		updated, err = s.store.OrderByID(ctx, orderID)
		return storeFailure(err)
	})
	if err != nil {
		return nil, err
	}

	var reason any
	if rejectionReason != nil {
		reason = *rejectionReason
	}
	s.audit.Log(context.WithoutCancel(ctx), domain.AuditEntry{
		ActorID: actorID,
		Action:  domain.AuditUpdateJobOrderStatus,
		Target:  domain.JobOrderTarget(orderID),
		Metadata: map[string]any{
			"new_status":       status,
			"rejection_reason": reason,
		},
	})

	return updated, nil
}

// OrderByID returns the order, or nil without error when none exists.
func (s *ContractService) OrderByID(ctx context.Context, orderID uuid.UUID) (*domain.JobOrder, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, storeFailure(err)
	}
	return order, nil
}

// OrderByJobID returns the job's most recent order, or nil without error
// when the job has none.
func (s *ContractService) OrderByJobID(ctx context.Context, jobID uuid.UUID) (*domain.JobOrder, error) {
	order, err := s.store.LatestOrderByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, storeFailure(err)
	}
	return order, nil
}

// OrdersForJob lists a job's orders, most recent first.
func (s *ContractService) OrdersForJob(ctx context.Context, jobID uuid.UUID) ([]domain.JobOrder, error) {
	orders, err := s.store.OrdersForJob(ctx, jobID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return orders, nil
}

// validateOrderInput re-checks the contract offer invariants the HTTP layer
// enforces, so the workflow stays safe when invoked programmatically.
func validateOrderInput(input CreateOrderInput) error {
	hasTemplate := input.TemplateType != nil && strings.TrimSpace(*input.TemplateType) != ""
	hasDocument := input.CustomDocumentURL != nil && strings.TrimSpace(*input.CustomDocumentURL) != ""
	if hasTemplate == hasDocument {
		return domain.ValidationFailure(domain.CodeInvalidContractSource,
			"exactly one of template_type and custom_document_url must be provided")
	}

	t := input.Terms
	if !t.EndDate.After(t.StartDate) {
		return domain.ValidationFailure(domain.CodeInvalidContractTerms,
			"end date must be after start date")
	}
	if strings.TrimSpace(t.Location) == "" {
		return domain.ValidationFailure(domain.CodeInvalidContractTerms,
			"location is required")
	}
	if len(t.Responsibilities) == 0 {
		return domain.ValidationFailure(domain.CodeInvalidContractTerms,
			"at least one responsibility is required")
	}
	if strings.TrimSpace(t.CancellationPolicy) == "" {
		return domain.ValidationFailure(domain.CodeInvalidContractTerms,
			"a cancellation policy is required")
	}
	if t.Compensation.Type != domain.CompensationHourly && t.Compensation.Type != domain.CompensationFixed {
		return domain.ValidationFailure(domain.CodeInvalidContractTerms,
			"compensation type must be hourly or fixed")
	}
	if t.Compensation.Amount < 0 {
		return domain.ValidationFailure(domain.CodeInvalidContractTerms,
			"compensation amount must not be negative")
	}
	return nil
}
