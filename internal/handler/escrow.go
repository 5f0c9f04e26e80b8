package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medshift/marketplace/internal/domain"
	"github.com/medshift/marketplace/internal/fees"
	"github.com/medshift/marketplace/internal/service"
)

// EscrowHandler exposes the escrow ledger over HTTP.
type EscrowHandler struct {
	escrow *service.EscrowService
	calc   *fees.Calculator
}

// NewEscrowHandler creates a new EscrowHandler.
func NewEscrowHandler(escrow *service.EscrowService, calc *fees.Calculator) *EscrowHandler {
	return &EscrowHandler{escrow: escrow, calc: calc}
}

type createEscrowRequest struct {
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=instant scheduled"`
}

type createEscrowResponse struct {
	Escrow *domain.EscrowDetails `json:"escrow"`
	Fees   fees.Breakdown        `json:"fees"`
}

// Create opens an escrow for a job. The platform fee is computed here from
// the requested amount and payment method; the ledger receives both.
func (h *EscrowHandler) Create(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.NotFoundError(domain.CodeJobNotFound, "job not found")
	}
	actorID, ok := ActorID(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req createEscrowRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrInvalidInput
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	breakdown, err := h.calc.Calculate(req.Amount, fees.PaymentMethod(req.PaymentMethod))
	if err != nil {
		return err
	}

	details, err := h.escrow.CreateEscrow(c.Request().Context(), jobID, req.Amount, breakdown.PlatformFee, actorID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusCreated, createEscrowResponse{Escrow: details, Fees: breakdown})
}

// ProcessPayment charges the gateway and moves the escrow into holding.
func (h *EscrowHandler) ProcessPayment(c echo.Context) error {
	escrowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.NotFoundError(domain.CodeEscrowNotFound, "escrow transaction not found")
	}
	actorID, ok := ActorID(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	result, err := h.escrow.ProcessPayment(c.Request().Context(), escrowID, actorID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, result)
}

type settleEscrowRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required"`
}

// Release pays the held funds out and marks the job paid.
func (h *EscrowHandler) Release(c echo.Context) error {
	return h.settle(c, h.escrow.ReleaseEscrow)
}

// Refund returns the held funds to the payer and cancels the job.
func (h *EscrowHandler) Refund(c echo.Context) error {
	return h.settle(c, h.escrow.RefundEscrow)
}

type settleOp func(ctx context.Context, escrowID uuid.UUID, amount int64, reason string, actorID uuid.UUID) error

func (h *EscrowHandler) settle(c echo.Context, op settleOp) error {
	escrowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.NotFoundError(domain.CodeEscrowNotFound, "escrow transaction not found")
	}
	actorID, ok := ActorID(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req settleEscrowRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrInvalidInput
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := op(c.Request().Context(), escrowID, req.Amount, req.Reason, actorID); err != nil {
		return err
	}

	return JSON(c, http.StatusOK, map[string]bool{"success": true})
}

// Get returns the enriched escrow view.
func (h *EscrowHandler) Get(c echo.Context) error {
	escrowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.NotFoundError(domain.CodeEscrowNotFound, "escrow transaction not found")
	}

	details, err := h.escrow.EscrowDetails(c.Request().Context(), escrowID)
	if err != nil {
		return err
	}
	if details == nil {
		return domain.NotFoundError(domain.CodeEscrowNotFound, "escrow transaction not found")
	}

	return JSON(c, http.StatusOK, details)
}

// GetByJob returns the escrow transaction owned by a job.
func (h *EscrowHandler) GetByJob(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.NotFoundError(domain.CodeJobNotFound, "job not found")
	}

	esc, err := h.escrow.EscrowByJobID(c.Request().Context(), jobID)
	if err != nil {
		return err
	}
	if esc == nil {
		return domain.NotFoundError(domain.CodeEscrowNotFound, "escrow transaction not found")
	}

	return JSON(c, http.StatusOK, esc)
}

// FeeQuote computes a fee breakdown without touching any state.
func (h *EscrowHandler) FeeQuote(c echo.Context) error {
	amount, err := strconv.ParseInt(c.QueryParam("amount"), 10, 64)
	if err != nil {
		return domain.ValidationFailure(domain.CodeInvalidAmount,
			"amount must be an integer number of minor units")
	}

	breakdown, err := h.calc.Calculate(amount, fees.PaymentMethod(c.QueryParam("method")))
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, breakdown)
}
