package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medshift/marketplace/internal/domain"
	"github.com/medshift/marketplace/internal/service"
)

// ContractHandler exposes the job-order workflow over HTTP.
type ContractHandler struct {
	contracts *service.ContractService
}

// NewContractHandler creates a new ContractHandler.
func NewContractHandler(contracts *service.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

type compensationRequest struct {
	Type     string `json:"type" validate:"required,oneof=hourly fixed"`
	Amount   int64  `json:"amount" validate:"gte=0"`
	Currency string `json:"currency" validate:"required,len=3"`
}

type contractTermsRequest struct {
	StartDate           time.Time           `json:"start_date" validate:"required"`
	EndDate             time.Time           `json:"end_date" validate:"required,gtfield=StartDate"`
	Location            string              `json:"location" validate:"required"`
	Compensation        compensationRequest `json:"compensation" validate:"required"`
	Responsibilities    []string            `json:"responsibilities" validate:"required,min=1,dive,required"`
	CancellationPolicy  string              `json:"cancellation_policy" validate:"required"`
	SpecialRequirements []string            `json:"special_requirements" validate:"omitempty,dive,required"`
}

type createOrderRequest struct {
	TemplateType      *string              `json:"template_type" validate:"omitempty,min=1,excluded_with=CustomDocumentURL"`
	CustomDocumentURL *string              `json:"custom_document_url" validate:"omitempty,url,excluded_with=TemplateType"`
	Terms             contractTermsRequest `json:"terms" validate:"required"`
}

func (r createOrderRequest) toInput() service.CreateOrderInput {
	return service.CreateOrderInput{
		TemplateType:      r.TemplateType,
		CustomDocumentURL: r.CustomDocumentURL,
		Terms: domain.ContractTerms{
			StartDate: r.Terms.StartDate,
			EndDate:   r.Terms.EndDate,
			Location:  r.Terms.Location,
			Compensation: domain.Compensation{
				Type:     domain.CompensationType(r.Terms.Compensation.Type),
				Amount:   r.Terms.Compensation.Amount,
				Currency: r.Terms.Compensation.Currency,
			},
			Responsibilities:    r.Terms.Responsibilities,
			CancellationPolicy:  r.Terms.CancellationPolicy,
			SpecialRequirements: r.Terms.SpecialRequirements,
		},
	}
}

// Create offers a contract for a job.
func (h *ContractHandler) Create(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.NotFoundError(domain.CodeJobNotFound, "job not found")
	}
	actorID, ok := ActorID(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrInvalidInput
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, err := h.contracts.CreateJobOrder(c.Request().Context(), jobID, req.toInput(), actorID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusCreated, order)
}

type updateOrderStatusRequest struct {
	Status          string  `json:"status" validate:"required,oneof=accepted rejected"`
	RejectionReason *string `json:"rejection_reason" validate:"required_if=Status rejected,omitempty,min=1"`
}

// UpdateStatus accepts or rejects an offer.
func (h *ContractHandler) UpdateStatus(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.NotFoundError(domain.CodeOrderNotFound, "job order not found")
	}
	actorID, ok := ActorID(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req updateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrInvalidInput
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, err := h.contracts.UpdateJobOrderStatus(c.Request().Context(), orderID,
		domain.OrderStatus(req.Status), req.RejectionReason, actorID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, order)
}

// Get returns one order.
func (h *ContractHandler) Get(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.NotFoundError(domain.CodeOrderNotFound, "job order not found")
	}

	order, err := h.contracts.OrderByID(c.Request().Context(), orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.NotFoundError(domain.CodeOrderNotFound, "job order not found")
	}

	return JSON(c, http.StatusOK, order)
}

// ListForJob returns a job's orders, most recent first.
func (h *ContractHandler) ListForJob(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.NotFoundError(domain.CodeJobNotFound, "job not found")
	}

	orders, err := h.contracts.OrdersForJob(c.Request().Context(), jobID)
	if err != nil {
		return err
	}

	return JSON(c, http.StatusOK, orders)
}

// LatestForJob returns a job's most recent order.
func (h *ContractHandler) LatestForJob(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.NotFoundError(domain.CodeJobNotFound, "job not found")
	}

	order, err := h.contracts.OrderByJobID(c.Request().Context(), jobID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.NotFoundError(domain.CodeOrderNotFound, "job order not found")
	}

	return JSON(c, http.StatusOK, order)
}
