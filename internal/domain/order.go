package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of a contract offer.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusAccepted OrderStatus = "accepted"
	OrderStatusRejected OrderStatus = "rejected"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// CompensationType selects how the contracted work is priced.
type CompensationType string

const (
	CompensationHourly CompensationType = "hourly"
	CompensationFixed  CompensationType = "fixed"
)

// Compensation is the pay component of contract terms.
type Compensation struct {
	Type     CompensationType `json:"type"`
	Amount   int64            `json:"amount"`
	Currency string           `json:"currency"`
}

// ContractTerms is the structured terms block attached to a job order.
// It is stored as a JSONB column but never handled as an opaque map:
// the nested shape below is the contract.
type ContractTerms struct {
	StartDate           time.Time    `json:"start_date"`
	EndDate             time.Time    `json:"end_date"`
	Location            string       `json:"location"`
	Compensation        Compensation `json:"compensation"`
	Responsibilities    []string     `json:"responsibilities"`
	CancellationPolicy  string       `json:"cancellation_policy"`
	SpecialRequirements []string     `json:"special_requirements,omitempty"`
}

// Value implements driver.Valuer so sqlx can store terms as JSONB.
func (t ContractTerms) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan implements sql.Scanner for reading the JSONB column back.
func (t *ContractTerms) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("scan contract terms: unsupported type %T", src)
	}
}

// JobOrder is a formal contract offer tied to a job. Exactly one of
// TemplateType and CustomDocumentURL is present: the offer is either built
// from a named template or from an uploaded document.
type JobOrder struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	JobID             uuid.UUID     `json:"job_id" db:"job_id"`
	TemplateType      *string       `json:"template_type,omitempty" db:"template_type"`
	CustomDocumentURL *string       `json:"custom_document_url,omitempty" db:"custom_document_url"`
	Terms             ContractTerms `json:"terms" db:"terms"`
	Status            OrderStatus   `json:"status" db:"status"`
	RejectionReason   *string       `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	AcceptedAt        *time.Time    `json:"accepted_at,omitempty" db:"accepted_at"`
}

// Terminal reports whether the order can no longer move forward under a
// strict reading of the workflow. Kept as a query only: see the contract
// service for why transitions out of terminal orders are still permitted.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusAccepted || s == OrderStatusRejected || s == OrderStatusCancelled
}
