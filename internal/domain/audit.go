package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit action tags recorded by the core for every state-changing operation.
const (
	AuditEscrowCreated        = "ESCROW_CREATED"
	AuditPaymentProcessed     = "PAYMENT_PROCESSED"
	AuditEscrowReleased       = "ESCROW_RELEASED"
	AuditEscrowRefunded       = "ESCROW_REFUNDED"
	AuditCreateJobOrder       = "CREATE_JOB_ORDER"
	AuditUpdateJobOrderStatus = "UPDATE_JOB_ORDER_STATUS"
)

// AuditEntry is one append-only record of a state-changing action. Target is
// a string reference to the affected entity, e.g. "escrow:<id>" or
// "job_order:<id>".
type AuditEntry struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	ActorID   uuid.UUID      `json:"actor_id" db:"actor_id"`
	Action    string         `json:"action" db:"action"`
	Target    string         `json:"target" db:"target"`
	Metadata  map[string]any `json:"metadata" db:"metadata"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// EscrowTarget formats the audit target reference for an escrow transaction.
func EscrowTarget(id uuid.UUID) string { return "escrow:" + id.String() }

// JobOrderTarget formats the audit target reference for a job order.
func JobOrderTarget(id uuid.UUID) string { return "job_order:" + id.String() }
