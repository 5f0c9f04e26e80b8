package domain

import (
	"time"

	"github.com/google/uuid"
)

// EscrowStatus represents the custody state of escrowed funds.
//
// Transitions are strictly forward:
//
//	awaiting --processPayment--> holding
//	holding  --release-->        released (terminal)
//	holding  --refund-->         refunded (terminal)
type EscrowStatus string

const (
	EscrowStatusAwaiting EscrowStatus = "awaiting"
	EscrowStatusHolding  EscrowStatus = "holding"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
)

// Terminal reports whether no further transition exists out of s.
func (s EscrowStatus) Terminal() bool {
	return s == EscrowStatusReleased || s == EscrowStatusRefunded
}

// EscrowTransaction is the custodial record for a job's payment. At most one
// exists per job; it is never deleted, cancellation is the refunded state.
// Amounts are minor units of the platform currency.
type EscrowTransaction struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	JobID       uuid.UUID    `json:"job_id" db:"job_id"`
	Amount      int64        `json:"amount" db:"amount"`
	PlatformFee int64        `json:"platform_fee" db:"platform_fee"`
	Status      EscrowStatus `json:"status" db:"status"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	ReleasedAt  *time.Time   `json:"released_at,omitempty" db:"released_at"`
	RefundedAt  *time.Time   `json:"refunded_at,omitempty" db:"refunded_at"`
}

// EscrowDetails is the enriched read view returned on creation and lookups:
// the escrow row joined with the owning job's title and the payer's display
// name. A projection for caller convenience, not a separate entity.
type EscrowDetails struct {
	EscrowTransaction
	JobTitle  string `json:"job_title" db:"job_title"`
	PayerName string `json:"payer_name" db:"payer_name"`
}
