package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a job posting.
type JobStatus string

const (
	JobStatusDraft         JobStatus = "draft"
	JobStatusOpen          JobStatus = "open"
	JobStatusApplied       JobStatus = "applied"
	JobStatusContracted    JobStatus = "contracted"
	JobStatusEscrowHolding JobStatus = "escrow_holding"
	JobStatusPaid          JobStatus = "paid"
	JobStatusCancelled     JobStatus = "cancelled"
)

// Job represents an event shift posted by an organizer. A job owns at most
// one escrow transaction and at most one accepted job order at a time.
type Job struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OrganizerID uuid.UUID  `json:"organizer_id" db:"organizer_id"`
	NurseID     *uuid.UUID `json:"nurse_id,omitempty" db:"nurse_id"`
	Title       string     `json:"title" db:"title"`
	Status      JobStatus  `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
