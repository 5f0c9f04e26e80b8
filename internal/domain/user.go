package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes the two sides of the marketplace.
type UserRole string

const (
	UserRoleOrganizer UserRole = "organizer"
	UserRoleNurse     UserRole = "nurse"
)

// User represents a marketplace participant. Account management lives
// outside this service; users exist here so escrow views can name the payer
// and audit entries reference real actors.
type User struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Role        UserRole  `json:"role" db:"role"`
	Email       string    `json:"email" db:"email"`
	DisplayName string    `json:"display_name" db:"display_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
