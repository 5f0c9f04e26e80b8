// Package payment holds implementations of the payment gateway interface.
// Only the mock exists today; a real processor integration slots in behind
// the same interface.
package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medshift/marketplace/internal/service"
)

// MockGateway is an always-succeeding payment gateway for development and
// tests. Charges never fail and move no real money.
type MockGateway struct{}

// NewMockGateway creates a MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Charge acknowledges the charge with a synthetic transaction ID of the
// shape mock_tx_<timestamp>_<random>.
func (g *MockGateway) Charge(_ context.Context, _ uuid.UUID, _ int64) (service.ChargeResult, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return service.ChargeResult{}, fmt.Errorf("generate transaction id: %w", err)
	}
	return service.ChargeResult{
		TransactionID: fmt.Sprintf("mock_tx_%d_%s", time.Now().Unix(), hex.EncodeToString(suffix)),
	}, nil
}
