// Package fees computes the platform and payment-processing fees applied to
// escrowed amounts. The calculator is pure: same inputs, same breakdown,
// no I/O.
package fees

import (
	"fmt"

	"github.com/medshift/marketplace/internal/domain"
)

// PaymentMethod selects the payout path and with it the processing fee rate.
type PaymentMethod string

const (
	PaymentMethodInstant   PaymentMethod = "instant"
	PaymentMethodScheduled PaymentMethod = "scheduled"
)

// Config holds the fee policy. Rates are basis points so fee math stays in
// integers; amounts and fee bounds are minor units of Currency.
type Config struct {
	PlatformFeeBps  int64
	InstantFeeBps   int64
	ScheduledFeeBps int64
	MinimumFee      int64
	MaximumFee      int64
	Currency        string
}

// DefaultConfig is the platform fee policy: 10% platform fee, 3% instant /
// 1% scheduled processing fee, each clamped to [100, 10000] minor units.
func DefaultConfig() Config {
	return Config{
		PlatformFeeBps:  1000,
		InstantFeeBps:   300,
		ScheduledFeeBps: 100,
		MinimumFee:      100,
		MaximumFee:      10000,
		Currency:        "USD",
	}
}

// Validate checks the policy is internally consistent.
func (c Config) Validate() error {
	if c.PlatformFeeBps < 0 || c.PlatformFeeBps > 10_000 {
		return fmt.Errorf("platform fee bps out of range: %d", c.PlatformFeeBps)
	}
	if c.InstantFeeBps < 0 || c.InstantFeeBps > 10_000 {
		return fmt.Errorf("instant fee bps out of range: %d", c.InstantFeeBps)
	}
	if c.ScheduledFeeBps < 0 || c.ScheduledFeeBps > 10_000 {
		return fmt.Errorf("scheduled fee bps out of range: %d", c.ScheduledFeeBps)
	}
	if c.MinimumFee < 0 || c.MaximumFee < c.MinimumFee {
		return fmt.Errorf("fee bounds invalid: min=%d max=%d", c.MinimumFee, c.MaximumFee)
	}
	if c.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	return nil
}

// Breakdown is the result of a fee calculation, including the rates that
// produced it.
type Breakdown struct {
	BaseAmount     int64         `json:"base_amount"`
	PlatformFee    int64         `json:"platform_fee"`
	PaymentFee     int64         `json:"payment_fee"`
	TotalFee       int64         `json:"total_fee"`
	NetAmount      int64         `json:"net_amount"`
	PlatformFeeBps int64         `json:"platform_fee_bps"`
	PaymentFeeBps  int64         `json:"payment_fee_bps"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	Currency       string        `json:"currency"`
}

// Calculator applies a fee policy to amounts. Construct with NewCalculator;
// the policy is fixed for the calculator's lifetime.
type Calculator struct {
	cfg Config
}

// NewCalculator builds a calculator over the given policy.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate computes the fees for a gross amount paid out via method.
//
// Both fees are clamped to [MinimumFee, MaximumFee]: the minimum is a flat
// floor even when amount×rate falls below it, so tiny transactions always
// cost at least twice the minimum in combined fees, and the maximum caps
// very large transactions. NetAmount is never floored at zero; a negative
// net means the caller let an amount below twice the minimum through and is
// a logic error upstream, not something to hide here.
func (c *Calculator) Calculate(amount int64, method PaymentMethod) (Breakdown, error) {
	if amount <= 0 {
		return Breakdown{}, domain.ValidationFailure(domain.CodeInvalidAmount,
			"amount must be a positive number of minor units")
	}

	var paymentBps int64
	switch method {
	case PaymentMethodInstant:
		paymentBps = c.cfg.InstantFeeBps
	case PaymentMethodScheduled:
		paymentBps = c.cfg.ScheduledFeeBps
	default:
		return Breakdown{}, domain.ValidationFailure(domain.CodeInvalidPaymentMethod,
			fmt.Sprintf("unknown payment method %q", method))
	}

	platformFee := c.clamp(amount * c.cfg.PlatformFeeBps / 10_000)
	paymentFee := c.clamp(amount * paymentBps / 10_000)
	totalFee := platformFee + paymentFee

	return Breakdown{
		BaseAmount:     amount,
		PlatformFee:    platformFee,
		PaymentFee:     paymentFee,
		TotalFee:       totalFee,
		NetAmount:      amount - totalFee,
		PlatformFeeBps: c.cfg.PlatformFeeBps,
		PaymentFeeBps:  paymentBps,
		PaymentMethod:  method,
		Currency:       c.cfg.Currency,
	}, nil
}

func (c *Calculator) clamp(fee int64) int64 {
	if fee > c.cfg.MaximumFee {
		fee = c.cfg.MaximumFee
	}
	if fee < c.cfg.MinimumFee {
		fee = c.cfg.MinimumFee
	}
	return fee
}
