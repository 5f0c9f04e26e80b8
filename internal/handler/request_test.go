package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTermsRequest() contractTermsRequest {
	return contractTermsRequest{
		StartDate: time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC),
		Location:  "Riverside fairground, main tent",
		Compensation: compensationRequest{
			Type:     "hourly",
			Amount:   4500,
			Currency: "USD",
		},
		Responsibilities:   []string{"Staff the first-aid tent"},
		CancellationPolicy: "48 hours notice",
	}
}

func strField(s string) *string { return &s }

func TestCreateOrderRequestValidation(t *testing.T) {
	v := NewAppValidator()

	ok := createOrderRequest{
		TemplateType: strField("standard_event_medical"),
		Terms:        validTermsRequest(),
	}
	require.NoError(t, v.Validate(&ok))

	withDoc := createOrderRequest{
		CustomDocumentURL: strField("https://files.example.com/contracts/custom-7.pdf"),
		Terms:             validTermsRequest(),
	}
	require.NoError(t, v.Validate(&withDoc))

	both := createOrderRequest{
		TemplateType:      strField("standard_event_medical"),
		CustomDocumentURL: strField("https://files.example.com/contracts/custom-7.pdf"),
		Terms:             validTermsRequest(),
	}
	assert.Error(t, v.Validate(&both), "template and document are mutually exclusive")

	badDates := ok
	badDates.Terms.EndDate = badDates.Terms.StartDate.Add(-time.Hour)
	assert.Error(t, v.Validate(&badDates))

	noResponsibilities := ok
	noResponsibilities.Terms = validTermsRequest()
	noResponsibilities.Terms.Responsibilities = nil
	assert.Error(t, v.Validate(&noResponsibilities))

	badCompensation := ok
	badCompensation.Terms = validTermsRequest()
	badCompensation.Terms.Compensation.Type = "per_diem"
	assert.Error(t, v.Validate(&badCompensation))
}

func TestUpdateOrderStatusRequestValidation(t *testing.T) {
	v := NewAppValidator()

	accept := updateOrderStatusRequest{Status: "accepted"}
	require.NoError(t, v.Validate(&accept))

	rejectNoReason := updateOrderStatusRequest{Status: "rejected"}
	assert.Error(t, v.Validate(&rejectNoReason), "rejection requires a reason")

	rejectWithReason := updateOrderStatusRequest{
		Status:          "rejected",
		RejectionReason: strField("dates no longer work"),
	}
	require.NoError(t, v.Validate(&rejectWithReason))

	badStatus := updateOrderStatusRequest{Status: "cancelled"}
	assert.Error(t, v.Validate(&badStatus))
}

func TestCreateEscrowRequestValidation(t *testing.T) {
	v := NewAppValidator()

	ok := createEscrowRequest{Amount: 10000, PaymentMethod: "instant"}
	require.NoError(t, v.Validate(&ok))

	assert.Error(t, v.Validate(&createEscrowRequest{Amount: 0, PaymentMethod: "instant"}))
	assert.Error(t, v.Validate(&createEscrowRequest{Amount: -1, PaymentMethod: "scheduled"}))
	assert.Error(t, v.Validate(&createEscrowRequest{Amount: 10000, PaymentMethod: "wire"}))

	settle := settleEscrowRequest{Amount: 10000, Reason: "shift completed"}
	require.NoError(t, v.Validate(&settle))
	assert.Error(t, v.Validate(&settleEscrowRequest{Amount: 10000}))
}
