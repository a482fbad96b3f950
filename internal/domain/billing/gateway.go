package billing

import (
	"context"
	"strings"
)

// ChargeRequest is what the orchestrator hands a gateway once the card has
// passed local validation.
type ChargeRequest struct {
	Amount      float64
	Currency    string
	CardNumber  string
	CardHolder  string
	Description string
	UserID      uint
	CourseID    uint
}

// ChargeResult carries the gateway's verdict. Status is one of the Payment
// status constants; Reference is the gateway-side id, empty for the
// synthetic gateway.
type ChargeResult struct {
	Status    string
	Reference string
}

// Gateway authorizes a charge. Implementations must be safe for concurrent
// use; the synthetic default never talks to a network.
type Gateway interface {
	Authorize(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// NormalizeGatewayStatus maps gateway-native statuses onto the Payment
// status set.
func NormalizeGatewayStatus(s string) string {
	switch strings.TrimSpace(s) {
	case "succeeded", "success":
		return StatusSuccess
	case "processing", "requires_action", "requires_confirmation", "pending":
		return StatusPending
	case "canceled", "requires_payment_method", "failed":
		return StatusFailed
	default:
		return StatusFailed
	}
}
