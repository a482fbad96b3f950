package gateway

import (
	"context"

	"coursehaven/internal/domain/billing"
)

// SyntheticGateway is the default, network-free gateway: every charge that
// reaches it (card format and decline rule are checked upstream) resolves to
// success immediately. Swap in the Stripe gateway via PAYMENT_GATEWAY=stripe.
type SyntheticGateway struct{}

func NewSynthetic() SyntheticGateway {
	return SyntheticGateway{}
}

func (SyntheticGateway) Authorize(ctx context.Context, req billing.ChargeRequest) (billing.ChargeResult, error) {
	return billing.ChargeResult{Status: billing.StatusSuccess}, nil
}
