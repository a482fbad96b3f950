package worker

import (
	"context"
	"time"

	"coursehaven/internal/domain/billing"
	"coursehaven/internal/observability/metrics"

	"github.com/rs/zerolog/log"
)

// PaymentStore is the slice of the repository the reconciler needs.
type PaymentStore interface {
	FindOrphanedPayments(ctx context.Context, grace time.Duration) ([]billing.Payment, error)
	MarkPaymentRefundPending(ctx context.Context, paymentID uint) error
}

// Reconciler periodically looks for success payments that have no matching
// purchase row and flags them refund_pending for manual follow-up. The
// purchase flow writes both rows in one transaction, so orphans can only
// come from out-of-band writes (webhooks, manual inserts); this loop is the
// repair path, not part of the happy path.
type Reconciler struct {
	store    PaymentStore
	interval time.Duration
	grace    time.Duration
}

func NewReconciler(store PaymentStore, interval, grace time.Duration) *Reconciler {
	return &Reconciler{
		store:    store,
		interval: interval,
		grace:    grace,
	}
}

// Start runs the reconcile loop until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.interval).Msg("payment reconciler started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("payment reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) {
	orphans, err := r.store.FindOrphanedPayments(ctx, r.grace)
	if err != nil {
		log.Error().Err(err).Msg("failed to scan for orphaned payments")
		return
	}

	for _, p := range orphans {
		if err := r.store.MarkPaymentRefundPending(ctx, p.ID); err != nil {
			log.Error().Err(err).Uint("payment_id", p.ID).Msg("failed to flag orphaned payment")
			continue
		}
		metrics.OrphanedPayments.Inc()
		log.Warn().
			Uint("payment_id", p.ID).
			Str("transaction_id", p.TransactionID).
			Uint("user_id", p.UserID).
			Uint("course_id", p.CourseID).
			Msg("payment without purchase flagged refund_pending")
	}
}
