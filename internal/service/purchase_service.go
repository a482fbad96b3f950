package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursehaven/internal/domain/billing"
	"coursehaven/internal/domain/catalog"
	"coursehaven/internal/domain/purchases"
	"coursehaven/internal/infra/events"
	"coursehaven/internal/observability/metrics"
	"coursehaven/internal/service/serverrors"

	"github.com/rs/zerolog/log"
)

// Store is the persistence surface the orchestrator needs. Calls made inside
// the WithinTransaction callback run atomically: either both the payment and
// the purchase commit, or neither does.
type Store interface {
	FindCourse(ctx context.Context, courseID uint) (*catalog.Course, error)
	HasPurchased(ctx context.Context, userID, courseID uint) (bool, error)
	CreatePayment(ctx context.Context, p *billing.Payment) error
	CreatePurchase(ctx context.Context, p *purchases.Purchase) error
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}

type PurchaseRequest struct {
	UserID      uint
	CourseID    uint
	CardNumber  string
	CardHolder  string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
	PIN         string
}

type PurchaseResult struct {
	TransactionID string
	Payment       *billing.Payment
	Purchase      *purchases.Purchase
}

// PurchaseService sequences a purchase attempt: course lookup, duplicate
// check, card checks, gateway authorization, then payment + purchase inserts
// in one transaction.
type PurchaseService struct {
	store     Store
	gateway   billing.Gateway
	publisher events.Publisher
	now       func() time.Time
}

func NewPurchaseService(store Store, gateway billing.Gateway, publisher events.Publisher) *PurchaseService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &PurchaseService{
		store:     store,
		gateway:   gateway,
		publisher: publisher,
		now:       time.Now,
	}
}

// generation is retried when the storage layer reports a transaction id
// collision; past that we give up loudly rather than overwrite
const maxTransactionIDAttempts = 3

func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	start := s.now()
	defer func() {
		metrics.PurchaseDuration.Observe(time.Since(start).Seconds())
	}()

	course, err := s.store.FindCourse(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, serverrors.ErrCourseNotFound) {
			metrics.PurchaseFailures.WithLabelValues("course_not_found").Inc()
		}
		return nil, err
	}

	// optimization only: the unique index on purchases is what actually
	// resolves concurrent attempts
	bought, err := s.store.HasPurchased(ctx, req.UserID, req.CourseID)
	if err != nil {
		return nil, err
	}
	if bought {
		metrics.PurchaseFailures.WithLabelValues("already_purchased").Inc()
		return nil, serverrors.ErrAlreadyPurchased
	}

	if err := billing.ValidateCard(req.CardNumber, req.CVV, req.PIN); err != nil {
		metrics.PurchaseFailures.WithLabelValues("card_invalid").Inc()
		return nil, err
	}

	expired, err := billing.CardExpired(req.ExpiryMonth, req.ExpiryYear, s.now())
	if err != nil {
		metrics.PurchaseFailures.WithLabelValues("card_invalid").Inc()
		return nil, err
	}
	if expired {
		metrics.PurchaseFailures.WithLabelValues("card_expired").Inc()
		return nil, serverrors.ErrCardExpired
	}

	// amount is snapshotted from the course row loaded above; later price
	// updates only affect future purchases
	charge, err := s.gateway.Authorize(ctx, billing.ChargeRequest{
		Amount:      course.Price,
		Currency:    "usd",
		CardNumber:  req.CardNumber,
		CardHolder:  req.CardHolder,
		Description: course.Title,
		UserID:      req.UserID,
		CourseID:    req.CourseID,
	})
	if err != nil {
		metrics.PurchaseFailures.WithLabelValues("gateway").Inc()
		return nil, fmt.Errorf("payment gateway: %w", err)
	}

	payment, purchase, err := s.commit(ctx, req, course, charge)
	if err != nil {
		if errors.Is(err, serverrors.ErrAlreadyPurchased) {
			// lost the race; the winner's records stand
			metrics.PurchaseFailures.WithLabelValues("already_purchased").Inc()
			return nil, serverrors.ErrAlreadyPurchased
		}
		metrics.PurchaseFailures.WithLabelValues("storage").Inc()
		return nil, err
	}

	metrics.PurchasesTotal.Inc()
	log.Info().
		Uint("user_id", req.UserID).
		Uint("course_id", req.CourseID).
		Str("transaction_id", payment.TransactionID).
		Float64("amount", payment.Amount).
		Msg("purchase completed")

	if err := s.publisher.PublishPurchaseCompleted(ctx, events.PurchaseCompleted{
		TransactionID: payment.TransactionID,
		UserID:        req.UserID,
		CourseID:      req.CourseID,
		Amount:        payment.Amount,
		OccurredAt:    s.now(),
	}); err != nil {
		// the purchase is committed; event delivery is best effort
		log.Error().Err(err).Str("transaction_id", payment.TransactionID).Msg("failed to publish purchase event")
	}

	return &PurchaseResult{
		TransactionID: payment.TransactionID,
		Payment:       payment,
		Purchase:      purchase,
	}, nil
}

// commit writes the payment and the purchase atomically, regenerating the
// transaction id when the storage layer detects a collision.
func (s *PurchaseService) commit(ctx context.Context, req PurchaseRequest, course *catalog.Course, charge billing.ChargeResult) (*billing.Payment, *purchases.Purchase, error) {
	var lastErr error

	for attempt := 0; attempt < maxTransactionIDAttempts; attempt++ {
		payment := &billing.Payment{
			UserID:        req.UserID,
			CourseID:      req.CourseID,
			Amount:        course.Price,
			CardLastFour:  billing.LastFour(req.CardNumber),
			TransactionID: billing.NewTransactionID(),
			Status:        charge.Status,
		}
		if charge.Reference != "" {
			ref := charge.Reference
			payment.GatewayRef = &ref
		}
		purchase := &purchases.Purchase{
			UserID:   req.UserID,
			CourseID: req.CourseID,
		}

		err := s.store.WithinTransaction(ctx, func(tx Store) error {
			if err := tx.CreatePayment(ctx, payment); err != nil {
				return err
			}
			return tx.CreatePurchase(ctx, purchase)
		})
		if err == nil {
			return payment, purchase, nil
		}

		if errors.Is(err, serverrors.ErrDuplicateTransactionID) {
			log.Warn().Str("transaction_id", payment.TransactionID).Msg("transaction id collision, regenerating")
			lastErr = err
			continue
		}
		return nil, nil, err
	}

	return nil, nil, fmt.Errorf("could not allocate a unique transaction id: %w", lastErr)
}
