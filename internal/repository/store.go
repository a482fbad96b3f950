package repository

import (
	"context"
	"errors"
	"time"

	"coursehaven/internal/domain/billing"
	"coursehaven/internal/domain/catalog"
	"coursehaven/internal/domain/purchases"
	"coursehaven/internal/service"
	"coursehaven/internal/service/serverrors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Store is the gorm-backed implementation of service.Store.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindCourse(ctx context.Context, courseID uint) (*catalog.Course, error) {
	var course catalog.Course
	err := s.db.WithContext(ctx).First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, serverrors.ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (s *Store) HasPurchased(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&purchases.Purchase{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreatePayment(ctx context.Context, p *billing.Payment) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return serverrors.ErrDuplicateTransactionID
		}
		return err
	}
	return nil
}

func (s *Store) CreatePurchase(ctx context.Context, p *purchases.Purchase) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return serverrors.ErrAlreadyPurchased
		}
		return err
	}
	return nil
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(tx service.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// FindOrphanedPayments returns success payments older than grace with no
// matching purchase row. Normal operation never produces these; they can
// only appear through out-of-band writes.
func (s *Store) FindOrphanedPayments(ctx context.Context, grace time.Duration) ([]billing.Payment, error) {
	cutoff := time.Now().Add(-grace)

	var orphans []billing.Payment
	err := s.db.WithContext(ctx).
		Table("payments").
		Select("payments.*").
		Joins("LEFT JOIN purchases ON purchases.user_id = payments.user_id AND purchases.course_id = payments.course_id").
		Where("payments.status = ? AND purchases.id IS NULL AND payments.created_at < ?", billing.StatusSuccess, cutoff).
		Find(&orphans).Error
	if err != nil {
		return nil, err
	}
	return orphans, nil
}

func (s *Store) MarkPaymentRefundPending(ctx context.Context, paymentID uint) error {
	return s.db.WithContext(ctx).
		Model(&billing.Payment{}).
		Where("id = ?", paymentID).
		Update("status", billing.StatusRefundPending).Error
}

// isUniqueViolation matches both gorm's translated error and the raw
// postgres code, since errors inside a Transaction callback are not always
// translated.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
