package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"coursehaven/internal/domain/billing"
	"coursehaven/internal/domain/catalog"
	"coursehaven/internal/domain/purchases"
	"coursehaven/internal/infra/events"
	"coursehaven/internal/service/serverrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pairKey struct{ userID, courseID uint }

// memStore is an in-memory Store enforcing the same uniqueness rules as the
// database: one purchase per (user, course), unique transaction ids. A
// mutex held for the whole WithinTransaction callback gives the same
// serialization the real transaction does.
type memStore struct {
	mu        sync.Mutex
	courses   map[uint]*catalog.Course
	purchases map[pairKey]*purchases.Purchase
	payments  map[string]*billing.Payment

	paymentAttempts     int
	failPaymentOnce     error // returned by the first CreatePayment, then cleared
	failPurchaseAlways  error // returned by every CreatePurchase
}

func newMemStore(courseList ...*catalog.Course) *memStore {
	s := &memStore{
		courses:   map[uint]*catalog.Course{},
		purchases: map[pairKey]*purchases.Purchase{},
		payments:  map[string]*billing.Payment{},
	}
	for _, c := range courseList {
		s.courses[c.ID] = c
	}
	return s
}

func (s *memStore) FindCourse(ctx context.Context, courseID uint) (*catalog.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.courses[courseID]; ok {
		return c, nil
	}
	return nil, serverrors.ErrCourseNotFound
}

func (s *memStore) HasPurchased(ctx context.Context, userID, courseID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.purchases[pairKey{userID, courseID}]
	return ok, nil
}

func (s *memStore) CreatePayment(ctx context.Context, p *billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{s: s}
	return tx.CreatePayment(ctx, p)
}

func (s *memStore) CreatePurchase(ctx context.Context, p *purchases.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{s: s}
	return tx.CreatePurchase(ctx, p)
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// memTx tracks inserts so a failed transaction can undo them.
type memTx struct {
	s            *memStore
	newPayments  []string
	newPurchases []pairKey
}

func (t *memTx) FindCourse(ctx context.Context, courseID uint) (*catalog.Course, error) {
	if c, ok := t.s.courses[courseID]; ok {
		return c, nil
	}
	return nil, serverrors.ErrCourseNotFound
}

func (t *memTx) HasPurchased(ctx context.Context, userID, courseID uint) (bool, error) {
	_, ok := t.s.purchases[pairKey{userID, courseID}]
	return ok, nil
}

func (t *memTx) CreatePayment(ctx context.Context, p *billing.Payment) error {
	t.s.paymentAttempts++
	if err := t.s.failPaymentOnce; err != nil {
		t.s.failPaymentOnce = nil
		return err
	}
	if _, dup := t.s.payments[p.TransactionID]; dup {
		return serverrors.ErrDuplicateTransactionID
	}
	p.ID = uint(len(t.s.payments) + 1)
	p.CreatedAt = time.Now()
	t.s.payments[p.TransactionID] = p
	t.newPayments = append(t.newPayments, p.TransactionID)
	return nil
}

func (t *memTx) CreatePurchase(ctx context.Context, p *purchases.Purchase) error {
	if err := t.s.failPurchaseAlways; err != nil {
		return err
	}
	key := pairKey{p.UserID, p.CourseID}
	if _, dup := t.s.purchases[key]; dup {
		return serverrors.ErrAlreadyPurchased
	}
	p.ID = uint(len(t.s.purchases) + 1)
	p.CreatedAt = time.Now()
	t.s.purchases[key] = p
	t.newPurchases = append(t.newPurchases, key)
	return nil
}

func (t *memTx) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memTx) rollback() {
	for _, id := range t.newPayments {
		delete(t.s.payments, id)
	}
	for _, key := range t.newPurchases {
		delete(t.s.purchases, key)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.PurchaseCompleted
}

func (p *recordingPublisher) PublishPurchaseCompleted(ctx context.Context, evt events.PurchaseCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

type okGateway struct{}

func (okGateway) Authorize(ctx context.Context, req billing.ChargeRequest) (billing.ChargeResult, error) {
	return billing.ChargeResult{Status: billing.StatusSuccess}, nil
}

type failGateway struct{}

func (failGateway) Authorize(ctx context.Context, req billing.ChargeRequest) (billing.ChargeResult, error) {
	return billing.ChargeResult{}, errors.New("network down")
}

func fixedNow() time.Time {
	return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func validRequest() PurchaseRequest {
	return PurchaseRequest{
		UserID:      7,
		CourseID:    42,
		CardNumber:  "4111111111111111",
		CardHolder:  "JOHN DOE",
		ExpiryMonth: "12",
		ExpiryYear:  "28",
		CVV:         "123",
		PIN:         "1234",
	}
}

func testCourse() *catalog.Course {
	return &catalog.Course{ID: 42, Title: "Go from Scratch", Price: 499}
}

func newTestService(store Store, pub events.Publisher) *PurchaseService {
	svc := NewPurchaseService(store, okGateway{}, pub)
	svc.now = fixedNow
	return svc
}

func TestPurchaseSuccess(t *testing.T) {
	store := newMemStore(testCourse())
	pub := &recordingPublisher{}
	svc := newTestService(store, pub)

	result, err := svc.Purchase(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.TransactionID, "TXN"))
	assert.Equal(t, float64(499), result.Payment.Amount)
	assert.Equal(t, "1111", result.Payment.CardLastFour)
	assert.Equal(t, billing.StatusSuccess, result.Payment.Status)
	require.NotNil(t, result.Purchase)
	assert.Equal(t, uint(7), result.Purchase.UserID)
	assert.Equal(t, uint(42), result.Purchase.CourseID)

	assert.Len(t, store.payments, 1)
	assert.Len(t, store.purchases, 1)

	require.Len(t, pub.events, 1)
	assert.Equal(t, result.TransactionID, pub.events[0].TransactionID)
}

func TestPurchaseCourseNotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil)

	_, err := svc.Purchase(context.Background(), validRequest())
	assert.ErrorIs(t, err, serverrors.ErrCourseNotFound)
	assert.Empty(t, store.payments)
}

func TestPurchaseDuplicateRejected(t *testing.T) {
	store := newMemStore(testCourse())
	svc := newTestService(store, nil)

	_, err := svc.Purchase(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.Purchase(context.Background(), validRequest())
	assert.ErrorIs(t, err, serverrors.ErrAlreadyPurchased)

	// ledger still holds exactly one record for the pair
	assert.Len(t, store.purchases, 1)
	assert.Len(t, store.payments, 1)
}

func TestPurchaseDeclinedCardCreatesNothing(t *testing.T) {
	store := newMemStore(testCourse())
	svc := newTestService(store, nil)

	req := validRequest()
	req.CardNumber = "1111222233330000"

	_, err := svc.Purchase(context.Background(), req)
	assert.ErrorIs(t, err, billing.ErrCardDeclined)
	assert.Empty(t, store.payments)
	assert.Empty(t, store.purchases)
}

func TestPurchaseMalformedCardCreatesNothing(t *testing.T) {
	store := newMemStore(testCourse())
	svc := newTestService(store, nil)

	req := validRequest()
	req.CVV = "12"

	_, err := svc.Purchase(context.Background(), req)
	var fe *billing.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "cvv", fe.Field)
	assert.Empty(t, store.payments)
}

func TestPurchaseExpiredCard(t *testing.T) {
	store := newMemStore(testCourse())
	svc := newTestService(store, nil)

	req := validRequest()
	req.ExpiryMonth = "05"
	req.ExpiryYear = "25" // fixedNow is 06/25

	_, err := svc.Purchase(context.Background(), req)
	assert.ErrorIs(t, err, serverrors.ErrCardExpired)
	assert.Empty(t, store.payments)
}

func TestPurchaseCurrentMonthNotExpired(t *testing.T) {
	store := newMemStore(testCourse())
	svc := newTestService(store, nil)

	req := validRequest()
	req.ExpiryMonth = "06"
	req.ExpiryYear = "25"

	_, err := svc.Purchase(context.Background(), req)
	assert.NoError(t, err)
}

func TestPurchaseGatewayFailure(t *testing.T) {
	store := newMemStore(testCourse())
	svc := NewPurchaseService(store, failGateway{}, nil)
	svc.now = fixedNow

	_, err := svc.Purchase(context.Background(), validRequest())
	require.Error(t, err)
	assert.Empty(t, store.payments)
	assert.Empty(t, store.purchases)
}

func TestPurchaseRollsBackPaymentWhenPurchaseInsertFails(t *testing.T) {
	store := newMemStore(testCourse())
	store.failPurchaseAlways = errors.New("disk full")
	svc := newTestService(store, nil)

	_, err := svc.Purchase(context.Background(), validRequest())
	require.Error(t, err)

	// the central property: no orphaned payment without a purchase
	assert.Empty(t, store.payments)
	assert.Empty(t, store.purchases)
}

func TestPurchaseRetriesOnTransactionIDCollision(t *testing.T) {
	store := newMemStore(testCourse())
	store.failPaymentOnce = serverrors.ErrDuplicateTransactionID
	svc := newTestService(store, nil)

	result, err := svc.Purchase(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, 2, store.paymentAttempts)
	assert.Len(t, store.payments, 1)
	assert.NotEmpty(t, result.TransactionID)
}

func TestConcurrentPurchasesCommitExactlyOnce(t *testing.T) {
	const attempts = 8

	store := newMemStore(testCourse())
	svc := newTestService(store, &recordingPublisher{})

	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Purchase(context.Background(), validRequest())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	duplicates := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, serverrors.ErrAlreadyPurchased):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, duplicates)
	assert.Len(t, store.purchases, 1)
	assert.Len(t, store.payments, 1)
}
