package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"coursehaven/internal/domain/purchases"
	"coursehaven/internal/service/serverrors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	return NewStore(gdb), mock
}

func TestFindCourseReturnsRow(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "title", "price"}).
		AddRow(42, "Go from Scratch", 499.0)
	mock.ExpectQuery(`SELECT .* FROM "courses"`).WillReturnRows(rows)

	course, err := store.FindCourse(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, uint(42), course.ID)
	assert.Equal(t, float64(499), course.Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCourseNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM "courses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.FindCourse(context.Background(), 99)
	assert.ErrorIs(t, err, serverrors.ErrCourseNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasPurchased(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "purchases"`).
		WithArgs(7, 42).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	bought, err := store.HasPurchased(context.Background(), 7, 42)
	require.NoError(t, err)
	assert.True(t, bought)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePurchaseMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "purchases"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := store.CreatePurchase(context.Background(), &purchases.Purchase{UserID: 7, CourseID: 42})
	assert.ErrorIs(t, err, serverrors.ErrAlreadyPurchased)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrphanedPayments(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "course_id", "amount", "transaction_id", "status", "created_at"}).
		AddRow(3, 7, 42, 499.0, "TXN123ABC", "success", time.Now().Add(-time.Hour))
	mock.ExpectQuery(`SELECT payments\.\* FROM "payments" LEFT JOIN purchases`).
		WillReturnRows(rows)

	orphans, err := store.FindOrphanedPayments(context.Background(), 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "TXN123ABC", orphans[0].TransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaymentRefundPending(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET "status"=`).
		WithArgs("refund_pending", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.MarkPaymentRefundPending(context.Background(), 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection reset")))
}
