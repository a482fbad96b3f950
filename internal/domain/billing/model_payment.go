package billing

import "time"

const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"

	// written only by the reconciler when a success payment has no
	// matching purchase row
	StatusRefundPending = "refund_pending"
)

// Payment is immutable after creation (status aside, which only the
// reconciler may touch). Amount is a snapshot of the course price at
// purchase time; later price changes must not affect it.
type Payment struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	UserID   uint    `gorm:"not null;index" json:"userId"`
	CourseID uint    `gorm:"not null;index" json:"courseId"`
	Amount   float64 `gorm:"not null" json:"amount"`

	CardLastFour  string `gorm:"not null" json:"cardLastFour"`
	TransactionID string `gorm:"not null;uniqueIndex:idx_payments_transaction_id" json:"transactionId"`

	GatewayRef *string `json:"-"`
	Status     string  `gorm:"not null;default:'pending'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
}
