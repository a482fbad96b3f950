package purchases

import (
	"time"

	"coursehaven/internal/domain/catalog"
)

// Purchase is an append-only row asserting a user owns access to a course.
// The composite unique index is the actual race-resolution point for
// concurrent purchase attempts: the first insert wins, the second comes back
// as a duplicate key. Rows are never updated or deleted.
type Purchase struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_purchases_user_course" json:"userId"`
	CourseID uint `gorm:"not null;uniqueIndex:idx_purchases_user_course" json:"courseId"`

	Course *catalog.Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
