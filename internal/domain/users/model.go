package users

import "time"

type User struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	FirstName string  `gorm:"not null" json:"firstName"`
	LastName  string  `gorm:"not null" json:"lastName"`
	Email     string  `gorm:"not null;uniqueIndex:idx_users_email" json:"email"`
	Password  *string `json:"-"`

	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'" json:"-"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub" json:"-"`

	Role string `gorm:"not null;default:'user'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
