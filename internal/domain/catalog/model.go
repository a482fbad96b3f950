package catalog

import "time"

// Course is a purchasable catalog item. Image hosting lives elsewhere; the
// row only keeps the public id + URL the uploader hands back.
type Course struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Title       string  `gorm:"not null" json:"title"`
	Description string  `gorm:"not null" json:"description"`
	Price       float64 `gorm:"not null" json:"price"`

	ImagePublicID string `gorm:"column:image_public_id" json:"image_public_id"`
	ImageURL      string `gorm:"column:image_url" json:"image_url"`

	// non-owning back-reference to the admin who created the course;
	// deleting the admin leaves the course orphaned on purpose
	CreatorID uint `gorm:"not null;index" json:"creatorId"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
