package model

import (
	"time"

	"gorm.io/gorm"
)

// Book represents a catalog entry. AvailableCopies tracks copies not
// currently on loan and must never exceed TotalCopies.
type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"not null;type:varchar(200);index" json:"title"`
	Summary         string         `gorm:"type:varchar(2000)" json:"summary"`
	ISBN            string         `gorm:"uniqueIndex;not null;type:varchar(13)" json:"isbn"`
	CategoryID      uint           `gorm:"not null;index" json:"category_id"`
	PublicationYear int            `json:"publication_year"`
	Edition         string         `gorm:"type:varchar(50)" json:"edition"`
	Publisher       string         `gorm:"type:varchar(200)" json:"publisher"`
	TotalCopies     int            `gorm:"not null;default:1" json:"total_copies"`
	AvailableCopies int            `gorm:"not null;default:1" json:"available_copies"`
	CoverImageURL   string         `gorm:"type:varchar(512)" json:"cover_image_url"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Authors  []Author `gorm:"many2many:book_authors" json:"authors,omitempty"`
}

// TableName specifies the table name for Book
func (Book) TableName() string {
	return "books"
}

// BeforeCreate defaults AvailableCopies to TotalCopies when unset
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.AvailableCopies == 0 && b.TotalCopies > 0 {
		b.AvailableCopies = b.TotalCopies
	}
	return nil
}
