package model

import (
	"time"

	"gorm.io/gorm"
)

// Author represents a book author
type Author struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;uniqueIndex;type:varchar(100)" json:"name"`
	Biography string         `gorm:"type:varchar(1000)" json:"biography"`
	BirthDate *time.Time     `json:"birth_date,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Books []Book `gorm:"many2many:book_authors" json:"books,omitempty"`
}

// TableName specifies the table name for Author
func (Author) TableName() string {
	return "authors"
}
