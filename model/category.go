package model

import (
	"time"

	"gorm.io/gorm"
)

// Category represents a book category
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;uniqueIndex;type:varchar(50)" json:"name"`
	Description string         `gorm:"type:varchar(500)" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Books []Book `gorm:"foreignKey:CategoryID" json:"books,omitempty"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}
