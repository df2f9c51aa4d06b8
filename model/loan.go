package model

import (
	"time"

	"gorm.io/gorm"
)

// Loan statuses
const (
	LoanActive   = "ACTIVE"
	LoanReturned = "RETURNED"
	LoanOverdue  = "OVERDUE"
	LoanLost     = "LOST"
	LoanDamaged  = "DAMAGED"
)

// DefaultLoanDays is the default borrowing window
const DefaultLoanDays = 14

// Loan represents a book checked out by a user
type Loan struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	BookID     uint           `gorm:"not null;index" json:"book_id"`
	LoanDate   time.Time      `gorm:"not null" json:"loan_date"`
	DueDate    time.Time      `gorm:"not null;index" json:"due_date"`
	ReturnDate *time.Time     `json:"return_date,omitempty"`
	Status     string         `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	Notes      string         `gorm:"type:varchar(500)" json:"notes"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User  User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book  Book   `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Fines []Fine `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"fines,omitempty"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// BeforeCreate fills in the default loan window
func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.LoanDate.IsZero() {
		l.LoanDate = time.Now()
	}
	if l.DueDate.IsZero() {
		l.DueDate = l.LoanDate.AddDate(0, 0, DefaultLoanDays)
	}
	return nil
}

// IsOverdue reports whether an active loan is past its due date
func (l *Loan) IsOverdue() bool {
	return l.Status == LoanActive && time.Now().After(l.DueDate)
}
