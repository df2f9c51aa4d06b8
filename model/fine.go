package model

import (
	"time"

	"gorm.io/gorm"
)

// Fine statuses
const (
	FinePending       = "PENDING"
	FinePaid          = "PAID"
	FinePartiallyPaid = "PARTIALLY_PAID"
	FineWaived        = "WAIVED"
	FineCancelled     = "CANCELLED"
	FineOverdue       = "OVERDUE"
)

// Payment types
const (
	PaymentCash   = "CASH"
	PaymentCard   = "CARD"
	PaymentOnline = "ONLINE"
)

// Fine represents a monetary penalty attached to a loan. Fine amounts are
// recorded by staff; this service stores and lists them, it does not
// compute them.
type Fine struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	LoanID     uint           `gorm:"not null;index" json:"loan_id"`
	Amount     float64        `gorm:"not null" json:"amount"`
	AmountPaid float64        `gorm:"not null;default:0" json:"amount_paid"`
	Status     string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Reason     string         `gorm:"type:varchar(500)" json:"reason"`
	IssuedAt   time.Time      `gorm:"not null" json:"issued_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Loan     Loan      `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
	Payments []Payment `gorm:"foreignKey:FineID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}

// TableName specifies the table name for Fine
func (Fine) TableName() string {
	return "fines"
}

// BeforeCreate stamps the issue time
func (f *Fine) BeforeCreate(tx *gorm.DB) error {
	if f.IssuedAt.IsZero() {
		f.IssuedAt = time.Now()
	}
	return nil
}

// Payment represents a payment made against a fine
type Payment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FineID    uint           `gorm:"not null;index" json:"fine_id"`
	Amount    float64        `gorm:"not null" json:"amount"`
	Type      string         `gorm:"type:varchar(20);not null;default:'CASH'" json:"type"`
	PaidAt    time.Time      `gorm:"not null" json:"paid_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Fine Fine `gorm:"foreignKey:FineID" json:"fine,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// FineConfiguration holds the staff-managed fine policy parameters
type FineConfiguration struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	DailyFineRate   float64        `gorm:"not null" json:"daily_fine_rate"`
	MaxFineAmount   float64        `gorm:"not null" json:"max_fine_amount"`
	GracePeriodDays int            `gorm:"not null" json:"grace_period_days"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for FineConfiguration
func (FineConfiguration) TableName() string {
	return "fine_configurations"
}
