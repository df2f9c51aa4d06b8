package model

import (
	"time"

	"gorm.io/gorm"
)

// Reservation statuses
const (
	ReservationPending   = "PENDING"
	ReservationApproved  = "APPROVED"
	ReservationRejected  = "REJECTED"
	ReservationCancelled = "CANCELLED"
	ReservationFulfilled = "FULFILLED"
	ReservationExpired   = "EXPIRED"
	ReservationOnHold    = "ON_HOLD"
)

// DefaultReservationDays is how long a reservation is held before expiring
const DefaultReservationDays = 7

// Reservation represents a hold a user places on a book
type Reservation struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	BookID          uint           `gorm:"not null;index" json:"book_id"`
	ReservationDate time.Time      `gorm:"not null" json:"reservation_date"`
	ExpirationDate  time.Time      `gorm:"index" json:"expiration_date"`
	FulfilledAt     *time.Time     `json:"fulfilled_at,omitempty"`
	Status          string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Notes           string         `gorm:"type:varchar(500)" json:"notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

// TableName specifies the table name for Reservation
func (Reservation) TableName() string {
	return "reservations"
}

// BeforeCreate fills in the default reservation window
func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ReservationDate.IsZero() {
		r.ReservationDate = time.Now()
	}
	if r.ExpirationDate.IsZero() {
		r.ExpirationDate = r.ReservationDate.AddDate(0, 0, DefaultReservationDays)
	}
	return nil
}
