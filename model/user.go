package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles mirror the library's staff/member hierarchy.
const (
	RoleAdmin     = "ADMIN"
	RoleLibrarian = "LIBRARIAN"
	RoleMember    = "MEMBER"
	RoleStudent   = "STUDENT"
	RoleFaculty   = "FACULTY"
)

// Account statuses. Only ACTIVE users may obtain or refresh session tokens.
const (
	StatusActive   = "ACTIVE"
	StatusBlocked  = "BLOCKED"
	StatusInactive = "INACTIVE"
	StatusPending  = "PENDING"
)

// User represents a registered library user
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Username     string         `gorm:"uniqueIndex;not null;type:varchar(50)" json:"username"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	FirstName    string         `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string         `gorm:"type:varchar(100)" json:"last_name"`
	Role         string         `gorm:"type:varchar(20);default:'MEMBER'" json:"role"`
	Status       string         `gorm:"type:varchar(20);default:'ACTIVE'" json:"status"`
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	Loans          []Loan           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Reservations   []Reservation    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []TokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsActive reports whether the account may authenticate
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// IsStaff reports whether the user has catalog-management privileges
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleLibrarian
}

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleLibrarian, RoleMember, RoleStudent, RoleFaculty:
		return true
	}
	return false
}

// ValidStatus reports whether status is one of the known account statuses
func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusBlocked, StatusInactive, StatusPending:
		return true
	}
	return false
}
