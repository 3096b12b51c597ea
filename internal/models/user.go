package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered customer or administrator.
type User struct {
	BaseModel
	Name          string              `json:"name"`
	Username      string              `gorm:"uniqueIndex" json:"username"`
	Email         string              `gorm:"uniqueIndex" json:"email"`
	PasswordHash  string              `json:"-"`
	Phone         string              `json:"phone"`
	Address       string              `json:"address"`
	City          string              `json:"city"`
	State         string              `json:"state"`
	ZipCode       string              `json:"zip_code"`
	Country       string              `json:"country"`
	Role          string              `gorm:"default:user" json:"role"`
	EmailVerified bool                `json:"email_verified"`
	IsActive      bool                `gorm:"default:true" json:"is_active"`
	IsBanned      bool                `json:"is_banned"`
	UpdatedBy     *uuid.UUID          `gorm:"type:uuid" json:"updated_by"`
	OrderHistory  []OrderHistoryEntry `json:"order_history,omitempty"`
}

// PendingUser holds a signup awaiting OTP verification before the account
// becomes authoritative.
type PendingUser struct {
	BaseModel
	Name         string `json:"name"`
	Username     string `json:"username"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	PasswordHash string `json:"-"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country"`
	Role         string `gorm:"default:user" json:"role"`
}

// OrderHistoryEntry is an append-only record of a purchased product that has
// exited the returnable order, keyed by the external product id and the
// order's original placement time.
type OrderHistoryEntry struct {
	BaseModel
	UserID            uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_history_entry" json:"user_id"`
	ExternalProductID int       `gorm:"uniqueIndex:idx_history_entry" json:"external_product_id"`
	PlacedAt          time.Time `gorm:"uniqueIndex:idx_history_entry" json:"placed_at"`
}
