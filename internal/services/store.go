package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/example/nexkart/internal/models"
)

// OrderStore persists finalized orders.
type OrderStore interface {
	Create(order *models.Order) error
	FindByID(id uuid.UUID) (*models.Order, error)
	Save(order *models.Order) error
	Delete(id uuid.UUID) error
}

// PendingOrderStore persists order drafts awaiting OTP confirmation.
type PendingOrderStore interface {
	Create(pending *models.PendingOrder) error
	FindByEmail(email string) (*models.PendingOrder, error)
	Delete(id uuid.UUID) error
}

// OtpStore persists hashed one-time codes, one live record per identifier.
type OtpStore interface {
	FindByIdentifier(identifier string) (*models.OtpRecord, error)
	Upsert(identifier, codeHash, purpose string, issuedAt time.Time) error
	Delete(identifier string) error
}

// UserStore exposes the user lookups and the order-history log the order
// workflows need.
type UserStore interface {
	FindByID(id uuid.UUID) (*models.User, error)
	AppendOrderHistory(userID uuid.UUID, externalProductID int, placedAt time.Time) error
}
