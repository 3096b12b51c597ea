package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart holds a user's shopping cart, one per user.
type Cart struct {
	BaseModel
	UserID   uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Products []CartItem `json:"products"`
}

// CartItem is a product reference priced at the time it was added.
type CartItem struct {
	BaseModel
	CartID            uuid.UUID  `gorm:"type:uuid;index" json:"cart_id"`
	ExternalProductID int        `json:"external_product_id"`
	Title             string     `json:"title"`
	Thumbnail         string     `json:"thumbnail,omitempty"`
	PriceAtAddTime    float64    `json:"price_at_add_time"`
	Quantity          int        `json:"quantity"`
	AddedAt           time.Time  `json:"added_at"`
	UpdatedItemAt     *time.Time `json:"updated_item_at,omitempty"`
}
