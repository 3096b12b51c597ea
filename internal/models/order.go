package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment methods accepted at checkout.
const (
	PaymentCashOnDelivery = "Cash_on_Delivery"
	PaymentCard           = "Card"
	PaymentUPI            = "UPI"
	PaymentNetBanking     = "NetBanking"
)

// Payment statuses.
const (
	PaymentStatusPending  = "Pending"
	PaymentStatusPaid     = "Paid"
	PaymentStatusFailed   = "Failed"
	PaymentStatusRefunded = "Refunded"
)

// Order statuses. The fulfillment sequence is Processing -> Packed -> Shipped
// -> Out_for_Delivery -> Delivered, with side exits Cancelled (pre-shipment),
// Returned (post-delivery, inside the return window) and Refunded (admin).
const (
	StatusProcessing     = "Processing"
	StatusPacked         = "Packed"
	StatusShipped        = "Shipped"
	StatusOutForDelivery = "Out_for_Delivery"
	StatusDelivered      = "Delivered"
	StatusCancelled      = "Cancelled"
	StatusReturned       = "Returned"
	StatusRefunded       = "Refunded"
)

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCashOnDelivery, PaymentCard, PaymentUPI, PaymentNetBanking:
		return true
	}
	return false
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case StatusProcessing, StatusPacked, StatusShipped, StatusOutForDelivery,
		StatusDelivered, StatusCancelled, StatusReturned, StatusRefunded:
		return true
	}
	return false
}

// ShippingAddress is embedded in pending and finalized orders. IsVerified is
// set once the OTP bound to Email clears.
type ShippingAddress struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	IsVerified bool   `json:"is_verified"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zip_code"`
	Country    string `json:"country"`
}

// OrderedProduct is a priced line item snapshot. ReturnExpiresAt is populated
// once the owning order reaches Delivered.
type OrderedProduct struct {
	BaseModel
	OrderID           *uuid.UUID `gorm:"type:uuid;index" json:"order_id,omitempty"`
	PendingOrderID    *uuid.UUID `gorm:"type:uuid;index" json:"pending_order_id,omitempty"`
	ExternalProductID int        `json:"external_product_id"`
	Title             string     `json:"title"`
	Thumbnail         string     `json:"thumbnail,omitempty"`
	PriceAtPurchase   float64    `json:"price_at_purchase"`
	Quantity          int        `json:"quantity"`
	TotalPrice        float64    `json:"total_price"`
	ReturnPolicy      string     `json:"return_policy"`
	ReturnExpiresAt   *time.Time `json:"return_expires_at,omitempty"`
}

// PendingOrder is an order draft awaiting OTP confirmation. It is matched by
// shipping-address email during verification and deleted once promoted.
type PendingOrder struct {
	BaseModel
	UserID          uuid.UUID        `gorm:"type:uuid;index" json:"user_id"`
	Products        []OrderedProduct `gorm:"foreignKey:PendingOrderID" json:"products"`
	ShippingAddress ShippingAddress  `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	PaymentMethod   string           `json:"payment_method"`
	PaymentStatus   string           `gorm:"default:Pending" json:"payment_status"`
	OrderStatus     string           `gorm:"default:Processing" json:"order_status"`
	TotalAmount     float64          `json:"total_amount"`
}

// CancelledOrder records why and when a buyer cancelled.
type CancelledOrder struct {
	CanceledAt     *time.Time `json:"canceled_at,omitempty"`
	CanceledReason string     `json:"canceled_order_reason,omitempty"`
}

// ReturnedOrder records why and when a buyer returned.
type ReturnedOrder struct {
	ReturnedAt     *time.Time `json:"returned_at,omitempty"`
	ReturnedReason string     `json:"returned_order_reason,omitempty"`
}

// Order is the finalized aggregate. Status transitions stamp the matching
// timestamp field and never clear previously stamped ones.
type Order struct {
	BaseModel
	UserID           uuid.UUID        `gorm:"type:uuid;index" json:"user_id"`
	Products         []OrderedProduct `gorm:"foreignKey:OrderID" json:"products"`
	ShippingAddress  ShippingAddress  `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	PaymentMethod    string           `json:"payment_method"`
	PaymentStatus    string           `gorm:"default:Pending" json:"payment_status"`
	OrderStatus      string           `gorm:"default:Processing" json:"order_status"`
	TotalAmount      float64          `json:"total_amount"`
	PlacedAt         time.Time        `json:"placed_at"`
	PackedAt         *time.Time       `json:"packed_at,omitempty"`
	ShippedAt        *time.Time       `json:"shipped_at,omitempty"`
	OutForDeliveryAt *time.Time       `json:"out_for_delivery_at,omitempty"`
	DeliveredAt      *time.Time       `json:"delivered_at,omitempty"`
	RefundAt         *time.Time       `json:"refund_at,omitempty"`
	CancelledOrder   CancelledOrder   `gorm:"embedded;embeddedPrefix:cancelled_" json:"cancelled_order"`
	ReturnedOrder    ReturnedOrder    `gorm:"embedded;embeddedPrefix:returned_" json:"returned_order"`
}
