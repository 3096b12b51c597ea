package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/nexkart/internal/middleware"
	"github.com/example/nexkart/internal/models"
	"github.com/example/nexkart/internal/services"
)

// OrderHandler manages order placement, OTP confirmation and the buyer-side
// cancel/return workflows.
type OrderHandler struct {
	db       *gorm.DB
	orders   *services.OrderService
	telegram *services.TelegramService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, orders *services.OrderService, telegram *services.TelegramService) *OrderHandler {
	return &OrderHandler{db: db, orders: orders, telegram: telegram}
}

type shippingAddressRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

func (r shippingAddressRequest) toModel() models.ShippingAddress {
	return models.ShippingAddress{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Address: r.Address,
		City:    r.City,
		State:   r.State,
		ZipCode: r.ZipCode,
		Country: r.Country,
	}
}

type placeOrderFromCartRequest struct {
	ShippingAddress shippingAddressRequest `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
}

// PlaceOrderFromCart snapshots the user's cart into a pending order and sends
// the confirmation OTP to the shipping-address email.
func (h *OrderHandler) PlaceOrderFromCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req placeOrderFromCartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var cart models.Cart
	if err := h.db.Preload("Products").First(&cart, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "cart not found")
		}
		return err
	}

	if len(cart.Products) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "cart is empty")
	}

	lines := make([]models.OrderedProduct, 0, len(cart.Products))
	for _, item := range cart.Products {
		line, err := h.materializeLine(item.ExternalProductID, item.Quantity)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}

	_, err := h.orders.PlaceOrder(userID, lines, req.ShippingAddress.toModel(), req.PaymentMethod)
	return respondMutation(c, "OTP sent to your email. Please verify to place the order.", err)
}

type placeDirectOrderRequest struct {
	ProductID       int                    `json:"product_id"`
	Quantity        int                    `json:"quantity"`
	ShippingAddress shippingAddressRequest `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
}

// PlaceDirectOrder is the "buy now" path: a single catalog product goes
// straight into a pending order without touching the cart.
func (h *OrderHandler) PlaceDirectOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req placeDirectOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Quantity <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be greater than 0")
	}

	line, err := h.materializeLine(req.ProductID, req.Quantity)
	if err != nil {
		return err
	}

	_, err = h.orders.PlaceOrder(userID, []models.OrderedProduct{line}, req.ShippingAddress.toModel(), req.PaymentMethod)
	return respondMutation(c, "OTP sent to your email. Please verify to place the order.", err)
}

func (h *OrderHandler) materializeLine(externalProductID, quantity int) (models.OrderedProduct, error) {
	var product models.Product
	if err := h.db.First(&product, "external_id = ?", externalProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.OrderedProduct{}, fiber.NewError(fiber.StatusBadRequest, "invalid product ID or product does not exist")
		}
		return models.OrderedProduct{}, err
	}

	return models.OrderedProduct{
		ExternalProductID: product.ExternalID,
		Title:             product.Title,
		Thumbnail:         product.Thumbnail,
		PriceAtPurchase:   product.Price,
		Quantity:          quantity,
		ReturnPolicy:      product.ReturnPolicy,
	}, nil
}

type verifyOrderOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

// VerifyOrderOtp promotes the pending order matched by the shipping email
// once the submitted code clears.
func (h *OrderHandler) VerifyOrderOtp(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req verifyOrderOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.VerifyOrderOtp(userID, req.Email, req.Otp)
	if err != nil {
		return respondMutation(c, "", err)
	}

	if h.telegram != nil {
		notice := services.OrderNotice{
			OrderID:       order.ID.String(),
			BuyerName:     order.ShippingAddress.Name,
			BuyerEmail:    order.ShippingAddress.Email,
			PaymentMethod: order.PaymentMethod,
			TotalAmount:   order.TotalAmount,
			ItemCount:     len(order.Products),
		}
		if err := h.telegram.NotifyOrderConfirmed(notice); err != nil {
			log.Printf("[Order] Telegram notification failed for %s: %v", order.ID, err)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP verified. Order placed successfully.",
		"data": fiber.Map{
			"id":           order.ID,
			"order_status": order.OrderStatus,
			"placed_at":    order.PlacedAt,
			"total_amount": order.TotalAmount,
		},
	})
}

// ListOrders returns the authenticated user's orders, optionally filtered by
// status.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	query := h.db.Preload("Products").Where("user_id = ?", userID)

	if status := c.Query("status"); status != "" {
		if !models.ValidOrderStatus(status) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid order status")
		}
		query = query.Where("order_status = ?", status)
	}

	var orders []models.Order
	if err := query.Order("placed_at desc").Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": orders})
}

// GetOrder returns a single order owned by the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Products").
		First(&order, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder lets the buyer cancel an order that has not shipped yet.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req cancelOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	message, err := h.orders.Cancel(userID, id, req.Reason)
	return respondMutation(c, message, err)
}

type returnOrderRequest struct {
	Reason string `json:"reason"`
}

// ReturnOrder lets the buyer return delivered products still inside their
// return windows.
func (h *OrderHandler) ReturnOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req returnOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	message, err := h.orders.Return(userID, id, req.Reason)
	return respondMutation(c, message, err)
}
