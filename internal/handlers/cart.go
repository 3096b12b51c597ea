package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/nexkart/internal/middleware"
	"github.com/example/nexkart/internal/models"
)

// CartHandler manages the user's shopping cart.
type CartHandler struct {
	db *gorm.DB
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{db: db}
}

// GetCart returns the authenticated user's cart.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var cart models.Cart
	if err := h.db.Preload("Products").First(&cart, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"products": []models.CartItem{}}})
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": cart})
}

type addToCartRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// AddToCart adds a catalog product to the cart, priced at add time.
func (h *CartHandler) AddToCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.ProductID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "product ID is required")
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be greater than 0")
	}

	var product models.Product
	if err := h.db.First(&product, "external_id = ?", req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product ID or product does not exist")
		}
		return err
	}

	var cart models.Cart
	err := h.db.Preload("Products").First(&cart, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID}
		if err := h.db.Create(&cart).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	for i := range cart.Products {
		if cart.Products[i].ExternalProductID == req.ProductID {
			now := time.Now()
			cart.Products[i].Quantity += quantity
			cart.Products[i].UpdatedItemAt = &now
			if err := h.db.Save(&cart.Products[i]).Error; err != nil {
				return err
			}
			return c.JSON(fiber.Map{"success": true, "message": "Product added to cart successfully", "data": cart})
		}
	}

	item := models.CartItem{
		CartID:            cart.ID,
		ExternalProductID: product.ExternalID,
		Title:             product.Title,
		Thumbnail:         product.Thumbnail,
		PriceAtAddTime:    product.Price,
		Quantity:          quantity,
		AddedAt:           time.Now(),
	}
	if err := h.db.Create(&item).Error; err != nil {
		return err
	}
	cart.Products = append(cart.Products, item)

	return c.JSON(fiber.Map{"success": true, "message": "Product added to cart successfully", "data": cart})
}

type updateCartItemRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// UpdateCartItem sets a cart line's quantity; zero or negative removes it.
func (h *CartHandler) UpdateCartItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateCartItemRequest
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

	for i := range cart.Products {
		if cart.Products[i].ExternalProductID != req.ProductID {
			continue
		}

		if req.Quantity <= 0 {
			if err := h.db.Delete(&cart.Products[i]).Error; err != nil {
				return err
			}
		} else {
			now := time.Now()
			cart.Products[i].Quantity = req.Quantity
			cart.Products[i].UpdatedItemAt = &now
			if err := h.db.Save(&cart.Products[i]).Error; err != nil {
				return err
			}
		}

		return c.JSON(fiber.Map{"success": true, "message": "Cart updated successfully"})
	}

	return fiber.NewError(fiber.StatusNotFound, "product not found in cart")
}

// RemoveCartItem removes a product from the cart.
func (h *CartHandler) RemoveCartItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	productID, err := c.ParamsInt("productId")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var cart models.Cart
	if err := h.db.First(&cart, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "cart not found")
		}
		return err
	}

	result := h.db.Where("cart_id = ? AND external_product_id = ?", cart.ID, productID).Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "product not found in cart")
	}

	return c.JSON(fiber.Map{"success": true, "message": "Product removed from cart"})
}

// ClearCart removes every product from the cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var cart models.Cart
	if err := h.db.First(&cart, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "cart not found")
		}
		return err
	}

	if err := h.db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "Cart cleared successfully"})
}
