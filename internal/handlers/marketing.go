package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/nexkart/internal/middleware"
	"github.com/example/nexkart/internal/models"
	"github.com/example/nexkart/internal/services"
)

// MarketingHandler manages storefront banners.
type MarketingHandler struct {
	db *gorm.DB
}

// NewMarketingHandler constructs MarketingHandler.
func NewMarketingHandler(db *gorm.DB) *MarketingHandler {
	return &MarketingHandler{db: db}
}

// ListBanners returns banners; the public storefront only sees active ones.
func (h *MarketingHandler) ListBanners(c *fiber.Ctx) error {
	query := h.db.Model(&models.Banner{})
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var items []models.Banner
	if err := query.Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

// CreateBanner adds a banner (admin only).
func (h *MarketingHandler) CreateBanner(c *fiber.Ctx) error {
	if middleware.GetCurrentUserRole(c) != services.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, "only admins can manage banners")
	}

	var item models.Banner
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.db.Create(&item).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// UpdateBanner edits a banner (admin only).
func (h *MarketingHandler) UpdateBanner(c *fiber.Ctx) error {
	if middleware.GetCurrentUserRole(c) != services.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, "only admins can manage banners")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.Banner
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "banner not found")
		}
		return err
	}

	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	item.ID = id

	if err := h.db.Save(&item).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

// DeleteBanner removes a banner (admin only).
func (h *MarketingHandler) DeleteBanner(c *fiber.Ctx) error {
	if middleware.GetCurrentUserRole(c) != services.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, "only admins can manage banners")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Banner{}, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
