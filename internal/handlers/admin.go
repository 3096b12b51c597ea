package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/nexkart/internal/middleware"
	"github.com/example/nexkart/internal/models"
	"github.com/example/nexkart/internal/services"
	"github.com/example/nexkart/internal/utils"
)

// AdminHandler exposes the admin command surface: order status transitions,
// refunds and user moderation.
type AdminHandler struct {
	db       *gorm.DB
	orders   *services.OrderService
	telegram *services.TelegramService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, orders *services.OrderService, telegram *services.TelegramService) *AdminHandler {
	return &AdminHandler{db: db, orders: orders, telegram: telegram}
}

type updateOrderStatusRequest struct {
	NewStatus string `json:"new_status"`
}

// UpdateUserOrderStatus drives an order along the fulfillment sequence.
func (h *AdminHandler) UpdateUserOrderStatus(c *fiber.Ctx) error {
	role := middleware.GetCurrentUserRole(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	_, message, err := h.orders.SetStatus(role, id, req.NewStatus)
	return respondMutation(c, message, err)
}

// InitiateOrConfirmRefundOrder finalizes a refund; repeated calls are no-op
// successes.
func (h *AdminHandler) InitiateOrConfirmRefundOrder(c *fiber.Ctx) error {
	role := middleware.GetCurrentUserRole(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	// Capture the amount before the record is disposed of.
	var amount float64
	var order models.Order
	if err := h.db.First(&order, "id = ?", id).Error; err == nil {
		amount = order.TotalAmount
	}

	message, err := h.orders.Refund(role, id)
	if err == nil && h.telegram != nil {
		if notifyErr := h.telegram.NotifyRefundCompleted(id.String(), amount); notifyErr != nil {
			log.Printf("[Admin] Refund telegram notice failed for %s: %v", id, notifyErr)
		}
	}

	return respondMutation(c, message, err)
}

// ListAllOrders returns all orders with pagination and status filtering.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	if middleware.GetCurrentUserRole(c) != services.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, "only admins can list all orders")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("order_status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Products").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type updateUserRoleRequest struct {
	NewRole string `json:"new_role"`
}

// UpdateUserRole changes another user's role.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	var req updateUserRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.NewRole != "user" && req.NewRole != services.RoleAdmin {
		return fiber.NewError(fiber.StatusBadRequest, "invalid role")
	}

	return h.moderateUser(c, map[string]interface{}{"role": req.NewRole})
}

// DeactivateUser marks a user inactive.
func (h *AdminHandler) DeactivateUser(c *fiber.Ctx) error {
	return h.moderateUser(c, map[string]interface{}{"is_active": false})
}

// ActivateUser re-activates a user.
func (h *AdminHandler) ActivateUser(c *fiber.Ctx) error {
	return h.moderateUser(c, map[string]interface{}{"is_active": true})
}

// BanUser bans a user.
func (h *AdminHandler) BanUser(c *fiber.Ctx) error {
	return h.moderateUser(c, map[string]interface{}{"is_banned": true})
}

// moderateUser applies a fixed, typed set of moderation fields to the target
// user. Admins cannot moderate their own account.
func (h *AdminHandler) moderateUser(c *fiber.Ctx, updates map[string]interface{}) error {
	adminID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	if middleware.GetCurrentUserRole(c) != services.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, "only admins can moderate users")
	}

	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if targetID == adminID {
		return fiber.NewError(fiber.StatusBadRequest, "you cannot moderate your own account")
	}

	updates["updated_by"] = adminID
	updates["updated_at"] = time.Now()

	result := h.db.Model(&models.User{}).Where("id = ?", targetID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}

// ListUsers returns users with pagination for the moderation UI.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	if middleware.GetCurrentUserRole(c) != services.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, "only admins can list users")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.User{})

	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	if middleware.GetCurrentUserRole(c) != services.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, "only admins can view dashboard stats")
	}

	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	var pendingOrders int64
	if err := h.db.Model(&models.PendingOrder{}).Count(&pendingOrders).Error; err != nil {
		return err
	}

	type statusCount struct {
		OrderStatus string `json:"order_status"`
		Count       int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("order_status, count(*) as count").
		Group("order_status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.OrderStatus] = sc.Count
	}

	var totalRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where("order_status NOT IN ?", []string{models.StatusCancelled, models.StatusRefunded}).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":      totalUsers,
			"total_orders":     totalOrders,
			"pending_orders":   pendingOrders,
			"total_revenue":    totalRevenue,
			"orders_by_status": ordersByStatus,
		},
	})
}
