package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/nexkart/internal/models"
	"github.com/example/nexkart/internal/services"
	"github.com/example/nexkart/internal/utils"
)

// PasswordResetHandler manages the OTP-gated forgot-password flow. The OTP
// record's absence after VerifyResetCode is the proof that verification
// happened; ResetPassword refuses to proceed while a live record remains.
type PasswordResetHandler struct {
	db  *gorm.DB
	otp *services.OTPService
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(db *gorm.DB, otp *services.OTPService) *PasswordResetHandler {
	return &PasswordResetHandler{db: db, otp: otp}
}

type initiateResetRequest struct {
	Email string `json:"email"`
}

// InitiateResetPassword sends a reset OTP to the user's registered email.
func (h *PasswordResetHandler) InitiateResetPassword(c *fiber.Ctx) error {
	var req initiateResetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email is required")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	_, err := h.otp.Issue(req.Email, "Reset Password Verification OTP")
	return respondMutation(c, "OTP sent to your registered email.", err)
}

type verifyResetOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

// VerifyResetCode checks the submitted code and consumes the record on a
// match.
func (h *PasswordResetHandler) VerifyResetCode(c *fiber.Ctx) error {
	var req verifyResetOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.otp.Verify(req.Email, req.Otp); err != nil {
		return respondMutation(c, "", err)
	}

	if err := h.otp.Consume(req.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP verified. You can now reset your password.",
	})
}

type resetPasswordRequest struct {
	Email           string `json:"email"`
	NewPassword     string `json:"new_password"`
	ReenterPassword string `json:"reenter_password"`
}

// ResetPassword updates the password once the reset OTP has been verified and
// consumed.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and new_password are required")
	}

	if req.NewPassword != req.ReenterPassword {
		return fiber.NewError(fiber.StatusBadRequest, "passwords do not match")
	}

	if len(req.NewPassword) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	stillLive, err := h.otp.Exists(req.Email)
	if err != nil {
		return err
	}
	if stillLive {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "OTP verification required before resetting password.",
		})
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	if err := h.db.Model(&models.User{}).
		Where("email = ?", req.Email).
		Update("password_hash", hash).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password has been reset successfully.",
	})
}
