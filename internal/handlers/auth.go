package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/nexkart/internal/config"
	"github.com/example/nexkart/internal/models"
	"github.com/example/nexkart/internal/services"
	"github.com/example/nexkart/internal/utils"
)

// AuthHandler bundles dependencies for signup, OTP verification and login.
type AuthHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	otp      *services.OTPService
	notifier services.Notifier
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, otp *services.OTPService, notifier services.Notifier) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, otp: otp, notifier: notifier}
}

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Country  string `json:"country"`
}

// Register stores a pending signup and sends a verification OTP. The account
// only becomes authoritative once VerifyEmailOtp succeeds.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Password == "" || req.Name == "" || req.Username == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	var existing models.User
	if err := h.db.Where("email = ? OR username = ?", req.Email, req.Username).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "user already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	pending := models.PendingUser{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Phone:        req.Phone,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		Country:      req.Country,
		Role:         "user",
	}

	// Re-registering before verification replaces the earlier pending signup.
	if err := h.db.Where("email = ?", req.Email).Delete(&models.PendingUser{}).Error; err != nil {
		return err
	}
	if err := h.db.Create(&pending).Error; err != nil {
		return err
	}

	_, err = h.otp.Issue(req.Email, "Signup verification OTP")
	return respondMutation(c, "OTP sent to your email. Please verify to finish creating your account.", err)
}

type verifyEmailOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

// VerifyEmailOtp promotes a pending signup into a user account once the
// submitted code clears, then deletes the OTP and pending records.
func (h *AuthHandler) VerifyEmailOtp(c *fiber.Ctx) error {
	var req verifyEmailOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.otp.Verify(req.Email, req.Otp); err != nil {
		return respondMutation(c, "", err)
	}

	var pending models.PendingUser
	if err := h.db.Where("email = ?", req.Email).First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "pending user not found")
		}
		return err
	}

	user := models.User{
		Name:          pending.Name,
		Username:      pending.Username,
		Email:         pending.Email,
		PasswordHash:  pending.PasswordHash,
		Phone:         pending.Phone,
		Address:       pending.Address,
		City:          pending.City,
		State:         pending.State,
		ZipCode:       pending.ZipCode,
		Country:       pending.Country,
		Role:          pending.Role,
		EmailVerified: true,
		IsActive:      true,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	if err := h.notifier.SendSignupSuccess(user.Email, user.Name, user.Username); err != nil {
		log.Printf("[Auth] Signup success email failed for %s: %v", user.Email, err)
	}

	// The account is committed; leftover OTP/pending rows are reconciled by
	// the storage TTL if these deletes fail.
	if err := h.otp.Consume(req.Email); err != nil {
		log.Printf("[Auth] Failed to consume OTP for %s: %v", req.Email, err)
	}
	if err := h.db.Delete(&models.PendingUser{}, "email = ?", req.Email).Error; err != nil {
		log.Printf("[Auth] Failed to delete pending user %s: %v", req.Email, err)
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

type resendOtpRequest struct {
	Email string `json:"email"`
}

// ResendOtp re-issues the signup OTP, subject to the issuance cooldown.
func (h *AuthHandler) ResendOtp(c *fiber.Ctx) error {
	var req resendOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var pending models.PendingUser
	if err := h.db.Where("email = ?", req.Email).First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "pending user not found for the given email")
		}
		return err
	}

	_, err := h.otp.Issue(req.Email, "Signup verification OTP")
	return respondMutation(c, "OTP resent successfully", err)
}

type loginRequest struct {
	LoginIdentifier string `json:"login_identifier"`
	Password        string `json:"password"`
}

// Login authenticates by username or email.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ? OR username = ?", req.LoginIdentifier, req.LoginIdentifier).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	if user.IsBanned {
		return fiber.NewError(fiber.StatusForbidden, "account is banned")
	}
	if !user.IsActive {
		return fiber.NewError(fiber.StatusForbidden, "account is deactivated")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
		"token": token,
	})
}
