package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/nexkart/internal/config"
	"github.com/example/nexkart/internal/handlers"
	"github.com/example/nexkart/internal/middleware"
	"github.com/example/nexkart/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	store := services.NewStore(db)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	eventPublisher := services.NewEventPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	otpService := services.NewOTPService(store.Otps, emailService, cfg.OTPTTL, cfg.OTPCooldown)
	orderService := services.NewOrderService(store.Orders, store.Pending, store.Users, otpService, emailService, eventPublisher, cfg.NoReturnGraceDays)

	authHandler := handlers.NewAuthHandler(db, cfg, otpService, emailService)
	passwordResetHandler := handlers.NewPasswordResetHandler(db, otpService)
	catalogHandler := handlers.NewCatalogHandler(db)
	cartHandler := handlers.NewCartHandler(db)
	orderHandler := handlers.NewOrderHandler(db, orderService, telegramService)
	adminHandler := handlers.NewAdminHandler(db, orderService, telegramService)
	profileHandler := handlers.NewProfileHandler(db, otpService)
	marketingHandler := handlers.NewMarketingHandler(db)

	api := app.Group("/api")
	auth := middleware.AuthMiddleware(cfg)

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/verify-otp", authHandler.VerifyEmailOtp)
	authGroup.Post("/resend-otp", authHandler.ResendOtp)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/initiate-reset-password", passwordResetHandler.InitiateResetPassword)
	authGroup.Post("/verify-reset-code", passwordResetHandler.VerifyResetCode)
	authGroup.Post("/reset-password", passwordResetHandler.ResetPassword)

	// Catalog routes
	api.Get("/categories", catalogHandler.ListCategories)
	products := api.Group("/products")
	products.Get("/", catalogHandler.ListProducts)
	products.Get("/search", catalogHandler.SearchProducts)
	products.Get("/:id", catalogHandler.GetProduct)

	// Marketing resources
	api.Get("/banner", marketingHandler.ListBanners)
	api.Post("/banner", auth, marketingHandler.CreateBanner)
	api.Put("/banner/:id", auth, marketingHandler.UpdateBanner)
	api.Delete("/banner/:id", auth, marketingHandler.DeleteBanner)

	// Cart routes
	cart := api.Group("/cart", auth)
	cart.Get("/", cartHandler.GetCart)
	cart.Post("/add", cartHandler.AddToCart)
	cart.Put("/update", cartHandler.UpdateCartItem)
	cart.Delete("/clear", cartHandler.ClearCart)
	cart.Delete("/:productId", cartHandler.RemoveCartItem)

	// Order routes
	orders := api.Group("/orders", auth)
	orders.Post("/place", orderHandler.PlaceOrderFromCart)
	orders.Post("/place-direct", orderHandler.PlaceDirectOrder)
	orders.Post("/verify-otp", orderHandler.VerifyOrderOtp)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Post("/:id/cancel", orderHandler.CancelOrder)
	orders.Post("/:id/return", orderHandler.ReturnOrder)

	// Profile routes
	profile := api.Group("/profile", auth)
	profile.Get("/", profileHandler.GetProfile)
	profile.Put("/", profileHandler.UpdateProfile)
	profile.Put("/email", profileHandler.UpdateEmail)
	profile.Put("/password", profileHandler.UpdatePassword)
	profile.Delete("/", profileHandler.DeleteAccount)

	// Admin routes
	admin := api.Group("/admin", auth)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Put("/orders/:id/status", adminHandler.UpdateUserOrderStatus)
	admin.Post("/orders/:id/refund", adminHandler.InitiateOrConfirmRefundOrder)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/role", adminHandler.UpdateUserRole)
	admin.Put("/users/:id/deactivate", adminHandler.DeactivateUser)
	admin.Put("/users/:id/activate", adminHandler.ActivateUser)
	admin.Put("/users/:id/ban", adminHandler.BanUser)
	admin.Get("/dashboard", adminHandler.DashboardStats)
}
