package routes

import (
	"storefront-api/handlers"
	"storefront-api/middleware"
	"storefront-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public storefront routes ───────────────────────────────────
	public := r.Group("/api")
	public.Use(middleware.ClientIdentityStamper())
	{
		// Catalog
		public.GET("/categories", handlers.ListCategories)
		public.GET("/products", handlers.ListProducts)
		public.GET("/products/:id", handlers.GetProduct)

		// Store status, payment options & address pre-check
		public.GET("/store/status", handlers.GetStoreStatus)
		public.GET("/payment-options", handlers.GetPaymentOptions)
		public.POST("/validate-address", handlers.ValidateAddress)

		// Orders (anonymous, stamped with client identity)
		public.POST("/orders", handlers.PlaceOrder)
		public.GET("/orders/mine", handlers.GetMyOrders)
		public.GET("/orders/:number", handlers.GetMyOrder)
		public.PUT("/orders/:number/cancel", handlers.CancelMyOrder)
		public.POST("/orders/:number/confirm-payment", handlers.ConfirmQRPayment)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Payment provider callback (server-to-server, secret-gated) ─
	r.POST("/api/payments/webhook", handlers.PaymentWebhook)

	// ── Staff auth ─────────────────────────────────────────────────
	r.POST("/api/auth/login", handlers.Login)

	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", handlers.GetProfile)
	}

	// ── Staff routes (orders + notifications) ──────────────────────
	staff := r.Group("/api/admin")
	staff.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin, models.RoleStaff))
	{
		staff.GET("/orders", handlers.AdminGetOrders)
		staff.GET("/orders/stream", handlers.AdminStreamOrders)
		staff.GET("/orders/:id", handlers.AdminGetOrder)
		staff.PUT("/orders/:id/status", handlers.AdminUpdateOrderStatus)
		staff.PUT("/orders/:id/payment/paid", handlers.AdminMarkPaymentPaid)

		staff.GET("/notifications", handlers.AdminListNotifications)
		staff.PUT("/notifications/:id/read", handlers.AdminMarkNotificationRead)
		staff.PUT("/notifications/read-all", handlers.AdminMarkAllNotificationsRead)
	}

	// ── Admin-only routes (destructive ops, catalog, settings) ─────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.PUT("/orders/:id/force-status", handlers.AdminForceOrderStatus)
		admin.DELETE("/orders/:id", handlers.AdminDeleteOrder)

		admin.POST("/staff", handlers.CreateStaff)

		admin.GET("/products", handlers.AdminListProducts)
		admin.POST("/products", handlers.AdminCreateProduct)
		admin.PUT("/products/:id", handlers.AdminUpdateProduct)
		admin.DELETE("/products/:id", handlers.AdminDeleteProduct)

		admin.POST("/categories", handlers.AdminCreateCategory)
		admin.PUT("/categories/:id", handlers.AdminUpdateCategory)
		admin.DELETE("/categories/:id", handlers.AdminDeleteCategory)

		admin.GET("/settings/business-hours", handlers.AdminGetBusinessHours)
		admin.PUT("/settings/business-hours", handlers.AdminUpdateBusinessHours)
		admin.GET("/settings/delivery-zones", handlers.AdminGetDeliveryZones)
		admin.PUT("/settings/delivery-zones", handlers.AdminUpdateDeliveryZones)
		admin.GET("/settings/store-profile", handlers.AdminGetStoreProfile)
		admin.PUT("/settings/store-profile", handlers.AdminUpdateStoreProfile)
		admin.GET("/settings/payment-config", handlers.AdminGetPaymentConfig)
		admin.PUT("/settings/payment-config", handlers.AdminUpdatePaymentConfig)
	}
}
