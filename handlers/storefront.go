package handlers

import (
	"net/http"
	"time"

	"storefront-api/config"
	"storefront-api/delivery"
	"storefront-api/hours"
	"storefront-api/models"
	"storefront-api/statemachine"

	"github.com/gin-gonic/gin"
)

// ListCategories returns active categories in display order (public)
func ListCategories(c *gin.Context) {
	var categories []models.Category
	config.DB.Where("is_active = ?", true).Order("sort_order asc, name asc").Find(&categories)
	c.JSON(http.StatusOK, gin.H{"count": len(categories), "categories": categories})
}

// ListProducts returns the active catalog (public)
func ListProducts(c *gin.Context) {
	var products []models.Product
	query := config.DB.Preload("Category").Where("is_active = ?", true)

	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if c.Query("featured") == "true" {
		query = query.Where("is_featured = ?", true)
	}
	query.Order("sort_order asc, name asc").Find(&products)

	c.JSON(http.StatusOK, gin.H{"count": len(products), "products": products})
}

// GetProduct returns a single product (public)
func GetProduct(c *gin.Context) {
	var product models.Product
	if err := config.DB.Preload("Category").First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// GetStoreStatus tells the storefront whether ordering is open right now
func GetStoreStatus(c *gin.Context) {
	var schedule models.BusinessHours
	if err := models.LoadSetting(config.DB, models.SettingBusinessHours, &schedule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Business hours are not configured"})
		return
	}

	checker := hours.New(schedule)
	status := checker.OrderingAllowed(time.Now())

	c.JSON(http.StatusOK, gin.H{
		"open":      status.Allowed,
		"message":   status.Message,
		"next_open": status.NextOpen,
		"schedule":  checker.FormatWeek(),
	})
}

type ValidateAddressRequest struct {
	Address  string  `json:"address" binding:"required"`
	Subtotal float64 `json:"subtotal" binding:"min=0"`
}

// ValidateAddress lets the storefront pre-check an address while the
// customer types (the client debounces; this endpoint is stateless).
func ValidateAddress(c *gin.Context) {
	var req ValidateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var profile models.StoreProfile
	if err := models.LoadSetting(config.DB, models.SettingStoreProfile, &profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Store profile is not configured"})
		return
	}
	var zones []models.DeliveryZone
	if err := models.LoadSetting(config.DB, models.SettingDeliveryZones, &zones); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Delivery zones are not configured"})
		return
	}

	validator := delivery.NewValidator(Geocoder, profile, zones)
	c.JSON(http.StatusOK, validator.Validate(c.Request.Context(), req.Address, req.Subtotal))
}

// GetPaymentOptions tells the storefront which payment methods the admin
// has enabled, plus the QR details needed to render the manual-payment step.
func GetPaymentOptions(c *gin.Context) {
	var cfg models.PaymentConfig
	if err := models.LoadSetting(config.DB, models.SettingPaymentConfig, &cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment options are not configured"})
		return
	}

	methods := make([]models.PaymentMethod, 0, 3)
	if cfg.CheckoutEnabled {
		methods = append(methods, models.MethodCheckout)
	}
	if cfg.QREnabled {
		methods = append(methods, models.MethodQR)
	}
	if cfg.CODEnabled {
		methods = append(methods, models.MethodCOD)
	}

	resp := gin.H{"methods": methods}
	if cfg.QREnabled {
		resp["qr"] = gin.H{
			"image_url":    cfg.QRImageURL,
			"payment_code": cfg.QRPaymentCode,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetStateMachineInfo returns the order lifecycle for documentation
func GetStateMachineInfo(c *gin.Context) {
	transitions := statemachine.GetAllTransitions()
	info := make([]gin.H, 0, len(transitions))
	for _, t := range transitions {
		info = append(info, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   info,
		"terminal_states": []models.OrderStatus{models.StatusDelivered, models.StatusCancelled},
		"description":     "Storefront Order Lifecycle State Machine",
	})
}
