package handlers

import (
	"net/http"

	"storefront-api/config"
	"storefront-api/models"

	"github.com/gin-gonic/gin"
)

// ── Settings editors (JSON blobs in the settings table) ──────────────────────

// AdminGetBusinessHours returns the weekly schedule
func AdminGetBusinessHours(c *gin.Context) {
	var schedule models.BusinessHours
	if err := models.LoadSetting(config.DB, models.SettingBusinessHours, &schedule); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Business hours are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"business_hours": schedule})
}

// AdminUpdateBusinessHours replaces the weekly schedule
func AdminUpdateBusinessHours(c *gin.Context) {
	var schedule models.BusinessHours
	if err := c.ShouldBindJSON(&schedule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := models.SaveSetting(config.DB, models.SettingBusinessHours, schedule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save business hours"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Business hours updated", "business_hours": schedule})
}

// AdminGetDeliveryZones returns the configured zones
func AdminGetDeliveryZones(c *gin.Context) {
	var zones []models.DeliveryZone
	if err := models.LoadSetting(config.DB, models.SettingDeliveryZones, &zones); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery zones are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"zones": zones})
}

// AdminUpdateDeliveryZones replaces the zone list
func AdminUpdateDeliveryZones(c *gin.Context) {
	var zones []models.DeliveryZone
	if err := c.ShouldBindJSON(&zones); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, z := range zones {
		if z.MaxDistanceKm <= 0 || z.Fee < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Zones need a positive max distance and a non-negative fee"})
			return
		}
	}
	if err := models.SaveSetting(config.DB, models.SettingDeliveryZones, zones); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save delivery zones"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delivery zones updated", "zones": zones})
}

// AdminGetStoreProfile returns store identity and origin coordinates
func AdminGetStoreProfile(c *gin.Context) {
	var profile models.StoreProfile
	if err := models.LoadSetting(config.DB, models.SettingStoreProfile, &profile); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store profile is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// AdminUpdateStoreProfile replaces the store profile
func AdminUpdateStoreProfile(c *gin.Context) {
	var profile models.StoreProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := models.SaveSetting(config.DB, models.SettingStoreProfile, profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save store profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Store profile updated", "profile": profile})
}

// AdminGetPaymentConfig returns enabled payment methods and QR details
func AdminGetPaymentConfig(c *gin.Context) {
	var cfg models.PaymentConfig
	if err := models.LoadSetting(config.DB, models.SettingPaymentConfig, &cfg); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment config is not set"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_config": cfg})
}

// AdminUpdatePaymentConfig replaces the payment configuration
func AdminUpdatePaymentConfig(c *gin.Context) {
	var cfg models.PaymentConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := models.SaveSetting(config.DB, models.SettingPaymentConfig, cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save payment config"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment config updated", "payment_config": cfg})
}

// ── Notification feed ────────────────────────────────────────────────────────

// AdminListNotifications returns the feed, unread first
func AdminListNotifications(c *gin.Context) {
	var list []models.OrderNotification
	query := config.DB.Order("is_read asc, created_at desc").Limit(100)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}
	query.Find(&list)

	var unread int64
	config.DB.Model(&models.OrderNotification{}).Where("is_read = ?", false).Count(&unread)

	c.JSON(http.StatusOK, gin.H{"count": len(list), "unread": unread, "notifications": list})
}

// AdminMarkNotificationRead acknowledges one notification
func AdminMarkNotificationRead(c *gin.Context) {
	var notification models.OrderNotification
	if err := config.DB.First(&notification, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	if err := config.DB.Model(&notification).Update("is_read", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notification read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked read", "id": notification.ID})
}

// AdminMarkAllNotificationsRead acknowledges the whole feed
func AdminMarkAllNotificationsRead(c *gin.Context) {
	result := config.DB.Model(&models.OrderNotification{}).Where("is_read = ?", false).Update("is_read", true)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notifications read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked read", "updated": result.RowsAffected})
}
