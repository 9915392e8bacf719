package handlers

import (
	"io"
	"net/http"

	"storefront-api/config"
	"storefront-api/events"
	"storefront-api/metrics"
	"storefront-api/models"
	"storefront-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminGetOrders returns orders with filters and a dashboard summary
func AdminGetOrders(c *gin.Context) {
	var list []models.Order
	query := config.DB.Preload("Items").Preload("Notifications")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if payment := c.Query("payment_status"); payment != "" {
		query = query.Where("payment_status = ?", payment)
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("created_at >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("created_at < ?", to)
	}

	query.Order("created_at desc").Find(&list)

	summary := map[string]int{}
	var revenue float64
	for _, o := range list {
		summary[string(o.Status)]++
		if o.PaymentStatus == models.PaymentPaid || o.Status == models.StatusDelivered {
			revenue += o.TotalAmount
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"total_revenue": revenue,
		"count":         len(list),
		"orders":        list,
	})
}

// AdminGetOrder returns full order detail
func AdminGetOrder(c *gin.Context) {
	var order models.Order
	if err := config.DB.Preload("Items").Preload("Notifications").First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// AdminUpdateOrderStatus moves an order along the pipeline, gated by the
// state machine
func AdminUpdateOrderStatus(c *gin.Context) {
	var order models.Order
	if err := config.DB.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := statemachine.CanTransition(order.Status, req.Status, statemachine.ActorAdmin); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             "Invalid state transition",
			"current_status":    order.Status,
			"requested":         req.Status,
			"reason":            err.Error(),
			"valid_next_states": statemachine.ValidTransitionsFrom(order.Status),
		})
		return
	}

	prevStatus := order.Status
	if err := config.DB.Model(&order).Update("status", req.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}
	order.Status = req.Status

	message := "Order " + order.OrderNumber + " moved " + string(prevStatus) + " -> " + string(req.Status)
	if req.Note != "" {
		message += ": " + req.Note
	}
	config.DB.Create(&models.OrderNotification{
		OrderID: order.ID,
		Type:    models.NotifyStatusChange,
		Message: message,
	})
	publishUpdated(&order)

	c.JSON(http.StatusOK, gin.H{
		"message":         "Order status updated",
		"order_id":        order.ID,
		"previous_status": prevStatus,
		"current_status":  req.Status,
	})
}

type ForceOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Reason string             `json:"reason" binding:"required"`
}

// AdminForceOrderStatus overrides the state machine (emergency use only) and
// leaves an override note in the notification trail
func AdminForceOrderStatus(c *gin.Context) {
	var order models.Order
	if err := config.DB.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	var req ForceOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prevStatus := order.Status
	if err := config.DB.Model(&order).Update("status", req.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}
	order.Status = req.Status

	config.DB.Create(&models.OrderNotification{
		OrderID: order.ID,
		Type:    models.NotifyAdminOverride,
		Message: "[OVERRIDE] " + order.OrderNumber + " forced " + string(prevStatus) + " -> " + string(req.Status) + ": " + req.Reason,
	})
	publishUpdated(&order)

	c.JSON(http.StatusOK, gin.H{
		"message":         "Order status force-updated",
		"order_id":        order.ID,
		"previous_status": prevStatus,
		"new_status":      req.Status,
	})
}

// AdminMarkPaymentPaid settles a verified QR payment by hand
func AdminMarkPaymentPaid(c *gin.Context) {
	var order models.Order
	if err := config.DB.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if order.PaymentStatus == models.PaymentPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "Order is already paid"})
		return
	}

	if err := config.DB.Model(&order).Update("payment_status", models.PaymentPaid).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update payment status"})
		return
	}
	order.PaymentStatus = models.PaymentPaid

	config.DB.Create(&models.OrderNotification{
		OrderID: order.ID,
		Type:    models.NotifyPayment,
		Message: "Payment for order " + order.OrderNumber + " verified and marked paid",
	})
	publishUpdated(&order)

	c.JSON(http.StatusOK, gin.H{"message": "Payment marked paid", "order_id": order.ID})
}

// AdminDeleteOrder removes the order and cascades to its lines and
// notifications in one transaction — no orphans on partial failure
func AdminDeleteOrder(c *gin.Context) {
	var order models.Order
	if err := config.DB.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderNotification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	if Hub != nil {
		Hub.Publish(events.Event{Type: events.OrderDeleted, OrderID: order.ID})
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order deleted", "order_id": order.ID})
}

// AdminStreamOrders is the live admin feed: one SSE event per order change,
// keyed by order id so the client patches its list in place
func AdminStreamOrders(c *gin.Context) {
	if Hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Event stream unavailable"})
		return
	}

	ch, cancel := Hub.Subscribe()
	defer cancel()
	metrics.StreamSubscribers.Inc()
	defer metrics.StreamSubscribers.Dec()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Type), e)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
