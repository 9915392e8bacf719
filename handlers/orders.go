package handlers

import (
	"errors"
	"net/http"

	"storefront-api/config"
	"storefront-api/events"
	"storefront-api/middleware"
	"storefront-api/models"
	"storefront-api/orders"
	"storefront-api/statemachine"

	"github.com/gin-gonic/gin"
)

// PlaceOrder runs the consolidated submission pipeline for every payment
// choice — hosted checkout, QR and cash on delivery all land here.
func PlaceOrder(c *gin.Context) {
	var req orders.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.PaymentMethod {
	case models.MethodCheckout, models.MethodQR, models.MethodCOD:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment method. Must be: CHECKOUT, QR or COD"})
		return
	}
	if req.IsDelivery && req.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Delivery orders need an address"})
		return
	}

	identity := middleware.GetClientIdentity(c)
	req.Identity = orders.Identity{
		ClientID:    identity.ClientID,
		SessionID:   identity.SessionID,
		Fingerprint: identity.Fingerprint,
	}

	result, err := Submitter.Submit(c.Request.Context(), req)
	if err != nil {
		var rej *orders.RejectedError
		if !errors.As(err, &rej) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred, please try again or contact us directly"})
			return
		}
		switch rej.Reason {
		case orders.ReasonHoursClosed:
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": rej.Message, "reason": rej.Reason})
		case orders.ReasonAddressInvalid, orders.ReasonBadCart, orders.ReasonMethodDisabled:
			c.JSON(http.StatusBadRequest, gin.H{"error": rej.Message, "reason": rej.Reason})
		case orders.ReasonPaymentRouting:
			// the order was persisted; tell the customer how to proceed
			c.JSON(http.StatusBadGateway, gin.H{
				"error":  rej.Message,
				"reason": rej.Reason,
				"order":  result.Order,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred, please try again or contact us directly"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Order placed successfully",
		"order":        result.Order,
		"redirect_url": result.RedirectURL,
	})
}

// GetMyOrders returns orders stamped with the caller's client identity —
// a convenience lookup, not authentication.
func GetMyOrders(c *gin.Context) {
	identity := middleware.GetClientIdentity(c)
	var list []models.Order
	config.DB.Preload("Items").
		Where("client_id = ?", identity.ClientID).
		Order("created_at desc").
		Limit(20).
		Find(&list)
	c.JSON(http.StatusOK, gin.H{"count": len(list), "orders": list})
}

// GetMyOrder returns one of the caller's orders by order number
func GetMyOrder(c *gin.Context) {
	identity := middleware.GetClientIdentity(c)
	var order models.Order
	if err := config.DB.Preload("Items").
		Where("order_number = ? AND client_id = ?", c.Param("number"), identity.ClientID).
		First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelMyOrder lets a customer back out while the order is still CONFIRMED
func CancelMyOrder(c *gin.Context) {
	identity := middleware.GetClientIdentity(c)
	var order models.Order
	if err := config.DB.
		Where("order_number = ? AND client_id = ?", c.Param("number"), identity.ClientID).
		First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	if err := statemachine.CanTransition(order.Status, models.StatusCancelled, statemachine.ActorCustomer); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          "Cannot cancel order",
			"reason":         err.Error(),
			"current_status": order.Status,
		})
		return
	}

	if err := config.DB.Model(&order).Update("status", models.StatusCancelled).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel order"})
		return
	}
	order.Status = models.StatusCancelled

	config.DB.Create(&models.OrderNotification{
		OrderID: order.ID,
		Type:    models.NotifyStatusChange,
		Message: "Order " + order.OrderNumber + " cancelled by customer",
	})
	publishUpdated(&order)

	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully", "order_number": order.OrderNumber})
}

// ConfirmQRPayment records the customer's "I have paid" self-report for QR
// orders. It moves the payment to REVIEW only — PAID needs the provider
// webhook or an explicit admin action.
func ConfirmQRPayment(c *gin.Context) {
	identity := middleware.GetClientIdentity(c)
	var order models.Order
	if err := config.DB.
		Where("order_number = ? AND client_id = ?", c.Param("number"), identity.ClientID).
		First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	if order.PaymentMethod != models.MethodQR {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This order does not use QR payment"})
		return
	}
	if order.PaymentStatus != models.PaymentPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Payment is already " + string(order.PaymentStatus)})
		return
	}

	if err := config.DB.Model(&order).Update("payment_status", models.PaymentReview).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment confirmation"})
		return
	}
	order.PaymentStatus = models.PaymentReview

	config.DB.Create(&models.OrderNotification{
		OrderID: order.ID,
		Type:    models.NotifyPayment,
		Message: "Customer reported QR payment for order " + order.OrderNumber + " — verify before preparing",
	})
	publishUpdated(&order)

	c.JSON(http.StatusOK, gin.H{
		"message":        "Payment confirmation recorded, we will verify it shortly",
		"payment_status": order.PaymentStatus,
	})
}

type PaymentWebhookRequest struct {
	OrderNumber string `json:"order_number" binding:"required"`
	Status      string `json:"status" binding:"required,oneof=paid failed refunded"`
	Reference   string `json:"reference"`
}

// PaymentWebhook is the provider's server-to-server payment signal and the
// only path (besides admin action) that marks an order PAID.
func PaymentWebhook(c *gin.Context) {
	if WebhookSecret == "" || c.GetHeader("X-Webhook-Secret") != WebhookSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook secret"})
		return
	}

	var req PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var order models.Order
	if err := config.DB.Where("order_number = ?", req.OrderNumber).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	newStatus := map[string]models.PaymentStatus{
		"paid":     models.PaymentPaid,
		"failed":   models.PaymentFailed,
		"refunded": models.PaymentRefunded,
	}[req.Status]

	if err := config.DB.Model(&order).Update("payment_status", newStatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update payment status"})
		return
	}
	order.PaymentStatus = newStatus

	config.DB.Create(&models.OrderNotification{
		OrderID: order.ID,
		Type:    models.NotifyPayment,
		Message: "Payment " + req.Status + " for order " + order.OrderNumber,
	})
	publishUpdated(&order)

	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated", "payment_status": newStatus})
}

func publishUpdated(order *models.Order) {
	if Hub != nil {
		Hub.Publish(events.Event{Type: events.OrderUpdated, OrderID: order.ID, Order: order})
	}
}
