package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-api/config"
	"storefront-api/events"
	"storefront-api/middleware"
	"storefront-api/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// adminRouter wires the handlers under test without the auth middleware;
// token validation is covered by the middleware package.
func adminRouter(t *testing.T) (*gin.Engine, *events.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	config.DB = db

	hub := events.NewHub()
	Hub = hub
	WebhookSecret = "hook-secret"

	r := gin.New()
	r.PUT("/admin/orders/:id/status", AdminUpdateOrderStatus)
	r.PUT("/admin/orders/:id/force-status", AdminForceOrderStatus)
	r.PUT("/admin/orders/:id/payment/paid", AdminMarkPaymentPaid)
	r.DELETE("/admin/orders/:id", AdminDeleteOrder)
	r.GET("/admin/orders", AdminGetOrders)
	r.POST("/admin/products", AdminCreateProduct)
	r.POST("/admin/categories", AdminCreateCategory)
	r.POST("/payments/webhook", PaymentWebhook)
	r.GET("/payment-options", GetPaymentOptions)

	public := r.Group("/")
	public.Use(middleware.ClientIdentityStamper())
	public.POST("/orders/:number/confirm-payment", ConfirmQRPayment)

	return r, hub
}

func seedOrder(t *testing.T, status models.OrderStatus, method models.PaymentMethod) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:   "ORD-20260828-TEST01",
		CustomerName:  "Ada",
		CustomerPhone: "+4930123456",
		Subtotal:      23.50,
		DeliveryFee:   3.00,
		TotalAmount:   26.50,
		Status:        status,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: method,
		ClientID:      "client-1",
		Items: []models.OrderItem{
			{Name: "Margherita", Price: 8.50, Quantity: 2, Subtotal: 17.00},
			{Name: "Tiramisu", Price: 6.50, Quantity: 1, Subtotal: 6.50},
			{Name: "Delivery fee", Price: 3.00, Quantity: 1, Subtotal: 3.00},
		},
		Notifications: []models.OrderNotification{
			{Type: models.NotifyNewOrder, Message: "New order"},
		},
	}
	if err := config.DB.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func putJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	return sendJSON(r, http.MethodPut, path, body)
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	return sendJSON(r, http.MethodPost, path, body)
}

func sendJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAdminStatusTransitionEmitsPatchEvent(t *testing.T) {
	r, hub := adminRouter(t)
	order := seedOrder(t, models.StatusConfirmed, models.MethodCOD)

	ch, cancel := hub.Subscribe()
	defer cancel()

	w := putJSON(r, "/admin/orders/1/status", gin.H{"status": "PREPARING"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var saved models.Order
	config.DB.First(&saved, order.ID)
	if saved.Status != models.StatusPreparing {
		t.Errorf("expected PREPARING, got %s", saved.Status)
	}

	// the admin view patches by id from this event, no refetch
	select {
	case e := <-ch:
		if e.Type != events.OrderUpdated || e.OrderID != order.ID {
			t.Errorf("unexpected event %+v", e)
		}
		if e.Order == nil || e.Order.Status != models.StatusPreparing {
			t.Errorf("event must carry the patched order, got %+v", e.Order)
		}
	case <-time.After(time.Second):
		t.Error("no order_updated event published")
	}

	var notifCount int64
	config.DB.Model(&models.OrderNotification{}).
		Where("order_id = ? AND type = ?", order.ID, models.NotifyStatusChange).Count(&notifCount)
	if notifCount != 1 {
		t.Errorf("expected one status-change notification, got %d", notifCount)
	}
}

func TestAdminStatusTransitionRejectsInvalid(t *testing.T) {
	r, _ := adminRouter(t)
	order := seedOrder(t, models.StatusDelivered, models.MethodCOD)

	w := putJSON(r, "/admin/orders/1/status", gin.H{"status": "PREPARING"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for backward transition, got %d", w.Code)
	}

	var saved models.Order
	config.DB.First(&saved, order.ID)
	if saved.Status != models.StatusDelivered {
		t.Errorf("status must be unchanged, got %s", saved.Status)
	}
}

func TestAdminForceStatusBypassesStateMachine(t *testing.T) {
	r, _ := adminRouter(t)
	seedOrder(t, models.StatusDelivered, models.MethodCOD)

	w := putJSON(r, "/admin/orders/1/force-status", gin.H{"status": "PREPARING", "reason": "kitchen mistake"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var notif models.OrderNotification
	if err := config.DB.Where("type = ?", models.NotifyAdminOverride).First(&notif).Error; err != nil {
		t.Error("expected an override notification in the trail")
	}
}

func TestAdminDeleteOrderLeavesNoOrphans(t *testing.T) {
	r, hub := adminRouter(t)
	order := seedOrder(t, models.StatusConfirmed, models.MethodCOD)

	ch, cancel := hub.Subscribe()
	defer cancel()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/orders/1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var orderCount, itemCount, notifCount int64
	config.DB.Model(&models.Order{}).Count(&orderCount)
	config.DB.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&itemCount)
	config.DB.Model(&models.OrderNotification{}).Where("order_id = ?", order.ID).Count(&notifCount)
	if orderCount != 0 || itemCount != 0 || notifCount != 0 {
		t.Errorf("orphans after delete: orders=%d items=%d notifications=%d", orderCount, itemCount, notifCount)
	}

	select {
	case e := <-ch:
		if e.Type != events.OrderDeleted || e.OrderID != order.ID {
			t.Errorf("unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Error("no order_deleted event published")
	}
}

func TestPaymentWebhookRequiresSecret(t *testing.T) {
	r, _ := adminRouter(t)
	seedOrder(t, models.StatusConfirmed, models.MethodCheckout)

	body, _ := json.Marshal(gin.H{"order_number": "ORD-20260828-TEST01", "status": "paid"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Secret", "hook-secret")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with secret, got %d: %s", w.Code, w.Body.String())
	}

	var saved models.Order
	config.DB.Where("order_number = ?", "ORD-20260828-TEST01").First(&saved)
	if saved.PaymentStatus != models.PaymentPaid {
		t.Errorf("expected PAID after webhook, got %s", saved.PaymentStatus)
	}
}

func TestConfirmQRPaymentMovesToReviewOnly(t *testing.T) {
	r, _ := adminRouter(t)
	seedOrder(t, models.StatusConfirmed, models.MethodQR)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/ORD-20260828-TEST01/confirm-payment", nil)
	req.AddCookie(&http.Cookie{Name: middleware.ClientIDCookie, Value: "client-1"})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var saved models.Order
	config.DB.Where("order_number = ?", "ORD-20260828-TEST01").First(&saved)
	if saved.PaymentStatus != models.PaymentReview {
		t.Errorf("self-report must move payment to REVIEW, got %s", saved.PaymentStatus)
	}
}

func TestConfirmQRPaymentRejectsForeignClient(t *testing.T) {
	r, _ := adminRouter(t)
	seedOrder(t, models.StatusConfirmed, models.MethodQR)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/ORD-20260828-TEST01/confirm-payment", nil)
	req.AddCookie(&http.Cookie{Name: middleware.ClientIDCookie, Value: "someone-else"})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a different client identity, got %d", w.Code)
	}
}
