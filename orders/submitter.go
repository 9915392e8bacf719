// Package orders owns the single order-submission pipeline: business-hours
// gate, address validation, pricing, one transactional write, then payment
// routing. All checkout paths go through here.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storefront-api/delivery"
	"storefront-api/events"
	"storefront-api/hours"
	"storefront-api/metrics"
	"storefront-api/models"
	"storefront-api/notify"
	"storefront-api/payments"
	"storefront-api/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RejectReason classifies why a submission was turned away.
type RejectReason string

const (
	ReasonHoursClosed    RejectReason = "hours_closed"
	ReasonAddressInvalid RejectReason = "address_invalid"
	ReasonBadCart        RejectReason = "bad_cart"
	ReasonMethodDisabled RejectReason = "payment_method_disabled"
	ReasonWriteFailed    RejectReason = "write_failed"
	ReasonPaymentRouting RejectReason = "payment_routing"
)

// RejectedError carries the reason and a customer-facing message.
type RejectedError struct {
	Reason  RejectReason
	Message string
}

func (e *RejectedError) Error() string {
	return string(e.Reason) + ": " + e.Message
}

// Identity is the client stamp recorded in order metadata.
type Identity struct {
	ClientID    string `json:"client_id"`
	SessionID   string `json:"session_id"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// SubmitItem is one requested cart position.
type SubmitItem struct {
	ProductID      uint            `json:"product_id" binding:"required"`
	Quantity       int             `json:"quantity" binding:"required,min=1"`
	SpecialRequest string          `json:"special_request"`
	Extras         json.RawMessage `json:"extras"`
}

// SubmitRequest is everything needed to place an order.
type SubmitRequest struct {
	CustomerName  string               `json:"customer_name" binding:"required"`
	CustomerEmail string               `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone string               `json:"customer_phone" binding:"required"`
	IsDelivery    bool                 `json:"is_delivery"`
	Address       string               `json:"address"`
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required"`
	Items         []SubmitItem         `json:"items" binding:"required,min=1"`
	Identity      Identity             `json:"-"`
}

// SubmitResult is the submission outcome handed back to the storefront.
type SubmitResult struct {
	Order       *models.Order `json:"order"`
	RedirectURL string        `json:"redirect_url,omitempty"` // set for hosted-checkout payments
}

// Submitter orchestrates order placement. Hours and zone configuration are
// reloaded from the settings table on every submission so admin edits take
// effect immediately.
type Submitter struct {
	DB       *gorm.DB
	Geocoder delivery.Geocoder
	Checkout payments.CheckoutClient // optional
	Mailer   notify.Mailer           // optional
	Hub      *events.Hub             // optional
	Now      func() time.Time        // defaults to time.Now
}

func (s *Submitter) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Submit runs the full pipeline. No database write happens before the hours
// gate and address validation both pass; the header, all lines and the
// new-order notification are written in one transaction.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	// stage 1: business hours, before anything touches the database
	var schedule models.BusinessHours
	if err := models.LoadSetting(s.DB, models.SettingBusinessHours, &schedule); err != nil {
		return nil, fmt.Errorf("loading business hours: %w", err)
	}
	status := hours.New(schedule).OrderingAllowed(s.now())
	if !status.Allowed {
		metrics.OrdersRejected.WithLabelValues(string(ReasonHoursClosed)).Inc()
		return nil, &RejectedError{Reason: ReasonHoursClosed, Message: status.Message}
	}

	// stage 2: the chosen payment method must be enabled by the admin
	var payCfg models.PaymentConfig
	if err := models.LoadSetting(s.DB, models.SettingPaymentConfig, &payCfg); err == nil {
		if !methodEnabled(payCfg, req.PaymentMethod) {
			metrics.OrdersRejected.WithLabelValues(string(ReasonMethodDisabled)).Inc()
			return nil, &RejectedError{Reason: ReasonMethodDisabled, Message: "this payment method is currently unavailable"}
		}
	}

	// stage 3: cart pricing from the live catalog
	quote, cartLines, err := s.priceCart(req.Items)
	if err != nil {
		metrics.OrdersRejected.WithLabelValues(string(ReasonBadCart)).Inc()
		return nil, err
	}

	// stage 4: address validation for delivery orders
	var validation delivery.ValidationResult
	estimated := 20
	if req.IsDelivery {
		validation, err = s.validateAddress(ctx, req.Address, quote.Subtotal)
		if err != nil {
			metrics.OrdersRejected.WithLabelValues(string(ReasonAddressInvalid)).Inc()
			return nil, err
		}
		quote = pricing.Build(cartLines, validation.Fee)
		estimated = validation.EstimatedMin
	}

	order := &models.Order{
		OrderNumber:     newOrderNumber(s.now()),
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.Address,
		IsDelivery:      req.IsDelivery,
		Subtotal:        quote.Subtotal,
		DeliveryFee:     quote.DeliveryFee,
		TotalAmount:     quote.Total,
		Status:          models.StatusConfirmed,
		PaymentStatus:   models.PaymentPending,
		PaymentMethod:   req.PaymentMethod,
		ClientID:        req.Identity.ClientID,
		EstimatedTime:   estimated,
		Items:           quote.Lines,
	}
	if meta, err := json.Marshal(map[string]interface{}{
		"validation": validation,
		"identity":   req.Identity,
	}); err == nil {
		order.Metadata = datatypes.JSON(meta)
	}

	// stage 5: header + lines + notification in a single transaction
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.decrementStock(tx, req.Items); err != nil {
			return err
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		notification := models.OrderNotification{
			OrderID: order.ID,
			Type:    models.NotifyNewOrder,
			Message: fmt.Sprintf("New order %s from %s (%.2f)", order.OrderNumber, order.CustomerName, order.TotalAmount),
		}
		return tx.Create(&notification).Error
	})
	if err != nil {
		if rej, ok := err.(*RejectedError); ok {
			metrics.OrdersRejected.WithLabelValues(string(rej.Reason)).Inc()
			return nil, rej
		}
		log.Error().Err(err).Str("order", order.OrderNumber).Msg("order write failed")
		metrics.OrdersRejected.WithLabelValues(string(ReasonWriteFailed)).Inc()
		return nil, &RejectedError{Reason: ReasonWriteFailed, Message: "could not save your order, please try again"}
	}

	metrics.OrdersPlaced.WithLabelValues(string(order.PaymentMethod)).Inc()
	log.Info().
		Str("order", order.OrderNumber).
		Str("method", string(order.PaymentMethod)).
		Float64("total", order.TotalAmount).
		Msg("order placed")

	// stage 6: best-effort side effects, never fail the order
	if s.Hub != nil {
		s.Hub.Publish(events.Event{Type: events.OrderCreated, OrderID: order.ID, Order: order})
	}
	if s.Mailer != nil {
		if err := s.Mailer.SendOrderConfirmation(order); err != nil {
			log.Warn().Err(err).Str("order", order.OrderNumber).Msg("confirmation email failed")
		}
	}

	// stage 7: payment routing
	result := &SubmitResult{Order: order}
	if req.PaymentMethod == models.MethodCheckout {
		if s.Checkout == nil {
			return result, &RejectedError{Reason: ReasonPaymentRouting, Message: "online payment is not available right now"}
		}
		session, err := s.Checkout.CreateSession(ctx, order)
		if err != nil {
			log.Error().Err(err).Str("order", order.OrderNumber).Msg("checkout session failed")
			// the order stays pending so payment can be retried or settled on delivery
			return result, &RejectedError{Reason: ReasonPaymentRouting, Message: "payment page could not be opened"}
		}
		result.RedirectURL = session.URL
	}
	return result, nil
}

// priceCart loads each product, enforces availability and snapshots prices.
func (s *Submitter) priceCart(items []SubmitItem) (pricing.Quote, []pricing.CartLine, error) {
	lines := make([]pricing.CartLine, 0, len(items))
	for _, item := range items {
		var product models.Product
		if err := s.DB.First(&product, item.ProductID).Error; err != nil {
			return pricing.Quote{}, nil, &RejectedError{Reason: ReasonBadCart, Message: fmt.Sprintf("product %d not found", item.ProductID)}
		}
		if !product.IsActive {
			return pricing.Quote{}, nil, &RejectedError{Reason: ReasonBadCart, Message: fmt.Sprintf("'%s' is not available", product.Name)}
		}
		if product.Stock >= 0 && product.Stock < item.Quantity {
			return pricing.Quote{}, nil, &RejectedError{Reason: ReasonBadCart, Message: fmt.Sprintf("'%s' is out of stock", product.Name)}
		}
		pid := product.ID
		lines = append(lines, pricing.CartLine{
			ProductID:      &pid,
			Name:           product.Name,
			UnitPrice:      product.Price,
			Quantity:       item.Quantity,
			SpecialRequest: item.SpecialRequest,
			Extras:         item.Extras,
		})
	}
	return pricing.Build(lines, 0), lines, nil
}

// decrementStock reserves tracked stock inside the order transaction.
func (s *Submitter) decrementStock(tx *gorm.DB, items []SubmitItem) error {
	for _, item := range items {
		var product models.Product
		if err := tx.First(&product, item.ProductID).Error; err != nil {
			return err
		}
		if product.Stock < 0 {
			continue
		}
		if product.Stock < item.Quantity {
			return &RejectedError{Reason: ReasonBadCart, Message: fmt.Sprintf("'%s' is out of stock", product.Name)}
		}
		if err := tx.Model(&product).Update("stock", product.Stock-item.Quantity).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Submitter) validateAddress(ctx context.Context, address string, subtotal float64) (delivery.ValidationResult, error) {
	var profile models.StoreProfile
	if err := models.LoadSetting(s.DB, models.SettingStoreProfile, &profile); err != nil {
		return delivery.ValidationResult{}, fmt.Errorf("loading store profile: %w", err)
	}
	var zones []models.DeliveryZone
	if err := models.LoadSetting(s.DB, models.SettingDeliveryZones, &zones); err != nil {
		return delivery.ValidationResult{}, fmt.Errorf("loading delivery zones: %w", err)
	}

	validator := delivery.NewValidator(s.Geocoder, profile, zones)
	res := validator.Validate(ctx, address, subtotal)
	if !res.IsValid {
		msg := res.Error
		if msg == "" {
			msg = "delivery address could not be validated"
		}
		return res, &RejectedError{Reason: ReasonAddressInvalid, Message: msg}
	}
	return res, nil
}

func methodEnabled(cfg models.PaymentConfig, method models.PaymentMethod) bool {
	switch method {
	case models.MethodCheckout:
		return cfg.CheckoutEnabled
	case models.MethodQR:
		return cfg.QREnabled
	case models.MethodCOD:
		return cfg.CODEnabled
	}
	return false
}

// newOrderNumber builds a human-readable order number like ORD-20260828-1A2B3C.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
