package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"storefront-api/config"
	"storefront-api/delivery"
	"storefront-api/events"
	"storefront-api/models"
	"storefront-api/payments"
	"storefront-api/pricing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeGeocoder struct {
	result delivery.GeocodeResult
	err    error
}

func (f fakeGeocoder) Geocode(ctx context.Context, address string) (delivery.GeocodeResult, error) {
	return f.result, f.err
}

type fakeCheckout struct {
	session payments.Session
	err     error
	calls   int
}

func (f *fakeCheckout) CreateSession(ctx context.Context, order *models.Order) (payments.Session, error) {
	f.calls++
	return f.session, f.err
}

// Wednesday noon, inside the default 11:00-22:00 window
var openNoon = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedStore(t *testing.T, db *gorm.DB, allDaysOpen bool) {
	t.Helper()
	var schedule models.BusinessHours
	for d := range schedule.Days {
		schedule.Days[d] = models.DayHours{IsOpen: allDaysOpen, OpenTime: "11:00", CloseTime: "22:00"}
	}
	if err := models.SaveSetting(db, models.SettingBusinessHours, schedule); err != nil {
		t.Fatalf("seed hours: %v", err)
	}
	zones := []models.DeliveryZone{
		{Name: "Center", MaxDistanceKm: 3, Fee: 3.00, EstimatedMin: 30},
		{Name: "Outskirts", MaxDistanceKm: 7, Fee: 4.50, EstimatedMin: 45},
	}
	if err := models.SaveSetting(db, models.SettingDeliveryZones, zones); err != nil {
		t.Fatalf("seed zones: %v", err)
	}
	profile := models.StoreProfile{Name: "Test Pizzeria", Latitude: 52.5200, Longitude: 13.4050, Currency: "EUR"}
	if err := models.SaveSetting(db, models.SettingStoreProfile, profile); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	payCfg := models.PaymentConfig{CheckoutEnabled: true, QREnabled: true, CODEnabled: true}
	if err := models.SaveSetting(db, models.SettingPaymentConfig, payCfg); err != nil {
		t.Fatalf("seed payment config: %v", err)
	}

	products := []models.Product{
		{Name: "Margherita", Price: 8.50, IsActive: true, Stock: -1},
		{Name: "Tiramisu", Price: 6.50, IsActive: true, Stock: 5},
		{Name: "Seasonal Special", Price: 12.00, IsActive: false, Stock: -1},
	}
	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}
}

func deliveryRequest() SubmitRequest {
	return SubmitRequest{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		CustomerPhone: "+4930123456",
		IsDelivery:    true,
		Address:       "Nearby Street 1",
		PaymentMethod: models.MethodCOD,
		Items: []SubmitItem{
			{ProductID: 1, Quantity: 2}, // 2x 8.50
			{ProductID: 2, Quantity: 1}, // 1x 6.50 -> subtotal 23.50
		},
		Identity: Identity{ClientID: "client-1", SessionID: "sess-1"},
	}
}

// ~2.2 km from the seeded store, inside the Center zone
var nearbyGeo = fakeGeocoder{result: delivery.GeocodeResult{Latitude: 52.5400, Longitude: 13.4050, FormattedAddress: "Nearby Street 1, Berlin"}}

func TestSubmitClosedStoreWritesNothing(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, false) // every day closed

	s := &Submitter{DB: db, Geocoder: nearbyGeo, Now: func() time.Time { return openNoon }}
	_, err := s.Submit(context.Background(), deliveryRequest())

	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != ReasonHoursClosed {
		t.Fatalf("expected hours_closed rejection, got %v", err)
	}

	var count int64
	db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("expected zero order rows after hours rejection, found %d", count)
	}
	db.Model(&models.OrderNotification{}).Count(&count)
	if count != 0 {
		t.Errorf("expected zero notification rows, found %d", count)
	}
}

func TestSubmitInvalidAddressWritesNothing(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, true)

	// ~55 km away, outside every zone
	farGeo := fakeGeocoder{result: delivery.GeocodeResult{Latitude: 53.0200, Longitude: 13.4050}}
	s := &Submitter{DB: db, Geocoder: farGeo, Now: func() time.Time { return openNoon }}
	_, err := s.Submit(context.Background(), deliveryRequest())

	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != ReasonAddressInvalid {
		t.Fatalf("expected address_invalid rejection, got %v", err)
	}

	var count int64
	db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("expected zero order rows, found %d", count)
	}
}

func TestSubmitGeocoderFailureRejectsWithoutPanic(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, true)

	s := &Submitter{DB: db, Geocoder: fakeGeocoder{err: errors.New("timeout")}, Now: func() time.Time { return openNoon }}
	_, err := s.Submit(context.Background(), deliveryRequest())

	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != ReasonAddressInvalid {
		t.Fatalf("expected address_invalid rejection on geocoder failure, got %v", err)
	}
}

func TestSubmitDeliveryOrderTotals(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, true)
	hub := events.NewHub()
	eventCh, cancel := hub.Subscribe()
	defer cancel()

	s := &Submitter{DB: db, Geocoder: nearbyGeo, Hub: hub, Now: func() time.Time { return openNoon }}
	res, err := s.Submit(context.Background(), deliveryRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	order := res.Order

	// subtotal 23.50 in the 3.00 fee zone
	if order.Subtotal != 23.50 || order.DeliveryFee != 3.00 || order.TotalAmount != 26.50 {
		t.Errorf("totals wrong: subtotal=%v fee=%v total=%v", order.Subtotal, order.DeliveryFee, order.TotalAmount)
	}
	if order.Status != models.StatusConfirmed || order.PaymentStatus != models.PaymentPending {
		t.Errorf("unexpected initial states: %s / %s", order.Status, order.PaymentStatus)
	}
	if order.EstimatedTime != 30 {
		t.Errorf("expected zone ETA 30, got %d", order.EstimatedTime)
	}

	// persisted lines: 2 products + synthetic fee line
	var items []models.OrderItem
	db.Where("order_id = ?", order.ID).Find(&items)
	if len(items) != 3 {
		t.Fatalf("expected 3 order lines, got %d", len(items))
	}
	var feeLine *models.OrderItem
	for i := range items {
		if items[i].Name == pricing.DeliveryFeeLineName {
			feeLine = &items[i]
		}
	}
	if feeLine == nil {
		t.Fatal("no synthetic delivery-fee line found")
	}
	if feeLine.Subtotal != 3.00 || feeLine.ProductID != nil || feeLine.Quantity != 1 {
		t.Errorf("unexpected fee line %+v", feeLine)
	}

	// notification written atomically with the order
	var notifications []models.OrderNotification
	db.Where("order_id = ?", order.ID).Find(&notifications)
	if len(notifications) != 1 || notifications[0].Type != models.NotifyNewOrder {
		t.Errorf("expected one NEW_ORDER notification, got %+v", notifications)
	}

	// tracked stock decremented inside the transaction
	var tiramisu models.Product
	db.First(&tiramisu, 2)
	if tiramisu.Stock != 4 {
		t.Errorf("expected stock 4 after ordering one of five, got %d", tiramisu.Stock)
	}

	// identity stamped into metadata
	var meta map[string]json.RawMessage
	if err := json.Unmarshal(order.Metadata, &meta); err != nil {
		t.Fatalf("metadata not JSON: %v", err)
	}
	var id Identity
	json.Unmarshal(meta["identity"], &id)
	if id.ClientID != "client-1" {
		t.Errorf("expected stamped client id, got %+v", id)
	}
	if order.ClientID != "client-1" {
		t.Errorf("expected client id column, got %q", order.ClientID)
	}

	// live event published
	select {
	case e := <-eventCh:
		if e.Type != events.OrderCreated || e.OrderID != order.ID {
			t.Errorf("unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Error("no order_created event published")
	}
}

func TestSubmitPickupSkipsValidationAndFee(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, true)

	// a geocoder that always fails must not matter for pickup
	s := &Submitter{DB: db, Geocoder: fakeGeocoder{err: errors.New("down")}, Now: func() time.Time { return openNoon }}
	req := deliveryRequest()
	req.IsDelivery = false
	req.Address = ""

	res, err := s.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Order.DeliveryFee != 0 || res.Order.TotalAmount != res.Order.Subtotal {
		t.Errorf("pickup order must carry no fee: %+v", res.Order)
	}

	var items []models.OrderItem
	db.Where("order_id = ?", res.Order.ID).Find(&items)
	if len(items) != 2 {
		t.Errorf("expected 2 lines without the fee line, got %d", len(items))
	}
}

func TestSubmitRejectsInactiveProduct(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, true)

	s := &Submitter{DB: db, Geocoder: nearbyGeo, Now: func() time.Time { return openNoon }}
	req := deliveryRequest()
	req.Items = []SubmitItem{{ProductID: 3, Quantity: 1}}

	_, err := s.Submit(context.Background(), req)
	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != ReasonBadCart {
		t.Fatalf("expected bad_cart rejection, got %v", err)
	}
}

func TestSubmitRejectsInsufficientStock(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, true)

	s := &Submitter{DB: db, Geocoder: nearbyGeo, Now: func() time.Time { return openNoon }}
	req := deliveryRequest()
	req.Items = []SubmitItem{{ProductID: 2, Quantity: 6}} // only 5 in stock

	_, err := s.Submit(context.Background(), req)
	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != ReasonBadCart {
		t.Fatalf("expected bad_cart rejection, got %v", err)
	}

	var count int64
	db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no order rows, found %d", count)
	}
}

func TestSubmitRejectsDisabledPaymentMethod(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, true)
	payCfg := models.PaymentConfig{CheckoutEnabled: true, QREnabled: false, CODEnabled: true}
	if err := models.SaveSetting(db, models.SettingPaymentConfig, payCfg); err != nil {
		t.Fatalf("save payment config: %v", err)
	}

	s := &Submitter{DB: db, Geocoder: nearbyGeo, Now: func() time.Time { return openNoon }}
	req := deliveryRequest()
	req.PaymentMethod = models.MethodQR

	_, err := s.Submit(context.Background(), req)
	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != ReasonMethodDisabled {
		t.Fatalf("expected payment_method_disabled rejection, got %v", err)
	}

	var count int64
	db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("expected zero order rows, found %d", count)
	}
}

func TestSubmitRejectsSoldOutProduct(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, true)
	soldOut := models.Product{Name: "Calzone", Price: 9.00, IsActive: true, Stock: 0}
	if err := db.Create(&soldOut).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	var saved models.Product
	db.First(&saved, soldOut.ID)
	if saved.Stock != 0 {
		t.Fatalf("stock 0 must persist as 0, got %d", saved.Stock)
	}

	s := &Submitter{DB: db, Geocoder: nearbyGeo, Now: func() time.Time { return openNoon }}
	req := deliveryRequest()
	req.Items = []SubmitItem{{ProductID: soldOut.ID, Quantity: 1}}

	_, err := s.Submit(context.Background(), req)
	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != ReasonBadCart {
		t.Fatalf("expected bad_cart rejection for sold-out product, got %v", err)
	}
}

func TestSubmitCheckoutRouting(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, true)

	checkout := &fakeCheckout{session: payments.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}}
	s := &Submitter{DB: db, Geocoder: nearbyGeo, Checkout: checkout, Now: func() time.Time { return openNoon }}
	req := deliveryRequest()
	req.PaymentMethod = models.MethodCheckout

	res, err := s.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.RedirectURL != "https://pay.example/cs_1" {
		t.Errorf("expected redirect URL, got %q", res.RedirectURL)
	}
	if checkout.calls != 1 {
		t.Errorf("expected one session call, got %d", checkout.calls)
	}
}

func TestSubmitCheckoutFailureKeepsOrder(t *testing.T) {
	db := testDB(t)
	seedStore(t, db, true)

	checkout := &fakeCheckout{err: errors.New("provider down")}
	s := &Submitter{DB: db, Geocoder: nearbyGeo, Checkout: checkout, Now: func() time.Time { return openNoon }}
	req := deliveryRequest()
	req.PaymentMethod = models.MethodCheckout

	res, err := s.Submit(context.Background(), req)
	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != ReasonPaymentRouting {
		t.Fatalf("expected payment_routing error, got %v", err)
	}
	if res == nil || res.Order == nil {
		t.Fatal("order must survive a payment-routing failure")
	}

	var saved models.Order
	if err := db.First(&saved, res.Order.ID).Error; err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if saved.PaymentStatus != models.PaymentPending {
		t.Errorf("expected payment still pending, got %s", saved.PaymentStatus)
	}
}

func TestOrderNumberFormat(t *testing.T) {
	n := newOrderNumber(openNoon)
	if len(n) != len("ORD-20260826-XXXXXX") {
		t.Errorf("unexpected order number length: %q", n)
	}
	if n[:13] != "ORD-20260826-" {
		t.Errorf("unexpected order number prefix: %q", n)
	}
	if n == newOrderNumber(openNoon) {
		t.Error("order numbers must not collide for the same instant")
	}
}
