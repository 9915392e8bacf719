package models

import (
	"time"

	"gorm.io/datatypes"
)

// OrderStatus represents all possible states of a storefront order
type OrderStatus string

const (
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusArrived   OrderStatus = "ARRIVED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// PaymentStatus tracks the payment lifecycle independently of fulfilment
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentReview   PaymentStatus = "REVIEW" // customer self-reported, awaiting verification
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// PaymentMethod is the tagged payment choice made at checkout
type PaymentMethod string

const (
	MethodCheckout PaymentMethod = "CHECKOUT" // external hosted checkout redirect
	MethodQR       PaymentMethod = "QR"       // static QR code, manual confirmation
	MethodCOD      PaymentMethod = "COD"      // cash on delivery / pay later
)

type Order struct {
	ID              uint                `json:"id" gorm:"primaryKey"`
	OrderNumber     string              `json:"order_number" gorm:"uniqueIndex;not null"`
	CustomerName    string              `json:"customer_name" gorm:"not null"`
	CustomerEmail   string              `json:"customer_email"`
	CustomerPhone   string              `json:"customer_phone" gorm:"not null"`
	DeliveryAddress string              `json:"delivery_address"`
	IsDelivery      bool                `json:"is_delivery"`
	Subtotal        float64             `json:"subtotal" gorm:"not null"`
	DeliveryFee     float64             `json:"delivery_fee"`
	TotalAmount     float64             `json:"total_amount" gorm:"not null"` // invariant: subtotal + delivery_fee
	Status          OrderStatus         `json:"status" gorm:"not null;default:'CONFIRMED'"`
	PaymentStatus   PaymentStatus       `json:"payment_status" gorm:"not null;default:'PENDING'"`
	PaymentMethod   PaymentMethod       `json:"payment_method" gorm:"not null"`
	ClientID        string              `json:"client_id" gorm:"index"` // stamped device identity, never authorization
	Metadata        datatypes.JSON      `json:"metadata"`
	EstimatedTime   int                 `json:"estimated_time_minutes"`
	Items           []OrderItem         `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Notifications   []OrderNotification `json:"notifications,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type OrderItem struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	OrderID        uint           `json:"order_id" gorm:"not null;index"`
	ProductID      *uint          `json:"product_id"` // nil for the synthetic delivery-fee line
	Product        *Product       `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Name           string         `json:"name" gorm:"not null"`  // snapshot name at time of order
	Price          float64        `json:"price" gorm:"not null"` // snapshot unit price
	Quantity       int            `json:"quantity" gorm:"not null"`
	Subtotal       float64        `json:"subtotal" gorm:"not null"`
	SpecialRequest string         `json:"special_request"`
	Extras         datatypes.JSON `json:"extras"`
	CreatedAt      time.Time      `json:"created_at"`
}

// NotificationType tags entries in the admin notification feed
type NotificationType string

const (
	NotifyNewOrder      NotificationType = "NEW_ORDER"
	NotifyPayment       NotificationType = "PAYMENT"
	NotifyStatusChange  NotificationType = "STATUS_CHANGE"
	NotifyAdminOverride NotificationType = "ADMIN_OVERRIDE"
)

type OrderNotification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	OrderID   uint             `json:"order_id" gorm:"not null;index"`
	Type      NotificationType `json:"type" gorm:"not null"`
	Message   string           `json:"message" gorm:"not null"`
	IsRead    bool             `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time        `json:"created_at"`
}
