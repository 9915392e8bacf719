package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Setting is a key → JSON blob row; all store configuration lives here so the
// admin panel can edit it without schema changes.
type Setting struct {
	Key       string         `json:"key" gorm:"primaryKey"`
	Value     datatypes.JSON `json:"value" gorm:"not null"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Well-known settings keys
const (
	SettingBusinessHours = "business_hours"
	SettingDeliveryZones = "delivery_zones"
	SettingStoreProfile  = "store_profile"
	SettingPaymentConfig = "payment_config"
)

// DayHours is one weekday's window; times are "HH:MM" in the store's local time.
type DayHours struct {
	IsOpen    bool   `json:"is_open"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

// BusinessHours is indexed by time.Weekday (0 = Sunday).
type BusinessHours struct {
	Days [7]DayHours `json:"days"`
}

// DeliveryZone is a flat fee up to a maximum distance from the store.
// Zones are kept sorted by ascending MaxDistanceKm; the first zone whose
// maximum covers the computed distance wins.
type DeliveryZone struct {
	Name          string  `json:"name"`
	MaxDistanceKm float64 `json:"max_distance_km"`
	Fee           float64 `json:"fee"`
	FreeAbove     float64 `json:"free_above"` // 0 disables the free-delivery threshold
	EstimatedMin  int     `json:"estimated_minutes"`
}

type StoreProfile struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Currency  string  `json:"currency"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Timezone  string  `json:"timezone"`
}

type PaymentConfig struct {
	CheckoutEnabled bool   `json:"checkout_enabled"`
	QREnabled       bool   `json:"qr_enabled"`
	CODEnabled      bool   `json:"cod_enabled"`
	QRImageURL      string `json:"qr_image_url"`
	QRPaymentCode   string `json:"qr_payment_code"`
}

// LoadSetting unmarshals the blob stored under key into out.
func LoadSetting(db *gorm.DB, key string, out interface{}) error {
	var s Setting
	if err := db.First(&s, "key = ?", key).Error; err != nil {
		return err
	}
	return json.Unmarshal(s.Value, out)
}

// SaveSetting upserts the blob stored under key.
func SaveSetting(db *gorm.DB, key string, value interface{}) error {
	blob, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s := Setting{Key: key, Value: datatypes.JSON(blob)}
	return db.Save(&s).Error
}
