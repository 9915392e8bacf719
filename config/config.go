package config

import (
	"os"

	"storefront-api/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign staff tokens — read from env or fallback
var JWTSecret = []byte(GetEnv("JWT_SECRET", "storefront_super_secret_2026"))

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadEnv reads .env if present; real env vars win.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}
	JWTSecret = []byte(GetEnv("JWT_SECRET", "storefront_super_secret_2026"))
}

func InitDB() {
	dsn := GetEnv("DATABASE_PATH", "storefront.db")
	var err error
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := Migrate(DB); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	log.Info().Str("path", dsn).Msg("database connected and migrated")
}

// Migrate runs auto-migration for all models; split out so tests can run it
// against their own in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderNotification{},
		&models.Setting{},
	)
}

// SeedDefaults writes settings rows that must exist for the store to operate,
// without overwriting anything the admin already edited.
func SeedDefaults(db *gorm.DB) error {
	defaults := map[string]interface{}{
		models.SettingBusinessHours: defaultHours(),
		models.SettingDeliveryZones: []models.DeliveryZone{
			{Name: "Center", MaxDistanceKm: 3, Fee: 2.50, EstimatedMin: 30},
			{Name: "Outskirts", MaxDistanceKm: 7, Fee: 4.50, EstimatedMin: 45},
		},
		models.SettingStoreProfile: models.StoreProfile{
			Name:      GetEnv("STORE_NAME", "Storefront"),
			Latitude:  52.5200,
			Longitude: 13.4050,
			Currency:  "EUR",
			Timezone:  "Europe/Berlin",
		},
		models.SettingPaymentConfig: models.PaymentConfig{
			CheckoutEnabled: true,
			QREnabled:       true,
			CODEnabled:      true,
		},
	}

	for key, value := range defaults {
		var existing models.Setting
		if err := db.First(&existing, "key = ?", key).Error; err == nil {
			continue
		}
		if err := models.SaveSetting(db, key, value); err != nil {
			return err
		}
	}
	return nil
}

func defaultHours() models.BusinessHours {
	var h models.BusinessHours
	for d := range h.Days {
		h.Days[d] = models.DayHours{IsOpen: true, OpenTime: "11:00", CloseTime: "22:00"}
	}
	// closed Mondays
	h.Days[1] = models.DayHours{IsOpen: false}
	return h
}
