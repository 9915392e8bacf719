package main

import (
	"net/http"
	"os"
	"time"

	"storefront-api/config"
	"storefront-api/delivery"
	"storefront-api/events"
	"storefront-api/handlers"
	"storefront-api/metrics"
	"storefront-api/models"
	"storefront-api/notify"
	"storefront-api/orders"
	"storefront-api/payments"
	"storefront-api/routes"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	config.LoadEnv()

	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		gin.SetMode(gin.DebugMode)
	}

	config.InitDB()
	if err := config.SeedDefaults(config.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to seed default settings")
	}

	metrics.Register(prometheus.DefaultRegisterer)

	// collaborators for the order pipeline
	hub := events.NewHub()
	geocoder := delivery.NewHTTPGeocoder(
		config.GetEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
		config.GetEnv("STORE_NAME", "Storefront")+"/1.0",
	)

	var checkout payments.CheckoutClient
	if endpoint := os.Getenv("CHECKOUT_ENDPOINT"); endpoint != "" {
		checkout = payments.NewHTTPCheckoutClient(
			endpoint,
			os.Getenv("CHECKOUT_SECRET_KEY"),
			config.GetEnv("CHECKOUT_SUCCESS_URL", "http://localhost:8080/payment/success"),
			config.GetEnv("CHECKOUT_CANCEL_URL", "http://localhost:8080/payment/cancel"),
			config.GetEnv("STORE_CURRENCY", "eur"),
		)
	}

	var mailer notify.Mailer
	if apiKey := os.Getenv("SENDGRID_API_KEY"); apiKey != "" {
		mailer = notify.NewSendgridMailer(
			apiKey,
			config.GetEnv("STORE_NAME", "Storefront"),
			config.GetEnv("EMAIL_SENDER", "orders@example.com"),
			config.GetEnv("STORE_NAME", "Storefront"),
		)
	}

	submitter := &orders.Submitter{
		DB:       config.DB,
		Geocoder: geocoder,
		Checkout: checkout,
		Mailer:   mailer,
		Hub:      hub,
	}
	handlers.Init(submitter, hub, geocoder, os.Getenv("PAYMENT_WEBHOOK_SECRET"))

	r := gin.Default()

	// CORS middleware for the storefront frontend
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", config.GetEnv("CORS_ORIGIN", "*"))
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Device-Fingerprint")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Storefront Order API",
			"version": "1.0.0",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ensure at least one admin exists on a fresh install
	seedAdmin()

	routes.SetupRoutes(r)

	port := config.GetEnv("PORT", "8080")
	log.Info().Str("port", port).Msg("server starting")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// seedAdmin creates the initial admin account from env on an empty users table.
func seedAdmin() {
	var count int64
	config.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Warn().Msg("no staff accounts exist and ADMIN_EMAIL/ADMIN_PASSWORD are unset; admin panel is unreachable")
		return
	}
	if err := handlers.SeedAdminUser(email, password); err != nil {
		log.Error().Err(err).Msg("failed to seed admin account")
		return
	}
	log.Info().Str("email", email).Msg("seeded initial admin account")
}
