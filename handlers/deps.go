package handlers

import (
	"storefront-api/delivery"
	"storefront-api/events"
	"storefront-api/orders"
)

// Package-level collaborators, wired once at startup (config.DB follows the
// same pattern).
var (
	Submitter     *orders.Submitter
	Hub           *events.Hub
	Geocoder      delivery.Geocoder
	WebhookSecret string
)

// Init wires the handlers' collaborators.
func Init(submitter *orders.Submitter, hub *events.Hub, geocoder delivery.Geocoder, webhookSecret string) {
	Submitter = submitter
	Hub = hub
	Geocoder = geocoder
	WebhookSecret = webhookSecret
}
