// Package delivery validates delivery addresses against the store's
// configured zones and computes the applicable fee.
package delivery

import (
	"context"
	"math"
	"sort"
	"strings"

	"storefront-api/models"

	"github.com/rs/zerolog/log"
)

// ValidationResult is returned for every validation call. Validate never
// returns a Go error: failures are carried in IsValid / Error so the order
// flow fails closed instead of panicking on a flaky geocoder.
type ValidationResult struct {
	IsValid          bool    `json:"is_valid"`
	IsWithinZone     bool    `json:"is_within_zone"`
	DistanceKm       float64 `json:"distance_km"`
	Fee              float64 `json:"fee"`
	EstimatedMin     int     `json:"estimated_minutes"`
	Zone             string  `json:"zone,omitempty"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	Latitude         float64 `json:"latitude,omitempty"`
	Longitude        float64 `json:"longitude,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// Validator checks addresses against delivery zones around a fixed origin.
type Validator struct {
	geocoder  Geocoder
	originLat float64
	originLon float64
	zones     []models.DeliveryZone // sorted by ascending MaxDistanceKm
}

func NewValidator(geocoder Geocoder, origin models.StoreProfile, zones []models.DeliveryZone) *Validator {
	sorted := make([]models.DeliveryZone, len(zones))
	copy(sorted, zones)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MaxDistanceKm < sorted[j].MaxDistanceKm })
	return &Validator{
		geocoder:  geocoder,
		originLat: origin.Latitude,
		originLon: origin.Longitude,
		zones:     sorted,
	}
}

// Validate geocodes the address, computes the distance from the store and
// picks the first zone covering it. Deterministic for identical inputs
// absent configuration changes.
func (v *Validator) Validate(ctx context.Context, address string, subtotal float64) ValidationResult {
	if strings.TrimSpace(address) == "" {
		return ValidationResult{Error: "address is empty"}
	}

	loc, err := v.geocoder.Geocode(ctx, address)
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("geocoding failed")
		return ValidationResult{Error: "could not locate this address"}
	}

	dist := haversineKm(v.originLat, v.originLon, loc.Latitude, loc.Longitude)
	res := ValidationResult{
		DistanceKm:       round2(dist),
		FormattedAddress: loc.FormattedAddress,
		Latitude:         loc.Latitude,
		Longitude:        loc.Longitude,
	}

	for _, z := range v.zones {
		if dist > z.MaxDistanceKm {
			continue
		}
		res.IsValid = true
		res.IsWithinZone = true
		res.Zone = z.Name
		res.EstimatedMin = z.EstimatedMin
		res.Fee = z.Fee
		if z.FreeAbove > 0 && subtotal >= z.FreeAbove {
			res.Fee = 0
		}
		return res
	}

	res.Error = "address is outside our delivery zones"
	return res
}

// MaxDistanceKm is the farthest configured zone boundary.
func (v *Validator) MaxDistanceKm() float64 {
	if len(v.zones) == 0 {
		return 0
	}
	return v.zones[len(v.zones)-1].MaxDistanceKm
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
