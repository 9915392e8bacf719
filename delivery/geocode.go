package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// GeocodeResult is the resolved location for a free-text address.
type GeocodeResult struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address"`
}

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (GeocodeResult, error)
}

// ErrNoResults means the service answered but found no match for the address.
var ErrNoResults = errors.New("geocoder: no results for address")

// HTTPGeocoder talks to a Nominatim-compatible search endpoint.
type HTTPGeocoder struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

func NewHTTPGeocoder(baseURL, userAgent string) *HTTPGeocoder {
	return &HTTPGeocoder{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type nominatimHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *HTTPGeocoder) Geocode(ctx context.Context, address string) (GeocodeResult, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return GeocodeResult{}, err
	}
	req.Header.Set("User-Agent", g.UserAgent)

	resp, err := g.Client.Do(req)
	if err != nil {
		return GeocodeResult{}, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GeocodeResult{}, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return GeocodeResult{}, fmt.Errorf("geocoder response malformed: %w", err)
	}
	if len(hits) == 0 {
		return GeocodeResult{}, ErrNoResults
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return GeocodeResult{}, fmt.Errorf("geocoder returned bad latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return GeocodeResult{}, fmt.Errorf("geocoder returned bad longitude: %w", err)
	}

	return GeocodeResult{Latitude: lat, Longitude: lon, FormattedAddress: hits[0].DisplayName}, nil
}
