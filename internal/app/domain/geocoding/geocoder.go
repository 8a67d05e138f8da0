// Package geocoding resolves free-text addresses to coordinates.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
	"github.com/FACorreiaa/go-tekuteku/internal/pkg/cache"
)

const (
	googleGeocodeURL   = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultHTTPTimeout = 8 * time.Second
	cacheNamespace     = "geo:v1:geocode"
)

// Geocoder resolves an address to coordinates. Failures wrap
// models.ErrGeocodeFailed.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coordinates, error)
}

var _ Geocoder = (*GoogleGeocoder)(nil)

// GoogleGeocoder calls the Google Geocoding API and accepts the first
// result.
type GoogleGeocoder struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      Cache
	logger     *zap.Logger
}

// NewGoogleGeocoder builds a geocoder. Empty baseURL and nil httpClient
// fall back to the public endpoint and a client with a short timeout; cache
// may be nil.
func NewGoogleGeocoder(apiKey, baseURL string, httpClient *http.Client, c Cache, logger *zap.Logger) *GoogleGeocoder {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleGeocodeURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GoogleGeocoder{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		cache:      c,
		logger:     logger,
	}
}

type googleGeocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return models.Coordinates{}, fmt.Errorf("address is required: %w", models.ErrGeocodeFailed)
	}
	l := g.logger.With(zap.String("method", "Geocode"), zap.String("address", trimmed))

	key := cache.Key(cacheNamespace, trimmed)
	if g.cache != nil {
		if at, ok := g.cache.Get(ctx, key); ok {
			l.Debug("Geocode cache hit")
			return at, nil
		}
	}

	if g.apiKey == "" {
		return models.Coordinates{}, fmt.Errorf("google maps api key is not configured: %w", models.ErrGeocodeFailed)
	}

	params := url.Values{}
	params.Set("address", trimmed)
	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: request failed: %v", models.ErrGeocodeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Coordinates{}, fmt.Errorf("%w: status %d", models.ErrGeocodeFailed, resp.StatusCode)
	}

	var payload googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: decode: %v", models.ErrGeocodeFailed, err)
	}
	if payload.Status != "OK" || len(payload.Results) == 0 {
		l.Info("Address not resolved",
			zap.String("status", payload.Status),
			zap.String("provider_message", payload.ErrorMessage))
		return models.Coordinates{}, fmt.Errorf("%w: status %s", models.ErrGeocodeFailed, payload.Status)
	}

	loc := payload.Results[0].Geometry.Location
	at := models.Coordinates{Latitude: loc.Lat, Longitude: loc.Lng}

	if g.cache != nil {
		g.cache.Set(ctx, key, at)
	}
	l.Debug("Address resolved",
		zap.String("formatted", payload.Results[0].FormattedAddress),
		zap.Float64("lat", at.Latitude),
		zap.Float64("lng", at.Longitude))
	return at, nil
}
