package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/parking-finder/internal/domain"
	"github.com/couchcryptid/parking-finder/internal/observability"
	"github.com/google/uuid"
)

const (
	defaultGeocodeURL  = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	defaultRetrieveURL = "https://api.mapbox.com/search/searchbox/v1/retrieve"
)

// Client implements domain.Places using the Mapbox Geocoding and Search Box APIs.
type Client struct {
	token       string
	httpClient  *http.Client
	geocodeURL  string
	retrieveURL string
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewClient creates a Mapbox places client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		geocodeURL:  defaultGeocodeURL,
		retrieveURL: defaultRetrieveURL,
		metrics:     metrics,
		logger:      logger,
	}
}

// Search forward-geocodes query with results biased toward near. No match
// returns an unresolved place and a nil error.
func (c *Client) Search(ctx context.Context, query string, near domain.Coordinate) (domain.Place, error) {
	u := fmt.Sprintf("%s/%s.json", c.geocodeURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"language":     {"zh-Hant"},
		// Mapbox uses lon,lat order.
		"proximity": {fmt.Sprintf("%.6f,%.6f", near.Lng, near.Lat)},
	}

	var resp geocodeResponse
	if err := c.get(ctx, u+"?"+params.Encode(), "search", &resp); err != nil {
		return domain.Place{}, err
	}
	if len(resp.Features) == 0 {
		c.metrics.PlacesRequests.WithLabelValues("search", "empty").Inc()
		return domain.Place{}, nil
	}

	f := resp.Features[0]
	place := domain.Place{
		ID:      f.ID,
		Name:    f.Text,
		Address: f.PlaceName,
	}
	if len(f.Center) == 2 {
		place.Coordinate = domain.Coordinate{Lat: f.Center[1], Lng: f.Center[0]}
		place.Resolved = true
	}
	c.metrics.PlacesRequests.WithLabelValues("search", "success").Inc()
	return place, nil
}

// Lookup retrieves details for a Search Box mapbox_id.
func (c *Client) Lookup(ctx context.Context, placeID string) (domain.Place, error) {
	u := fmt.Sprintf("%s/%s", c.retrieveURL, url.PathEscape(placeID))
	params := url.Values{
		"access_token":  {c.token},
		"session_token": {uuid.NewString()},
		"language":      {"zh-Hant"},
	}

	var resp retrieveResponse
	if err := c.get(ctx, u+"?"+params.Encode(), "lookup", &resp); err != nil {
		return domain.Place{}, err
	}
	if len(resp.Features) == 0 || len(resp.Features[0].Geometry.Coordinates) != 2 {
		c.metrics.PlacesRequests.WithLabelValues("lookup", "empty").Inc()
		return domain.Place{}, nil
	}

	f := resp.Features[0]
	id := f.Properties.MapboxID
	if id == "" {
		id = placeID
	}
	c.metrics.PlacesRequests.WithLabelValues("lookup", "success").Inc()
	return domain.Place{
		ID:         id,
		Name:       f.Properties.Name,
		Address:    f.Properties.FullAddress,
		Coordinate: domain.Coordinate{Lat: f.Geometry.Coordinates[1], Lng: f.Geometry.Coordinates[0]},
		Resolved:   true,
	}, nil
}

func (c *Client) get(ctx context.Context, fullURL, method string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.PlacesAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.PlacesRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("%s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.PlacesRequests.WithLabelValues(method, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("mapbox API error", "method", method, "status", resp.StatusCode)
		return fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.PlacesRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Mapbox API response types.

type geocodeResponse struct {
	Features []geocodeFeature `json:"features"`
}

type geocodeFeature struct {
	ID        string    `json:"id"`
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}

type retrieveResponse struct {
	Features []retrieveFeature `json:"features"`
}

type retrieveFeature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
	Properties struct {
		MapboxID    string `json:"mapbox_id"`
		Name        string `json:"name"`
		FullAddress string `json:"full_address"`
	} `json:"properties"`
}
