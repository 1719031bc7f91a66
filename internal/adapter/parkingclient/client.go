// Package parkingclient implements domain.ParkingSource against the
// service's own POST /api/parkingData route.
package parkingclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/parking-finder/internal/adapter/taipeiparking"
	"github.com/couchcryptid/parking-finder/internal/domain"
)

// Client calls a parking data proxy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the proxy at baseURL (scheme and host).
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Spots posts at to the proxy and decodes the facility list. A body with an
// "error" field or a non-2xx status is ErrUpstreamRejected; transport and
// decode failures are ErrUnreachable.
func (c *Client) Spots(ctx context.Context, at domain.Coordinate) ([]domain.ParkingSpot, error) {
	body, err := json.Marshal(map[string]float64{"lon": at.Lng, "lat": at.Lat})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", domain.ErrUnreachable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/parkingData", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		c.logger.Debug("parking proxy rejected request", "status", resp.StatusCode, "message", msg)
		return nil, &domain.UpstreamError{Status: resp.StatusCode, Message: msg}
	}

	return taipeiparking.DecodeSpots(raw)
}
