// Package taipeiparking is a client for the Taipei parking map API.
package taipeiparking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/couchcryptid/parking-finder/internal/domain"
	"github.com/couchcryptid/parking-finder/internal/observability"
)

// maxPayloadBytes bounds an upstream response body.
const maxPayloadBytes = 32 << 20

// Client posts facility lookups to the upstream map API. It implements
// domain.ParkingSource and reports readiness from its most recent call.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu      sync.Mutex
	lastErr error
}

// NewClient creates an upstream client for endpoint.
func NewClient(endpoint string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// request is the upstream body. The API expects stringified coordinates
// and spells "category" the way it does.
type request struct {
	Lon      string `json:"lon"`
	Lat      string `json:"lat"`
	Catagory string `json:"catagory"`
	Type     string `json:"type"`
}

// Lookup fetches the facilities around at and returns the upstream JSON
// payload unchanged. A non-2xx status yields a *domain.UpstreamError; a
// transport failure or a body that is not JSON wraps domain.ErrUnreachable.
func (c *Client) Lookup(ctx context.Context, at domain.Coordinate) (json.RawMessage, error) {
	payload, err := c.lookup(ctx, at)
	c.record(err)
	return payload, err
}

func (c *Client) lookup(ctx context.Context, at domain.Coordinate) (json.RawMessage, error) {
	body, err := json.Marshal(request{
		Lon:      strconv.FormatFloat(at.Lng, 'f', -1, 64),
		Lat:      strconv.FormatFloat(at.Lat, 'f', -1, 64),
		Catagory: "car",
		Type:     "3",
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.UpstreamError{Status: resp.StatusCode, Message: string(bytes.TrimSpace(raw))}
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: response is not JSON", domain.ErrUnreachable)
	}
	return raw, nil
}

// Spots fetches and decodes the facility list around at.
func (c *Client) Spots(ctx context.Context, at domain.Coordinate) ([]domain.ParkingSpot, error) {
	raw, err := c.Lookup(ctx, at)
	if err != nil {
		return nil, err
	}
	spots, err := DecodeSpots(raw)
	if err != nil {
		return nil, err
	}
	c.metrics.SpotsReturned.Observe(float64(len(spots)))
	return spots, nil
}

// DecodeSpots parses an upstream payload. A JSON object carrying an
// "error" field is treated as a rejection.
func DecodeSpots(raw []byte) ([]domain.ParkingSpot, error) {
	var spots []domain.ParkingSpot
	if err := json.Unmarshal(raw, &spots); err == nil {
		return spots, nil
	}

	var rejected struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &rejected); err == nil && rejected.Error != "" {
		return nil, &domain.UpstreamError{Message: rejected.Error}
	}
	return nil, fmt.Errorf("%w: unexpected payload shape", domain.ErrUnreachable)
}

// CheckReadiness reports the outcome of the most recent upstream call.
// The client is ready before its first call.
func (c *Client) CheckReadiness(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr != nil {
		return fmt.Errorf("parking upstream: %w", c.lastErr)
	}
	return nil
}

func (c *Client) record(err error) {
	// A caller giving up is not an upstream fault.
	if errors.Is(err, context.Canceled) {
		return
	}
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()

	if err != nil {
		c.metrics.UpstreamUp.Set(0)
		c.logger.Warn("parking upstream call failed", "error", err)
		return
	}
	c.metrics.UpstreamUp.Set(1)
}
