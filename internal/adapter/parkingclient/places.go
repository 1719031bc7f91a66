package parkingclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/couchcryptid/parking-finder/internal/domain"
)

// Search resolves query through the proxy's place search route. A 404 is an
// unresolved place with a nil error.
func (c *Client) Search(ctx context.Context, query string, near domain.Coordinate) (domain.Place, error) {
	params := url.Values{
		"q":   {query},
		"lat": {strconv.FormatFloat(near.Lat, 'f', -1, 64)},
		"lng": {strconv.FormatFloat(near.Lng, 'f', -1, 64)},
	}
	return c.getPlace(ctx, c.baseURL+"/api/places/search?"+params.Encode())
}

// Lookup returns details for a point-of-interest ID.
func (c *Client) Lookup(ctx context.Context, placeID string) (domain.Place, error) {
	return c.getPlace(ctx, c.baseURL+"/api/places/"+url.PathEscape(placeID))
}

func (c *Client) getPlace(ctx context.Context, target string) (domain.Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.Place{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Place{}, fmt.Errorf("place request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Place{}, nil
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Place{}, fmt.Errorf("place service error: status %d: %s", resp.StatusCode, body)
	}

	var out struct {
		Place domain.Place `json:"place"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Place{}, fmt.Errorf("decode place: %w", err)
	}
	return out.Place, nil
}
