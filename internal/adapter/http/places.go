package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/parking-finder/internal/domain"
)

// PlaceResponse is the body of a successful place search or lookup.
type PlaceResponse struct {
	Place     domain.Place `json:"place"`
	InRegion  bool         `json:"in_region"`
	SearchURL string       `json:"search_url"`
}

func (s *Server) handlePlaceSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeAPIError(w, r, http.StatusBadRequest, codeBadRequest, "q is required")
		return
	}
	near, ok := parseNear(r, s.deps.DefaultCenter)
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, codeBadRequest, "lat and lng must be numbers")
		return
	}

	s.resolvePlace(w, r, func(ctx context.Context) (domain.Place, error) {
		return s.deps.Places.Search(ctx, q, near)
	})
}

func (s *Server) handlePlaceLookup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.resolvePlace(w, r, func(ctx context.Context) (domain.Place, error) {
		return s.deps.Places.Lookup(ctx, id)
	})
}

func (s *Server) resolvePlace(w http.ResponseWriter, r *http.Request, load func(context.Context) (domain.Place, error)) {
	if s.deps.Places == nil {
		writeAPIError(w, r, http.StatusServiceUnavailable, codeUnavailable, "place search is disabled")
		return
	}

	place, err := load(r.Context())
	if err != nil {
		s.logger.Warn("place resolution failed", "path", r.URL.Path, "error", err)
		writeAPIError(w, r, http.StatusBadGateway, codeUpstream, "place service unavailable")
		return
	}
	if !place.Resolved {
		writeAPIError(w, r, http.StatusNotFound, codeNotFound, "place not found")
		return
	}

	writeJSON(w, http.StatusOK, PlaceResponse{
		Place:     place,
		InRegion:  s.deps.Region.Contains(place.Coordinate),
		SearchURL: place.SearchURL(),
	})
}

// parseNear reads the optional lat/lng bias, defaulting to def.
func parseNear(r *http.Request, def domain.Coordinate) (domain.Coordinate, bool) {
	latStr, lngStr := r.URL.Query().Get("lat"), r.URL.Query().Get("lng")
	if latStr == "" && lngStr == "" {
		return def, true
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return domain.Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return domain.Coordinate{}, false
	}
	return domain.Coordinate{Lat: lat, Lng: lng}, true
}
