package http

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/couchcryptid/parking-finder/internal/domain"
)

// FetchFailedMessage is the error body returned when the upstream lookup fails.
const FetchFailedMessage = "Error fetching parking data"

const maxRequestBytes = 4096

type parkingRequest struct {
	Lon *float64 `json:"lon"`
	Lat *float64 `json:"lat"`
}

type errorBody struct {
	Error string `json:"error"`
}

// handleParkingData relays a lookup to the upstream map API. A successful
// upstream payload is returned unchanged.
func (s *Server) handleParkingData(w http.ResponseWriter, r *http.Request) {
	var req parkingRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		s.metrics.ProxyRequests.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if req.Lon == nil || req.Lat == nil || !finite(*req.Lon) || !finite(*req.Lat) {
		s.metrics.ProxyRequests.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "lon and lat are required numbers"})
		return
	}
	at := domain.Coordinate{Lat: *req.Lat, Lng: *req.Lon}

	event := domain.NewEvent("", domain.EventParkingLookup, at)

	raw, err := s.deps.Parking.Lookup(r.Context(), at)
	if err != nil {
		s.metrics.ProxyRequests.WithLabelValues("upstream_error").Inc()
		s.logger.Error("parking lookup failed",
			"lat", at.Lat,
			"lng", at.Lng,
			"rejected", errors.Is(err, domain.ErrUpstreamRejected),
			"error", err,
		)
		event.Outcome = "error"
		s.publish(r.Context(), event)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: FetchFailedMessage})
		return
	}

	var items []json.RawMessage
	if json.Unmarshal(raw, &items) == nil {
		event.SpotCount = len(items)
		s.metrics.SpotsReturned.Observe(float64(len(items)))
	}
	s.metrics.ProxyRequests.WithLabelValues("success").Inc()
	event.Outcome = "success"
	s.publish(r.Context(), event)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
