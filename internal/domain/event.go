package domain

import "time"

// EventType names a coordinator or proxy event.
type EventType string

const (
	// EventLocationAdopted is emitted when the current location changes.
	EventLocationAdopted EventType = "location_adopted"
	// EventSpotsRefreshed is emitted after a fetch replaces the held spot list.
	EventSpotsRefreshed EventType = "spots_refreshed"
	// EventParkingLookup is emitted by the proxy for every relayed request.
	EventParkingLookup EventType = "parking_lookup"
)

// Event records something that happened to a session or the proxy.
type Event struct {
	SessionID  string     `json:"session_id,omitempty"`
	Type       EventType  `json:"type"`
	Location   Coordinate `json:"location"`
	Source     string     `json:"source,omitempty"` // adoption trigger: initial, search, poi, recenter, acknowledge
	SpotCount  int        `json:"spot_count,omitempty"`
	Outcome    string     `json:"outcome,omitempty"` // proxy lookups: success, error
	OccurredAt time.Time  `json:"occurred_at"`
}

// NewEvent stamps an event with the package clock.
func NewEvent(sessionID string, typ EventType, at Coordinate) Event {
	return Event{
		SessionID:  sessionID,
		Type:       typ,
		Location:   at,
		OccurredAt: clock.Now().UTC(),
	}
}
