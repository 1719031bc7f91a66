package domain

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Place is a point resolved by the mapping collaborator.
type Place struct {
	ID         string     `json:"id,omitempty"`
	Name       string     `json:"name"`
	Address    string     `json:"address,omitempty"`
	Coordinate Coordinate `json:"coordinate"`
	Resolved   bool       `json:"resolved"`
}

// SearchURL is a Google Maps search link for the place name.
func (p Place) SearchURL() string {
	q := url.Values{"api": {"1"}, "query": {p.Name}}
	return "https://www.google.com/maps/search/?" + q.Encode()
}

// Places resolves free-text queries and point-of-interest IDs.
type Places interface {
	// Search forward-geocodes query, biased toward near. An unresolved
	// Place (Resolved == false) with a nil error means nothing matched.
	Search(ctx context.Context, query string, near Coordinate) (Place, error)

	// Lookup returns details for a point-of-interest ID.
	Lookup(ctx context.Context, placeID string) (Place, error)
}

// Geolocator reports the device position. Failures are ErrGeolocationDenied
// or ErrGeolocationUnsupported.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (Coordinate, error)
}

// ParkingSource retrieves the spot list around a coordinate. Errors wrap
// ErrUpstreamRejected or ErrUnreachable.
type ParkingSource interface {
	Spots(ctx context.Context, at Coordinate) ([]ParkingSpot, error)
}

// Notifier delivers notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// EventPublisher forwards coordinator events to an external sink.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// ClassifyFetchError wraps err as ErrUnreachable unless it already carries
// a taxonomy classification.
func ClassifyFetchError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUpstreamRejected) || errors.Is(err, ErrUnreachable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnreachable, err)
}
