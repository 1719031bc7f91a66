package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. None of these is fatal: callers surface a Notice (see
// NoticeFor) or fall back to the default center.
var (
	// ErrOutOfRegion: a picked or located point is outside the service region.
	ErrOutOfRegion = errors.New("location outside service region")
	// ErrPlaceNotResolved: a search or POI lookup yielded no coordinate.
	ErrPlaceNotResolved = errors.New("place not resolved")
	// ErrEmptyQuery: a search was submitted with a blank query.
	ErrEmptyQuery = errors.New("empty search query")
	// ErrUpstreamRejected: the parking data service answered with an error.
	ErrUpstreamRejected = errors.New("parking data upstream rejected request")
	// ErrUnreachable: transport or decode failure talking to the parking data service.
	ErrUnreachable = errors.New("parking data service unreachable")
	// ErrGeolocationDenied: the user refused the position request.
	ErrGeolocationDenied = errors.New("geolocation permission denied")
	// ErrGeolocationUnsupported: no position source is available.
	ErrGeolocationUnsupported = errors.New("geolocation unsupported")
	// ErrStaleResponse: a fetch finished after a newer one was started.
	ErrStaleResponse = errors.New("fetch superseded by a newer request")
)

// UpstreamError carries the status and message of a rejected fetch.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream error: %s", e.Message)
	}
	return fmt.Sprintf("upstream error: status %d: %s", e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamRejected
}
