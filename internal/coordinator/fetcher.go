package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/parking-finder/internal/domain"
)

// Fetcher holds the most recent spot list and the location it was fetched
// for. A fetch for the same location as the last successful one is a no-op.
// Every fetch, including one answered from the held list, is stamped with a
// generation; a response that arrives after a newer fetch began is discarded.
type Fetcher struct {
	source domain.ParkingSource
	logger *slog.Logger

	mu          sync.Mutex
	generation  uint64
	lastFetched domain.Coordinate
	hasFetched  bool
	spots       []domain.ParkingSpot
	fetchedAt   time.Time
}

// NewFetcher creates a Fetcher over the given parking data source.
func NewFetcher(source domain.ParkingSource, logger *slog.Logger) *Fetcher {
	return &Fetcher{source: source, logger: logger}
}

// Fetch returns the spot list for at. The caller is responsible for
// validating at against the service region.
//
// On failure the held list and last-fetched location are left untouched and
// the error wraps domain.ErrUpstreamRejected or domain.ErrUnreachable. A
// superseded response, successful or not, yields domain.ErrStaleResponse.
// There is no retry.
func (f *Fetcher) Fetch(ctx context.Context, at domain.Coordinate) ([]domain.ParkingSpot, error) {
	spots, _, err := f.fetch(ctx, at)
	return spots, err
}

// fetch reports whether the result came from the held list without a call.
func (f *Fetcher) fetch(ctx context.Context, at domain.Coordinate) ([]domain.ParkingSpot, bool, error) {
	f.mu.Lock()
	// A hit also supersedes any fetch still in flight for an older location.
	f.generation++
	gen := f.generation
	if f.hasFetched && f.lastFetched.Equal(at) {
		spots := f.spots
		f.mu.Unlock()
		f.logger.Debug("parking data fresh, skipping fetch", "lat", at.Lat, "lng", at.Lng)
		return spots, true, nil
	}
	f.mu.Unlock()

	start := time.Now()
	spots, err := f.source.Spots(ctx, at)
	if err != nil {
		if f.superseded(gen) {
			return nil, false, domain.ErrStaleResponse
		}
		err = domain.ClassifyFetchError(err)
		f.logger.Warn("parking data fetch failed",
			"lat", at.Lat,
			"lng", at.Lng,
			"generation", gen,
			"rejected", errors.Is(err, domain.ErrUpstreamRejected),
			"error", err,
		)
		return nil, false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation {
		f.logger.Info("discarding superseded parking data",
			"lat", at.Lat,
			"lng", at.Lng,
			"generation", gen,
			"latest", f.generation,
		)
		return nil, false, domain.ErrStaleResponse
	}

	f.spots = spots
	f.lastFetched = at
	f.hasFetched = true
	f.fetchedAt = domain.Now()

	f.logger.Info("parking data fetched",
		"lat", at.Lat,
		"lng", at.Lng,
		"spots", len(spots),
		"generation", gen,
		"duration", time.Since(start),
	)
	return spots, false, nil
}

func (f *Fetcher) superseded(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return gen != f.generation
}

// Spots returns the held spot list as last fetched (not deduplicated).
func (f *Fetcher) Spots() []domain.ParkingSpot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spots
}

// LastFetched returns the location of the last successful fetch.
func (f *Fetcher) LastFetched() (domain.Coordinate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastFetched, f.hasFetched
}

// FetchedAt returns when the held list was stored; zero before the first fetch.
func (f *Fetcher) FetchedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchedAt
}
