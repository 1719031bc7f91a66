package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/parking-finder/internal/domain"
	"github.com/google/uuid"
)

var (
	// ErrNoPendingPlace is returned when confirming with no inspected place.
	ErrNoPendingPlace = errors.New("no pending place to confirm")
	// ErrSpotNotFound is returned when selecting an ID not in the held list.
	ErrSpotNotFound = errors.New("parking spot not found")
)

// Adoption triggers, recorded on location_adopted events.
const (
	SourceInitial     = "initial"
	SourceRecenter    = "recenter"
	SourceSearch      = "search"
	SourcePOI         = "poi"
	SourceAcknowledge = "acknowledge"
)

// Config holds the service-area settings for a session.
type Config struct {
	Region        domain.ServiceRegion
	DefaultCenter domain.Coordinate
	InitialZoom   int // viewport zoom before any location is adopted
	AdoptedZoom   int // viewport zoom after every adoption
}

// DefaultConfig covers Taipei with the original map zoom levels.
func DefaultConfig() Config {
	return Config{
		Region:        domain.TaipeiRegion,
		DefaultCenter: domain.DefaultCenter,
		InitialZoom:   10,
		AdoptedZoom:   15,
	}
}

// Validate checks that the default center lies inside the region.
func (c Config) Validate() error {
	if err := c.Region.Validate(); err != nil {
		return err
	}
	if !c.Region.Contains(c.DefaultCenter) {
		return fmt.Errorf("default center %s: %w", c.DefaultCenter, domain.ErrOutOfRegion)
	}
	if c.InitialZoom <= 0 || c.AdoptedZoom <= 0 {
		return errors.New("zoom levels must be positive")
	}
	return nil
}

// Dependencies are the collaborators a Session drives. Geolocator and
// Places may be nil (treated as unsupported / never resolving); Events may
// be nil to disable publishing.
type Dependencies struct {
	Geolocator domain.Geolocator
	Places     domain.Places
	Source     domain.ParkingSource
	Notifier   domain.Notifier
	Events     domain.EventPublisher
	Logger     *slog.Logger
}

// Viewport is the map's visual center and zoom.
type Viewport struct {
	Center domain.Coordinate `json:"center"`
	Zoom   int               `json:"zoom"`
}

// State is a point-in-time copy of a session.
type State struct {
	SessionID    string              `json:"session_id"`
	Current      *domain.Coordinate  `json:"current,omitempty"`
	Viewport     Viewport            `json:"viewport"`
	VehicleClass domain.VehicleClass `json:"vehicle_class"`
	Selected     *domain.ParkingSpot `json:"selected,omitempty"`
	Pending      *domain.Place       `json:"pending,omitempty"`
	Notice       *domain.Notice      `json:"notice,omitempty"`
	LastFetched  *domain.Coordinate  `json:"last_fetched,omitempty"`
	SpotCount    int                 `json:"spot_count"`
	FetchedAt    time.Time           `json:"fetched_at"`
}

// Session owns the current location, the fetch state and the selection for
// one map view. The current location changes only through Start, Recenter,
// Search, ConfirmPendingPlace and AcknowledgeNotice.
//
// Every trigger takes a ticket when it begins. A trigger that finishes its
// asynchronous lookup after a newer trigger began does not adopt its result.
type Session struct {
	id       string
	cfg      Config
	geo      domain.Geolocator
	places   domain.Places
	fetcher  *Fetcher
	notifier domain.Notifier
	events   domain.EventPublisher
	logger   *slog.Logger

	mu         sync.Mutex
	ticket     uint64
	current    domain.Coordinate
	hasCurrent bool
	viewport   Viewport
	class      domain.VehicleClass
	selected   *domain.ParkingSpot
	pending    *domain.Place
	notice     *domain.Notice
}

// NewSession creates a session with the viewport at the default center and
// the initial zoom, vehicle class car, and no current location.
func NewSession(cfg Config, deps Dependencies) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With("session_id", id)
	return &Session{
		id:       id,
		cfg:      cfg,
		geo:      deps.Geolocator,
		places:   deps.Places,
		fetcher:  NewFetcher(deps.Source, logger),
		notifier: deps.Notifier,
		events:   deps.Events,
		logger:   logger,
		viewport: Viewport{Center: cfg.DefaultCenter, Zoom: cfg.InitialZoom},
		class:    domain.VehicleCar,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start performs the initial load: locate the device, validate, and adopt
// either the device position or the default center.
func (s *Session) Start(ctx context.Context) error {
	return s.locate(ctx, SourceInitial)
}

// Recenter re-reads the device position with the same fallback policy as Start.
func (s *Session) Recenter(ctx context.Context) error {
	return s.locate(ctx, SourceRecenter)
}

// locate adopts the device position when it is in region. Geolocation
// failures fall back to the default center without a notice; an
// out-of-region position falls back with one.
func (s *Session) locate(ctx context.Context, source string) error {
	ticket := s.begin()

	pos, err := s.currentPosition(ctx)
	if err != nil {
		s.logger.Info("geolocation unavailable, using default center", "source", source, "error", err)
		return s.adopt(ctx, ticket, s.cfg.DefaultCenter, source)
	}

	if !s.cfg.Region.Contains(pos) {
		s.logger.Info("device position outside service region",
			"source", source, "lat", pos.Lat, "lng", pos.Lng)
		outErr := fmt.Errorf("device position %s: %w", pos, domain.ErrOutOfRegion)
		s.raise(outErr)
		return errors.Join(outErr, s.adopt(ctx, ticket, s.cfg.DefaultCenter, source))
	}

	return s.adopt(ctx, ticket, pos, source)
}

func (s *Session) currentPosition(ctx context.Context) (domain.Coordinate, error) {
	if s.geo == nil {
		return domain.Coordinate{}, domain.ErrGeolocationUnsupported
	}
	return s.geo.CurrentPosition(ctx)
}

// Search resolves query to a place and adopts it when it is in region.
// A blank query, an unresolved place, or an out-of-region place raises a
// notice and leaves the current location unchanged.
func (s *Session) Search(ctx context.Context, query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		s.raise(domain.ErrEmptyQuery)
		return domain.ErrEmptyQuery
	}

	ticket := s.begin()
	near := s.Snapshot().Viewport.Center

	place, err := s.resolve(ctx, q, near)
	if err != nil {
		s.raise(err)
		return err
	}

	if !s.cfg.Region.Contains(place.Coordinate) {
		err := fmt.Errorf("search %q resolved to %s: %w", q, place.Coordinate, domain.ErrOutOfRegion)
		s.raise(err)
		return err
	}

	s.clearNotice()
	return s.adopt(ctx, ticket, place.Coordinate, SourceSearch)
}

func (s *Session) resolve(ctx context.Context, q string, near domain.Coordinate) (domain.Place, error) {
	if s.places == nil {
		return domain.Place{}, fmt.Errorf("search %q: %w", q, domain.ErrPlaceNotResolved)
	}
	place, err := s.places.Search(ctx, q, near)
	if err != nil {
		s.logger.Warn("place search failed", "query", q, "error", err)
		return domain.Place{}, fmt.Errorf("search %q: %w: %w", q, domain.ErrPlaceNotResolved, err)
	}
	if !place.Resolved {
		return domain.Place{}, fmt.Errorf("search %q: %w", q, domain.ErrPlaceNotResolved)
	}
	return place, nil
}

// InspectPlace looks up a clicked point of interest and holds it as the
// pending place. It does not change the current location; a failed lookup
// is silent and returns domain.ErrPlaceNotResolved.
func (s *Session) InspectPlace(ctx context.Context, placeID string) (domain.Place, error) {
	if s.places == nil {
		return domain.Place{}, fmt.Errorf("place %q: %w", placeID, domain.ErrPlaceNotResolved)
	}
	place, err := s.places.Lookup(ctx, placeID)
	if err != nil {
		s.logger.Warn("place lookup failed", "place_id", placeID, "error", err)
		return domain.Place{}, fmt.Errorf("place %q: %w: %w", placeID, domain.ErrPlaceNotResolved, err)
	}
	if !place.Resolved {
		return domain.Place{}, fmt.Errorf("place %q: %w", placeID, domain.ErrPlaceNotResolved)
	}

	s.mu.Lock()
	s.pending = &place
	s.mu.Unlock()
	return place, nil
}

// ConfirmPendingPlace adopts the pending place if it is in region and
// clears it either way.
func (s *Session) ConfirmPendingPlace(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if pending == nil {
		return ErrNoPendingPlace
	}

	ticket := s.begin()
	if !s.cfg.Region.Contains(pending.Coordinate) {
		err := fmt.Errorf("place %q at %s: %w", pending.Name, pending.Coordinate, domain.ErrOutOfRegion)
		s.raise(err)
		return err
	}
	return s.adopt(ctx, ticket, pending.Coordinate, SourcePOI)
}

// DismissPendingPlace closes the info affordance without adopting.
func (s *Session) DismissPendingPlace() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

// AcknowledgeNotice clears the current notice. Acknowledging an
// out-of-region notice resets the current location to the default center.
func (s *Session) AcknowledgeNotice(ctx context.Context) error {
	s.mu.Lock()
	n := s.notice
	s.notice = nil
	s.mu.Unlock()

	if n == nil || n.Kind != domain.NoticeOutOfRegion {
		return nil
	}
	return s.adopt(ctx, s.begin(), s.cfg.DefaultCenter, SourceAcknowledge)
}

// SetVehicleClass switches the class that drives marker eligibility.
func (s *Session) SetVehicleClass(v domain.VehicleClass) error {
	if err := v.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.class = v
	s.mu.Unlock()
	return nil
}

// Spots returns the held spot list, deduplicated by spot ID.
func (s *Session) Spots() []domain.ParkingSpot {
	return domain.Dedupe(s.fetcher.Spots())
}

// Markers returns the deduplicated spots with free space for the selected
// vehicle class, nearest to the current location first.
func (s *Session) Markers() []domain.ParkingSpot {
	st := s.Snapshot()
	origin := st.Viewport.Center
	if st.Current != nil {
		origin = *st.Current
	}
	return domain.SortByDistance(domain.MarkerSpots(s.Spots(), st.VehicleClass), origin)
}

// SelectSpot marks a held spot for the detail panel. It never refetches.
func (s *Session) SelectSpot(parkID string) (domain.ParkingSpot, error) {
	for _, spot := range s.Spots() {
		if spot.ParkID == parkID {
			s.mu.Lock()
			sel := spot
			s.selected = &sel
			s.mu.Unlock()
			return spot, nil
		}
	}
	return domain.ParkingSpot{}, fmt.Errorf("select %q: %w", parkID, ErrSpotNotFound)
}

// ClearSelection closes the detail panel.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	st := State{
		SessionID:    s.id,
		Viewport:     s.viewport,
		VehicleClass: s.class,
	}
	if s.hasCurrent {
		c := s.current
		st.Current = &c
	}
	if s.selected != nil {
		sel := *s.selected
		st.Selected = &sel
	}
	if s.pending != nil {
		p := *s.pending
		st.Pending = &p
	}
	if s.notice != nil {
		n := *s.notice
		st.Notice = &n
	}
	s.mu.Unlock()

	if at, ok := s.fetcher.LastFetched(); ok {
		st.LastFetched = &at
	}
	st.SpotCount = len(s.Spots())
	st.FetchedAt = s.fetcher.FetchedAt()
	return st
}

// begin issues a ticket for a new trigger.
func (s *Session) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticket++
	return s.ticket
}

// adopt makes c the current location, recenters the viewport and fetches
// spots for it, unless a newer trigger has begun since ticket was issued.
// The initial load still adopts while no location is current, so a newer
// trigger that never adopts cannot leave the session without one.
func (s *Session) adopt(ctx context.Context, ticket uint64, c domain.Coordinate, source string) error {
	s.mu.Lock()
	if ticket != s.ticket && (source != SourceInitial || s.hasCurrent) {
		s.mu.Unlock()
		s.logger.Info("location superseded by newer trigger", "source", source, "lat", c.Lat, "lng", c.Lng)
		return domain.ErrStaleResponse
	}
	s.current = c
	s.hasCurrent = true
	s.viewport = Viewport{Center: c, Zoom: s.cfg.AdoptedZoom}
	s.mu.Unlock()

	s.logger.Info("location adopted", "source", source, "lat", c.Lat, "lng", c.Lng)
	e := domain.NewEvent(s.id, domain.EventLocationAdopted, c)
	e.Source = source
	s.publish(ctx, e)

	return s.refresh(ctx, c)
}

// refresh fetches spots for c. A fetch failure raises a notice and keeps
// the location adopted and the prior spots held.
func (s *Session) refresh(ctx context.Context, c domain.Coordinate) error {
	spots, hit, err := s.fetcher.fetch(ctx, c)
	switch {
	case errors.Is(err, domain.ErrStaleResponse):
		return nil
	case err != nil:
		s.raise(err)
		return err
	}
	if !hit {
		e := domain.NewEvent(s.id, domain.EventSpotsRefreshed, c)
		e.SpotCount = len(domain.Dedupe(spots))
		s.publish(ctx, e)
	}
	return nil
}

// raise records and delivers the notice for err, if it has one.
func (s *Session) raise(err error) {
	n, ok := domain.NoticeFor(err)
	if !ok {
		return
	}
	s.mu.Lock()
	s.notice = &n
	s.mu.Unlock()
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}

func (s *Session) clearNotice() {
	s.mu.Lock()
	s.notice = nil
	s.mu.Unlock()
}

func (s *Session) publish(ctx context.Context, e domain.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("publish event failed", "type", e.Type, "error", err)
	}
}
