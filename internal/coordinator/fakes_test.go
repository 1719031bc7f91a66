package coordinator

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/couchcryptid/parking-finder/internal/domain"
)

// --- fakes ---

type countingSource struct {
	mu     sync.Mutex
	calls  []domain.Coordinate
	byCoor map[domain.Coordinate][]domain.ParkingSpot
	spots  []domain.ParkingSpot
	err    error
	gate   map[domain.Coordinate]chan struct{} // blocks Spots for a coordinate until closed
}

func (m *countingSource) Spots(ctx context.Context, at domain.Coordinate) ([]domain.ParkingSpot, error) {
	m.mu.Lock()
	m.calls = append(m.calls, at)
	gate := m.gate[at]
	err := m.err
	spots := m.spots
	if s, ok := m.byCoor[at]; ok {
		spots = s
	}
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return spots, nil
}

func (m *countingSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *countingSource) setErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

type fakeGeolocator struct {
	pos   domain.Coordinate
	err   error
	calls int
	gate  chan struct{} // blocks CurrentPosition until closed
	enter chan struct{} // closed when a gated call begins
}

func (g *fakeGeolocator) CurrentPosition(ctx context.Context) (domain.Coordinate, error) {
	g.calls++
	if g.gate != nil {
		close(g.enter)
		select {
		case <-g.gate:
		case <-ctx.Done():
			return domain.Coordinate{}, ctx.Err()
		}
	}
	return g.pos, g.err
}

type fakePlaces struct {
	search      domain.Place
	searchErr   error
	lookup      domain.Place
	lookupErr   error
	searchCalls int
	lastNear    domain.Coordinate
	searchGate  chan struct{}
	searchEnter chan struct{}
}

func (p *fakePlaces) Search(ctx context.Context, _ string, near domain.Coordinate) (domain.Place, error) {
	p.searchCalls++
	p.lastNear = near
	if p.searchEnter != nil {
		close(p.searchEnter)
	}
	if p.searchGate != nil {
		select {
		case <-p.searchGate:
		case <-ctx.Done():
			return domain.Place{}, ctx.Err()
		}
	}
	return p.search, p.searchErr
}

func (p *fakePlaces) Lookup(_ context.Context, _ string) (domain.Place, error) {
	return p.lookup, p.lookupErr
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (r *recordingNotifier) Notify(n domain.Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *recordingNotifier) kinds() []domain.NoticeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.NoticeKind, len(r.notices))
	for i, n := range r.notices {
		out[i] = n.Kind
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e domain.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *recordingPublisher) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fixtures ---

var (
	daan     = domain.Coordinate{Lat: 25.0330, Lng: 121.5430}
	xinyi    = domain.Coordinate{Lat: 25.0340, Lng: 121.5645}
	taichung = domain.Coordinate{Lat: 24.1477, Lng: 120.6736}
)

func spot(id string, car, motor int) domain.ParkingSpot {
	return domain.ParkingSpot{ParkID: id, ParkName: id, CarRemainderNum: car, MotorRemainderNum: motor, Lat: 25.03, Lon: 121.55}
}
