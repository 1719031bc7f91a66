// Package terminal presents coordinator output on a text terminal.
package terminal

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/couchcryptid/parking-finder/internal/domain"
)

// Notifier prints notices to a writer.
type Notifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewNotifier creates a notifier writing to w.
func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

// Notify prints the notice title and body.
func (n *Notifier) Notify(notice domain.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "! %s\n", notice.Title)
	if notice.Body != "" {
		fmt.Fprintf(n.w, "  %s\n", notice.Body)
	}
}

// RenderMarkers writes one row per marker spot: ID, name, free/total for
// class, fare summary and distance from origin.
func RenderMarkers(w io.Writer, spots []domain.ParkingSpot, class domain.VehicleClass, origin domain.Coordinate) error {
	if len(spots) == 0 {
		_, err := fmt.Fprintf(w, "no %s spaces available nearby\n", class)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFREE\tFARE\tDISTANCE")
	for _, s := range spots {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\n",
			s.ParkID,
			s.ParkName,
			s.Remainder(class),
			s.Total(class),
			s.FareSummary(),
			formatDistance(domain.DistanceMeters(origin, s.Location())),
		)
	}
	return tw.Flush()
}

// RenderSpot writes the detail panel for a selected spot.
func RenderSpot(w io.Writer, s domain.ParkingSpot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"名稱", s.ParkName},
		{"地址", s.Address},
		{"營業時間", s.ServiceTime},
		{"收費", s.Payex},
		{"汽車", fmt.Sprintf("%d/%d", s.CarRemainderNum, s.CarTotalNum)},
		{"機車", fmt.Sprintf("%d/%d", s.MotorRemainderNum, s.MotorTotalNum)},
		{"電話", s.Tel},
		{"導航", s.NavigationURL()},
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

// RenderPlace writes the info panel for an inspected point of interest.
func RenderPlace(w io.Writer, p domain.Place) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n(confirm to check nearby parking)\n", p.Name, p.Address, p.SearchURL())
	return err
}

func formatDistance(m float64) string {
	if m < 1000 {
		return strconv.Itoa(int(m+0.5)) + " m"
	}
	return strconv.FormatFloat(m/1000, 'f', 1, 64) + " km"
}

// FixedGeolocator reports a preset device position. A nil position behaves
// like a refused permission prompt.
type FixedGeolocator struct {
	pos *domain.Coordinate
}

// NewFixedGeolocator returns a geolocator for pos, or a denying one when pos is nil.
func NewFixedGeolocator(pos *domain.Coordinate) *FixedGeolocator {
	return &FixedGeolocator{pos: pos}
}

// CurrentPosition returns the preset position.
func (g *FixedGeolocator) CurrentPosition(ctx context.Context) (domain.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinate{}, err
	}
	if g.pos == nil {
		return domain.Coordinate{}, domain.ErrGeolocationDenied
	}
	return *g.pos, nil
}

// ParseCoordinate parses "lat,lng".
func ParseCoordinate(s string) (domain.Coordinate, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Coordinate{}, fmt.Errorf("coordinate %q: want lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("coordinate %q: latitude: %w", s, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("coordinate %q: longitude: %w", s, err)
	}
	return domain.Coordinate{Lat: lat, Lng: lng}, nil
}
