package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	httpadapter "github.com/couchcryptid/parking-finder/internal/adapter/http"
	"github.com/couchcryptid/parking-finder/internal/domain"
	"github.com/couchcryptid/parking-finder/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParking struct {
	mu    sync.Mutex
	calls []domain.Coordinate
}

func (s *stubParking) Lookup(_ context.Context, at domain.Coordinate) (json.RawMessage, error) {
	s.mu.Lock()
	s.calls = append(s.calls, at)
	s.mu.Unlock()
	return json.RawMessage(`[
		{"parkId":"TPE0001","parkName":"大安森林公園","payex":"30元/時","carTotalNum":40,"carRemainderNum":5,"motorTotalNum":10,"motorRemainderNum":0,"lat":25.0297,"lon":121.5362},
		{"parkId":"TPE0001","parkName":"大安森林公園","payex":"30元/時","carTotalNum":40,"carRemainderNum":5,"lat":25.0297,"lon":121.5362},
		{"parkId":"TPE0002","parkName":"建國高架","payex":"累進","carTotalNum":80,"carRemainderNum":0,"motorTotalNum":200,"motorRemainderNum":31,"lat":25.0330,"lon":121.5370}
	]`), nil
}

type stubPlaces struct{}

func (stubPlaces) Search(_ context.Context, q string, _ domain.Coordinate) (domain.Place, error) {
	switch q {
	case "台北101":
		return domain.Place{Name: "台北101", Coordinate: domain.Coordinate{Lat: 25.0340, Lng: 121.5645}, Resolved: true}, nil
	case "台中車站":
		return domain.Place{Name: "台中車站", Coordinate: domain.Coordinate{Lat: 24.1368, Lng: 120.6850}, Resolved: true}, nil
	}
	return domain.Place{}, nil
}

func (stubPlaces) Lookup(context.Context, string) (domain.Place, error) {
	return domain.Place{ID: "poi.1", Name: "大安森林公園", Coordinate: domain.Coordinate{Lat: 25.0329, Lng: 121.5354}, Resolved: true}, nil
}

type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func startServer(t *testing.T) (*httptest.Server, *stubParking) {
	t.Helper()
	parking := &stubParking{}
	srv := httpadapter.NewServer(":0", httpadapter.Deps{
		Parking:       parking,
		Places:        stubPlaces{},
		Ready:         alwaysReady{},
		Region:        domain.TaipeiRegion,
		DefaultCenter: domain.DefaultCenter,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, parking
}

func TestRun_SearchAndSelect(t *testing.T) {
	ts, parking := startServer(t)

	var stdout, stderr bytes.Buffer
	stdin := strings.NewReader("search 台北101\nselect TPE0001\nvehicle motorcycle\nquit\n")

	err := run(context.Background(), []string{"-server", ts.URL, "-position", "25.033,121.543"}, stdin, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "@ 25.033000,121.543000 zoom 15")
	assert.Contains(t, out, "@ 25.034000,121.564500 zoom 15")
	assert.Contains(t, out, "travelmode=driving", "select prints the detail panel")
	assert.Contains(t, out, "TPE0002", "motorcycle markers include the motorcycle-only facility")
	assert.Len(t, parking.calls, 2, "select and vehicle switch do not refetch")
}

func TestRun_OutOfRegionSearchThenAcknowledge(t *testing.T) {
	ts, parking := startServer(t)

	var stdout, stderr bytes.Buffer
	stdin := strings.NewReader("search 台中車站\nack\nsearch   \nstate\n")

	err := run(context.Background(), []string{"-server", ts.URL}, stdin, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "! 請搜尋台北市內的地點")
	assert.Contains(t, out, "! 請輸入搜尋關鍵字")
	assert.NotContains(t, out, "error:", "notices are not repeated as errors")
	// Denied geolocation and the acknowledgement both land on the default
	// center, which is fetched once.
	assert.Equal(t, []domain.Coordinate{domain.DefaultCenter}, parking.calls)
}

func TestRun_InspectAndConfirmPOI(t *testing.T) {
	ts, parking := startServer(t)

	var stdout, stderr bytes.Buffer
	stdin := strings.NewReader("poi poi.1\nconfirm\nconfirm\n")

	err := run(context.Background(), []string{"-server", ts.URL, "-events"}, stdin, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "大安森林公園")
	assert.Contains(t, out, "google.com/maps/search")
	assert.Contains(t, out, "error: no pending place to confirm")
	assert.Len(t, parking.calls, 2)
	assert.Contains(t, stderr.String(), `"source":"poi"`)
}

func TestRun_BadFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-vehicle", "bus"}, strings.NewReader(""), &stdout, &stderr)
	assert.ErrorIs(t, err, domain.ErrUnknownVehicleClass)

	err = run(context.Background(), []string{"-position", "north"}, strings.NewReader(""), &stdout, &stderr)
	assert.Error(t, err)
}
