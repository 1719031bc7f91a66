// Command genmock generates a mock parking map fixture inside the service
// region and can serve it as a stand-in for the upstream map API during
// local development.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/parking_spots.json -count 400
//	go run ./cmd/genmock -in data/mock/parking_spots.json -serve :8090
//
// Point parkingd at the mock with
// UPSTREAM_URL=http://localhost:8090/MapAPI/GetAllPOIData.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/parking-finder/internal/domain"
)

// radiusMeters bounds how far from the requested point the mock answers.
const radiusMeters = 3000

var (
	streets = []string{"忠孝東路", "仁愛路", "信義路", "和平東路", "敦化南路", "復興南路", "松江路", "中山北路", "民生東路", "南京東路"}
	kinds   = []string{"公有停車場", "立體停車場", "地下停車場", "路外停車場"}
	fares   = []string{"30元/時", "40元/時", "50元/時", "20元/時", "累進費率", "月租另計"}
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("genmock", flag.ContinueOnError)
	out := fs.String("out", "", "output path for the generated fixture")
	in := fs.String("in", "", "existing fixture to serve instead of generating")
	count := fs.Int("count", 300, "number of facilities to generate")
	dupRate := fs.Float64("dup-rate", 0.05, "fraction of facilities repeated in the payload")
	seed := fs.Uint64("seed", 20241103, "random seed for reproducible fixtures")
	serve := fs.String("serve", "", "listen address to serve the fixture as a mock upstream")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var spots []domain.ParkingSpot
	switch {
	case *in != "":
		data, err := os.ReadFile(*in)
		if err != nil {
			return fmt.Errorf("read fixture: %w", err)
		}
		if err := json.Unmarshal(data, &spots); err != nil {
			return fmt.Errorf("decode fixture: %w", err)
		}
	case *out != "" || *serve != "":
		spots = generate(rand.New(rand.NewPCG(*seed, *seed)), domain.TaipeiRegion, *count, *dupRate)
	default:
		fs.Usage()
		return fmt.Errorf("one of -out, -in or -serve is required")
	}

	if *out != "" {
		if err := writeJSON(*out, spots); err != nil {
			return fmt.Errorf("writing fixture: %w", err)
		}
		fmt.Fprintf(stdout, "wrote fixture: %s\n", *out)
	}
	printStats(stdout, spots)

	if *serve == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              *serve,
		Handler:           mockUpstream(spots),
		ReadHeaderTimeout: 5 * time.Second,
	}
	fmt.Fprintf(stdout, "serving mock upstream on %s\n", *serve)
	return srv.ListenAndServe()
}

// generate builds count facilities scattered through region, then appends
// repeats of a dupRate share of them the way the live API occasionally does.
func generate(rng *rand.Rand, region domain.ServiceRegion, count int, dupRate float64) []domain.ParkingSpot {
	spots := make([]domain.ParkingSpot, 0, count+int(float64(count)*dupRate)+1)
	for i := range count {
		carTotal := 20 + rng.IntN(480)
		motorTotal := rng.IntN(300)
		street := streets[rng.IntN(len(streets))]
		s := domain.ParkingSpot{
			ParkID:            fmt.Sprintf("TPE%04d", i+1),
			ParkName:          street + kinds[rng.IntN(len(kinds))],
			ServiceTime:       "00:00~24:00",
			Address:           fmt.Sprintf("臺北市%s%d號", street, 1+rng.IntN(300)),
			Tel:               fmt.Sprintf("02-2%03d-%04d", rng.IntN(1000), rng.IntN(10000)),
			Payex:             fares[rng.IntN(len(fares))],
			Lat:               region.LatMin + rng.Float64()*(region.LatMax-region.LatMin),
			Lon:               region.LngMin + rng.Float64()*(region.LngMax-region.LngMin),
			CarTotalNum:       carTotal,
			CarRemainderNum:   remainder(rng, carTotal),
			MotorTotalNum:     motorTotal,
			MotorRemainderNum: remainder(rng, motorTotal),
			HandicapFirst:     rng.IntN(6),
			PregnancyFirst:    rng.IntN(4),
			InfoType:          1,
		}
		spots = append(spots, s)
	}

	dups := int(float64(count) * dupRate)
	for range dups {
		spots = append(spots, spots[rng.IntN(count)])
	}
	return spots
}

// remainder draws a free-space count; roughly one facility in five is full
// and a few report -9, the upstream's "no live data" marker.
func remainder(rng *rand.Rand, total int) int {
	switch p := rng.Float64(); {
	case total == 0 || p < 0.2:
		return 0
	case p < 0.25:
		return -9
	default:
		return rng.IntN(total + 1)
	}
}

// mockUpstream answers GetAllPOIData lookups with the fixture facilities
// within radiusMeters of the requested point.
func mockUpstream(spots []domain.ParkingSpot) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /MapAPI/GetAllPOIData", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Lon string `json:"lon"`
			Lat string `json:"lat"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		lat, errLat := strconv.ParseFloat(req.Lat, 64)
		lng, errLng := strconv.ParseFloat(req.Lon, 64)
		if errLat != nil || errLng != nil {
			http.Error(w, "lon and lat must be numeric strings", http.StatusBadRequest)
			return
		}

		at := domain.Coordinate{Lat: lat, Lng: lng}
		nearby := make([]domain.ParkingSpot, 0)
		for _, s := range spots {
			if domain.DistanceMeters(at, s.Location()) <= radiusMeters {
				nearby = append(nearby, s)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(nearby) //nolint:errcheck // client may have gone away
	})
	return mux
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// statsResult holds aggregated counts for printStats reporting.
type statsResult struct {
	total     int
	unique    int
	carOpen   int
	motorOpen int
	noData    int
}

func collectStats(spots []domain.ParkingSpot) statsResult {
	s := statsResult{total: len(spots)}
	unique := domain.Dedupe(spots)
	s.unique = len(unique)
	s.carOpen = len(domain.MarkerSpots(unique, domain.VehicleCar))
	s.motorOpen = len(domain.MarkerSpots(unique, domain.VehicleMotorcycle))
	for _, sp := range unique {
		if sp.CarRemainderNum < 0 || sp.MotorRemainderNum < 0 {
			s.noData++
		}
	}
	return s
}

func printStats(w io.Writer, spots []domain.ParkingSpot) {
	s := collectStats(spots)
	fmt.Fprintln(w, "=== Fixture stats ===")
	fmt.Fprintf(w, "Total records: %d (unique facilities: %d)\n", s.total, s.unique)
	fmt.Fprintf(w, "Car markers: %d, motorcycle markers: %d\n", s.carOpen, s.motorOpen)
	fmt.Fprintf(w, "Without live data: %d\n", s.noData)
}
