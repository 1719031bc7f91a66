package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/parking-finder/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultUpstreamURL is the Taipei parking map API endpoint.
const DefaultUpstreamURL = "https://itaipeiparking.pma.gov.taipei/MapAPI/GetAllPOIData"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream parking API.
	UpstreamURL     string
	UpstreamTimeout time.Duration

	// Mapbox place search configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Lookup event publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	Area Area
}

// Area is the service area a client coordinates within.
type Area struct {
	Region        domain.ServiceRegion
	DefaultCenter domain.Coordinate
	InitialZoom   int
	AdoptedZoom   int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := parsePositiveDuration("UPSTREAM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	area, err := LoadArea()
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		UpstreamURL:     sharedcfg.EnvOrDefault("UPSTREAM_URL", DefaultUpstreamURL),
		UpstreamTimeout: upstreamTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "parking-lookups"),

		Area: area,
	}

	if u, err := url.Parse(cfg.UpstreamURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid UPSTREAM_URL")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// LoadArea reads the service region, default center and zoom levels.
// Defaults cover Taipei.
func LoadArea() (Area, error) {
	var (
		a   Area
		err error
	)
	r := domain.TaipeiRegion
	fields := []struct {
		key string
		def float64
		dst *float64
	}{
		{"REGION_LAT_MIN", r.LatMin, &a.Region.LatMin},
		{"REGION_LAT_MAX", r.LatMax, &a.Region.LatMax},
		{"REGION_LNG_MIN", r.LngMin, &a.Region.LngMin},
		{"REGION_LNG_MAX", r.LngMax, &a.Region.LngMax},
		{"DEFAULT_CENTER_LAT", domain.DefaultCenter.Lat, &a.DefaultCenter.Lat},
		{"DEFAULT_CENTER_LNG", domain.DefaultCenter.Lng, &a.DefaultCenter.Lng},
	}
	for _, f := range fields {
		if *f.dst, err = parseFloat(f.key, f.def); err != nil {
			return Area{}, err
		}
	}

	if a.InitialZoom, err = parseZoom("ZOOM_INITIAL", 10); err != nil {
		return Area{}, err
	}
	if a.AdoptedZoom, err = parseZoom("ZOOM_ADOPTED", 15); err != nil {
		return Area{}, err
	}

	if err := a.Region.Validate(); err != nil {
		return Area{}, fmt.Errorf("invalid REGION_*: %w", err)
	}
	if !a.Region.Contains(a.DefaultCenter) {
		return Area{}, errors.New("DEFAULT_CENTER_LAT/DEFAULT_CENTER_LNG must lie inside the service region")
	}
	return a, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func parseZoom(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 22 {
		return 0, fmt.Errorf("invalid %s: must be an integer between 1 and 22", key)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
