package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/parking-finder/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker   = "localhost:9092"
	testMapboxToken = "pk.test-token"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, DefaultUpstreamURL, cfg.UpstreamURL)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "parking-lookups", cfg.KafkaTopic)

	assert.Equal(t, domain.TaipeiRegion, cfg.Area.Region)
	assert.Equal(t, domain.DefaultCenter, cfg.Area.DefaultCenter)
	assert.Equal(t, 10, cfg.Area.InitialZoom)
	assert.Equal(t, 15, cfg.Area.AdoptedZoom)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("UPSTREAM_URL", "http://localhost:8090/MapAPI/GetAllPOIData")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")
	t.Setenv("ZOOM_INITIAL", "11")
	t.Setenv("ZOOM_ADOPTED", "16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:8090/MapAPI/GetAllPOIData", cfg.UpstreamURL)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
	assert.Equal(t, 11, cfg.Area.InitialZoom)
	assert.Equal(t, 16, cfg.Area.AdoptedZoom)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidUpstreamTimeout(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "0s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPSTREAM_TIMEOUT")
}

func TestLoad_InvalidUpstreamURL(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "not a url")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPSTREAM_URL")
}

func TestLoad_InvalidMapboxTimeout(t *testing.T) {
	t.Setenv("MAPBOX_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TIMEOUT")
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxTokenImpliesEnabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MapboxEnabled)
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoad_KafkaEnabledWithoutTopic(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_TOPIC", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_TOPIC")
}

func TestLoadArea_CustomRegion(t *testing.T) {
	t.Setenv("REGION_LAT_MIN", "24.0")
	t.Setenv("REGION_LAT_MAX", "24.3")
	t.Setenv("REGION_LNG_MIN", "120.5")
	t.Setenv("REGION_LNG_MAX", "120.8")
	t.Setenv("DEFAULT_CENTER_LAT", "24.1477")
	t.Setenv("DEFAULT_CENTER_LNG", "120.6736")

	a, err := LoadArea()
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceRegion{LatMin: 24.0, LatMax: 24.3, LngMin: 120.5, LngMax: 120.8}, a.Region)
	assert.Equal(t, domain.Coordinate{Lat: 24.1477, Lng: 120.6736}, a.DefaultCenter)
}

func TestLoadArea_InvalidFloat(t *testing.T) {
	t.Setenv("REGION_LAT_MIN", "north")
	_, err := LoadArea()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REGION_LAT_MIN")
}

func TestLoadArea_InvertedBounds(t *testing.T) {
	t.Setenv("REGION_LAT_MIN", "25.3")
	_, err := LoadArea()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REGION_")
}

func TestLoadArea_CenterOutsideRegion(t *testing.T) {
	t.Setenv("DEFAULT_CENTER_LAT", "24.1477")
	_, err := LoadArea()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_CENTER")
}

func TestLoadArea_InvalidZoom(t *testing.T) {
	t.Setenv("ZOOM_ADOPTED", "30")
	_, err := LoadArea()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ZOOM_ADOPTED")
}
