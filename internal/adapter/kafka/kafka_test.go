package kafka

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/parking-finder/internal/domain"
	"github.com/couchcryptid/parking-finder/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 11, 3, 9, 30, 0, 0, time.UTC)
	event := domain.Event{
		SessionID:  "sess-1",
		Type:       domain.EventLocationAdopted,
		Location:   domain.Coordinate{Lat: 25.033, Lng: 121.543},
		Source:     "search",
		OccurredAt: now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("sess-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"type":"location_adopted"`)
	assert.Contains(t, string(msg.Value), `"source":"search"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("location_adopted"), msg.Headers[0].Value)
	assert.Equal(t, "occurred_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_ProxyEventKeyedByLocation(t *testing.T) {
	msg, err := serializeToMessage(domain.Event{
		Type:     domain.EventParkingLookup,
		Location: domain.Coordinate{Lat: 25.033, Lng: 121.543},
		Outcome:  "success",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("25.033000,121.543000"), msg.Key)
}

func TestSerializeToMessage_Unencodable(t *testing.T) {
	_, err := serializeToMessage(domain.Event{
		Type:     domain.EventParkingLookup,
		Location: domain.Coordinate{Lat: math.NaN()},
	})
	assert.Error(t, err)
}

func TestWriter_CompletionMetrics(t *testing.T) {
	m := observability.NewMetricsForTesting()
	w := &Writer{logger: slog.New(slog.NewTextHandler(io.Discard, nil)), metrics: m}

	w.completed(make([]kafkago.Message, 3), nil)
	w.completed(make([]kafkago.Message, 2), errors.New("broker down"))

	assert.Equal(t, float64(3), testutil.ToFloat64(m.EventsPublished))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.EventPublishErrors))
}
