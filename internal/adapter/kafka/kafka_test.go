package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	row := domain.EnrichedRecord{
		ID:              "85899345920",
		FranchiseName:   "Savoria",
		City:            "Dillon",
		Country:         "US",
		Lat:             ptr(34.4014089),
		Lng:             ptr(-79.3864339),
		Geohash:         ptr("dnrd"),
		AvgTemperatureC: ptr(15.0),
	}

	msg, err := serializeToMessage(row, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("85899345920"), msg.Key)
	assert.Contains(t, string(msg.Value), `"geohash":"dnrd"`)
	assert.Contains(t, string(msg.Value), `"avg_temperature_f":null`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "geohash", msg.Headers[0].Key)
	assert.Equal(t, []byte("dnrd"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded domain.EnrichedRecord
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, row, decoded)
}

func TestSerializeToMessage_NullGeohash(t *testing.T) {
	msg, err := serializeToMessage(domain.EnrichedRecord{ID: "1"}, time.Now())
	require.NoError(t, err)

	assert.Empty(t, msg.Headers[0].Value)
	assert.Contains(t, string(msg.Value), `"geohash":null`)
}

func TestWriter_EmptyBatchIsNoop(t *testing.T) {
	w := NewWriter([]string{"localhost:1"}, "enriched-restaurants", slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	assert.Equal(t, "kafka", w.Name())
	require.NoError(t, w.Write(context.Background(), nil))
}
