//go:build opencage

package opencage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
	"github.com/couchcryptid/restaurant-weather-etl/internal/observability"
)

// These tests hit the real OpenCage API and require a valid OPENCAGE_API_KEY env var.
// Run with: go test -tags=opencage ./internal/adapter/opencage/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("OPENCAGE_API_KEY")
	if key == "" {
		t.Fatal("OPENCAGE_API_KEY must be set to run smoke tests")
	}
	c, err := NewClient(key, 10*time.Second, 1, observability.NewMetricsForTesting(), discardLogger())
	require.NoError(t, err)
	return c
}

func TestSmoke_Resolve(t *testing.T) {
	c := smokeClient(t)

	res, err := c.Resolve(context.Background(), "Dillon", "US")
	require.NoError(t, err)

	require.True(t, res.Resolved())
	assert.InDelta(t, 34.41, res.Coordinates.Lat, 0.5, "lat should be near Dillon, SC")
	assert.InDelta(t, -79.37, res.Coordinates.Lng, 0.5, "lng should be near Dillon, SC")
}

func TestSmoke_ResolveUnknownPlace(t *testing.T) {
	c := smokeClient(t)

	res, err := c.Resolve(context.Background(), "Zzqxwvplk", "ZZ")
	require.NoError(t, err)
	assert.Equal(t, domain.ResolutionUnresolved, res.Status)
}
