package proj

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromLonLatRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ic   [2]float64
	}{
		{"origin", [2]float64{0, 0}},
		{"utrecht", [2]float64{5.1, 52.1}},
		{"west of dateline", [2]float64{179.9, -45}},
		{"east of dateline", [2]float64{-179.9, 45}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			back := ToLonLat(FromLonLat(tt.ic))
			assert.InDelta(t, tt.ic[0], back[0], 1e-9)
			assert.InDelta(t, tt.ic[1], back[1], 1e-9)
		})
	}
}

func TestFromLonLatDomainEdges(t *testing.T) {
	edge := FromLonLat([2]float64{180, 85.051128779806589})
	assert.InDelta(t, HalfSize, edge[0], 1e-6)
	assert.InDelta(t, HalfSize, edge[1], 1)

	pole := FromLonLat([2]float64{0, 90})
	assert.True(t, math.IsInf(pole[1], 1), "the pole projects to +Inf")
}

func TestBetween(t *testing.T) {
	fwd, err := Between(WebMercator, Geographic)
	require.NoError(t, err)
	c := fwd([2]float64{HalfSize, 0})
	assert.InDelta(t, 180, c[0], 1e-9)

	same, err := Between(WebMercator, WebMercator)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{12, 34}, same([2]float64{12, 34}))

	_, err = Between(WebMercator, Projection{Code: "EPSG:28992"})
	assert.Error(t, err)
}

func TestWorldWidth(t *testing.T) {
	assert.InDelta(t, 2*HalfSize, WebMercator.WorldWidth(), 1e-6)
	assert.InDelta(t, 360, Geographic.WorldWidth(), 1e-12)
	assert.Zero(t, Projection{Code: "x"}.WorldWidth())
}
