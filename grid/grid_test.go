package grid

import (
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedTileGrid(t *testing.T) {
	g, err := LoadEmbeddedTileGrid("WebMercatorQuad")
	require.NoError(t, err)
	assert.Equal(t, "WebMercatorQuad", g.ID)
	assert.Equal(t, "EPSG:3857", g.CRS)
	assert.Equal(t, 256, g.TileSize)
	assert.Len(t, g.Resolutions, 15)

	_, err = LoadEmbeddedTileGrid("NoSuchGrid")
	assert.Error(t, err)
}

func TestUnmarshalValidation(t *testing.T) {
	var g TileGrid
	err := g.UnmarshalJSON([]byte(`{"id": "x", "crs": "EPSG:0", "extent": [0, 0, 1], "resolutions": [1]}`))
	assert.Error(t, err, "a 3-element extent is invalid")

	err = g.UnmarshalJSON([]byte(`{"id": "x", "crs": "EPSG:0", "extent": [0, 0, 1, 1], "resolutions": [1]}`))
	require.NoError(t, err)
	assert.Equal(t, 256, g.TileSize, "tile size defaults to 256")
}

func TestMatrixSize(t *testing.T) {
	crs84, err := LoadEmbeddedTileGrid("WorldCRS84Quad")
	require.NoError(t, err)

	cols, rows, err := crs84.MatrixSize(0)
	require.NoError(t, err)
	assert.Equal(t, 2, cols, "the world is two tiles wide at zoom 0")
	assert.Equal(t, 1, rows)

	cols, rows, err = crs84.MatrixSize(3)
	require.NoError(t, err)
	assert.Equal(t, 16, cols)
	assert.Equal(t, 8, rows)
}

func TestTileExtent(t *testing.T) {
	mercator, err := LoadEmbeddedTileGrid("WebMercatorQuad")
	require.NoError(t, err)

	world, err := mercator.TileExtent(0, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, -20037508.342789244, world.MinX(), 1e-6)
	assert.InDelta(t, 20037508.342789244, world.MaxX(), 1e-6)

	// at zoom 1 the top-right tile covers the north-east quadrant
	ne, err := mercator.TileExtent(1, 1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, ne.MinX(), 1e-6)
	assert.InDelta(t, 0, ne.MinY(), 1e-6)
	assert.InDelta(t, 20037508.342789244, ne.MaxX(), 1e-6)
	assert.InDelta(t, 20037508.342789244, ne.MaxY(), 1e-6)

	_, err = mercator.TileExtent(99, 0, 0)
	assert.Error(t, err)
}

func TestTileRange(t *testing.T) {
	mercator, err := LoadEmbeddedTileGrid("WebMercatorQuad")
	require.NoError(t, err)

	// the north-east quadrant at zoom 2 is tiles 2..3 × 0..1
	minCol, minRow, maxCol, maxRow, err := mercator.TileRange(2, &geom.Extent{1, 1, 20037508, 20037508})
	require.NoError(t, err)
	assert.Equal(t, 2, minCol)
	assert.Equal(t, 0, minRow)
	assert.Equal(t, 3, maxCol)
	assert.Equal(t, 1, maxRow)

	// an extent beyond the grid is clamped to the matrix
	minCol, minRow, maxCol, maxRow, err = mercator.TileRange(0, &geom.Extent{-1e9, -1e9, 1e9, 1e9})
	require.NoError(t, err)
	assert.Equal(t, 0, minCol)
	assert.Equal(t, 0, minRow)
	assert.Equal(t, 0, maxCol)
	assert.Equal(t, 0, maxRow)
}

func TestZForResolution(t *testing.T) {
	mercator, err := LoadEmbeddedTileGrid("WebMercatorQuad")
	require.NoError(t, err)

	assert.Equal(t, 0, mercator.ZForResolution(200000))
	assert.Equal(t, 1, mercator.ZForResolution(78000))
	assert.Equal(t, 14, mercator.ZForResolution(0.001))
}
