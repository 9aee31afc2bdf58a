package warp

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"

	"github.com/pdok/rewarp/grid"
	"github.com/pdok/rewarp/proj"
	"github.com/pdok/rewarp/tiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.RGBA{R: 255, A: 255}

// uniformLoader serves the same solid-color tile for every key.
type uniformLoader struct {
	size int
	c    color.RGBA
}

func (l uniformLoader) LoadTile(tiles.TileKey) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, l.size, l.size))
	draw.Draw(img, img.Bounds(), &image.Uniform{l.c}, image.Point{}, draw.Src)
	return img, nil
}

func flatGrid() *grid.TileGrid {
	return &grid.TileGrid{
		ID:          "Flat",
		CRS:         "test:flat",
		Extent:      []float64{0, 0, 512, 512},
		TileSize:    256,
		Resolutions: []float64{2, 1},
	}
}

func flatJob() *Job {
	g := flatGrid()
	p := proj.Projection{Code: "test:flat", Extent: g.GeomExtent()}
	return &Job{
		SourceProj: p,
		TargetProj: p,
		Fwd:        proj.Identity,
		Inv:        proj.Identity,
		SourceGrid: g,
		TargetGrid: g,
	}
}

func TestWarpTileIdentity(t *testing.T) {
	job := flatJob()
	img, err := job.WarpTile(uniformLoader{size: 256, c: red}, tiles.TileKey{Z: 1, Col: 0, Row: 0})
	require.NoError(t, err)

	assert.Equal(t, 257, img.Bounds().Dx(), "one pixel of render margin")
	assert.Equal(t, 257, img.Bounds().Dy())
	// probe inside a triangle, away from the shared a–c diagonal where two
	// antialiased clip edges meet and coverage falls a hair short
	assert.Equal(t, red, img.RGBAAt(192, 64))

	cropped := job.CropTile(img)
	assert.Equal(t, 256, cropped.Bounds().Dx())
	assert.Equal(t, 256, cropped.Bounds().Dy())
}

func TestWarpTileMercatorToGeographic(t *testing.T) {
	mercator, err := grid.LoadEmbeddedTileGrid("WebMercatorQuad")
	require.NoError(t, err)
	crs84, err := grid.LoadEmbeddedTileGrid("WorldCRS84Quad")
	require.NoError(t, err)

	job, err := NewJob(&mercator, &crs84)
	require.NoError(t, err)
	job.MaxDepth = 6

	// western hemisphere tile, lon -180..0, lat -90..90
	img, err := job.WarpTile(uniformLoader{size: 256, c: red}, tiles.TileKey{Z: 0, Col: 0, Row: 0})
	require.NoError(t, err)

	// the equator is covered by mercator imagery
	assert.Equal(t, red, img.RGBAAt(128, 128))
	// beyond ±85° there is no mercator world left: stays transparent
	assert.Equal(t, color.RGBA{}, img.RGBAAt(128, 1))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(128, 255))
}

func TestRunWritesAllTiles(t *testing.T) {
	job := flatJob()

	var mu sync.Mutex
	written := map[tiles.TileKey]*image.RGBA{}
	writer := func(key tiles.TileKey, img *image.RGBA) error {
		mu.Lock()
		defer mu.Unlock()
		written[key] = img
		return nil
	}
	newLoader := func() tiles.Loader { return uniformLoader{size: 256, c: red} }

	err := Run(job, newLoader, []int{0, 1}, writer, 2)
	require.NoError(t, err)

	require.Len(t, written, 1+4, "one tile at zoom 0, four at zoom 1")
	for key, img := range written {
		assert.Equal(t, 256, img.Bounds().Dx(), "tile %v is cropped", key)
		assert.Equal(t, red, img.RGBAAt(192, 64), "tile %v is filled", key)
	}
}

func TestEstimateSourceResolution(t *testing.T) {
	mercator, err := grid.LoadEmbeddedTileGrid("WebMercatorQuad")
	require.NoError(t, err)
	crs84, err := grid.LoadEmbeddedTileGrid("WorldCRS84Quad")
	require.NoError(t, err)
	job, err := NewJob(&mercator, &crs84)
	require.NoError(t, err)

	ext, err := crs84.TileExtent(0, 0, 0)
	require.NoError(t, err)
	res := job.estimateSourceResolution(ext, crs84.Resolutions[0])
	// one 0.703° pixel at the equator is ~78 km in mercator
	assert.InDelta(t, 78271.5, res, 100)
}
