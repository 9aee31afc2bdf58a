package tiles

import (
	"errors"
	"image"
	"testing"

	"github.com/go-spatial/geom"
	"github.com/pdok/rewarp/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLoader serves blank images for the tiles it has and counts loads.
type fakeLoader struct {
	have  map[TileKey]bool
	loads int
}

func (l *fakeLoader) LoadTile(key TileKey) (image.Image, error) {
	l.loads++
	if !l.have[key] {
		return nil, ErrNoTile
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func TestCollect(t *testing.T) {
	g, err := grid.LoadEmbeddedTileGrid("WebMercatorQuad")
	require.NoError(t, err)
	loader := &fakeLoader{have: map[TileKey]bool{
		{Z: 1, Col: 0, Row: 0}: true,
		{Z: 1, Col: 1, Row: 0}: true,
		{Z: 1, Col: 1, Row: 1}: true,
		// 0/1 is missing
	}}

	sources, err := Collect(loader, &g, 1, g.GeomExtent())
	require.NoError(t, err)
	require.Len(t, sources, 3, "the missing tile is skipped")

	// west to east, north to south
	assert.Less(t, sources[0].Extent.MinX(), sources[1].Extent.MinX())
	assert.Equal(t, sources[1].Extent.MinX(), sources[2].Extent.MinX())
	assert.Greater(t, sources[1].Extent.MaxY(), sources[2].Extent.MaxY())
}

func TestCollectEmpty(t *testing.T) {
	g, err := grid.LoadEmbeddedTileGrid("WebMercatorQuad")
	require.NoError(t, err)
	sources, err := Collect(&fakeLoader{}, &g, 0, &geom.Extent{0, 0, 1, 1})
	require.NoError(t, err)
	assert.Empty(t, sources)
}

// errors other than a missing tile abort the collection
type brokenLoader struct{}

func (brokenLoader) LoadTile(TileKey) (image.Image, error) {
	return nil, errors.New("disk on fire")
}

func TestCollectPropagatesErrors(t *testing.T) {
	g, err := grid.LoadEmbeddedTileGrid("WebMercatorQuad")
	require.NoError(t, err)
	_, err = Collect(brokenLoader{}, &g, 0, g.GeomExtent())
	assert.Error(t, err)
}

func TestCachingLoader(t *testing.T) {
	inner := &fakeLoader{have: map[TileKey]bool{
		{Z: 0, Col: 0, Row: 0}: true,
		{Z: 1, Col: 0, Row: 0}: true,
		{Z: 1, Col: 1, Row: 0}: true,
	}}
	c := NewCachingLoader(inner, 2)

	first, err := c.LoadTile(TileKey{Z: 0, Col: 0, Row: 0})
	require.NoError(t, err)
	again, err := c.LoadTile(TileKey{Z: 0, Col: 0, Row: 0})
	require.NoError(t, err)
	assert.Same(t, first, again, "second load is served from the cache")
	assert.Equal(t, 1, inner.loads)

	// filling beyond capacity evicts the least recently used entry
	_, err = c.LoadTile(TileKey{Z: 1, Col: 0, Row: 0})
	require.NoError(t, err)
	_, err = c.LoadTile(TileKey{Z: 1, Col: 1, Row: 0})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	inner.loads = 0
	_, err = c.LoadTile(TileKey{Z: 0, Col: 0, Row: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.loads, "the evicted tile is loaded again")

	// misses are not cached
	_, err = c.LoadTile(TileKey{Z: 9, Col: 9, Row: 9})
	assert.ErrorIs(t, err, ErrNoTile)
}
