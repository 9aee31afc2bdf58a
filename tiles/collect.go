package tiles

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-spatial/geom"
	"github.com/pdok/rewarp/grid"
	"github.com/pdok/rewarp/raster"
	"github.com/umpc/go-sortedmap"
)

// Collect loads all tiles at zoom z intersecting sourceExtent and returns
// them with their extents, ordered west to east, north to south. The order
// is deterministic so overlapping tile edges always composite the same
// way. Missing tiles are skipped; other load errors abort.
func Collect(loader Loader, g *grid.TileGrid, z int, sourceExtent *geom.Extent) ([]raster.Source, error) {
	minCol, minRow, maxCol, maxRow, err := g.TileRange(z, sourceExtent)
	if err != nil {
		return nil, err
	}

	sorted := sortedmap.New((maxCol-minCol+1)*(maxRow-minRow+1), func(x, y interface{}) bool {
		a, b := x.(raster.Source), y.(raster.Source)
		if a.Extent.MinX() != b.Extent.MinX() {
			return a.Extent.MinX() < b.Extent.MinX()
		}
		return a.Extent.MaxY() > b.Extent.MaxY()
	})

	for col := minCol; col <= maxCol; col++ {
		for row := minRow; row <= maxRow; row++ {
			key := TileKey{Z: z, Col: col, Row: row}
			img, err := loader.LoadTile(key)
			if errors.Is(err, ErrNoTile) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf(`could not load tile %v: %w`, key, err)
			}
			ext, err := g.TileExtent(z, col, row)
			if err != nil {
				return nil, err
			}
			sorted.Insert(key.String(), raster.Source{Extent: ext, Image: img})
		}
	}

	sources := make([]raster.Source, 0, sorted.Len())
	m := sorted.Map()
	for _, key := range sorted.Keys() {
		sources = append(sources, m[key].(raster.Source))
	}
	if len(sources) == 0 {
		log.Printf("  no source tiles at zoom %d for %v", z, sourceExtent)
	}
	return sources, nil
}
