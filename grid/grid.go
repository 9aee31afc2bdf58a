// Package grid implements quad tile grids: the pyramid of resolutions and
// tile extents a tile pyramid is addressed by. Grids are defined in JSON
// (a few well-known ones are embedded) and supply the warp with target
// extents and with the source resolution level to fetch.
package grid

import (
	"embed"
	"encoding/json"
	"fmt"
	"math"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/go-spatial/geom"
	"github.com/pdok/rewarp/mathhelp"
	"github.com/perimeterx/marshmallow"
)

var (
	//go:embed tilegrids/*.json
	embeddedTileGridsJSONFS embed.FS
	embeddedTileGridsCache  = make(map[string]*TileGrid)
)

// TileGrid describes a quad tile pyramid: square tiles of TileSize pixels,
// tile (0, 0) at the top-left corner of Extent, row numbers growing
// downwards, one resolution (units per pixel) per zoom level.
type TileGrid struct {
	ID  string `validate:"required" json:"id"`
	CRS string `validate:"required" json:"crs"`
	// Extent in CRS units: minX, minY, maxX, maxY
	Extent      []float64 `validate:"required,len=4" json:"extent"`
	TileSize    int       `default:"256" validate:"min=1" json:"tileSize,omitempty"`
	Resolutions []float64 `validate:"required,min=1" json:"resolutions"`
}

func (g *TileGrid) UnmarshalJSON(data []byte) error {
	err := defaults.Set(g)
	if err != nil {
		return err
	}
	_, err = marshmallow.Unmarshal(data, g, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(g)
}

// LoadEmbeddedTileGrid returns a built-in tile grid by its ID.
func LoadEmbeddedTileGrid(id string) (TileGrid, error) {
	var g TileGrid
	cached, ok := embeddedTileGridsCache[id]
	if ok {
		return *cached, nil
	}
	gridJSON, err := embeddedTileGridsJSONFS.ReadFile("tilegrids/" + id + ".json")
	if err != nil {
		return g, err
	}
	err = json.Unmarshal(gridJSON, &g)
	if err != nil {
		return g, err
	}
	embeddedTileGridsCache[id] = &g
	return g, nil
}

// GeomExtent returns the grid's extent as a geometry extent.
func (g *TileGrid) GeomExtent() *geom.Extent {
	return &geom.Extent{g.Extent[0], g.Extent[1], g.Extent[2], g.Extent[3]}
}

// Resolution returns the units per pixel at zoom level z.
func (g *TileGrid) Resolution(z int) (float64, error) {
	if z < 0 || z >= len(g.Resolutions) {
		return 0, fmt.Errorf(`tile grid %v has no zoom level %v`, g.ID, z)
	}
	return g.Resolutions[z], nil
}

// MaxZoom is the deepest zoom level the grid defines.
func (g *TileGrid) MaxZoom() int {
	return len(g.Resolutions) - 1
}

// MatrixSize returns the number of tile columns and rows at zoom level z.
func (g *TileGrid) MatrixSize(z int) (cols, rows int, err error) {
	res, err := g.Resolution(z)
	if err != nil {
		return 0, 0, err
	}
	tileSpan := float64(g.TileSize) * res
	ext := g.GeomExtent()
	cols = int(math.Round(ext.XSpan() / tileSpan))
	rows = int(math.Round(ext.YSpan() / tileSpan))
	return cols, rows, nil
}

// TileExtent returns the extent covered by tile (col, row) at zoom z.
func (g *TileGrid) TileExtent(z, col, row int) (*geom.Extent, error) {
	res, err := g.Resolution(z)
	if err != nil {
		return nil, err
	}
	tileSpan := float64(g.TileSize) * res
	minX := g.Extent[0] + float64(col)*tileSpan
	maxY := g.Extent[3] - float64(row)*tileSpan
	return &geom.Extent{minX, maxY - tileSpan, minX + tileSpan, maxY}, nil
}

// TileRange returns the inclusive ranges of tile columns and rows at zoom z
// intersecting the given extent, clamped to the grid's matrix.
func (g *TileGrid) TileRange(z int, ext *geom.Extent) (minCol, minRow, maxCol, maxRow int, err error) {
	res, err := g.Resolution(z)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	cols, rows, err := g.MatrixSize(z)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	tileSpan := float64(g.TileSize) * res

	minCol = int(math.Floor((ext.MinX() - g.Extent[0]) / tileSpan))
	maxCol = int(math.Ceil((ext.MaxX()-g.Extent[0])/tileSpan)) - 1
	minRow = int(math.Floor((g.Extent[3] - ext.MaxY()) / tileSpan))
	maxRow = int(math.Ceil((g.Extent[3]-ext.MinY())/tileSpan)) - 1

	minCol = mathhelp.Clamp(minCol, 0, cols-1)
	minRow = mathhelp.Clamp(minRow, 0, rows-1)
	maxCol = mathhelp.Clamp(maxCol, 0, cols-1)
	maxRow = mathhelp.Clamp(maxRow, 0, rows-1)
	return minCol, minRow, maxCol, maxRow, nil
}

// ZForResolution returns the zoom level whose resolution is nearest to the
// given one, preferring the coarser level on a tie.
func (g *TileGrid) ZForResolution(res float64) int {
	bestZ := 0
	bestDiff := math.Inf(1)
	for z, r := range g.Resolutions {
		diff := math.Abs(r - res)
		if diff < bestDiff {
			bestZ = z
			bestDiff = diff
		}
	}
	return bestZ
}
