// Package warp takes care of the logistics around reprojecting whole tile
// pyramids: per target tile it builds the mesh, picks the source zoom
// level, gathers the source tiles and renders, fanning the tiles out over
// workers.
package warp

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"sync"

	"github.com/go-spatial/geom"
	"github.com/pdok/rewarp/grid"
	"github.com/pdok/rewarp/mathhelp"
	"github.com/pdok/rewarp/mesh"
	"github.com/pdok/rewarp/proj"
	"github.com/pdok/rewarp/raster"
	"github.com/pdok/rewarp/tiles"
)

// errorThresholdFrac is the default acceptable midpoint reprojection
// error, as a fraction of the source pixel size.
const errorThresholdFrac = 0.5

var debugOutlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 255}

// Job holds everything fixed across the tiles of one reprojection run.
type Job struct {
	SourceProj proj.Projection
	TargetProj proj.Projection
	// Fwd maps source to target coordinates, Inv the other way around.
	Fwd, Inv   proj.Transform
	SourceGrid *grid.TileGrid
	TargetGrid *grid.TileGrid
	// ErrorThreshold is the acceptable midpoint reprojection error in
	// source units. 0 means half a source pixel.
	ErrorThreshold float64
	// MaxDepth caps the mesh subdivision. 0 means the default cap.
	MaxDepth int
	// Debug draws the mesh's triangle outlines over every rendered tile.
	Debug bool
}

// NewJob wires a job between two built-in projections.
func NewJob(sourceGrid, targetGrid *grid.TileGrid) (*Job, error) {
	sourceProj, err := proj.Get(sourceGrid.CRS)
	if err != nil {
		return nil, err
	}
	targetProj, err := proj.Get(targetGrid.CRS)
	if err != nil {
		return nil, err
	}
	fwd, err := proj.Between(sourceProj, targetProj)
	if err != nil {
		return nil, err
	}
	inv, err := proj.Between(targetProj, sourceProj)
	if err != nil {
		return nil, err
	}
	return &Job{
		SourceProj: sourceProj,
		TargetProj: targetProj,
		Fwd:        fwd,
		Inv:        inv,
		SourceGrid: sourceGrid,
		TargetGrid: targetGrid,
	}, nil
}

// WarpTile reprojects one target tile. The returned raster is one pixel
// wider and taller than the tile; CropTile takes that back off. A tile
// whose inverse image misses the source entirely comes back fully
// transparent.
func (j *Job) WarpTile(loader tiles.Loader, key tiles.TileKey) (*image.RGBA, error) {
	targetExtent, err := j.TargetGrid.TileExtent(key.Z, key.Col, key.Row)
	if err != nil {
		return nil, err
	}
	targetRes, err := j.TargetGrid.Resolution(key.Z)
	if err != nil {
		return nil, err
	}

	sourceZ := j.SourceGrid.ZForResolution(j.estimateSourceResolution(targetExtent, targetRes))
	sourceRes := j.SourceGrid.Resolutions[sourceZ]

	threshold := j.ErrorThreshold
	if threshold == 0 {
		threshold = errorThresholdFrac * sourceRes
	}
	maxDepth := j.MaxDepth
	if maxDepth == 0 {
		maxDepth = mesh.MaxSubdivisionDepth
	}

	m := mesh.New(targetExtent, j.Fwd, j.Inv, j.SourceProj, threshold, maxDepth)

	width := int(math.Ceil(targetExtent.XSpan()/targetRes)) + 1
	height := int(math.Ceil(targetExtent.YSpan()/targetRes)) + 1
	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	sourceExtent := m.SourceExtent()
	if sourceExtent != nil {
		sources, err := tiles.Collect(loader, j.SourceGrid, sourceZ, sourceExtent)
		if err != nil {
			return nil, err
		}
		raster.Render(dst, m, sourceRes, j.SourceProj.Extent, targetRes, targetExtent, sources)
	}
	if j.Debug {
		raster.DebugOutlines(dst, m, targetRes, targetExtent, debugOutlineColor)
		log.Printf("  %v: %d triangles, wrapsX=%v\n%s", key, len(m.Triangles), m.WrapsX, m.WKT(120))
	}
	return dst, nil
}

// estimateSourceResolution measures how many source units one target pixel
// spans at the tile's center, the ideal resolution to sample the source
// at. Falls back to the world-width ratio when the center does not
// inverse-project cleanly.
func (j *Job) estimateSourceResolution(targetExtent *geom.Extent, targetRes float64) float64 {
	center := [2]float64{
		(targetExtent.MinX() + targetExtent.MaxX()) / 2,
		(targetExtent.MinY() + targetExtent.MaxY()) / 2,
	}
	p0 := j.Inv(center)
	p1 := j.Inv([2]float64{center[0] + targetRes, center[1]})
	d := math.Hypot(p1[0]-p0[0], p1[1]-p0[1])
	if mathhelp.IsFinite(d) && d > 0 {
		return d
	}
	if sw, tw := j.SourceProj.WorldWidth(), j.TargetProj.WorldWidth(); sw > 0 && tw > 0 {
		return targetRes * sw / tw
	}
	return targetRes
}

// CropTile cuts the one-pixel render margin off, back to the grid's tile
// size.
func (j *Job) CropTile(img *image.RGBA) *image.RGBA {
	size := j.TargetGrid.TileSize
	return img.SubImage(image.Rect(0, 0, size, size)).(*image.RGBA)
}

// A TileWriter persists one finished tile.
type TileWriter func(key tiles.TileKey, img *image.RGBA) error

// Run reprojects all target tiles of the given zoom levels. Warping fans
// out over the given number of workers, each with its own loader from
// newLoader; writing stays on one goroutine so the writer needs no
// locking.
func Run(job *Job, newLoader func() tiles.Loader, zooms []int, writer TileWriter, workers int) error {
	keys := make(chan tiles.TileKey)
	results := make(chan warpedTile)
	errs := make(chan error, 1)

	go func() {
		defer close(keys)
		for _, z := range zooms {
			cols, rows, err := job.TargetGrid.MatrixSize(z)
			if err != nil {
				select {
				case errs <- err:
				default:
				}
				return
			}
			for col := 0; col < cols; col++ {
				for row := 0; row < rows; row++ {
					keys <- tiles.TileKey{Z: z, Col: col, Row: row}
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loader := newLoader()
			for key := range keys {
				img, err := job.WarpTile(loader, key)
				if err != nil {
					select {
					case errs <- fmt.Errorf(`could not warp tile %v: %w`, key, err):
					default:
					}
					continue
				}
				results <- warpedTile{key: key, img: job.CropTile(img)}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var count uint64
	var writeErr error
	for result := range results {
		if writeErr != nil {
			continue // keep draining so the workers can finish
		}
		writeErr = writer(result.key, result.img)
		if writeErr == nil {
			count++
		}
	}
	log.Printf("  warped tiles: %d", count)
	if writeErr != nil {
		return writeErr
	}

	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}

type warpedTile struct {
	key tiles.TileKey
	img *image.RGBA
}
