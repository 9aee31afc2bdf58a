// Package proj carries just enough projection knowledge for warping rasters:
// descriptors for the valid domain and wrapping behavior of a projection,
// and point transforms between the built-in projections. The warping core
// consumes the transforms as opaque functions; no projection math leaks
// into it.
package proj

import (
	"fmt"

	"github.com/go-spatial/geom"
)

// A Transform maps a single coordinate from one projection to another.
// Components of the result may be non-finite when the input lies outside
// the transform's valid domain.
type Transform func(coord [2]float64) [2]float64

// Projection describes a coordinate reference system as far as warping
// is concerned.
type Projection struct {
	Code string
	// Extent is the valid coordinate domain. Nil means unbounded.
	Extent *geom.Extent
	// CanWrapX marks projections where moving one world width along x
	// returns to the same physical location (the dateline wraps).
	CanWrapX bool
	// Global marks projections covering the whole world, used as a
	// heuristic to force subdivision of very wide quads.
	Global bool
}

// WorldWidth is the x span of the valid domain, 0 when unbounded.
func (p Projection) WorldWidth() float64 {
	if p.Extent == nil {
		return 0
	}
	return p.Extent.XSpan()
}

// Identity is the do-nothing transform.
func Identity(coord [2]float64) [2]float64 {
	return coord
}

// Get returns a built-in projection by its code.
func Get(code string) (Projection, error) {
	p, ok := projections[code]
	if !ok {
		return Projection{}, fmt.Errorf(`unknown projection %q`, code)
	}
	return p, nil
}

// Between returns the transform from the source to the target projection.
func Between(source, target Projection) (Transform, error) {
	if source.Code == target.Code {
		return Identity, nil
	}
	tf, ok := transforms[[2]string{source.Code, target.Code}]
	if !ok {
		return nil, fmt.Errorf(`no transform from %q to %q`, source.Code, target.Code)
	}
	return tf, nil
}

var (
	projections = map[string]Projection{}
	transforms  = map[[2]string]Transform{}
)

func register(p Projection) Projection {
	projections[p.Code] = p
	return p
}

func registerTransform(from, to Projection, tf Transform) {
	transforms[[2]string{from.Code, to.Code}] = tf
}
