package mesh

import (
	"fmt"
	"math"

	"github.com/go-spatial/geom"
	"github.com/pdok/rewarp/mathhelp"
	"github.com/pdok/rewarp/proj"
)

const (
	// MaxSubdivisionDepth is the hard recursion ceiling for quad
	// refinement: a mesh never holds more than 4^depth leaf quads.
	MaxSubdivisionDepth = 10
	// maxTriangleWidthFrac forces subdivision of quads covering more than
	// this fraction of a global source's world width, regardless of the
	// measured error. The affine approximation degrades on triangles that
	// span a large part of the world even when their midpoint happens to
	// land well.
	maxTriangleWidthFrac = 0.25
)

type triangulator struct {
	fwd, inv     proj.Transform
	sourceDomain *geom.Extent
	worldWidth   float64
	canWrapX     bool
	global       bool
	errSq        float64

	mesh *Mesh

	// ping-pong buffers for Sutherland–Hodgman, reused across leaves
	scratchIn, scratchOut [][2]float64
}

// New triangulates targetExtent. The four corners are inverse-projected
// with inv and the resulting quad is recursively refined until the
// midpoint reprojection error stays below errorThreshold (in source
// units) or maxDepth runs out. Quads reaching outside the source
// projection's domain are clipped in source space; quads straddling the
// wrap seam are flagged for shifting at render time.
func New(targetExtent *geom.Extent, fwd, inv proj.Transform, source proj.Projection,
	errorThreshold float64, maxDepth int) *Mesh {
	if maxDepth < 0 {
		panic(fmt.Errorf(`negative maxDepth: %v`, maxDepth))
	}
	t := &triangulator{
		fwd:          fwd,
		inv:          inv,
		sourceDomain: source.Extent,
		worldWidth:   source.WorldWidth(),
		canWrapX:     source.CanWrapX,
		global:       source.Global,
		errSq:        errorThreshold * errorThreshold,
		mesh: &Mesh{
			worldWidth:   source.WorldWidth(),
			sourceDomain: source.Extent,
		},
		scratchIn:  make([][2]float64, 0, 8),
		scratchOut: make([][2]float64, 0, 8),
	}

	// clockwise: top-left, top-right, bottom-right, bottom-left
	a := [2]float64{targetExtent.MinX(), targetExtent.MaxY()}
	b := [2]float64{targetExtent.MaxX(), targetExtent.MaxY()}
	c := [2]float64{targetExtent.MaxX(), targetExtent.MinY()}
	d := [2]float64{targetExtent.MinX(), targetExtent.MinY()}
	t.refineQuad(a, b, c, d, inv(a), inv(b), inv(c), inv(d), maxDepth)

	return t.mesh
}

// refineQuad either subdivides the quad abcd into its four sub-quads, or
// emits it as two triangles (clipped against the source domain when it
// pokes outside). Corners are in clockwise order; the source corners are
// the inverse projections of the target corners.
//
//nolint:cyclop,funlen
func (t *triangulator) refineQuad(a, b, c, d, aSrc, bSrc, cSrc, dSrc [2]float64, depth int) {
	srcMinX := math.Min(math.Min(aSrc[xAx], bSrc[xAx]), math.Min(cSrc[xAx], dSrc[xAx]))
	srcMinY := math.Min(math.Min(aSrc[yAx], bSrc[yAx]), math.Min(cSrc[yAx], dSrc[yAx]))
	srcMaxX := math.Max(math.Max(aSrc[xAx], bSrc[xAx]), math.Max(cSrc[xAx], dSrc[xAx]))
	srcMaxY := math.Max(math.Max(aSrc[yAx], bSrc[yAx]), math.Max(cSrc[yAx], dSrc[yAx]))

	// The whole quad projects outside the source domain: nothing to draw.
	// Only trustworthy when all corners are finite; non-finite corners are
	// dealt with by clamping below.
	if t.sourceDomain != nil &&
		mathhelp.IsFinite(srcMinX) && mathhelp.IsFinite(srcMinY) &&
		mathhelp.IsFinite(srcMaxX) && mathhelp.IsFinite(srcMaxY) &&
		(srcMaxX < t.sourceDomain.MinX() || srcMinX > t.sourceDomain.MaxX() ||
			srcMaxY < t.sourceDomain.MinY() || srcMinY > t.sourceDomain.MaxY()) {
		return
	}

	srcCoverageX := 0.0
	if t.worldWidth > 0 {
		srcCoverageX = (srcMaxX - srcMinX) / t.worldWidth
	}
	// A quad whose inverse image straddles the wrap seam shows up as one
	// very wide bbox: more than half a world, but less than the full
	// world a multi-world quad would cover.
	wraps := t.canWrapX && srcCoverageX > 0.5 && srcCoverageX < 1

	if depth > 0 {
		needsSubdivision := t.global && !wraps && srcCoverageX > maxTriangleWidthFrac

		center := midpoint(a, c)
		var centerSrc [2]float64
		haveCenterSrc := false

		if !needsSubdivision {
			centerSrc = t.inv(center)
			haveCenterSrc = true

			var dx float64
			if wraps {
				estimX := (mathhelp.Mod(aSrc[xAx], t.worldWidth) +
					mathhelp.Mod(bSrc[xAx], t.worldWidth) +
					mathhelp.Mod(cSrc[xAx], t.worldWidth) +
					mathhelp.Mod(dSrc[xAx], t.worldWidth)) / 4
				dx = estimX - mathhelp.Mod(centerSrc[xAx], t.worldWidth)
			} else {
				estimX := (aSrc[xAx] + bSrc[xAx] + cSrc[xAx] + dSrc[xAx]) / 4
				dx = estimX - centerSrc[xAx]
			}
			estimY := (aSrc[yAx] + bSrc[yAx] + cSrc[yAx] + dSrc[yAx]) / 4
			dy := estimY - centerSrc[yAx]

			needsSubdivision = dx*dx+dy*dy > t.errSq
		}

		if needsSubdivision {
			if !haveCenterSrc {
				centerSrc = t.inv(center)
			}
			ab := midpoint(a, b)
			bc := midpoint(b, c)
			cd := midpoint(c, d)
			da := midpoint(d, a)
			abSrc := t.inv(ab)
			bcSrc := t.inv(bc)
			cdSrc := t.inv(cd)
			daSrc := t.inv(da)

			t.refineQuad(a, ab, center, da, aSrc, abSrc, centerSrc, daSrc, depth-1)
			t.refineQuad(ab, b, bc, center, abSrc, bSrc, bcSrc, centerSrc, depth-1)
			t.refineQuad(center, bc, c, cd, centerSrc, bcSrc, cSrc, cdSrc, depth-1)
			t.refineQuad(da, center, cd, d, daSrc, centerSrc, cdSrc, dSrc, depth-1)
			return
		}
	}

	if t.sourceDomain != nil && !(t.containsSrc(aSrc) && t.containsSrc(bSrc) &&
		t.containsSrc(cSrc) && t.containsSrc(dSrc)) {
		t.emitClipped([4][2]float64{aSrc, bSrc, cSrc, dSrc})
		return
	}

	t.mesh.addTriangle([3][2]float64{a, c, d}, [3][2]float64{aSrc, cSrc, dSrc}, wraps)
	t.mesh.addTriangle([3][2]float64{a, b, c}, [3][2]float64{aSrc, bSrc, cSrc}, wraps)
}

// emitClipped clips the source-space quad against the source domain and
// emits the pieces. The target coordinates are recovered by forward
// projecting afterwards, so target[i] = fwd(source[i]) still holds. The
// pieces all lie inside the domain and never need shifting.
func (t *triangulator) emitClipped(srcRing [4][2]float64) {
	for i := range srcRing {
		srcRing[i][xAx] = clampNonFinite(srcRing[i][xAx], t.sourceDomain.MinX(), t.sourceDomain.MaxX())
		srcRing[i][yAx] = clampNonFinite(srcRing[i][yAx], t.sourceDomain.MinY(), t.sourceDomain.MaxY())
	}

	clipped := clipRing(srcRing[:], t.sourceDomain, t.scratchIn, t.scratchOut)
	for _, srcTri := range fanTriangulate(clipped) {
		target := [3][2]float64{t.fwd(srcTri[0]), t.fwd(srcTri[1]), t.fwd(srcTri[2])}
		t.mesh.addTriangle(target, srcTri, false)
	}
}

func (t *triangulator) containsSrc(p [2]float64) bool {
	return t.sourceDomain.MinX() <= p[xAx] && p[xAx] <= t.sourceDomain.MaxX() &&
		t.sourceDomain.MinY() <= p[yAx] && p[yAx] <= t.sourceDomain.MaxY()
}

// clampNonFinite tames the ±Inf and NaN that inverse projections produce
// at their singularities (e.g. the poles for Mercator). Finite values pass
// through untouched.
func clampNonFinite(v, lo, hi float64) float64 {
	switch {
	case mathhelp.IsFinite(v):
		return v
	case math.IsInf(v, 1):
		return hi
	default:
		return lo
	}
}

func midpoint(p, q [2]float64) [2]float64 {
	return [2]float64{(p[xAx] + q[xAx]) / 2, (p[yAx] + q[yAx]) / 2}
}
