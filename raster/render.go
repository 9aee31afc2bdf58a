// Package raster renders a triangulated reprojection mesh into a
// destination image. Every mesh triangle gets its own affine transform from
// source-projection coordinates to destination pixels, solved from the
// triangle's three vertex pairs; the destination is clipped to the triangle
// and the source images are composited under that transform.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/go-spatial/geom"
	"github.com/pdok/rewarp/mathhelp"
	"github.com/pdok/rewarp/mesh"
)

// Source is one source image tile with the source-projection extent it
// covers. The image is sampled at the render's source resolution.
type Source struct {
	Extent *geom.Extent
	Image  image.Image
}

// Render composites sources into dst according to the mesh. The
// destination raster covers targetExtent at targetResolution (target units
// per pixel, row 0 at the top); the sources are sampled at
// sourceResolution. sourceDomain is the source projection's valid extent,
// needed to re-align triangles straddling the wrap seam; nil disables
// shifting. Best effort: degenerate triangles are skipped, missing
// coverage stays as dst was initialized.
func Render(dst *image.RGBA, m *mesh.Mesh, sourceResolution float64, sourceDomain *geom.Extent,
	targetResolution float64, targetExtent *geom.Extent, sources []Source) {
	r := renderer{
		painter:          NewPainter(dst),
		sources:          sources,
		sourceResolution: sourceResolution,
		targetResolution: targetResolution,
		targetTL:         [2]float64{targetExtent.MinX(), targetExtent.MaxY()},
	}
	if sourceDomain != nil {
		r.hasShift = true
		r.shiftDistance = sourceDomain.XSpan()
		r.shiftThreshold = sourceDomain.MinX() + sourceDomain.XSpan()/2
	}

	for i := range m.Triangles {
		r.renderTriangle(&m.Triangles[i])
	}
}

type renderer struct {
	painter          *Painter
	sources          []Source
	sourceResolution float64
	targetResolution float64
	targetTL         [2]float64

	hasShift       bool
	shiftDistance  float64
	shiftThreshold float64
}

func (r *renderer) renderTriangle(tri *mesh.Triangle) {
	r.painter.Push()
	defer r.painter.Pop()

	shift := tri.NeedsShift && r.hasShift

	var sx, sy [3]float64
	for i := range tri.Source {
		sx[i] = tri.Source[i][0]
		sy[i] = tri.Source[i][1]
		if shift {
			// bring all three vertices into a single world copy
			sx[i] = mathhelp.Mod(sx[i], r.shiftDistance)
		}
	}

	// destination pixel coordinates, y flipped: image row 0 is at the top
	var u, v [3]float64
	for i := range tri.Target {
		u[i] = (tri.Target[i][0] - r.targetTL[0]) / r.targetResolution
		v[i] = -(tri.Target[i][1] - r.targetTL[1]) / r.targetResolution
	}

	// shift the source vertices to the origin so the system below is
	// well-conditioned for far-from-origin coordinates
	srcShiftX, srcShiftY := sx[0], sy[0]
	x1, y1 := sx[1]-srcShiftX, sy[1]-srcShiftY
	x2, y2 := sx[2]-srcShiftX, sy[2]-srcShiftY

	coeffs := SolveLinearSystem([][]float64{
		{0, 0, 1, 0, 0, 0, u[0]},
		{x1, y1, 1, 0, 0, 0, u[1]},
		{x2, y2, 1, 0, 0, 0, u[2]},
		{0, 0, 0, 0, 0, 1, v[0]},
		{0, 0, 0, x1, y1, 1, v[1]},
		{0, 0, 0, x2, y2, 1, v[2]},
	})
	if coeffs == nil {
		return // collinear source vertices
	}
	r.painter.SetMatrix(Matrix{
		A: coeffs[0], B: coeffs[1], C: coeffs[2],
		D: coeffs[3], E: coeffs[4], F: coeffs[5],
	})

	// Enlarge the triangle by one source pixel along each vertex-to-
	// centroid ray before clipping: adjacent triangles then overdraw each
	// other's antialiased edges instead of leaving background cracks.
	verts := [3][2]float64{{0, 0}, {x1, y1}, {x2, y2}}
	cx := (x1 + x2) / 3
	cy := (y1 + y2) / 3
	for i := range verts {
		dx, dy := verts[i][0]-cx, verts[i][1]-cy
		if l := math.Hypot(dx, dy); l > 0 {
			verts[i][0] += dx / l * r.sourceResolution
			verts[i][1] += dy / l * r.sourceResolution
		}
	}
	r.painter.ClipTriangle(verts[0], verts[1], verts[2])

	for _, src := range r.sources {
		r.drawSource(src, shift, srcShiftX, srcShiftY)
	}
}

func (r *renderer) drawSource(src Source, shift bool, srcShiftX, srcShiftY float64) {
	r.painter.Push()
	defer r.painter.Pop()

	r.painter.Translate(src.Extent.MinX()-srcShiftX, src.Extent.MaxY()-srcShiftY)
	if shift && src.Extent.MinX() < r.shiftThreshold {
		// the source image lives on the other side of the seam; move it
		// one world over to meet the modulo-reduced triangle
		r.painter.Translate(r.shiftDistance, 0)
	}
	r.painter.Scale(r.sourceResolution, -r.sourceResolution)

	b := src.Image.Bounds()
	// half a pixel of inflation on every side hides the seams between
	// adjacent source tiles that antialiasing would otherwise open up
	r.painter.DrawImage(src.Image, -0.5, -0.5, float64(b.Dx())+1, float64(b.Dy())+1)
}

// DebugOutlines strokes the mesh's target-side triangle edges into dst,
// for visually checking the triangulation over a rendered tile.
func DebugOutlines(dst *image.RGBA, m *mesh.Mesh, targetResolution float64, targetExtent *geom.Extent, c color.Color) {
	tlX, tlY := targetExtent.MinX(), targetExtent.MaxY()
	toPixel := func(p [2]float64) (float64, float64) {
		return (p[0] - tlX) / targetResolution, -(p[1] - tlY) / targetResolution
	}
	for i := range m.Triangles {
		tri := &m.Triangles[i]
		for e := 0; e < 3; e++ {
			x0, y0 := toPixel(tri.Target[e])
			x1, y1 := toPixel(tri.Target[(e+1)%3])
			drawLine(dst, x0, y0, x1, y1, c)
		}
	}
}

func drawLine(dst *image.RGBA, x0, y0, x1, y1 float64, c color.Color) {
	steps := int(math.Max(math.Abs(x1-x0), math.Abs(y1-y0)))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(x0 + t*(x1-x0)))
		y := int(math.Round(y0 + t*(y1-y0)))
		dst.Set(x, y, c)
	}
}
