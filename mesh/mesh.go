// Package mesh builds an adaptive triangular mesh covering a target extent,
// pairing every vertex with its inverse-projected source counterpart. Quads
// are refined until the reprojection error at their midpoint drops below a
// threshold, so that each leaf triangle can later be rendered with a single
// affine transform.
package mesh

import (
	"strings"

	"github.com/go-spatial/geom"
	"github.com/pdok/rewarp/geomhelp"
	"github.com/pdok/rewarp/mathhelp"
)

const (
	xAx = 0
	yAx = 1
)

// Triangle pairs three target-projection vertices with their source
// counterparts: Target[i] = fwd(Source[i]).
type Triangle struct {
	Source [3][2]float64
	Target [3][2]float64
	// NeedsShift marks triangles straddling the source projection's
	// world-wrap seam: their source x ordinates must be reduced modulo
	// the world width before doing affine math on them.
	NeedsShift bool
}

// Mesh is the full triangulation of a target extent. It is built once per
// render and read-only afterwards.
type Mesh struct {
	Triangles []Triangle
	// WrapsX is true iff any triangle needs shifting.
	WrapsX bool

	worldWidth   float64
	sourceDomain *geom.Extent
}

// SourceExtent returns the bounding box of all source vertices, the area of
// source imagery a render of this mesh will touch. For a mesh straddling the
// wrap seam the x ordinates are first reduced modulo the world width, and
// the result is pulled back by one world width when it lands beyond the
// source domain. Returns nil for an empty mesh.
func (m *Mesh) SourceExtent() *geom.Extent {
	if len(m.Triangles) == 0 {
		return nil
	}
	var ext *geom.Extent
	for i := range m.Triangles {
		for _, v := range m.Triangles[i].Source {
			if m.WrapsX && m.worldWidth > 0 {
				v[xAx] = mathhelp.Mod(v[xAx], m.worldWidth)
			}
			if ext == nil {
				ext = geom.NewExtent(v)
			} else {
				ext.AddPoints(v)
			}
		}
	}
	if m.WrapsX && m.sourceDomain != nil &&
		ext.MinX() > m.sourceDomain.MaxX() && ext.MaxX() > m.sourceDomain.MaxX() {
		return &geom.Extent{
			ext.MinX() - m.worldWidth, ext.MinY(),
			ext.MaxX() - m.worldWidth, ext.MaxY(),
		}
	}
	return ext
}

// WKT encodes the target-side triangle outlines, one polygon per line.
// For debugging/visualising, like the mesh overlay in the CLI.
func (m *Mesh) WKT(maxLen uint) string {
	var sb strings.Builder
	for i := range m.Triangles {
		t := &m.Triangles[i]
		ring := [][2]float64{t.Target[0], t.Target[1], t.Target[2]}
		sb.WriteString(geomhelp.WktMustEncode(geom.Polygon{ring}, maxLen))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Mesh) addTriangle(target, source [3][2]float64, needsShift bool) {
	if source[0] == source[1] && source[1] == source[2] {
		return // collapsed in source space, nothing to draw
	}
	m.Triangles = append(m.Triangles, Triangle{
		Source:     source,
		Target:     target,
		NeedsShift: needsShift,
	})
	if needsShift {
		m.WrapsX = true
	}
}
