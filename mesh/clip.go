package mesh

import (
	"github.com/go-spatial/geom"
	"github.com/pdok/rewarp/geomhelp"
)

// clipRing clips a closed clockwise ring against an axis-aligned extent
// using Sutherland–Hodgman: the ring is clipped against each of the
// extent's four directed edges in turn, the output of one pass feeding the
// next. Vertices exactly on an edge are kept. The two scratch buffers are
// ping-ponged to avoid allocating per edge; the result aliases one of them.
func clipRing(ring [][2]float64, ext *geom.Extent, scratchIn, scratchOut [][2]float64) [][2]float64 {
	// Directed edges in the same clockwise winding as the ring:
	// top, right, bottom, left.
	edges := [4][2][2]float64{
		{{ext.MinX(), ext.MaxY()}, {ext.MaxX(), ext.MaxY()}},
		{{ext.MaxX(), ext.MaxY()}, {ext.MaxX(), ext.MinY()}},
		{{ext.MaxX(), ext.MinY()}, {ext.MinX(), ext.MinY()}},
		{{ext.MinX(), ext.MinY()}, {ext.MinX(), ext.MaxY()}},
	}

	in := append(scratchIn[:0], ring...)
	out := scratchOut[:0]
	for _, edge := range edges {
		if len(in) == 0 {
			break
		}
		out = out[:0]
		s := in[len(in)-1]
		for _, e := range in {
			if isInside(e, edge[0], edge[1]) {
				if !isInside(s, edge[0], edge[1]) {
					out = append(out, intersect(s, e, edge[0], edge[1]))
				}
				out = append(out, e)
			} else if isInside(s, edge[0], edge[1]) {
				out = append(out, intersect(s, e, edge[0], edge[1]))
			}
			s = e
		}
		in, out = out, in
	}
	return in
}

// isInside reports whether p lies on the inner side of the directed edge
// a→b. With clockwise winding the inside is the right-hand side, where the
// cross product is negative; points exactly on the edge count as inside.
func isInside(p, a, b [2]float64) bool {
	return geomhelp.Cross(a, b, p) <= 0
}

// intersect returns the intersection of the line through s and e with the
// line through a and b.
// ref: https://en.wikipedia.org/wiki/Line%E2%80%93line_intersection#Given_two_points_on_each_line
func intersect(s, e, a, b [2]float64) [2]float64 {
	d := (s[xAx]-e[xAx])*(a[yAx]-b[yAx]) - (s[yAx]-e[yAx])*(a[xAx]-b[xAx])
	if d == 0 {
		// Parallel. Cannot happen for axis-aligned clip edges with s and
		// e on opposite sides, but return a well-defined point anyway.
		return s
	}
	c1 := s[xAx]*e[yAx] - s[yAx]*e[xAx]
	c2 := a[xAx]*b[yAx] - a[yAx]*b[xAx]
	return [2]float64{
		(c1*(a[xAx]-b[xAx]) - (s[xAx]-e[xAx])*c2) / d,
		(c1*(a[yAx]-b[yAx]) - (s[yAx]-e[yAx])*c2) / d,
	}
}
