package mesh

import (
	"github.com/pdok/rewarp/geomhelp"
)

// fanTriangulate splits a ring into triangles. Rings of 3 and 4 vertices
// are split trivially; anything larger goes through ear clipping. The ring
// must be simple; its winding may be either way (clipping a clockwise quad
// keeps it clockwise, but the inverse projection may have mirrored it).
func fanTriangulate(ring [][2]float64) [][3][2]float64 {
	switch n := len(ring); {
	case n < 3:
		return nil
	case n == 3:
		return [][3][2]float64{{ring[0], ring[1], ring[2]}}
	case n == 4:
		return [][3][2]float64{
			{ring[0], ring[1], ring[2]},
			{ring[0], ring[2], ring[3]},
		}
	default:
		return earClip(ring)
	}
}

// earClip is the textbook O(N²) ear-clipping loop: find a vertex whose
// triangle with its neighbours is convex in the ring's winding and contains
// no other ring vertex, emit it, remove the vertex, repeat. Rings here come
// out of quad clipping and have at most 8 vertices.
func earClip(ring [][2]float64) [][3][2]float64 {
	clockwise := geomhelp.SignedArea(ring) < 0
	remaining := make([][2]float64, len(ring))
	copy(remaining, ring)

	triangles := make([][3][2]float64, 0, len(ring)-2)
	for len(remaining) > 3 {
		earI := -1
		for i := range remaining {
			if isEar(remaining, i, clockwise) {
				earI = i
				break
			}
		}
		if earI == -1 {
			// No ear. Only possible for degenerate input (collinear
			// runs); fall back to a fan so we still terminate.
			for i := 1; i < len(remaining)-1; i++ {
				triangles = append(triangles, [3][2]float64{remaining[0], remaining[i], remaining[i+1]})
			}
			return triangles
		}
		prev := remaining[(earI+len(remaining)-1)%len(remaining)]
		next := remaining[(earI+1)%len(remaining)]
		triangles = append(triangles, [3][2]float64{prev, remaining[earI], next})
		remaining = append(remaining[:earI], remaining[earI+1:]...)
	}
	return append(triangles, [3][2]float64{remaining[0], remaining[1], remaining[2]})
}

func isEar(ring [][2]float64, i int, clockwise bool) bool {
	n := len(ring)
	prev := ring[(i+n-1)%n]
	cur := ring[i]
	next := ring[(i+1)%n]

	cross := geomhelp.Cross(prev, cur, next)
	if cross == 0 {
		return false
	}
	if clockwise != (cross < 0) {
		return false // reflex vertex
	}
	for j := 0; j < n; j++ {
		if j == i || j == (i+n-1)%n || j == (i+1)%n {
			continue
		}
		if geomhelp.PointInTriangle(ring[j], prev, cur, next) {
			return false
		}
	}
	return true
}
