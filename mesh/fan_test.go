package mesh

import (
	"testing"

	"github.com/pdok/rewarp/geomhelp"
	"github.com/stretchr/testify/assert"
)

func Test_fanTriangulate(t *testing.T) {
	tests := []struct {
		name          string
		ring          [][2]float64
		wantTriangles int
	}{
		{"too small", [][2]float64{{0, 0}, {1, 1}}, 0},
		{"triangle passes through", [][2]float64{{0, 0}, {0, 4}, {4, 0}}, 1},
		{"quad splits on the 0-2 diagonal", [][2]float64{{0, 4}, {4, 4}, {4, 0}, {0, 0}}, 2},
		{"pentagon", [][2]float64{{0, 2}, {2, 4}, {4, 2}, {3, 0}, {1, 0}}, 3},
		{"octagon", [][2]float64{{0, 1}, {0, 2}, {1, 3}, {2, 3}, {3, 2}, {3, 1}, {2, 0}, {1, 0}}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fanTriangulate(tt.ring)
			assert.Len(t, got, tt.wantTriangles)

			// the pieces add up to the whole
			ringArea := geomhelp.SignedArea(tt.ring)
			var sum float64
			for _, tri := range got {
				sum += geomhelp.SignedArea(tri[:])
			}
			if tt.wantTriangles > 0 {
				assert.InDelta(t, ringArea, sum, 1e-9)
			}
		})
	}
}

func Test_fanTriangulateQuadDiagonal(t *testing.T) {
	ring := [][2]float64{{0, 4}, {4, 4}, {4, 0}, {0, 0}}
	got := fanTriangulate(ring)
	assert.Equal(t, [3][2]float64{{0, 4}, {4, 4}, {4, 0}}, got[0])
	assert.Equal(t, [3][2]float64{{0, 4}, {4, 0}, {0, 0}}, got[1])
}

func Test_earClipWindings(t *testing.T) {
	cw := [][2]float64{{0, 2}, {2, 4}, {4, 2}, {3, 0}, {1, 0}}
	ccw := [][2]float64{{1, 0}, {3, 0}, {4, 2}, {2, 4}, {0, 2}}
	assert.Len(t, earClip(cw), 3)
	assert.Len(t, earClip(ccw), 3)
}
