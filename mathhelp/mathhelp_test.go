package mathhelp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMod(t *testing.T) {
	tests := []struct {
		name string
		f    float64
		m    float64
		want float64
	}{
		{"positive in range", 170, 360, 170},
		{"negative wraps", -170, 360, 190},
		{"full world", 360, 360, 0},
		{"beyond one world", 370, 360, 10},
		{"negative beyond one world", -370, 360, 350},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Mod(tt.f, tt.m), 1e-12)
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(7, 0, 5))
	assert.Equal(t, 0, Clamp(-1, 0, 5))
	assert.Equal(t, 3, Clamp(3, 0, 5))
	assert.Equal(t, 85.0511, Clamp(90.0, -85.0511, 85.0511))
}
