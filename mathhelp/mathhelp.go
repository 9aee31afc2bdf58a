package mathhelp

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Mod returns the mathematical modulo of f, with the result in [0, m).
// math.Mod keeps the sign of the dividend, which is not what world
// wrapping needs: Mod(-170, 360) is 190, not -170.
func Mod(f, m float64) float64 {
	r := math.Mod(f, m)
	if r < 0 {
		return r + m
	}
	return r
}

func BetweenInc(f, p, q float64) bool {
	if p <= q {
		return p <= f && f <= q
	}
	return q <= f && f <= p
}

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func IsFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
