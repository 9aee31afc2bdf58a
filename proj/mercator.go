package proj

import (
	"math"

	"github.com/go-spatial/geom"
)

const (
	// EarthRadius is the WGS84 semi-major axis, the sphere radius used
	// by the spherical Web Mercator projection (EPSG:3857).
	EarthRadius = 6378137.0
	// HalfSize is the x and y bound of the Web Mercator domain: π * R.
	HalfSize = math.Pi * EarthRadius

	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// WebMercator is spherical Web Mercator, EPSG:3857.
var WebMercator = register(Projection{
	Code:     "EPSG:3857",
	Extent:   &geom.Extent{-HalfSize, -HalfSize, HalfSize, HalfSize},
	CanWrapX: true,
	Global:   true,
})

// Geographic is equirectangular lon/lat in degrees, OGC:CRS84.
var Geographic = register(Projection{
	Code:     "OGC:CRS84",
	Extent:   &geom.Extent{-180, -90, 180, 90},
	CanWrapX: true,
	Global:   true,
})

func init() {
	registerTransform(Geographic, WebMercator, FromLonLat)
	registerTransform(WebMercator, Geographic, ToLonLat)
}

// FromLonLat projects a lon/lat degree coordinate to Web Mercator meters.
// Latitudes of exactly ±90 project to y = ±Inf; callers dealing with the
// poles clamp against the mercator extent.
func FromLonLat(coord [2]float64) [2]float64 {
	var y float64
	switch {
	case coord[1] >= 90:
		y = math.Inf(1)
	case coord[1] <= -90:
		y = math.Inf(-1)
	default:
		y = EarthRadius * math.Log(math.Tan(math.Pi/4+coord[1]*degToRad/2))
	}
	return [2]float64{EarthRadius * coord[0] * degToRad, y}
}

// ToLonLat unprojects Web Mercator meters back to lon/lat degrees.
func ToLonLat(coord [2]float64) [2]float64 {
	return [2]float64{
		coord[0] / EarthRadius * radToDeg,
		(2*math.Atan(math.Exp(coord[1]/EarthRadius)) - math.Pi/2) * radToDeg,
	}
}
