package track

import (
	"math"

	"github.com/paulmach/orb/geo"

	"trackgen/internal/core/model"
)

// Bearing returns the forward azimuth from one point to another in degrees,
// normalised into [0, 360). Identical points have bearing 0.
func Bearing(from, to model.GeoPoint) float64 {
	if from == to {
		return 0
	}
	b := math.Mod(geo.Bearing(from.Point(), to.Point()), 360)
	if b < 0 {
		b += 360
	}
	return b
}
