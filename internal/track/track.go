// Package track builds the closed, evenly sampled point loop a simulated
// device drives around.
package track

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"trackgen/internal/core/model"
)

var ErrInvalidInput = errors.New("invalid track input")

// Track is an immutable cyclic sequence of interpolated points. Points are
// kept both as interpolated (decimal degrees) and transformed into the wire
// coordinate convention.
type Track struct {
	waypoints []model.GeoPoint
	raw       []orb.Point
	points    []orb.Point
}

// Build subdivides every edge of the closed waypoint loop into
// ceil(length/step) points. Lengths are planar distances in degrees. The
// end of each edge is not emitted; it is the first point of the next edge.
func Build(waypoints []model.GeoPoint, step float64) (*Track, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: loop needs at least 2 waypoints, got %d", ErrInvalidInput, len(waypoints))
	}
	if math.IsNaN(step) || math.IsInf(step, 0) || step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %v", ErrInvalidInput, step)
	}
	for i, wp := range waypoints {
		if err := wp.Validate(); err != nil {
			return nil, fmt.Errorf("%w: waypoint %d: %v", ErrInvalidInput, i, err)
		}
	}

	t := &Track{waypoints: append([]model.GeoPoint(nil), waypoints...)}
	for i := range waypoints {
		from := waypoints[i].Point()
		to := waypoints[(i+1)%len(waypoints)].Point()

		count := EdgeCount(from, to, step)
		for j := 0; j < count; j++ {
			f := float64(j) / float64(count)
			p := orb.Point{
				from.Lon() + (to.Lon()-from.Lon())*f,
				from.Lat() + (to.Lat()-from.Lat())*f,
			}
			t.raw = append(t.raw, p)
			t.points = append(t.points, Transform(model.FromPoint(p)).Point())
		}
	}

	if len(t.points) == 0 {
		return nil, fmt.Errorf("%w: all %d waypoints coincide", ErrInvalidInput, len(waypoints))
	}
	return t, nil
}

// EdgeCount is the number of points emitted for the edge from -> to.
func EdgeCount(from, to orb.Point, step float64) int {
	return int(math.Ceil(planar.Distance(from, to) / step))
}

// Transform maps decimal degrees onto the DDMM.MMMM convention the wire
// format expects, anchored at 48°N 2°E.
func Transform(p model.GeoPoint) model.GeoPoint {
	return model.GeoPoint{
		Lat: 4800 + round4((p.Lat-48)*60),
		Lon: 200 + round4((p.Lon-2)*60),
	}
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// Len returns the number of points in the loop.
func (t *Track) Len() int {
	return len(t.points)
}

// At returns the transformed point at i modulo Len. Negative indices wrap.
func (t *Track) At(i int) model.GeoPoint {
	return model.FromPoint(t.points[t.wrap(i)])
}

// Raw returns the untransformed interpolated point at i modulo Len.
func (t *Track) Raw(i int) model.GeoPoint {
	return model.FromPoint(t.raw[t.wrap(i)])
}

// Points returns a copy of the transformed loop.
func (t *Track) Points() []model.GeoPoint {
	out := make([]model.GeoPoint, len(t.points))
	for i, p := range t.points {
		out[i] = model.FromPoint(p)
	}
	return out
}

// Waypoints returns a copy of the loop the track was built from.
func (t *Track) Waypoints() []model.GeoPoint {
	return append([]model.GeoPoint(nil), t.waypoints...)
}

func (t *Track) wrap(i int) int {
	n := len(t.points)
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
