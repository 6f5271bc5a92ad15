package track

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON renders the interpolated loop (in decimal degrees) as a feature
// collection: one closed LineString for the route and one Point per waypoint.
func (t *Track) GeoJSON() ([]byte, error) {
	line := make(orb.LineString, 0, len(t.raw)+1)
	line = append(line, t.raw...)
	line = append(line, t.raw[0])

	fc := geojson.NewFeatureCollection()
	route := geojson.NewFeature(line)
	route.Properties["name"] = "route"
	route.Properties["points"] = len(t.raw)
	fc.Append(route)

	for i, wp := range t.waypoints {
		f := geojson.NewFeature(wp.Point())
		f.Properties["name"] = "waypoint"
		f.Properties["index"] = i
		fc.Append(f)
	}
	return fc.MarshalJSON()
}
