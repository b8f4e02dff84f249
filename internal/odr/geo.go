package odr

import "math"

// Semi-major axis of the WGS84 ellipsoid in meters
const earthRadius = 6378137.0

// GeoReference anchors the local planar frame of the source map to WGS84.
type GeoReference struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Project converts a local planar location to (lat, lon) using an
// equirectangular projection around the reference. The source frame is
// left-handed: y grows toward decreasing latitude.
func (g GeoReference) Project(loc Location) (lat, lon float64) {
	lat = g.Lat - (loc.Y/earthRadius)*(180.0/math.Pi)
	lon = g.Lon + (loc.X/(earthRadius*math.Cos(g.Lat*math.Pi/180.0)))*(180.0/math.Pi)
	return lat, lon
}
