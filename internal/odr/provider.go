package odr

// Map is the lane-graph provider consumed by the converter. All lookups are
// synchronous and non-failing: absent values are reported through the bool
// return or an empty slice, never through an error.
type Map interface {
	// Roads lists all road ids in ascending order.
	Roads() []int
	// StdRoads lists the ids of roads outside junctions.
	StdRoads() []int
	// Paths lists the ids of junction roads.
	Paths() []int
	// Sections lists the section ids of a road in ascending order.
	Sections(road int) []int
	// Lanes lists the signed lane ids of a section in ascending order.
	Lanes(road, section int) []int

	// Waypoint returns the first waypoint of a segment.
	Waypoint(seg SegmentID) (Waypoint, bool)
	// WaypointAt returns the waypoint at a sample index of a segment,
	// used to locate regulatory landmarks along a lane.
	WaypointAt(seg SegmentID, index int) (Waypoint, bool)
	// EndWaypoint returns the last waypoint of a segment.
	EndWaypoint(seg SegmentID) (Waypoint, bool)
	// Next steps forward from wp by the given distance. It returns at most
	// one waypoint, which may belong to a different road or section when
	// the segment ends.
	Next(wp Waypoint, step float64) (Waypoint, bool)
	// Border returns the drivable-lane border location at wp.
	Border(wp Waypoint, side Side) Location
	// Marking returns the lane marking at wp.
	Marking(wp Waypoint, side Side) Marking

	// Predecessors and Successors return the longitudinally linked segments.
	Predecessors(seg SegmentID) []SegmentID
	Successors(seg SegmentID) []SegmentID
	// Left and Right return the lateral neighbors in driving direction.
	Left(seg SegmentID) (SegmentID, bool)
	Right(seg SegmentID) (SegmentID, bool)

	// Geolocation projects a local planar location to WGS84.
	Geolocation(loc Location) (lat, lon float64)

	// TrafficLights and Crosswalks enumerate the regulatory landmarks.
	TrafficLights() []TrafficLight
	Crosswalks() []Crosswalk
}
