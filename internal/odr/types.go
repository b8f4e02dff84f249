package odr

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"
)

// SegmentID identifies one lane segment of the source lane graph.
// Lane is signed and never zero: the sign encodes the traffic direction,
// the magnitude grows outward from the road centerline.
type SegmentID struct {
	Road    int
	Section int
	Lane    int
}

// String formats the id as "road|section|lane" for log output.
func (s SegmentID) String() string {
	return fmt.Sprintf("%d|%d|%d", s.Road, s.Section, s.Lane)
}

// UnmarshalYAML decodes a segment id from a [road, section, lane] sequence.
func (s *SegmentID) UnmarshalYAML(value *yaml.Node) error {
	var parts [3]int
	if err := value.Decode(&parts); err != nil {
		return fmt.Errorf("segment id must be [road, section, lane]: %w", err)
	}
	if parts[2] == 0 {
		return fmt.Errorf("segment id %v: lane 0 is the centerline, not a lane", parts)
	}
	s.Road, s.Section, s.Lane = parts[0], parts[1], parts[2]
	return nil
}

// Location is a position in the local planar frame of the source map.
type Location struct {
	X float64
	Y float64
	Z float64
}

// UnmarshalYAML decodes a location from an [x, y, z] sequence.
func (l *Location) UnmarshalYAML(value *yaml.Node) error {
	var parts [3]float64
	if err := value.Decode(&parts); err != nil {
		return fmt.Errorf("location must be [x, y, z]: %w", err)
	}
	l.X, l.Y, l.Z = parts[0], parts[1], parts[2]
	return nil
}

// Point projects the location onto the horizontal plane.
func (l Location) Point() orb.Point {
	return orb.Point{l.X, l.Y}
}

// Distance returns the Euclidean distance to other in meters.
func (l Location) Distance(other Location) float64 {
	dx := l.X - other.X
	dy := l.Y - other.Y
	dz := l.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Side selects the left or right border of a lane.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// MarkingType enumerates the lane-marking types of the source map.
type MarkingType string

const (
	MarkingNone        MarkingType = "none"
	MarkingOther       MarkingType = "other"
	MarkingBroken      MarkingType = "broken"
	MarkingSolid       MarkingType = "solid"
	MarkingSolidSolid  MarkingType = "solid_solid"
	MarkingSolidBroken MarkingType = "solid_broken"
	MarkingBrokenSolid MarkingType = "broken_solid"
	MarkingBrokenBroke MarkingType = "broken_broken"
	MarkingBottsDots   MarkingType = "botts_dots"
	MarkingGrass       MarkingType = "grass"
	MarkingCurb        MarkingType = "curb"
)

// Marking describes one painted lane boundary.
type Marking struct {
	Type  MarkingType `yaml:"type"`
	Color string      `yaml:"color"`
}

// Waypoint is one sampled position along a lane. Border locations and
// markings are looked up through the Map, not stored on the waypoint.
type Waypoint struct {
	Segment  SegmentID
	Index    int
	Location Location
	Junction bool
}

// LightBox is the physical housing of one traffic light head.
type LightBox struct {
	Left   Location `yaml:"left"`
	Right  Location `yaml:"right"`
	Height float64  `yaml:"height"`
	Bulbs  BulbSet  `yaml:"bulbs"`
}

// BulbSet holds the three bulb positions of a light box.
type BulbSet struct {
	Red    Location `yaml:"red"`
	Yellow Location `yaml:"yellow"`
	Green  Location `yaml:"green"`
}

// Landmark ties a traffic light to the lane waypoint it controls.
type Landmark struct {
	Segment SegmentID `yaml:"segment"`
	Index   int       `yaml:"index"`
}

// TrafficLight groups the boxes of one signal with the lane waypoints
// (landmarks) where vehicles must stop for it.
type TrafficLight struct {
	Boxes     []LightBox `yaml:"boxes"`
	Landmarks []Landmark `yaml:"landmarks"`
}

// Crosswalk is an unsignalled pedestrian crossing given by its four
// corners: p1->p4 form the left border, p2->p3 the right border.
type Crosswalk struct {
	Corners [4]Location `yaml:"corners"`
}
