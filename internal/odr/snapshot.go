package odr

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Snapshot is the on-disk lane-graph schema. Waypoints are pre-sampled at
// a fixed step along each lane, borders included, so the map needs no
// geometry engine behind it: every provider lookup is a table access.
type Snapshot struct {
	GeoReference  GeoReference   `yaml:"geo_reference"`
	Roads         []Road         `yaml:"roads"`
	TrafficLights []TrafficLight `yaml:"traffic_lights"`
	Crosswalks    []Crosswalk    `yaml:"crosswalks"`
}

// Road groups the sections of one road. Junction roads are the paths
// crossing an intersection.
type Road struct {
	ID       int       `yaml:"id"`
	Junction bool      `yaml:"junction"`
	Sections []Section `yaml:"sections"`
}

// Section is one lateral cut of a road.
type Section struct {
	ID    int    `yaml:"id"`
	Lanes []Lane `yaml:"lanes"`
}

// Lane is one drivable lane of a section with its sampled geometry and
// topology links.
type Lane struct {
	ID           int              `yaml:"id"`
	Predecessors []SegmentID      `yaml:"predecessors"`
	Successors   []SegmentID      `yaml:"successors"`
	LeftMarking  Marking          `yaml:"left_marking"`
	RightMarking Marking          `yaml:"right_marking"`
	Waypoints    []WaypointSample `yaml:"waypoints"`
}

// WaypointSample is one sampled lane position with its border locations.
type WaypointSample struct {
	Center Location `yaml:"center"`
	Left   Location `yaml:"left"`
	Right  Location `yaml:"right"`
}

type laneData struct {
	junction     bool
	leftMarking  Marking
	rightMarking Marking
	waypoints    []WaypointSample
	predecessors []SegmentID
	successors   []SegmentID
}

// SnapshotMap is a Map backed by a pre-sampled lane-graph snapshot.
type SnapshotMap struct {
	geo           GeoReference
	lanes         map[SegmentID]*laneData
	roads         []int
	stdRoads      []int
	paths         []int
	sections      map[int][]int
	sectionLanes  map[[2]int][]int
	trafficLights []TrafficLight
	crosswalks    []Crosswalk
}

// LoadSnapshot reads a lane-graph snapshot from a YAML file.
func LoadSnapshot(path string) (*SnapshotMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot YAML: %w", err)
	}

	return NewSnapshotMap(&snapshot)
}

// NewSnapshotMap builds the lookup tables for a parsed snapshot.
func NewSnapshotMap(snapshot *Snapshot) (*SnapshotMap, error) {
	m := &SnapshotMap{
		geo:           snapshot.GeoReference,
		lanes:         make(map[SegmentID]*laneData),
		sections:      make(map[int][]int),
		sectionLanes:  make(map[[2]int][]int),
		trafficLights: snapshot.TrafficLights,
		crosswalks:    snapshot.Crosswalks,
	}

	for _, road := range snapshot.Roads {
		m.roads = append(m.roads, road.ID)
		if road.Junction {
			m.paths = append(m.paths, road.ID)
		} else {
			m.stdRoads = append(m.stdRoads, road.ID)
		}

		for _, section := range road.Sections {
			m.sections[road.ID] = append(m.sections[road.ID], section.ID)

			key := [2]int{road.ID, section.ID}
			for _, lane := range section.Lanes {
				if lane.ID == 0 {
					return nil, fmt.Errorf("road %d section %d: lane 0 is the centerline, not a lane", road.ID, section.ID)
				}
				if len(lane.Waypoints) < 2 {
					return nil, fmt.Errorf("road %d section %d lane %d: at least 2 waypoints required, got %d",
						road.ID, section.ID, lane.ID, len(lane.Waypoints))
				}

				seg := SegmentID{Road: road.ID, Section: section.ID, Lane: lane.ID}
				if _, ok := m.lanes[seg]; ok {
					return nil, fmt.Errorf("duplicate segment %s", seg)
				}
				m.lanes[seg] = &laneData{
					junction:     road.Junction,
					leftMarking:  lane.LeftMarking,
					rightMarking: lane.RightMarking,
					waypoints:    lane.Waypoints,
					predecessors: lane.Predecessors,
					successors:   lane.Successors,
				}
				m.sectionLanes[key] = append(m.sectionLanes[key], lane.ID)
			}
			sort.Ints(m.sectionLanes[key])
		}
		sort.Ints(m.sections[road.ID])
	}
	sort.Ints(m.roads)
	sort.Ints(m.stdRoads)
	sort.Ints(m.paths)

	return m, nil
}

func (m *SnapshotMap) Roads() []int    { return m.roads }
func (m *SnapshotMap) StdRoads() []int { return m.stdRoads }
func (m *SnapshotMap) Paths() []int    { return m.paths }

func (m *SnapshotMap) Sections(road int) []int {
	return m.sections[road]
}

func (m *SnapshotMap) Lanes(road, section int) []int {
	return m.sectionLanes[[2]int{road, section}]
}

func (m *SnapshotMap) waypointAt(seg SegmentID, index int) (Waypoint, bool) {
	lane, ok := m.lanes[seg]
	if !ok || index < 0 || index >= len(lane.waypoints) {
		return Waypoint{}, false
	}
	return Waypoint{
		Segment:  seg,
		Index:    index,
		Location: lane.waypoints[index].Center,
		Junction: lane.junction,
	}, true
}

// Waypoint returns the first waypoint of a segment.
func (m *SnapshotMap) Waypoint(seg SegmentID) (Waypoint, bool) {
	return m.waypointAt(seg, 0)
}

// WaypointAt returns the waypoint at a sample index of a segment.
func (m *SnapshotMap) WaypointAt(seg SegmentID, index int) (Waypoint, bool) {
	return m.waypointAt(seg, index)
}

// EndWaypoint returns the last waypoint of a segment.
func (m *SnapshotMap) EndWaypoint(seg SegmentID) (Waypoint, bool) {
	lane, ok := m.lanes[seg]
	if !ok {
		return Waypoint{}, false
	}
	return m.waypointAt(seg, len(lane.waypoints)-1)
}

// Next steps to the following sample of the same lane, or to the first
// waypoint of the first successor when the lane ends. The step argument is
// accepted for interface compatibility: snapshots are pre-sampled, so the
// stored step is what the caller gets.
func (m *SnapshotMap) Next(wp Waypoint, step float64) (Waypoint, bool) {
	lane, ok := m.lanes[wp.Segment]
	if !ok {
		return Waypoint{}, false
	}
	if wp.Index+1 < len(lane.waypoints) {
		return m.waypointAt(wp.Segment, wp.Index+1)
	}
	for _, succ := range lane.successors {
		if next, ok := m.waypointAt(succ, 0); ok {
			return next, true
		}
	}
	return Waypoint{}, false
}

// Border returns the stored border location at wp.
func (m *SnapshotMap) Border(wp Waypoint, side Side) Location {
	lane, ok := m.lanes[wp.Segment]
	if !ok || wp.Index < 0 || wp.Index >= len(lane.waypoints) {
		return Location{}
	}
	if side == SideLeft {
		return lane.waypoints[wp.Index].Left
	}
	return lane.waypoints[wp.Index].Right
}

// Marking returns the lane marking at wp.
func (m *SnapshotMap) Marking(wp Waypoint, side Side) Marking {
	lane, ok := m.lanes[wp.Segment]
	if !ok {
		return Marking{}
	}
	if side == SideLeft {
		return lane.leftMarking
	}
	return lane.rightMarking
}

func (m *SnapshotMap) Predecessors(seg SegmentID) []SegmentID {
	if lane, ok := m.lanes[seg]; ok {
		return lane.predecessors
	}
	return nil
}

func (m *SnapshotMap) Successors(seg SegmentID) []SegmentID {
	if lane, ok := m.lanes[seg]; ok {
		return lane.successors
	}
	return nil
}

// Left returns the lateral neighbor on the driving-direction left side.
// For right-hand lanes (negative ids) that is the next lane toward the
// centerline; for left-hand lanes the next lane away from it. Lane 0 is
// skipped in both directions.
func (m *SnapshotMap) Left(seg SegmentID) (SegmentID, bool) {
	var lane int
	if seg.Lane < 0 {
		lane = seg.Lane + 1
		if lane == 0 {
			lane = 1
		}
	} else {
		lane = seg.Lane - 1
		if lane == 0 {
			lane = -1
		}
	}
	return m.neighbor(seg, lane)
}

// Right returns the lateral neighbor on the driving-direction right side,
// which by construction always drives the same direction.
func (m *SnapshotMap) Right(seg SegmentID) (SegmentID, bool) {
	var lane int
	if seg.Lane < 0 {
		lane = seg.Lane - 1
	} else {
		lane = seg.Lane + 1
	}
	return m.neighbor(seg, lane)
}

func (m *SnapshotMap) neighbor(seg SegmentID, lane int) (SegmentID, bool) {
	candidate := SegmentID{Road: seg.Road, Section: seg.Section, Lane: lane}
	if _, ok := m.lanes[candidate]; ok {
		return candidate, true
	}
	return SegmentID{}, false
}

// Geolocation projects a local location to WGS84.
func (m *SnapshotMap) Geolocation(loc Location) (lat, lon float64) {
	return m.geo.Project(loc)
}

func (m *SnapshotMap) TrafficLights() []TrafficLight {
	return m.trafficLights
}

func (m *SnapshotMap) Crosswalks() []Crosswalk {
	return m.crosswalks
}
