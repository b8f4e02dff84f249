package convert

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/odr2lanelet-go/internal/config"
	"github.com/wegman-software/odr2lanelet-go/internal/lanelet"
	"github.com/wegman-software/odr2lanelet-go/internal/odr"
)

// AttributeHook can adjust the attribute map of a road lanelet before the
// lanelet is finalized.
type AttributeHook interface {
	Apply(seg odr.SegmentID, attrs *lanelet.Attributes) error
}

// Converter builds a shared-boundary lanelet mesh from a lane graph. All
// mutable state of a run (mesh, uid counter, segment index) lives on the
// converter, which is created per run and discarded afterwards.
type Converter struct {
	m    odr.Map
	cfg  *config.Config
	log  *zap.Logger
	hook AttributeHook

	mesh     *lanelet.Mesh
	index    map[odr.SegmentID]int64
	uid      int64
	sampler  *borderSampler
	resolver *resolver

	refMu    sync.Mutex
	refCache map[odr.SegmentID]referenceBorder
}

// New creates a converter for one conversion run. The hook may be nil.
func New(m odr.Map, cfg *config.Config, log *zap.Logger, hook AttributeHook) *Converter {
	c := &Converter{
		m:        m,
		cfg:      cfg,
		log:      log,
		hook:     hook,
		mesh:     lanelet.NewMesh(),
		index:    make(map[odr.SegmentID]int64),
		sampler:  &borderSampler{m: m, step: cfg.SamplingDistance},
		refCache: make(map[odr.SegmentID]referenceBorder),
	}
	c.resolver = &resolver{m: m, mesh: c.mesh, index: c.index, log: log}
	return c
}

// Mesh returns the mesh built so far.
func (c *Converter) Mesh() *lanelet.Mesh { return c.mesh }

// LaneletFor returns the lanelet built for a segment.
func (c *Converter) LaneletFor(seg odr.SegmentID) (int64, bool) {
	uid, ok := c.index[seg]
	return uid, ok
}

func (c *Converter) nextUID() int64 {
	c.uid++
	return c.uid
}

// Convert runs the full conversion: standard roads, junction paths,
// crosswalks, then traffic lights. Data-quality findings are logged and
// never abort the run; a mesh integrity violation afterwards is a
// programmer error and does.
func (c *Converter) Convert(ctx context.Context) (*lanelet.Mesh, error) {
	if err := c.presample(ctx); err != nil {
		return nil, fmt.Errorf("border pre-sampling failed: %w", err)
	}

	c.log.Info("Processing standard roads", zap.Int("roads", len(c.m.StdRoads())))
	for _, road := range c.m.StdRoads() {
		if err := c.convertRoad(road); err != nil {
			return nil, err
		}
	}

	c.log.Info("Processing junction paths", zap.Int("roads", len(c.m.Paths())))
	for _, road := range c.m.Paths() {
		if err := c.convertRoad(road); err != nil {
			return nil, err
		}
	}

	c.log.Info("Processing crosswalks", zap.Int("crosswalks", len(c.m.Crosswalks())))
	for _, crosswalk := range c.m.Crosswalks() {
		c.convertCrosswalk(crosswalk)
	}

	c.log.Info("Processing traffic lights", zap.Int("traffic_lights", len(c.m.TrafficLights())))
	for _, light := range c.m.TrafficLights() {
		c.convertTrafficLight(light)
	}

	if errs := c.mesh.CheckIntegrity(); len(errs) > 0 {
		for _, err := range errs {
			c.log.Error("mesh integrity violation", zap.Error(err))
		}
		return nil, fmt.Errorf("mesh integrity violated: %w", errs[0])
	}

	return c.mesh, nil
}

// presample builds the reference borders of every segment up front.
// Sampling only reads the provider, so it parallelizes freely; the mesh
// build that follows stays strictly ordered.
func (c *Converter) presample(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	for _, road := range c.m.Roads() {
		for _, section := range c.m.Sections(road) {
			for _, laneID := range c.m.Lanes(road, section) {
				seg := odr.SegmentID{Road: road, Section: section, Lane: laneID}
				g.Go(func() error {
					start, ok := c.m.Waypoint(seg)
					if !ok {
						return nil
					}
					end, hasEnd := c.m.EndWaypoint(seg)
					ref := c.sampler.sample(start, end, hasEnd)
					c.refMu.Lock()
					c.refCache[seg] = ref
					c.refMu.Unlock()
					return nil
				})
			}
		}
	}
	return g.Wait()
}

func (c *Converter) reference(seg odr.SegmentID, start, end odr.Waypoint, hasEnd bool) referenceBorder {
	c.refMu.Lock()
	ref, ok := c.refCache[seg]
	c.refMu.Unlock()
	if ok {
		return ref
	}
	return c.sampler.sample(start, end, hasEnd)
}

// laneState carries what border sharing needs from the previously
// processed lane of the section.
type laneState struct {
	laneID  int
	edges   [2][]int64 // left/right border point ids
	borders [2]int64   // left/right linestring uids
}

func (c *Converter) convertRoad(road int) error {
	for _, sectionID := range c.m.Sections(road) {
		// Lanes of a section are processed from smaller to higher signed
		// lane id; sharing decisions depend on the previous lane.
		var last *laneState
		for _, laneID := range c.m.Lanes(road, sectionID) {
			seg := odr.SegmentID{Road: road, Section: sectionID, Lane: laneID}
			state, err := c.convertSegment(seg, last)
			if err != nil {
				return err
			}
			if state != nil {
				last = state
			}
		}
	}
	return nil
}

func (c *Converter) convertSegment(seg odr.SegmentID, last *laneState) (*laneState, error) {
	c.log.Debug("Processing segment", zap.Stringer("segment", seg))

	start, ok := c.m.Waypoint(seg)
	if !ok {
		c.log.Warn("segment has no waypoints, skipping", zap.Stringer("segment", seg))
		return nil, nil
	}
	end, hasEnd := c.m.EndWaypoint(seg)
	if !hasEnd {
		c.log.Warn("segment has no end waypoint, skipping", zap.Stringer("segment", seg))
		return nil, nil
	}

	links := c.resolver.linkPoints(seg)
	ref := c.reference(seg, start, end, hasEnd)

	var edges [2][]int64
	var borders [2]int64

	switch {
	case last == nil || !c.isAdjacent(seg, last.laneID):
		// First lane of the section, or not adjacent: both borders are
		// freshly built.
		left := c.buildBorder(start, end, ref.left, odr.SideLeft, links.startLeft, links.endLeft)
		right := c.buildBorder(start, end, ref.right, odr.SideRight, links.startRight, links.endRight)
		edges = [2][]int64{left, right}
		borders[0] = c.addBorderLinestring(seg, start, odr.SideLeft, left)
		borders[1] = c.addBorderLinestring(seg, start, odr.SideRight, right)

	case seg.Lane < 0:
		// The right border is the previous lane's left border.
		left := c.buildBorder(start, end, ref.left, odr.SideLeft, links.startLeft, links.endLeft)
		edges = [2][]int64{left, copyIDs(last.edges[0])}
		borders[0] = c.addBorderLinestring(seg, start, odr.SideLeft, left)
		borders[1] = last.borders[0]

	case seg.Lane == 1:
		// Sign crossing: the left border is the previous lane's left
		// border in reversed order, as a new linestring.
		right := c.buildBorder(start, end, ref.right, odr.SideRight, links.startRight, links.endRight)
		reversed := reverseIDs(last.edges[0])
		edges = [2][]int64{reversed, right}
		borders[0] = c.addBorderLinestring(seg, start, odr.SideLeft, reversed)
		borders[1] = c.addBorderLinestring(seg, start, odr.SideRight, right)

	default:
		// The left border is the previous lane's right border.
		right := c.buildBorder(start, end, ref.right, odr.SideRight, links.startRight, links.endRight)
		edges = [2][]int64{copyIDs(last.edges[1]), right}
		borders[0] = last.borders[1]
		borders[1] = c.addBorderLinestring(seg, start, odr.SideRight, right)
	}

	attrs := lanelet.Attributes{
		{Key: "type", Value: "lanelet"},
		{Key: "subtype", Value: "road"},
		{Key: "location", Value: c.cfg.Location},
		{Key: "one_way", Value: "yes"},
		{Key: "speed_limit", Value: c.cfg.SpeedLimit},
	}
	if c.hook != nil {
		if err := c.hook.Apply(seg, &attrs); err != nil {
			return nil, fmt.Errorf("attribute hook failed for segment %s: %w", seg, err)
		}
	}

	laneletUID := c.mesh.AddLanelet(&lanelet.Lanelet{
		UID:        c.nextUID(),
		Left:       borders[0],
		Right:      borders[1],
		Attributes: attrs,
	})
	c.index[seg] = laneletUID

	return &laneState{laneID: seg.Lane, edges: edges, borders: borders}, nil
}

// buildBorder assembles one border's point id sequence: resolved link
// points bound the fresh reference points; reused ids are referenced, not
// recreated.
func (c *Converter) buildBorder(start, end odr.Waypoint, ref []odr.Location, side odr.Side, startLink, endLink int64) []int64 {
	points := make([]int64, 0, len(ref)+2)

	if startLink != 0 {
		points = append(points, startLink)
	} else {
		points = append(points, c.addPoint(c.m.Border(start, side), nil))
	}
	for _, loc := range ref {
		points = append(points, c.addPoint(loc, nil))
	}
	if endLink != 0 {
		points = append(points, endLink)
	} else {
		points = append(points, c.addPoint(c.m.Border(end, side), nil))
	}
	return points
}

// addBorderLinestring registers a border linestring tagged after the lane
// marking at the segment start.
func (c *Converter) addBorderLinestring(seg odr.SegmentID, start odr.Waypoint, side odr.Side, points []int64) int64 {
	attrs := borderTags(c.m.Marking(start, side), start.Junction, c.sameDirectionNeighbor(seg, side))
	return c.mesh.AddLinestring(&lanelet.Linestring{
		UID:        c.nextUID(),
		Points:     points,
		Attributes: attrs,
	})
}

func (c *Converter) sameDirectionNeighbor(seg odr.SegmentID, side odr.Side) bool {
	var neighbor odr.SegmentID
	var ok bool
	if side == odr.SideLeft {
		neighbor, ok = c.m.Left(seg)
	} else {
		neighbor, ok = c.m.Right(seg)
	}
	return ok && neighbor.Lane*seg.Lane > 0
}

// addPoint places a new mesh point for a local location.
func (c *Converter) addPoint(loc odr.Location, extra lanelet.Attributes) int64 {
	lat, lon := c.m.Geolocation(loc)
	attrs := lanelet.Attributes{
		{Key: "ele", Value: formatFloat(loc.Z)},
		{Key: "local_x", Value: formatFloat(loc.X)},
		// From the left-handed source frame to a right-handed one.
		{Key: "local_y", Value: formatFloat(-loc.Y)},
	}
	attrs = append(attrs, extra...)
	return c.mesh.AddPoint(&lanelet.Point{
		UID:        c.nextUID(),
		Lat:        lat,
		Lon:        lon,
		Attributes: attrs,
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func copyIDs(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	return out
}

func reverseIDs(ids []int64) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}
