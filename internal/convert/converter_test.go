package convert

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"github.com/wegman-software/odr2lanelet-go/internal/config"
	"github.com/wegman-software/odr2lanelet-go/internal/lanelet"
	"github.com/wegman-software/odr2lanelet-go/internal/odr"
)

func mustConvert(t *testing.T, c *Converter) *lanelet.Mesh {
	t.Helper()
	mesh, err := c.Convert(context.Background())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	return mesh
}

func mustLanelet(t *testing.T, c *Converter, s odr.SegmentID) *lanelet.Lanelet {
	t.Helper()
	uid, ok := c.LaneletFor(s)
	if !ok {
		t.Fatalf("no lanelet for segment %s", s)
	}
	return c.Mesh().Lanelet(uid)
}

func TestConvertSharesBorderBetweenAdjacentLanes(t *testing.T) {
	snapshot := &odr.Snapshot{
		Roads: []odr.Road{{
			ID: 0,
			Sections: []odr.Section{{
				Lanes: []odr.Lane{
					laneAlongX(-2, -3, 0, 10, 20),
					laneAlongX(-1, 0, 0, 10, 20),
				},
			}},
		}},
	}
	c := newTestConverter(t, snapshot)
	mesh := mustConvert(t, c)

	outer := mustLanelet(t, c, seg(0, 0, -2))
	inner := mustLanelet(t, c, seg(0, 0, -1))

	if inner.Right != outer.Left {
		t.Errorf("inner lane's right border %d must be the outer lane's left border %d", inner.Right, outer.Left)
	}

	stats := mesh.Stats()
	if stats.Points != 6 {
		t.Errorf("expected 6 points (no duplicates on the shared border), got %d", stats.Points)
	}
	if stats.Linestrings != 3 {
		t.Errorf("expected 3 linestrings for two adjacent lanes, got %d", stats.Linestrings)
	}
}

func TestConvertReversesBorderAtSignCrossing(t *testing.T) {
	snapshot := &odr.Snapshot{
		Roads: []odr.Road{{
			ID: 0,
			Sections: []odr.Section{{
				Lanes: []odr.Lane{
					laneAlongX(-1, -2, 0, 10, 20),
					laneAlongX(1, 2, 0, 10, 20),
				},
			}},
		}},
	}
	c := newTestConverter(t, snapshot)
	mesh := mustConvert(t, c)

	right := mustLanelet(t, c, seg(0, 0, -1))
	left := mustLanelet(t, c, seg(0, 0, 1))

	if left.Left == right.Left {
		t.Fatal("opposite-direction lanes must not share a linestring uid across the sign crossing")
	}

	forward := mesh.Linestring(right.Left).Points
	reversed := mesh.Linestring(left.Left).Points
	if len(forward) != len(reversed) {
		t.Fatalf("reversed border has %d points, original has %d", len(reversed), len(forward))
	}
	for i, id := range forward {
		if reversed[len(reversed)-1-i] != id {
			t.Fatalf("border not reversed: forward=%v reversed=%v", forward, reversed)
		}
	}

	// The reversed border reuses vertices, it never re-creates them.
	if stats := mesh.Stats(); stats.Points != 6 {
		t.Errorf("expected 6 points, got %d", stats.Points)
	}
}

func twoRoadSnapshot(aRoad, bRoad int) *odr.Snapshot {
	a := laneAlongX(-1, 0, 0, 10, 20)
	a.Successors = []odr.SegmentID{seg(bRoad, 0, -1)}
	b := laneAlongX(-1, 0, 20, 30, 40)
	b.Predecessors = []odr.SegmentID{seg(aRoad, 0, -1)}
	return &odr.Snapshot{
		Roads: []odr.Road{
			{ID: aRoad, Sections: []odr.Section{{Lanes: []odr.Lane{a}}}},
			{ID: bRoad, Sections: []odr.Section{{Lanes: []odr.Lane{b}}}},
		},
	}
}

func TestConvertLinkPointsIndependentOfOrder(t *testing.T) {
	// Road ids decide processing order; the shared boundary must come out
	// identical whether the predecessor or the successor goes first.
	for _, ids := range [][2]int{{0, 1}, {1, 0}} {
		aRoad, bRoad := ids[0], ids[1]
		c := newTestConverter(t, twoRoadSnapshot(aRoad, bRoad))
		mesh := mustConvert(t, c)

		aUID, _ := c.LaneletFor(seg(aRoad, 0, -1))
		bUID, _ := c.LaneletFor(seg(bRoad, 0, -1))

		endLeft, endRight := mesh.LaneletEndPoints(aUID)
		startLeft, startRight := mesh.LaneletStartPoints(bUID)
		if endLeft != startLeft || endRight != startRight {
			t.Errorf("roads (%d, %d): boundary not shared: end=(%d, %d) start=(%d, %d)",
				aRoad, bRoad, endLeft, endRight, startLeft, startRight)
		}
		if stats := mesh.Stats(); stats.Points != 6 {
			t.Errorf("roads (%d, %d): expected 6 points, got %d", aRoad, bRoad, stats.Points)
		}
		if issues := c.ValidateTopology(); issues != 0 {
			t.Errorf("roads (%d, %d): expected consistent topology, got %d issues", aRoad, bRoad, issues)
		}
	}
}

func TestValidateTopologyReportsOneSidedLinks(t *testing.T) {
	// The successor never declares its predecessor, so the link search
	// cannot find the shared points and the validator must flag the gap.
	snapshot := twoRoadSnapshot(0, 1)
	snapshot.Roads[1].Sections[0].Lanes[0].Predecessors = nil

	c := newTestConverter(t, snapshot)
	mustConvert(t, c)

	if issues := c.ValidateTopology(); issues != 1 {
		t.Errorf("expected 1 inconsistent segment, got %d", issues)
	}
}

func TestConvertCrosswalk(t *testing.T) {
	snapshot := &odr.Snapshot{
		Crosswalks: []odr.Crosswalk{{
			Corners: [4]odr.Location{
				{X: 0, Y: 0}, {X: 0, Y: 4}, {X: 8, Y: 4}, {X: 8, Y: 0},
			},
		}},
	}
	c := newTestConverter(t, snapshot)
	mesh := mustConvert(t, c)

	lanelets := mesh.Lanelets()
	if len(lanelets) != 1 {
		t.Fatalf("expected 1 crosswalk lanelet, got %d", len(lanelets))
	}
	crosswalk := lanelets[0]

	for key, want := range map[string]string{
		"subtype":                "crosswalk",
		"one_way":                "no",
		"speed_limit":            "10",
		"participant:pedestrian": "yes",
	} {
		if got, _ := crosswalk.Attributes.Get(key); got != want {
			t.Errorf("attribute %q = %q, want %q", key, got, want)
		}
	}

	for _, border := range []int64{crosswalk.Left, crosswalk.Right} {
		ls := mesh.Linestring(border)
		if len(ls.Points) != 2 {
			t.Errorf("crosswalk border %d has %d points, want 2", border, len(ls.Points))
		}
		if typ, _ := ls.Attributes.Get("type"); typ != "pedestrian_marking" {
			t.Errorf("crosswalk border %d type = %q, want pedestrian_marking", border, typ)
		}
	}
}

func TestConvertTrafficLight(t *testing.T) {
	snapshot := &odr.Snapshot{
		Roads: []odr.Road{{
			ID:       0,
			Sections: []odr.Section{{Lanes: []odr.Lane{laneAlongX(-1, 0, 0, 10, 20)}}},
		}},
		TrafficLights: []odr.TrafficLight{{
			Boxes: []odr.LightBox{{
				Left:   odr.Location{X: 18, Y: 4, Z: 5},
				Right:  odr.Location{X: 19, Y: 4, Z: 5},
				Height: 1.2,
				Bulbs: odr.BulbSet{
					Red:    odr.Location{X: 18.2, Y: 4, Z: 5.8},
					Yellow: odr.Location{X: 18.5, Y: 4, Z: 5.8},
					Green:  odr.Location{X: 18.8, Y: 4, Z: 5.8},
				},
			}},
			Landmarks: []odr.Landmark{
				{Segment: seg(0, 0, -1), Index: 1},
				{Segment: seg(9, 0, -1), Index: 0}, // never converted, must be skipped
				{Segment: seg(0, 0, -1), Index: 99},
			},
		}},
	}
	c := newTestConverter(t, snapshot)
	mesh := mustConvert(t, c)

	regElems := mesh.RegulatoryElements()
	if len(regElems) != 1 {
		t.Fatalf("expected 1 regulatory element (invalid landmarks skipped), got %d", len(regElems))
	}
	regElem := regElems[0]

	if subtype, _ := regElem.Attributes.Get("subtype"); subtype != "traffic_light" {
		t.Errorf("regulatory element subtype = %q, want traffic_light", subtype)
	}

	roles := make(map[string]lanelet.Parameter)
	for _, param := range regElem.Parameters {
		roles[param.Role] = param
	}
	for _, role := range []string{"refers", "ref_line", "light_bulbs"} {
		if _, ok := roles[role]; !ok {
			t.Fatalf("regulatory element missing role %q", role)
		}
	}

	box := mesh.Linestring(roles["refers"].Refs[0])
	if subtype, _ := box.Attributes.Get("subtype"); subtype != "red_yellow_green" {
		t.Errorf("light box subtype = %q, want red_yellow_green", subtype)
	}

	stopLine := mesh.Linestring(roles["ref_line"].Refs[0])
	if len(stopLine.Points) != 2 {
		t.Errorf("stop line has %d points, want 2", len(stopLine.Points))
	}
	if typ, _ := stopLine.Attributes.Get("type"); typ != "stop_line" {
		t.Errorf("stop line type = %q", typ)
	}

	bulbs := mesh.Linestring(roles["light_bulbs"].Refs[0])
	if len(bulbs.Points) != 3 {
		t.Errorf("bulb linestring has %d points, want 3", len(bulbs.Points))
	}
	if id, _ := bulbs.Attributes.Get("traffic_light_id"); id != strconv.FormatInt(box.UID, 10) {
		t.Errorf("traffic_light_id = %q, want %d", id, box.UID)
	}

	ll := mustLanelet(t, c, seg(0, 0, -1))
	if len(ll.RegulatoryElements) != 1 || ll.RegulatoryElements[0] != regElem.UID {
		t.Errorf("lanelet regulatory elements = %v, want [%d]", ll.RegulatoryElements, regElem.UID)
	}
}

func TestConvertJunctionBordersAreVirtual(t *testing.T) {
	lane := laneAlongX(-1, 0, 0, 10, 20)
	lane.LeftMarking = odr.Marking{Type: odr.MarkingSolid}
	snapshot := &odr.Snapshot{
		Roads: []odr.Road{{
			ID:       0,
			Junction: true,
			Sections: []odr.Section{{Lanes: []odr.Lane{lane}}},
		}},
	}
	c := newTestConverter(t, snapshot)
	mesh := mustConvert(t, c)

	ll := mustLanelet(t, c, seg(0, 0, -1))
	for _, border := range []int64{ll.Left, ll.Right} {
		if typ, _ := mesh.Linestring(border).Attributes.Get("type"); typ != "virtual" {
			t.Errorf("junction border %d type = %q, want virtual", border, typ)
		}
	}
}

func TestConvertDeterministic(t *testing.T) {
	build := func() *odr.Snapshot {
		inner := laneAlongX(-1, 0, 0, 10, 20)
		inner.Successors = []odr.SegmentID{seg(5, 0, -1)}
		inner.LeftMarking = odr.Marking{Type: odr.MarkingBroken}
		outer := laneAlongX(-2, -3, 0, 10, 20)
		path := laneAlongX(-1, 0, 20, 30, 40)
		path.Predecessors = []odr.SegmentID{seg(0, 0, -1)}

		return &odr.Snapshot{
			GeoReference: odr.GeoReference{Lat: 48.99, Lon: 8.43},
			Roads: []odr.Road{
				{ID: 0, Sections: []odr.Section{{Lanes: []odr.Lane{outer, inner}}}},
				{ID: 5, Junction: true, Sections: []odr.Section{{Lanes: []odr.Lane{path}}}},
			},
			TrafficLights: []odr.TrafficLight{{
				Boxes: []odr.LightBox{{
					Left: odr.Location{X: 18, Y: 4, Z: 5}, Right: odr.Location{X: 19, Y: 4, Z: 5}, Height: 1.2,
				}},
				Landmarks: []odr.Landmark{{Segment: seg(0, 0, -1), Index: 1}},
			}},
			Crosswalks: []odr.Crosswalk{{
				Corners: [4]odr.Location{{X: 0, Y: 0}, {X: 0, Y: 4}, {X: 8, Y: 4}, {X: 8, Y: 0}},
			}},
		}
	}

	marshal := func() []byte {
		t.Helper()
		c := newTestConverter(t, build())
		mesh := mustConvert(t, c)
		data, err := lanelet.Marshal(mesh)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		return data
	}

	first := marshal()
	second := marshal()
	if !bytes.Equal(first, second) {
		t.Error("two runs over the same snapshot must serialize identically")
	}
}

type stubHook struct {
	applied []odr.SegmentID
	err     error
}

func (h *stubHook) Apply(s odr.SegmentID, attrs *lanelet.Attributes) error {
	if h.err != nil {
		return h.err
	}
	h.applied = append(h.applied, s)
	attrs.Set("speed_limit", "50")
	return nil
}

func TestConvertAppliesAttributeHook(t *testing.T) {
	snapshot := &odr.Snapshot{
		Roads: []odr.Road{{
			ID:       0,
			Sections: []odr.Section{{Lanes: []odr.Lane{laneAlongX(-1, 0, 0, 10, 20)}}},
		}},
	}
	hook := &stubHook{}
	cfg := config.DefaultConfig()
	cfg.InputFile = "test.yaml"
	c := New(mustMap(t, snapshot), cfg, zap.NewNop(), hook)
	mustConvert(t, c)

	if len(hook.applied) != 1 || hook.applied[0] != seg(0, 0, -1) {
		t.Errorf("hook applied to %v, want [%s]", hook.applied, seg(0, 0, -1))
	}
	ll := mustLanelet(t, c, seg(0, 0, -1))
	if limit, _ := ll.Attributes.Get("speed_limit"); limit != "50" {
		t.Errorf("speed_limit = %q, want the hook's 50", limit)
	}
}

func TestConvertHookErrorIsFatal(t *testing.T) {
	snapshot := &odr.Snapshot{
		Roads: []odr.Road{{
			ID:       0,
			Sections: []odr.Section{{Lanes: []odr.Lane{laneAlongX(-1, 0, 0, 10, 20)}}},
		}},
	}
	hook := &stubHook{err: errors.New("boom")}
	cfg := config.DefaultConfig()
	cfg.InputFile = "test.yaml"
	c := New(mustMap(t, snapshot), cfg, zap.NewNop(), hook)

	if _, err := c.Convert(context.Background()); err == nil {
		t.Error("expected the hook error to abort the conversion")
	}
}
