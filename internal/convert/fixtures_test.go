package convert

import (
	"testing"

	"go.uber.org/zap"

	"github.com/wegman-software/odr2lanelet-go/internal/config"
	"github.com/wegman-software/odr2lanelet-go/internal/odr"
)

// laneAlongX builds a lane whose centerline runs along the x axis at the
// given y, with borders offset one meter to either side.
func laneAlongX(id int, y float64, xs ...float64) odr.Lane {
	waypoints := make([]odr.WaypointSample, len(xs))
	for i, x := range xs {
		waypoints[i] = odr.WaypointSample{
			Center: odr.Location{X: x, Y: y},
			Left:   odr.Location{X: x, Y: y + 1},
			Right:  odr.Location{X: x, Y: y - 1},
		}
	}
	return odr.Lane{ID: id, Waypoints: waypoints}
}

func mustMap(t *testing.T, snapshot *odr.Snapshot) *odr.SnapshotMap {
	t.Helper()
	m, err := odr.NewSnapshotMap(snapshot)
	if err != nil {
		t.Fatalf("NewSnapshotMap: %v", err)
	}
	return m
}

func newTestConverter(t *testing.T, snapshot *odr.Snapshot) *Converter {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.InputFile = "test.yaml"
	return New(mustMap(t, snapshot), cfg, zap.NewNop(), nil)
}

func seg(road, section, lane int) odr.SegmentID {
	return odr.SegmentID{Road: road, Section: section, Lane: lane}
}
