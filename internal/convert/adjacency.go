package convert

import (
	"go.uber.org/zap"

	"github.com/wegman-software/odr2lanelet-go/internal/odr"
)

// isAdjacent decides whether the lane shares a border with the previously
// processed lane of the same section. The sign/magnitude rule admits only
// laterally consecutive lanes; the provisional result is downgraded when
// both lanes link to a common predecessor or successor, a malformed
// topology seen in some source maps where two stacked lanes erroneously
// converge into the same neighbor.
func (c *Converter) isAdjacent(seg odr.SegmentID, otherLane int) bool {
	direction := seg.Lane * otherLane
	difference := abs(seg.Lane - otherLane)
	if direction < 0 && difference > 2 {
		return false
	}
	if direction > 0 && difference > 1 {
		return false
	}

	other := odr.SegmentID{Road: seg.Road, Section: seg.Section, Lane: otherLane}

	if common, ok := commonSegment(c.m.Predecessors(seg), c.m.Predecessors(other)); ok {
		c.log.Warn("adjacent lanes share a predecessor, treating as not adjacent",
			zap.Stringer("segment", seg),
			zap.Stringer("other", other),
			zap.Stringer("predecessor", common),
		)
		return false
	}

	if common, ok := commonSegment(c.m.Successors(seg), c.m.Successors(other)); ok {
		c.log.Warn("adjacent lanes share a successor, treating as not adjacent",
			zap.Stringer("segment", seg),
			zap.Stringer("other", other),
			zap.Stringer("successor", common),
		)
		return false
	}

	return true
}

// commonSegment returns the first element of a that also appears in b.
func commonSegment(a, b []odr.SegmentID) (odr.SegmentID, bool) {
	if len(a) == 0 || len(b) == 0 {
		return odr.SegmentID{}, false
	}
	set := make(map[odr.SegmentID]struct{}, len(b))
	for _, seg := range b {
		set[seg] = struct{}{}
	}
	for _, seg := range a {
		if _, ok := set[seg]; ok {
			return seg, true
		}
	}
	return odr.SegmentID{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
