package convert

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/wegman-software/odr2lanelet-go/internal/odr"
)

// Turns below this angle (radians) are treated as straight geometry and the
// middle point is dropped from the reference border.
const alignmentThreshold = 0.01

// referenceBorder holds the minimal left/right polylines of one segment,
// endpoints excluded: those come from link resolution or the boundary
// waypoints.
type referenceBorder struct {
	left  []odr.Location
	right []odr.Location
}

// borderSampler walks a segment's waypoints at a fixed step and collapses
// near-collinear runs, keeping the vertex count proportional to curvature
// instead of raw sample count.
type borderSampler struct {
	m    odr.Map
	step float64
}

// sideBuffer is the 3-slot window used to decide whether the candidate
// point is geometrically necessary.
type sideBuffer struct {
	current      odr.Location
	candidate    odr.Location
	lookahead    odr.Location
	hasCandidate bool
}

// shift decides the fate of the candidate against the lookahead point and
// reports whether the candidate must be emitted.
func (b *sideBuffer) shift() bool {
	if isAligned(b.current.Point(), b.candidate.Point(), b.lookahead.Point()) {
		b.candidate = b.lookahead
		return false
	}
	b.current = b.candidate
	b.candidate = b.lookahead
	return true
}

// sample builds the reference borders of the segment starting at start.
// When hasEnd is set, sampling stops once the remaining distance to the
// end waypoint drops below the step, and the pending candidate is checked
// against the end border before being emitted.
func (s *borderSampler) sample(start, end odr.Waypoint, hasEnd bool) referenceBorder {
	var ref referenceBorder

	lbuf := sideBuffer{current: s.m.Border(start, odr.SideLeft)}
	rbuf := sideBuffer{current: s.m.Border(start, odr.SideRight)}

	next, ok := s.m.Next(start, s.step)
	for ok && next.Segment.Road == start.Segment.Road && next.Segment.Section == start.Segment.Section {
		if hasEnd && next.Location.Distance(end.Location) < s.step {
			break
		}

		if !lbuf.hasCandidate {
			// First iteration: the waypoint becomes the candidate.
			lbuf.candidate = s.m.Border(next, odr.SideLeft)
			rbuf.candidate = s.m.Border(next, odr.SideRight)
			lbuf.hasCandidate = true
			rbuf.hasCandidate = true
		} else {
			lbuf.lookahead = s.m.Border(next, odr.SideLeft)
			rbuf.lookahead = s.m.Border(next, odr.SideRight)

			emit := lbuf.candidate
			if lbuf.shift() {
				ref.left = append(ref.left, emit)
			}
			emit = rbuf.candidate
			if rbuf.shift() {
				ref.right = append(ref.right, emit)
			}
		}

		next, ok = s.m.Next(next, s.step)
	}

	if hasEnd && lbuf.hasCandidate && rbuf.hasCandidate {
		lbuf.lookahead = s.m.Border(end, odr.SideLeft)
		rbuf.lookahead = s.m.Border(end, odr.SideRight)

		if !isAligned(lbuf.current.Point(), lbuf.candidate.Point(), lbuf.lookahead.Point()) {
			ref.left = append(ref.left, lbuf.candidate)
		}
		if !isAligned(rbuf.current.Point(), rbuf.candidate.Point(), rbuf.lookahead.Point()) {
			ref.right = append(ref.right, rbuf.candidate)
		}
	}

	return ref
}

// isAligned reports whether the turn at b, coming from a and heading to c,
// stays below the alignment threshold.
func isAligned(a, b, c orb.Point) bool {
	angle1 := math.Atan2(a[0]-b[0], a[1]-b[1])
	angle2 := math.Atan2(b[0]-c[0], b[1]-c[1])
	return math.Abs(angle1-angle2) < alignmentThreshold
}
