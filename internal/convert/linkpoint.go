package convert

import (
	"go.uber.org/zap"

	"github.com/wegman-software/odr2lanelet-go/internal/lanelet"
	"github.com/wegman-software/odr2lanelet-go/internal/odr"
)

// corner names one of the four boundary corners of a segment.
type corner int

const (
	cornerStartLeft corner = iota
	cornerStartRight
	cornerEndLeft
	cornerEndRight
)

func (c corner) String() string {
	switch c {
	case cornerStartLeft:
		return "start-left"
	case cornerStartRight:
		return "start-right"
	case cornerEndLeft:
		return "end-left"
	case cornerEndRight:
		return "end-right"
	}
	return "unknown"
}

// linkPoints holds the resolved shared vertex for each corner of a
// segment. A zero uid means no topologically related segment has placed a
// point there yet, so the builder creates a fresh one.
type linkPoints struct {
	startLeft  int64
	startRight int64
	endLeft    int64
	endRight   int64
}

// resolver finds already-placed boundary vertices by walking the
// predecessor/successor/neighbor relations of the lane graph. A segment
// processed before its neighbors simply creates fresh points; segments
// processed later discover and reuse them through this search, so the
// final geometry does not depend on processing order.
type resolver struct {
	m     odr.Map
	mesh  *lanelet.Mesh
	index map[odr.SegmentID]int64
	log   *zap.Logger
}

// query is one pending corner lookup of the depth-first search.
type query struct {
	corner corner
	seg    odr.SegmentID
}

// resolve runs one corner search. The traversal is an explicit-stack
// depth-first walk; the visited set is scoped to this call and keyed by
// segment, which both bounds the walk on cyclic topologies and keeps the
// stack depth independent of language recursion limits.
func (r *resolver) resolve(c corner, seg odr.SegmentID) int64 {
	visited := make(map[odr.SegmentID]struct{})
	stack := []query{{corner: c, seg: seg}}

	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := visited[q.seg]; ok {
			continue
		}
		visited[q.seg] = struct{}{}

		point, children := r.visit(q)
		if point != 0 {
			return point
		}
		// Children were produced in precedence order; push reversed so the
		// first child is explored first.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return 0
}

// visit inspects one segment corner. It either returns the shared point id
// placed by an already finalized linked segment, or the follow-up queries
// in search precedence order: linked segments first, lateral neighbor
// last.
func (r *resolver) visit(q query) (int64, []query) {
	var (
		linked       []odr.SegmentID
		linkedCorner corner
	)

	atStart := q.corner == cornerStartLeft || q.corner == cornerStartRight
	onLeft := q.corner == cornerStartLeft || q.corner == cornerEndLeft

	if atStart {
		linked = r.m.Predecessors(q.seg)
	} else {
		linked = r.m.Successors(q.seg)
	}

	// A finalized linked segment has already placed both boundary points at
	// the shared border: reuse them directly.
	for _, link := range linked {
		laneletID, ok := r.index[link]
		if !ok {
			continue
		}
		var left, right int64
		if atStart {
			left, right = r.mesh.LaneletEndPoints(laneletID)
		} else {
			left, right = r.mesh.LaneletStartPoints(laneletID)
		}
		if onLeft {
			return left, nil
		}
		return right, nil
	}

	// Otherwise search the opposite corner of each linked segment.
	if atStart {
		if onLeft {
			linkedCorner = cornerEndLeft
		} else {
			linkedCorner = cornerEndRight
		}
	} else {
		if onLeft {
			linkedCorner = cornerStartLeft
		} else {
			linkedCorner = cornerStartRight
		}
	}

	children := make([]query, 0, len(linked)+1)
	for _, link := range linked {
		children = append(children, query{corner: linkedCorner, seg: link})
	}

	if neighbor, ok := r.neighborQuery(q, atStart, onLeft); ok {
		children = append(children, neighbor)
	}
	return 0, children
}

// neighborQuery produces the lateral branch of the search. Left neighbors
// may drive either direction, which decides whether the shared vertex sits
// at the neighbor's matching or opposite end; right neighbors always drive
// the same direction by construction.
func (r *resolver) neighborQuery(q query, atStart, onLeft bool) (query, bool) {
	if onLeft {
		left, ok := r.m.Left(q.seg)
		if !ok {
			return query{}, false
		}
		sameDirection := q.seg.Lane*left.Lane > 0
		switch {
		case atStart && sameDirection:
			return query{corner: cornerStartRight, seg: left}, true
		case atStart:
			return query{corner: cornerEndLeft, seg: left}, true
		case sameDirection:
			return query{corner: cornerEndRight, seg: left}, true
		default:
			return query{corner: cornerStartLeft, seg: left}, true
		}
	}

	right, ok := r.m.Right(q.seg)
	if !ok {
		return query{}, false
	}
	if q.seg.Lane*right.Lane < 0 {
		// Cannot happen in a well-formed lane graph.
		r.log.Warn("right neighbor drives the opposite direction, skipping",
			zap.Stringer("segment", q.seg),
			zap.Stringer("neighbor", right),
		)
		return query{}, false
	}
	if atStart {
		return query{corner: cornerStartLeft, seg: right}, true
	}
	return query{corner: cornerEndLeft, seg: right}, true
}

// linkPoints resolves all four corners of a segment. Each corner search
// runs with its own visited scope.
func (r *resolver) linkPoints(seg odr.SegmentID) linkPoints {
	return linkPoints{
		startLeft:  r.resolve(cornerStartLeft, seg),
		startRight: r.resolve(cornerStartRight, seg),
		endLeft:    r.resolve(cornerEndLeft, seg),
		endRight:   r.resolve(cornerEndRight, seg),
	}
}
