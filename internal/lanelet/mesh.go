package lanelet

// Mesh owns every point, linestring, lanelet and regulatory element of one
// conversion run, keyed by uid. Insertion order is tracked separately so
// iteration, and with it serialization, is deterministic.
type Mesh struct {
	points             map[int64]*Point
	linestrings        map[int64]*Linestring
	lanelets           map[int64]*Lanelet
	regulatoryElements map[int64]*RegulatoryElement

	pointOrder      []int64
	linestringOrder []int64
	laneletOrder    []int64
	regElemOrder    []int64
}

// NewMesh creates an empty mesh.
func NewMesh() *Mesh {
	return &Mesh{
		points:             make(map[int64]*Point),
		linestrings:        make(map[int64]*Linestring),
		lanelets:           make(map[int64]*Lanelet),
		regulatoryElements: make(map[int64]*RegulatoryElement),
	}
}

// AddPoint inserts a point and returns its uid. Re-adding an already
// placed uid is a no-op, so shared link points are referenced, not
// recreated.
func (m *Mesh) AddPoint(p *Point) int64 {
	if _, ok := m.points[p.UID]; !ok {
		m.points[p.UID] = p
		m.pointOrder = append(m.pointOrder, p.UID)
	}
	return p.UID
}

// AddLinestring inserts a linestring and returns its uid.
func (m *Mesh) AddLinestring(ls *Linestring) int64 {
	if _, ok := m.linestrings[ls.UID]; !ok {
		m.linestrings[ls.UID] = ls
		m.linestringOrder = append(m.linestringOrder, ls.UID)
	}
	return ls.UID
}

// AddLanelet inserts a lanelet and returns its uid.
func (m *Mesh) AddLanelet(l *Lanelet) int64 {
	if _, ok := m.lanelets[l.UID]; !ok {
		m.lanelets[l.UID] = l
		m.laneletOrder = append(m.laneletOrder, l.UID)
	}
	return l.UID
}

// AddRegulatoryElement inserts a regulatory element and returns its uid.
func (m *Mesh) AddRegulatoryElement(re *RegulatoryElement) int64 {
	if _, ok := m.regulatoryElements[re.UID]; !ok {
		m.regulatoryElements[re.UID] = re
		m.regElemOrder = append(m.regElemOrder, re.UID)
	}
	return re.UID
}

// Point returns the point with the given uid, or nil.
func (m *Mesh) Point(uid int64) *Point { return m.points[uid] }

// Linestring returns the linestring with the given uid, or nil.
func (m *Mesh) Linestring(uid int64) *Linestring { return m.linestrings[uid] }

// Lanelet returns the lanelet with the given uid, or nil.
func (m *Mesh) Lanelet(uid int64) *Lanelet { return m.lanelets[uid] }

// RegulatoryElement returns the regulatory element with the given uid, or nil.
func (m *Mesh) RegulatoryElement(uid int64) *RegulatoryElement {
	return m.regulatoryElements[uid]
}

// Points returns all points in insertion order.
func (m *Mesh) Points() []*Point {
	out := make([]*Point, 0, len(m.pointOrder))
	for _, uid := range m.pointOrder {
		out = append(out, m.points[uid])
	}
	return out
}

// Linestrings returns all linestrings in insertion order.
func (m *Mesh) Linestrings() []*Linestring {
	out := make([]*Linestring, 0, len(m.linestringOrder))
	for _, uid := range m.linestringOrder {
		out = append(out, m.linestrings[uid])
	}
	return out
}

// Lanelets returns all lanelets in insertion order.
func (m *Mesh) Lanelets() []*Lanelet {
	out := make([]*Lanelet, 0, len(m.laneletOrder))
	for _, uid := range m.laneletOrder {
		out = append(out, m.lanelets[uid])
	}
	return out
}

// RegulatoryElements returns all regulatory elements in insertion order.
func (m *Mesh) RegulatoryElements() []*RegulatoryElement {
	out := make([]*RegulatoryElement, 0, len(m.regElemOrder))
	for _, uid := range m.regElemOrder {
		out = append(out, m.regulatoryElements[uid])
	}
	return out
}

// LaneletStartPoints returns the first point id of the lanelet's left and
// right borders. Zero uids are returned when the lanelet is unknown.
func (m *Mesh) LaneletStartPoints(uid int64) (left, right int64) {
	l := m.lanelets[uid]
	if l == nil {
		return 0, 0
	}
	return m.firstPoint(l.Left), m.firstPoint(l.Right)
}

// LaneletEndPoints returns the last point id of the lanelet's left and
// right borders.
func (m *Mesh) LaneletEndPoints(uid int64) (left, right int64) {
	l := m.lanelets[uid]
	if l == nil {
		return 0, 0
	}
	return m.lastPoint(l.Left), m.lastPoint(l.Right)
}

func (m *Mesh) firstPoint(linestring int64) int64 {
	ls := m.linestrings[linestring]
	if ls == nil || len(ls.Points) == 0 {
		return 0
	}
	return ls.Points[0]
}

func (m *Mesh) lastPoint(linestring int64) int64 {
	ls := m.linestrings[linestring]
	if ls == nil || len(ls.Points) == 0 {
		return 0
	}
	return ls.Points[len(ls.Points)-1]
}

// Stats summarizes the mesh contents.
type Stats struct {
	Points             int
	Linestrings        int
	Lanelets           int
	RegulatoryElements int
}

// Stats returns entity counts for summary logging.
func (m *Mesh) Stats() Stats {
	return Stats{
		Points:             len(m.points),
		Linestrings:        len(m.linestrings),
		Lanelets:           len(m.lanelets),
		RegulatoryElements: len(m.regulatoryElements),
	}
}
