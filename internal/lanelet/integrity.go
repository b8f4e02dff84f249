package lanelet

import "fmt"

// CheckIntegrity verifies the referential invariants of the mesh: every
// point id referenced by a linestring, every border referenced by a
// lanelet and every id referenced by a regulatory element must exist.
// A violation is a programmer error in the builder, not a data-quality
// finding, so callers should treat a non-empty result as fatal.
func (m *Mesh) CheckIntegrity() []error {
	var errs []error

	for _, uid := range m.linestringOrder {
		ls := m.linestrings[uid]
		if len(ls.Points) < 2 {
			errs = append(errs, fmt.Errorf("linestring %d has %d points, need at least 2", uid, len(ls.Points)))
		}
		for _, pid := range ls.Points {
			if _, ok := m.points[pid]; !ok {
				errs = append(errs, fmt.Errorf("linestring %d references missing point %d", uid, pid))
			}
		}
	}

	for _, uid := range m.laneletOrder {
		l := m.lanelets[uid]
		if _, ok := m.linestrings[l.Left]; !ok {
			errs = append(errs, fmt.Errorf("lanelet %d references missing left border %d", uid, l.Left))
		}
		if _, ok := m.linestrings[l.Right]; !ok {
			errs = append(errs, fmt.Errorf("lanelet %d references missing right border %d", uid, l.Right))
		}
		for _, rid := range l.RegulatoryElements {
			if _, ok := m.regulatoryElements[rid]; !ok {
				errs = append(errs, fmt.Errorf("lanelet %d references missing regulatory element %d", uid, rid))
			}
		}
	}

	for _, uid := range m.regElemOrder {
		re := m.regulatoryElements[uid]
		for _, param := range re.Parameters {
			for _, ref := range param.Refs {
				switch param.Type {
				case MemberWay:
					if _, ok := m.linestrings[ref]; !ok {
						errs = append(errs, fmt.Errorf("regulatory element %d role %q references missing linestring %d", uid, param.Role, ref))
					}
				case MemberRelation:
					if _, ok := m.lanelets[ref]; !ok {
						errs = append(errs, fmt.Errorf("regulatory element %d role %q references missing lanelet %d", uid, param.Role, ref))
					}
				default:
					errs = append(errs, fmt.Errorf("regulatory element %d role %q has unknown member type %q", uid, param.Role, param.Type))
				}
			}
		}
	}

	return errs
}
