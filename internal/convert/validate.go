package convert

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wegman-software/odr2lanelet-go/internal/odr"
)

// ValidateTopology checks, after conversion, that every segment shares its
// boundary points with all of its converted predecessors and successors: a
// predecessor's lanelet must end on the points this segment's lanelet
// starts on, and symmetrically for successors. Disagreements are reported
// as warnings, one per offending segment, and never fail the run. The
// number of offending segments is returned.
func (c *Converter) ValidateTopology() int {
	issues := 0
	for _, road := range c.m.Roads() {
		for _, section := range c.m.Sections(road) {
			for _, laneID := range c.m.Lanes(road, section) {
				seg := odr.SegmentID{Road: road, Section: section, Lane: laneID}
				if c.validateSegmentTopology(seg) {
					issues++
				}
			}
		}
	}
	return issues
}

func (c *Converter) validateSegmentTopology(seg odr.SegmentID) bool {
	laneletUID, ok := c.index[seg]
	if !ok {
		return false
	}

	startLeft, startRight := c.mesh.LaneletStartPoints(laneletUID)
	endLeft, endRight := c.mesh.LaneletEndPoints(laneletUID)

	var mismatches []string
	for _, pred := range c.m.Predecessors(seg) {
		predUID, ok := c.index[pred]
		if !ok {
			continue
		}
		left, right := c.mesh.LaneletEndPoints(predUID)
		if left != startLeft || right != startRight {
			mismatches = append(mismatches, fmt.Sprintf(
				"predecessor %s ends on points (%d, %d), segment starts on (%d, %d)",
				pred, left, right, startLeft, startRight))
		}
	}
	for _, succ := range c.m.Successors(seg) {
		succUID, ok := c.index[succ]
		if !ok {
			continue
		}
		left, right := c.mesh.LaneletStartPoints(succUID)
		if left != endLeft || right != endRight {
			mismatches = append(mismatches, fmt.Sprintf(
				"successor %s starts on points (%d, %d), segment ends on (%d, %d)",
				succ, left, right, endLeft, endRight))
		}
	}

	if len(mismatches) == 0 {
		return false
	}
	c.log.Warn("segment does not share boundary points with all linked segments",
		zap.Stringer("segment", seg),
		zap.Strings("mismatches", mismatches),
	)
	return true
}
