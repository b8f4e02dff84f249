package convert

import (
	"github.com/wegman-software/odr2lanelet-go/internal/lanelet"
	"github.com/wegman-software/odr2lanelet-go/internal/odr"
)

// borderTags maps a source lane marking to linestring tags following the
// Lanelet2 linestring tagging conventions. Junction segments are always
// tagged virtual, whatever the marking says. Lane-change permission on
// dashed markings depends on whether a same-direction neighbor exists on
// that side.
func borderTags(marking odr.Marking, junction, sameDirNeighbor bool) lanelet.Attributes {
	if junction {
		return lanelet.Attributes{{Key: "type", Value: "virtual"}}
	}

	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}

	var attrs lanelet.Attributes
	switch marking.Type {
	case odr.MarkingBroken, odr.MarkingBrokenBroke:
		attrs = lanelet.Attributes{
			{Key: "type", Value: "line_thin"},
			{Key: "subtype", Value: "dashed"},
			{Key: "lane_change", Value: yesNo(sameDirNeighbor)},
		}
	case odr.MarkingSolid:
		attrs = lanelet.Attributes{
			{Key: "type", Value: "line_thin"},
			{Key: "subtype", Value: "solid"},
		}
	case odr.MarkingSolidSolid:
		attrs = lanelet.Attributes{
			{Key: "type", Value: "line_thin"},
			{Key: "subtype", Value: "solid_solid"},
		}
	case odr.MarkingSolidBroken:
		attrs = lanelet.Attributes{
			{Key: "type", Value: "line_thin"},
			{Key: "subtype", Value: "solid_dashed"},
			{Key: "lane_change:left", Value: yesNo(sameDirNeighbor)},
			{Key: "lane_change:right", Value: "no"},
		}
	case odr.MarkingBrokenSolid:
		attrs = lanelet.Attributes{
			{Key: "type", Value: "line_thin"},
			{Key: "subtype", Value: "dashed_solid"},
			{Key: "lane_change:left", Value: "no"},
			{Key: "lane_change:right", Value: yesNo(sameDirNeighbor)},
		}
	case odr.MarkingBottsDots:
		attrs = lanelet.Attributes{
			{Key: "type", Value: "line_thin"},
			{Key: "subtype", Value: "solid"},
		}
	default:
		// None, Other, Grass, Curb and anything unknown
		return lanelet.Attributes{{Key: "type", Value: "road_border"}}
	}

	if marking.Color != "" {
		attrs = append(attrs, lanelet.Tag{Key: "color", Value: marking.Color})
	}
	return attrs
}
