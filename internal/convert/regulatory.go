package convert

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wegman-software/odr2lanelet-go/internal/lanelet"
	"github.com/wegman-software/odr2lanelet-go/internal/odr"
)

// convertCrosswalk emits a two-border pedestrian lanelet. Crosswalks carry
// no regulatory element.
//
//	       left border
//	(p1)----------------->(p4)
//	 |                     |
//	 |      CROSSWALK      |
//	 |                     |
//	(p2)----------------->(p3)
//	       right border
func (c *Converter) convertCrosswalk(crosswalk odr.Crosswalk) {
	p1, p2, p3, p4 := crosswalk.Corners[0], crosswalk.Corners[1], crosswalk.Corners[2], crosswalk.Corners[3]

	left := []int64{c.addPoint(p1, nil), c.addPoint(p4, nil)}
	right := []int64{c.addPoint(p2, nil), c.addPoint(p3, nil)}

	leftBorder := c.mesh.AddLinestring(&lanelet.Linestring{
		UID:        c.nextUID(),
		Points:     left,
		Attributes: lanelet.Attributes{{Key: "type", Value: "pedestrian_marking"}},
	})
	rightBorder := c.mesh.AddLinestring(&lanelet.Linestring{
		UID:        c.nextUID(),
		Points:     right,
		Attributes: lanelet.Attributes{{Key: "type", Value: "pedestrian_marking"}},
	})

	c.mesh.AddLanelet(&lanelet.Lanelet{
		UID:   c.nextUID(),
		Left:  leftBorder,
		Right: rightBorder,
		Attributes: lanelet.Attributes{
			{Key: "type", Value: "lanelet"},
			{Key: "subtype", Value: "crosswalk"},
			{Key: "location", Value: c.cfg.Location},
			{Key: "one_way", Value: "no"},
			{Key: "speed_limit", Value: "10"},
			{Key: "participant:pedestrian", Value: "yes"},
		},
	})
}

// convertTrafficLight builds the box and bulb linestrings of a signal once
// and then, per landmark, a stop line plus a regulatory element attached
// to the lanelet of the controlled segment. Landmarks whose segment never
// produced a lanelet are skipped and reported, not fatal.
func (c *Converter) convertTrafficLight(light odr.TrafficLight) {
	var boxes, bulbs []int64
	for _, box := range light.Boxes {
		boxUID := c.mesh.AddLinestring(&lanelet.Linestring{
			UID: c.nextUID(),
			Points: []int64{
				c.addPoint(box.Left, nil),
				c.addPoint(box.Right, nil),
			},
			Attributes: lanelet.Attributes{
				{Key: "type", Value: "traffic_light"},
				{Key: "subtype", Value: "red_yellow_green"},
				{Key: "height", Value: formatFloat(box.Height)},
			},
		})
		boxes = append(boxes, boxUID)

		bulbUID := c.mesh.AddLinestring(&lanelet.Linestring{
			UID: c.nextUID(),
			Points: []int64{
				c.addPoint(box.Bulbs.Green, lanelet.Attributes{{Key: "color", Value: "green"}}),
				c.addPoint(box.Bulbs.Yellow, lanelet.Attributes{{Key: "color", Value: "yellow"}}),
				c.addPoint(box.Bulbs.Red, lanelet.Attributes{{Key: "color", Value: "red"}}),
			},
			Attributes: lanelet.Attributes{
				{Key: "type", Value: "light_bulbs"},
				{Key: "traffic_light_id", Value: strconv.FormatInt(boxUID, 10)},
			},
		})
		bulbs = append(bulbs, bulbUID)
	}

	for _, landmark := range light.Landmarks {
		laneletUID, ok := c.index[landmark.Segment]
		if !ok {
			c.log.Warn("traffic light landmark references an unconverted segment, skipping",
				zap.Stringer("segment", landmark.Segment))
			continue
		}

		waypoint, ok := c.m.WaypointAt(landmark.Segment, landmark.Index)
		if !ok {
			c.log.Warn("traffic light landmark has no waypoint, skipping",
				zap.Stringer("segment", landmark.Segment),
				zap.Int("index", landmark.Index))
			continue
		}

		stopLine := c.mesh.AddLinestring(&lanelet.Linestring{
			UID: c.nextUID(),
			Points: []int64{
				c.addPoint(c.m.Border(waypoint, odr.SideLeft), nil),
				c.addPoint(c.m.Border(waypoint, odr.SideRight), nil),
			},
			Attributes: lanelet.Attributes{{Key: "type", Value: "stop_line"}},
		})

		regElem := c.mesh.AddRegulatoryElement(&lanelet.RegulatoryElement{
			UID: c.nextUID(),
			Parameters: []lanelet.Parameter{
				{Role: "refers", Type: lanelet.MemberWay, Refs: boxes},
				{Role: "ref_line", Type: lanelet.MemberWay, Refs: []int64{stopLine}},
				{Role: "light_bulbs", Type: lanelet.MemberWay, Refs: bulbs},
			},
			Attributes: lanelet.Attributes{
				{Key: "type", Value: "regulatory_element"},
				{Key: "subtype", Value: "traffic_light"},
			},
		})

		c.mesh.Lanelet(laneletUID).AddRegulatoryElement(regElem)
	}
}
