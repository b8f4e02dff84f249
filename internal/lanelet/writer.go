package lanelet

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/paulmach/osm"
)

// Document renders the mesh as an OSM document: points become nodes,
// linestrings become ways, lanelets and regulatory elements become
// relations with role-tagged members. Entity order follows mesh insertion
// order, so identical meshes produce identical documents.
func Document(m *Mesh) *osm.OSM {
	doc := &osm.OSM{Version: "0.6"}

	for _, p := range m.Points() {
		doc.Nodes = append(doc.Nodes, &osm.Node{
			ID:      osm.NodeID(p.UID),
			Lat:     p.Lat,
			Lon:     p.Lon,
			Visible: true,
			Version: 1,
			Tags:    osmTags(p.Attributes),
		})
	}

	for _, ls := range m.Linestrings() {
		way := &osm.Way{
			ID:      osm.WayID(ls.UID),
			Visible: true,
			Version: 1,
			Tags:    osmTags(ls.Attributes),
		}
		for _, pid := range ls.Points {
			way.Nodes = append(way.Nodes, osm.WayNode{ID: osm.NodeID(pid)})
		}
		doc.Ways = append(doc.Ways, way)
	}

	for _, l := range m.Lanelets() {
		rel := &osm.Relation{
			ID:      osm.RelationID(l.UID),
			Visible: true,
			Version: 1,
			Members: osm.Members{
				{Type: osm.TypeWay, Ref: l.Left, Role: "left"},
				{Type: osm.TypeWay, Ref: l.Right, Role: "right"},
			},
			Tags: osmTags(l.Attributes),
		}
		for _, rid := range l.RegulatoryElements {
			rel.Members = append(rel.Members, osm.Member{
				Type: osm.TypeRelation,
				Ref:  rid,
				Role: "regulatory_element",
			})
		}
		doc.Relations = append(doc.Relations, rel)
	}

	for _, re := range m.RegulatoryElements() {
		rel := &osm.Relation{
			ID:      osm.RelationID(re.UID),
			Visible: true,
			Version: 1,
			Tags:    osmTags(re.Attributes),
		}
		for _, param := range re.Parameters {
			memberType := osm.TypeWay
			if param.Type == MemberRelation {
				memberType = osm.TypeRelation
			}
			for _, ref := range param.Refs {
				rel.Members = append(rel.Members, osm.Member{
					Type: memberType,
					Ref:  ref,
					Role: param.Role,
				})
			}
		}
		doc.Relations = append(doc.Relations, rel)
	}

	return doc
}

func osmTags(attrs Attributes) osm.Tags {
	tags := make(osm.Tags, 0, len(attrs))
	for _, tag := range attrs {
		tags = append(tags, osm.Tag{Key: tag.Key, Value: tag.Value})
	}
	return tags
}

// Marshal serializes the mesh to an OSM XML byte slice.
func Marshal(m *Mesh) ([]byte, error) {
	body, err := xml.MarshalIndent(Document(m), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mesh: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// WriteFile serializes the mesh to an OSM XML file.
func WriteFile(m *Mesh, path string) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
