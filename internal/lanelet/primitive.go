package lanelet

// Tag is one attribute key/value pair.
type Tag struct {
	Key   string
	Value string
}

// Attributes is an ordered attribute map. Order is insertion order, which
// keeps serialized output deterministic.
type Attributes []Tag

// Get returns the value stored under key.
func (a Attributes) Get(key string) (string, bool) {
	for _, tag := range a {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Set replaces the value under key, appending the pair if absent.
func (a *Attributes) Set(key, value string) {
	for i, tag := range *a {
		if tag.Key == key {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Tag{Key: key, Value: value})
}

// Clone returns an independent copy.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	copy(out, a)
	return out
}

// Point is a placed map vertex. Points are immutable once added to the
// mesh and are never deleted.
type Point struct {
	UID        int64
	Lat        float64
	Lon        float64
	Attributes Attributes
}

// Linestring is an ordered sequence of point ids with semantic tags.
// A linestring may be referenced by at most two lanelets (a shared border)
// and by any number of regulatory elements.
type Linestring struct {
	UID        int64
	Points     []int64
	Attributes Attributes
}

// Lanelet represents one drivable lane as a left/right border pair plus
// regulatory references.
type Lanelet struct {
	UID                int64
	Left               int64
	Right              int64
	RegulatoryElements []int64
	Attributes         Attributes
}

// AddRegulatoryElement appends a regulatory element reference.
func (l *Lanelet) AddRegulatoryElement(uid int64) {
	l.RegulatoryElements = append(l.RegulatoryElements, uid)
}

// MemberType distinguishes what kind of entity a parameter references.
type MemberType string

const (
	MemberWay      MemberType = "way"
	MemberRelation MemberType = "relation"
)

// Parameter maps one role of a regulatory element to the entities filling
// that role, in order.
type Parameter struct {
	Role string
	Type MemberType
	Refs []int64
}

// RegulatoryElement encodes a traffic restriction and the geometry it
// refers to, as an ordered role -> references mapping.
type RegulatoryElement struct {
	UID        int64
	Parameters []Parameter
	Attributes Attributes
}
