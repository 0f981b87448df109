package catalog

// PartKind names a placeable part type.
type PartKind string

const (
	BottomPlate PartKind = "bottom_plate"
	TopPlate    PartKind = "top_plate"
	Arm         PartKind = "arm"
	Motor       PartKind = "motor"
	Propellor   PartKind = "propellor"
)

// Category groups kinds for listing. Lower ranks list first.
type Category string

const (
	CategoryFrame      Category = "frame"
	CategoryPropulsion Category = "propulsion"
	CategoryOther      Category = "other"
)

var categoryRank = map[Category]int{
	CategoryFrame:      0,
	CategoryPropulsion: 1,
	CategoryOther:      2,
}

func (c Category) rank() int {
	if r, ok := categoryRank[c]; ok {
		return r
	}
	return len(categoryRank)
}

// Entry describes one part kind.
type Entry struct {
	Kind     PartKind `json:"kind" yaml:"kind"`
	Label    string   `json:"label" yaml:"label"`
	Category Category `json:"category" yaml:"category"`
	Asset    string   `json:"asset,omitempty" yaml:"asset,omitempty"`
}

// BuildStep is one entry of a guided build sequence.
type BuildStep struct {
	ID               string   `json:"id" yaml:"id"`
	Kind             PartKind `json:"kind" yaml:"kind"`
	Label            string   `json:"label" yaml:"label"`
	DefaultElevation float64  `json:"default_elevation" yaml:"default_elevation"`
}
