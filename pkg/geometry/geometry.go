// Package geometry parses free-form model text into typed coordinates.
//
// Invariants:
// - Extraction never fails: malformed text yields empty Geometry.
// - Fallback order per task kind is a fixed, documented strategy table.
// - Decimal coordinates are truncated, never rounded.
package geometry

// Point is a single pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Box is an axis-aligned bounding box.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Path is an ordered list of trajectory waypoints.
type Path []Point

// Geometry holds the coordinates extracted from a single model answer.
// A zero Geometry means no visualizable output, which is not an error.
// The extractor populates at most one primary variant per call; the point
// fallback for box tasks additionally keeps the source points so later
// steps can reference them.
type Geometry struct {
	Points []Point `json:"points,omitempty"`
	Boxes  []Box   `json:"boxes,omitempty"`
	Paths  []Path  `json:"trajectories,omitempty"`
}

// Empty reports whether no variant is populated.
func (g Geometry) Empty() bool {
	return len(g.Points) == 0 && len(g.Boxes) == 0 && len(g.Paths) == 0
}
