package surfel

import "gonum.org/v1/gonum/spatial/r3"

// Index is a stable handle into the surfel store. It remains valid from
// allocation until ResetMap.
type Index uint32

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Surfel is an oriented disk: position, normal, radius, color and a
// confidence count (spec.md §3).
type Surfel struct {
	Position   r3.Vec
	Normal     r3.Vec
	Color      Color
	Radius     float64
	Confidence uint32
}

// Valid reports whether the surfel's position is finite. Surfels are
// marked invalid by storing a non-finite position sentinel.
func (s *Surfel) Valid() bool {
	return finite(s.Position)
}

// Reliable reports whether the surfel's confidence meets the threshold
// C*; only reliable surfels participate in preview output and external
// bounding-box queries.
func (s *Surfel) Reliable(confidenceThreshold int) bool {
	return s.Valid() && int(s.Confidence) >= confidenceThreshold
}
