package surfel

// Store is a pre-allocated contiguous array of scene_size surfel records
// (spec.md §3, §4.2). It hands out stable integer indices; the spatial
// index stores those handles and never owns the points themselves.
type Store struct {
	records []Surfel
	cursor  int // next never-used slot
	free    []Index
}

// NewStore allocates a store with room for capacity records.
func NewStore(capacity int) *Store {
	return &Store{records: make([]Surfel, capacity)}
}

// Len returns the capacity of the store (scene_size), not the number of
// currently valid surfels.
func (s *Store) Len() int { return len(s.records) }

// Allocate reserves a fresh index, reusing the most recently freed slot
// if one is available, and returns OutOfCapacity once the store is full.
func (s *Store) Allocate() (Index, error) {
	if n := len(s.free); n > 0 {
		idx := s.free[n-1]
		s.free = s.free[:n-1]
		return idx, nil
	}
	if s.cursor >= len(s.records) {
		return 0, outOfCapacity("store exhausted")
	}
	idx := Index(s.cursor)
	s.cursor++
	return idx, nil
}

// Get returns a pointer to the surfel at index for in-place mutation.
// The caller must not hold the pointer across a ResetMap.
func (s *Store) Get(idx Index) *Surfel {
	return &s.records[idx]
}

// MarkInvalid stores the non-finite sentinel position at idx. This is a
// store-only operation: the caller is responsible for removing idx from
// the spatial index first (invariant: a non-finite-position surfel must
// never be referenced by the index).
func (s *Store) MarkInvalid(idx Index) {
	s.records[idx].Position = nonFiniteVec
}

// reset clears every record and returns all capacity to the free cursor,
// i.e. the store becomes empty as if freshly constructed.
func (s *Store) reset() {
	for i := range s.records {
		s.records[i] = Surfel{}
	}
	s.cursor = 0
	s.free = s.free[:0]
}
