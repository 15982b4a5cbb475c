package surfel

import "gonum.org/v1/gonum/spatial/r3"

// GetBoundingBoxIndices returns reliable surfel indices whose positions
// lie within [bbMin, bbMax] (spec.md §4.6). RangeIndices over-approximates
// at voxel granularity, so every candidate is re-checked here against the
// exact box and the reliability threshold before it is returned.
func (e *Engine) GetBoundingBoxIndices(bbMin, bbMax r3.Vec) []Index {
	candidates := e.index.RangeIndices(bbMin, bbMax)
	out := make([]Index, 0, len(candidates))
	for _, idx := range candidates {
		s := e.store.Get(idx)
		if !s.Reliable(e.cfg.ConfidenceThreshold) {
			continue
		}
		p := s.Position
		if p.X < bbMin.X || p.X > bbMax.X || p.Y < bbMin.Y || p.Y > bbMax.Y || p.Z < bbMin.Z || p.Z > bbMax.Z {
			continue
		}
		out = append(out, idx)
	}
	return out
}

// GetAllIndices returns every currently valid index, for use by an
// external saver (spec.md §4.6, §6).
func (e *Engine) GetAllIndices() []Index {
	all := e.index.AllIndices()
	out := make([]Index, 0, len(all))
	for _, idx := range all {
		if e.store.Get(idx).Valid() {
			out = append(out, idx)
		}
	}
	return out
}

// ResetMap invalidates all surfels, clears the spatial index, and
// returns the store to empty. Idempotent (spec.md §4.6, §8).
func (e *Engine) ResetMap() {
	e.store.reset()
	e.index.reset()
}

// Surfel returns a copy of the surfel at idx, for read-only inspection
// by callers holding an index from a query.
func (e *Engine) Surfel(idx Index) Surfel {
	return *e.store.Get(idx)
}

// Len returns the store's capacity (scene_size), not the live count.
func (e *Engine) Len() int { return e.store.Len() }
