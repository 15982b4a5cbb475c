package surfel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// PreviewPoint is one downsampled point in a preview point cloud.
type PreviewPoint struct {
	Position r3.Vec
	Color    Color
}

type previewAccum struct {
	sumPos r3.Vec
	sumR   int
	sumG   int
	sumB   int
	n      int
}

// GeneratePreview downsamples the current map at cfg.PreviewResolution,
// averaging the first PreviewColorSamplesInVoxel reliable surfels
// encountered per voxel into one output point (spec.md §4.5). Only
// reliable surfels participate. Output is for coarse visualization, not
// measurement; voxel enumeration order is implementation-defined.
//
// PreviewEmitStride throttles which voxels are emitted (every Nth in
// enumeration order) without changing fusion state — a visualization-
// only knob (spec.md §9 Open Question a).
func (e *Engine) GeneratePreview() []PreviewPoint {
	inv := 1.0 / e.cfg.PreviewResolution
	voxels := make(map[[3]int64]*previewAccum)
	order := make([][3]int64, 0)

	for _, idx := range e.index.AllIndices() {
		s := e.store.Get(idx)
		if !s.Reliable(e.cfg.ConfidenceThreshold) {
			continue
		}
		key := [3]int64{
			int64(math.Floor(s.Position.X * inv)),
			int64(math.Floor(s.Position.Y * inv)),
			int64(math.Floor(s.Position.Z * inv)),
		}
		acc, ok := voxels[key]
		if !ok {
			acc = &previewAccum{}
			voxels[key] = acc
			order = append(order, key)
		}
		if acc.n >= e.cfg.PreviewColorSamplesInVoxel {
			continue
		}
		acc.sumPos = r3.Add(acc.sumPos, s.Position)
		acc.sumR += int(s.Color.R)
		acc.sumG += int(s.Color.G)
		acc.sumB += int(s.Color.B)
		acc.n++
	}

	out := make([]PreviewPoint, 0, len(order)/e.cfg.PreviewEmitStride+1)
	for i, key := range order {
		if i%e.cfg.PreviewEmitStride != 0 {
			continue
		}
		acc := voxels[key]
		if acc.n == 0 {
			continue
		}
		n := float64(acc.n)
		out = append(out, PreviewPoint{
			Position: r3.Scale(1/n, acc.sumPos),
			Color: Color{
				R: uint8(acc.sumR / acc.n),
				G: uint8(acc.sumG / acc.n),
				B: uint8(acc.sumB / acc.n),
			},
		})
	}
	return out
}
