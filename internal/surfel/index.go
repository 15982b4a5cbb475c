package surfel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// voxelKey identifies an octree leaf: the integer coordinates of a cube
// of side `resolution` in the map frame. This is the sparse-hash
// implementation of the octree in spec.md §4.3 — leaves are created
// lazily on first insert, at a single depth determined by resolution,
// which is the straightforward reading of "depth determined by r_oct"
// for a fixed leaf size.
type voxelKey [3]int64

// leaf holds the indices currently inside one voxel, in insertion order.
type leaf struct {
	indices []Index
}

// SpatialIndex maps 3D positions at leaf resolution to sets of surfel
// indices (spec.md §4.3). It never owns points; it stores handles into
// a Store.
type SpatialIndex struct {
	resolution float64
	leaves     map[voxelKey]*leaf
	keyOf      map[Index]voxelKey // reverse lookup from index to its leaf; its size is Len
}

// NewSpatialIndex builds an empty index with the given leaf resolution.
func NewSpatialIndex(resolution float64) *SpatialIndex {
	return &SpatialIndex{
		resolution: resolution,
		leaves:     make(map[voxelKey]*leaf),
		keyOf:      make(map[Index]voxelKey),
	}
}

func (x *SpatialIndex) keyFor(p r3.Vec) voxelKey {
	inv := 1.0 / x.resolution
	return voxelKey{
		int64(math.Floor(p.X * inv)),
		int64(math.Floor(p.Y * inv)),
		int64(math.Floor(p.Z * inv)),
	}
}

// VoxelBounds returns the min/max corners of the voxel a position
// currently occupies.
func (x *SpatialIndex) VoxelBounds(p r3.Vec) (min, max r3.Vec) {
	k := x.keyFor(p)
	min = r3.Vec{X: float64(k[0]) * x.resolution, Y: float64(k[1]) * x.resolution, Z: float64(k[2]) * x.resolution}
	max = r3.Vec{X: min.X + x.resolution, Y: min.Y + x.resolution, Z: min.Z + x.resolution}
	return min, max
}

// SameVoxel reports whether a and b fall in the same leaf.
func (x *SpatialIndex) SameVoxel(a, b r3.Vec) bool {
	return x.keyFor(a) == x.keyFor(b)
}

// Insert adds idx to the leaf containing position, creating the leaf
// lazily if this is its first occupant.
func (x *SpatialIndex) Insert(idx Index, position r3.Vec) {
	k := x.keyFor(position)
	l, ok := x.leaves[k]
	if !ok {
		l = &leaf{}
		x.leaves[k] = l
	}
	l.indices = append(l.indices, idx)
	x.keyOf[idx] = k
}

// LeafBucket enumerates indices in the leaf containing position, in
// insertion order.
func (x *SpatialIndex) LeafBucket(position r3.Vec) []Index {
	l, ok := x.leaves[x.keyFor(position)]
	if !ok {
		return nil
	}
	return l.indices
}

// RangeIndices enumerates all indices in leaves intersecting the
// axis-aligned box [bbMin, bbMax]. Order is unspecified.
func (x *SpatialIndex) RangeIndices(bbMin, bbMax r3.Vec) []Index {
	inv := 1.0 / x.resolution
	minK := voxelKey{
		int64(math.Floor(bbMin.X * inv)),
		int64(math.Floor(bbMin.Y * inv)),
		int64(math.Floor(bbMin.Z * inv)),
	}
	maxK := voxelKey{
		int64(math.Floor(bbMax.X * inv)),
		int64(math.Floor(bbMax.Y * inv)),
		int64(math.Floor(bbMax.Z * inv)),
	}
	var out []Index
	for kx := minK[0]; kx <= maxK[0]; kx++ {
		for ky := minK[1]; ky <= maxK[1]; ky++ {
			for kz := minK[2]; kz <= maxK[2]; kz++ {
				if l, ok := x.leaves[voxelKey{kx, ky, kz}]; ok {
					out = append(out, l.indices...)
				}
			}
		}
	}
	return out
}

// AllIndices enumerates every index stored in the index.
func (x *SpatialIndex) AllIndices() []Index {
	out := make([]Index, 0, len(x.keyOf))
	for _, l := range x.leaves {
		out = append(out, l.indices...)
	}
	return out
}

// Len returns the number of indices currently stored.
func (x *SpatialIndex) Len() int { return len(x.keyOf) }

// reset drops every leaf, releasing all dynamic index memory.
func (x *SpatialIndex) reset() {
	x.leaves = make(map[voxelKey]*leaf)
	x.keyOf = make(map[Index]voxelKey)
}

// leavesIntersecting returns the indices held by every leaf whose voxel
// may intersect the camera frustum. Used by the visibility
// pre-pass (spec.md §4.4.2) so frustum culling can be done leaf-at-a-time
// instead of scanning every surfel in the map.
func (x *SpatialIndex) leavesIntersecting(pose Pose, in Intrinsics, minD, maxD float64) []Index {
	var out []Index
	for k, l := range x.leaves {
		center := r3.Vec{
			X: (float64(k[0]) + 0.5) * x.resolution,
			Y: (float64(k[1]) + 0.5) * x.resolution,
			Z: (float64(k[2]) + 0.5) * x.resolution,
		}
		camCenter := pose.ToCamera(center)
		// Pad the depth range and each of the four image-edge planes
		// (through the camera origin) by one voxel side, which exceeds the
		// voxel's half-diagonal, so a voxel straddling the frustum boundary
		// is still considered a candidate; exact per-surfel projection in
		// the caller does the precise test.
		pad := x.resolution
		du, dv := float64(in.Width)-0.5-in.Cx, float64(in.Height)-0.5-in.Cy
		if camCenter.Z < minD-pad || camCenter.Z > maxD+pad ||
			(in.Alpha*camCenter.X+(in.Cx+0.5)*camCenter.Z)/math.Hypot(in.Alpha, in.Cx+0.5) < -pad ||
			(du*camCenter.Z-in.Alpha*camCenter.X)/math.Hypot(in.Alpha, du) < -pad ||
			(in.Beta*camCenter.Y+(in.Cy+0.5)*camCenter.Z)/math.Hypot(in.Beta, in.Cy+0.5) < -pad ||
			(dv*camCenter.Z-in.Beta*camCenter.Y)/math.Hypot(in.Beta, dv) < -pad {
			continue
		}
		out = append(out, l.indices...)
	}
	return out
}
