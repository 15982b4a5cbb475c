package surfel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const quaternionUnitTol = 1e-3

// Engine is the fusion engine: the main per-keyframe pipeline described
// in spec.md §4.4. It owns a Store and a SpatialIndex behind one façade
// so the voxel-clamp invariant (§4.4.3 step 4) can never be violated by
// an ad-hoc caller (spec.md §9 "shared mutable state" design note).
//
// Engine is single-threaded cooperative (spec.md §5): every public
// method runs to completion with no internal suspension, and callers
// must serialize concurrent access with an external mutex.
type Engine struct {
	cfg        *Config
	store      *Store
	index      *SpatialIndex
	intrinsics *Intrinsics
	logger     *Logger
	frameSeq   int64
}

// NewEngine validates cfg and constructs an Engine with a pre-allocated
// store of cfg.SceneSize and an empty spatial index at
// cfg.OctreeResolution.
func NewEngine(cfg *Config, sink LogSink) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, invalidInput("config", err)
	}
	return &Engine{
		cfg:    cfg,
		store:  NewStore(cfg.SceneSize),
		index:  NewSpatialIndex(cfg.OctreeResolution),
		logger: NewLogger(cfg.Logging, sink),
	}, nil
}

// SetIntrinsics installs the camera model the engine will use to
// project and unproject points. A second call is a documented no-op
// (spec.md §6): "a second intrinsics message is ignored."
func (e *Engine) SetIntrinsics(in Intrinsics) error {
	if e.intrinsics != nil {
		return nil
	}
	if !in.Valid() {
		return invalidInput("intrinsics", nil)
	}
	cp := in
	e.intrinsics = &cp
	return nil
}

// Logger exposes the engine's structured logger for callers that want
// to inspect recent per-frame records.
func (e *Engine) Logger() *Logger { return e.logger }

// IngestKeyframe runs the full per-keyframe pipeline: scan
// preprocessing, visibility filtering, per-pixel association, and
// update-or-insert (spec.md §4.4). It is the engine's only mutating
// entry point besides ResetMap.
func (e *Engine) IngestKeyframe(kf Keyframe) (Result, error) {
	var res Result

	if e.intrinsics == nil {
		return res, notReady("ingest before intrinsics")
	}
	if !kf.Pose.Quaternion.IsUnit(quaternionUnitTol) {
		return res, invalidInput("pose quaternion is not unit-norm", nil)
	}

	scan := preprocessScan(kf.Cloud, kf.Pose, *e.intrinsics, e.cfg)
	res.PixelsConsidered = len(scan)

	var frustumCandidates map[Index]bool
	if e.cfg.UseFrustum {
		ids := e.index.leavesIntersecting(kf.Pose, *e.intrinsics, e.cfg.MinKinectDist, e.cfg.MaxKinectDist)
		frustumCandidates = make(map[Index]bool, len(ids))
		for _, id := range ids {
			frustumCandidates[id] = true
		}
	}

	var ingestErr error
	for _, sp := range scan {
		matched := Index(0)
		haveMatch := false

		if e.cfg.UseUpdate {
			matched, haveMatch = e.findMatch(sp, kf.Pose, frustumCandidates)
		}

		if haveMatch {
			e.updateSurfel(matched, sp)
			res.Matched++
			res.PixelsFused++
			continue
		}

		idx, err := e.store.Allocate()
		if err != nil {
			ingestErr = err
			break
		}
		*e.store.Get(idx) = Surfel{
			Position:   sp.mapPos,
			Normal:     sp.normMap,
			Color:      sp.color,
			Radius:     sp.radius,
			Confidence: 1,
		}
		e.index.Insert(idx, sp.mapPos)
		res.Inserted++
		res.PixelsFused++
	}

	e.logIngest(kf, res, ingestErr)
	return res, ingestErr
}

// findMatch implements spec.md §4.4.3 steps 1-3: gather candidates,
// filter by reprojection, and pick the closest-in-depth one within
// DMax, with earliest-inserted as the tie-break.
func (e *Engine) findMatch(sp scanPoint, pose Pose, frustumCandidates map[Index]bool) (Index, bool) {
	candidates := e.index.LeafBucket(sp.mapPos)
	if len(candidates) == 0 {
		return 0, false
	}

	bestIdx := Index(0)
	bestGap := math.MaxFloat64
	found := false

	for _, cand := range candidates {
		if frustumCandidates != nil && !frustumCandidates[cand] {
			continue
		}
		s := e.store.Get(cand)
		if !s.Valid() {
			continue
		}
		camPos := pose.ToCamera(s.Position)
		proj := e.intrinsics.Project(camPos)
		if !proj.InFrame || proj.U != sp.u || proj.V != sp.v {
			continue
		}
		gap := math.Abs(proj.Depth - sp.cam.Z)
		if gap < bestGap {
			bestGap = gap
			bestIdx = cand
			found = true
		}
	}

	if !found || bestGap >= e.cfg.DMax {
		return 0, false
	}
	return bestIdx, true
}

// updateSurfel implements the confidence-weighted running average of
// spec.md §4.4.3 step 4, including the voxel-clamp on the position
// update.
func (e *Engine) updateSurfel(idx Index, sp scanPoint) {
	s := e.store.Get(idx)
	k := float64(s.Confidence)

	newPos := r3.Scale(1/(k+1), r3.Add(r3.Scale(k, s.Position), sp.mapPos))
	if clamped, ok := e.clampToVoxel(s.Position, newPos); ok {
		s.Position = clamped
	}

	n := r3.Add(r3.Scale(k, s.Normal), sp.normMap)
	if norm := r3.Norm(n); norm > 0 {
		s.Normal = r3.Scale(1/norm, n)
	}

	s.Color = Color{
		R: blend8(s.Color.R, sp.color.R, k),
		G: blend8(s.Color.G, sp.color.G, k),
		B: blend8(s.Color.B, sp.color.B, k),
	}

	if sp.radius < s.Radius {
		s.Radius = sp.radius
	}
	s.Confidence++
}

// clampToVoxel keeps the index invariant intact: a mutated position
// must stay within the leaf voxel it was already filed under. If the
// unconstrained average falls outside that voxel, the position is
// clamped to the voxel boundary; if clamping would distort the result
// by more than half a voxel, ok is false and the caller skips the
// position update (normal, color, radius and confidence still update) (spec.md
// §4.4.3 step 4, §9 Open Question c).
func (e *Engine) clampToVoxel(oldPos, rawNewPos r3.Vec) (r3.Vec, bool) {
	if e.index.SameVoxel(oldPos, rawNewPos) {
		return rawNewPos, true
	}

	min, max := e.index.VoxelBounds(oldPos)
	eps := e.cfg.OctreeResolution * 1e-9
	clamped := r3.Vec{
		X: clampF(rawNewPos.X, min.X, max.X-eps),
		Y: clampF(rawNewPos.Y, min.Y, max.Y-eps),
		Z: clampF(rawNewPos.Z, min.Z, max.Z-eps),
	}
	distortion := r3.Norm(r3.Sub(clamped, rawNewPos))
	if distortion > e.cfg.OctreeResolution/2 {
		return r3.Vec{}, false
	}
	return clamped, true
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func blend8(old, new8 uint8, k float64) uint8 {
	v := (k*float64(old) + float64(new8)) / (k + 1)
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}

func (e *Engine) logIngest(kf Keyframe, res Result, err error) {
	e.frameSeq++
	if !e.cfg.Logging {
		return
	}
	fields := []Field{
		StringField("keyframe_id", kf.ID),
		IntField("considered", int64(res.PixelsConsidered)),
		IntField("fused", int64(res.PixelsFused)),
		IntField("matched", int64(res.Matched)),
		IntField("inserted", int64(res.Inserted)),
		IntField("store_len", int64(e.store.cursor)),
		IntField("index_len", int64(e.index.Len())),
	}
	if err != nil {
		fields = append(fields, StringField("error", err.Error()))
	}
	e.logger.Append(fields...)
}
