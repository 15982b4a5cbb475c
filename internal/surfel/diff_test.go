package surfel

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"
)

// vecEqual is a NaN-aware cmp.Comparer for r3.Vec. Invalid surfels carry
// the non-finite sentinel position (nonFiniteVec); plain float equality
// (and so cmp's default comparison) reports two such positions as
// different, since NaN != NaN, even when both records mean "invalidated".
func vecEqual(a, b r3.Vec) bool {
	if isNaNVec(a) && isNaNVec(b) {
		return true
	}
	return a == b
}

func isNaNVec(v r3.Vec) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}

func TestSurfelDiffTreatsNaNPositionsAsEqual(t *testing.T) {
	eng, err := NewEngine(DefaultConfig().WithUseFrustum(false), nil)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	if err := eng.SetIntrinsics(testIntrinsics()); err != nil {
		t.Fatalf("SetIntrinsics() error: %v", err)
	}
	if _, err := eng.IngestKeyframe(Keyframe{ID: "k0", Cloud: singlePixelCloud(1.5, Color{R: 10, G: 20, B: 30}), Pose: identityPose()}); err != nil {
		t.Fatalf("IngestKeyframe() error: %v", err)
	}

	idx := eng.GetAllIndices()[0]
	eng.store.MarkInvalid(idx)
	invalidated := eng.Surfel(idx)

	// An independently constructed record describing the same
	// invalidated surfel: same confidence/normal/color/radius, but its
	// own non-finite position value.
	other := invalidated
	other.Position = r3.Vec{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}

	if diff := cmp.Diff(invalidated, other, cmp.Comparer(vecEqual)); diff != "" {
		t.Fatalf("cmp.Diff() with NaN-aware comparer = %s, want no diff between two invalidated records", diff)
	}

	// Without the comparer, cmp reports NaN positions as different: this
	// is the exact failure mode plain equality (and testify's
	// ObjectsAreEqual) hits on invalidated surfel records.
	if diff := cmp.Diff(invalidated, other); diff == "" {
		t.Fatalf("cmp.Diff() without a NaN-aware comparer unexpectedly found no diff; NaN positions should differ under default comparison")
	}
}

func TestSurfelDiffCatchesRealDivergence(t *testing.T) {
	a := Surfel{Position: r3.Vec{X: 1, Y: 2, Z: 3}, Confidence: 2}
	b := Surfel{Position: r3.Vec{X: 1, Y: 2, Z: 3}, Confidence: 3}

	if diff := cmp.Diff(a, b, cmp.Comparer(vecEqual)); diff == "" {
		t.Fatalf("cmp.Diff() found no difference between surfels with different Confidence")
	}
}
