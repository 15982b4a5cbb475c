package surfel

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestGetAllIndicesExcludesInvalidSurfels(t *testing.T) {
	eng, err := NewEngine(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	if err := eng.SetIntrinsics(testIntrinsics()); err != nil {
		t.Fatalf("SetIntrinsics() error: %v", err)
	}
	if _, err := eng.IngestKeyframe(Keyframe{ID: "k0", Cloud: singlePixelCloud(1.5, Color{}), Pose: identityPose()}); err != nil {
		t.Fatalf("IngestKeyframe() error: %v", err)
	}
	before := eng.GetAllIndices()
	if len(before) == 0 {
		t.Fatalf("GetAllIndices() = empty after a successful ingest")
	}

	eng.store.MarkInvalid(before[0])
	after := eng.GetAllIndices()
	for _, idx := range after {
		if idx == before[0] {
			t.Fatalf("GetAllIndices() included an index marked invalid in the store")
		}
	}
}

func TestSurfelAccessorReturnsACopy(t *testing.T) {
	eng, err := NewEngine(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	if err := eng.SetIntrinsics(testIntrinsics()); err != nil {
		t.Fatalf("SetIntrinsics() error: %v", err)
	}
	if _, err := eng.IngestKeyframe(Keyframe{ID: "k0", Cloud: singlePixelCloud(1.5, Color{}), Pose: identityPose()}); err != nil {
		t.Fatalf("IngestKeyframe() error: %v", err)
	}
	idx := eng.GetAllIndices()[0]
	copy1 := eng.Surfel(idx)
	copy1.Position = r3.Vec{X: 999, Y: 999, Z: 999}

	if live := eng.Surfel(idx); live.Position == copy1.Position {
		t.Fatalf("mutating a Surfel() copy affected the stored surfel")
	}
}

func TestLenReportsCapacity(t *testing.T) {
	eng, err := NewEngine(DefaultConfig().WithSceneSize(42), nil)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	if eng.Len() != 42 {
		t.Fatalf("Len() = %d, want 42", eng.Len())
	}
}
