package surfel

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func flatCloud(w, h int, z float64) *Cloud {
	c := NewCloud(w, h)
	for v := 0; v < h; v++ {
		for u := 0; u < w; u++ {
			c.Pixels[v*w+u] = Pixel{
				Position: r3.Vec{X: float64(u) * 0.01, Y: float64(v) * 0.01, Z: z},
				Color:    Color{R: 10, G: 20, B: 30},
			}
		}
	}
	return c
}

func TestNeighborNormalOutOfBounds(t *testing.T) {
	c := flatCloud(2, 2, 1.0)
	if _, ok := neighborNormal(c, 1, 1, 1); ok {
		t.Fatalf("neighborNormal() at bottom-right corner should be out of bounds")
	}
}

func TestNeighborNormalNonFiniteNeighbor(t *testing.T) {
	c := flatCloud(3, 3, 1.0)
	c.Pixels[1] = Pixel{Position: nonFiniteVec} // (u=1,v=0)
	if _, ok := neighborNormal(c, 0, 0, 1); ok {
		t.Fatalf("neighborNormal() with a non-finite neighbor should return ok=false")
	}
}

func TestNeighborNormalFrontalPlane(t *testing.T) {
	c := flatCloud(4, 4, 1.0)
	n, ok := neighborNormal(c, 0, 0, 1)
	if !ok {
		t.Fatalf("neighborNormal() ok=false for a well-formed flat patch")
	}
	if r3.Norm(n) == 0 {
		t.Fatalf("neighborNormal() returned a zero-length normal")
	}
}

func TestOrientToSensorFlipsAwayFacingNormal(t *testing.T) {
	p := r3.Vec{X: 0, Y: 0, Z: 2}
	n := r3.Vec{X: 0, Y: 0, Z: 1} // faces away from sensor (same side as p)
	oriented := orientToSensor(n, p)
	if oriented.Z >= 0 {
		t.Fatalf("orientToSensor() = %v, want z<0 (toward sensor)", oriented)
	}
}

func TestOrientToSensorLeavesSensorFacingNormal(t *testing.T) {
	p := r3.Vec{X: 0, Y: 0, Z: 2}
	n := r3.Vec{X: 0, Y: 0, Z: -1}
	oriented := orientToSensor(n, p)
	if oriented != n {
		t.Fatalf("orientToSensor() = %v, want unchanged %v", oriented, n)
	}
}

func TestPreprocessScanDropsGrazingAngle(t *testing.T) {
	// A surface edge-on to the camera: depth ramps with u at constant X, so
	// the estimated normal points mostly along X (n_z ~ 0), which is the
	// grazing-angle case step 3 of scan preprocessing rejects.
	c := NewCloud(4, 4)
	for v := 0; v < 4; v++ {
		for u := 0; u < 4; u++ {
			c.Pixels[v*4+u] = Pixel{Position: r3.Vec{X: 0, Y: float64(v) * 0.01, Z: 1.0 + float64(u)*0.5}}
		}
	}
	cfg := DefaultConfig()
	pose := Pose{Quaternion: Quaternion{W: 1}}
	in := Intrinsics{Width: 640, Height: 480, Alpha: 500, Beta: 500, Cx: 320, Cy: 240}
	scan := preprocessScan(c, pose, in, cfg)
	if len(scan) != 0 {
		t.Fatalf("preprocessScan() kept %d grazing-angle points, want 0", len(scan))
	}
}

func TestPreprocessScanKeepsFrontalPatch(t *testing.T) {
	c := flatCloud(6, 6, 1.5)
	cfg := DefaultConfig()
	pose := Pose{Quaternion: Quaternion{W: 1}}
	in := Intrinsics{Width: 640, Height: 480, Alpha: 500, Beta: 500, Cx: 320, Cy: 240}
	scan := preprocessScan(c, pose, in, cfg)
	if len(scan) == 0 {
		t.Fatalf("preprocessScan() kept 0 points for a well-formed frontal patch")
	}
	for _, sp := range scan {
		if sp.radius <= 0 {
			t.Fatalf("preprocessScan() produced non-positive radius %v", sp.radius)
		}
	}
}

func TestPreprocessScanDropsOutOfDepthRange(t *testing.T) {
	c := flatCloud(6, 6, 100.0) // far beyond MaxKinectDist
	cfg := DefaultConfig()
	pose := Pose{Quaternion: Quaternion{W: 1}}
	in := Intrinsics{Width: 640, Height: 480, Alpha: 500, Beta: 500, Cx: 320, Cy: 240}
	scan := preprocessScan(c, pose, in, cfg)
	if len(scan) != 0 {
		t.Fatalf("preprocessScan() kept %d out-of-range points, want 0", len(scan))
	}
}

func TestPreprocessScanSkipsMissingDepthPixels(t *testing.T) {
	c := flatCloud(4, 4, 1.5)
	c.Pixels[0].Position = nonFiniteVec
	cfg := DefaultConfig()
	pose := Pose{Quaternion: Quaternion{W: 1}}
	in := Intrinsics{Width: 640, Height: 480, Alpha: 500, Beta: 500, Cx: 320, Cy: 240}
	scan := preprocessScan(c, pose, in, cfg)
	for _, sp := range scan {
		if sp.u == 0 && sp.v == 0 {
			t.Fatalf("preprocessScan() kept the missing-depth pixel (0,0)")
		}
	}
}
