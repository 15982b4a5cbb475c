package surfel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// scanPoint is one pixel that survived scan preprocessing (spec.md
// §4.4.1), carrying everything fusion needs in both camera and map
// frame.
type scanPoint struct {
	u, v     int
	cam      r3.Vec // position in camera frame
	mapPos   r3.Vec // position in map frame
	normCam  r3.Vec // unit normal in camera frame, oriented toward the sensor
	normMap  r3.Vec // unit normal in map frame
	color    Color
	radius   float64
}

// neighborNormal estimates the surface normal at (u,v) via the cross
// product of vectors to the (u+k,v) and (u,v+k) neighbors (spec.md
// §4.4.1 step 1, k=1 per §9 Open Question b). Returns ok=false if either
// neighbor is out of bounds or has a non-finite position.
func neighborNormal(c *Cloud, u, v int, k int) (r3.Vec, bool) {
	if u+k >= c.Width || v+k >= c.Height {
		return r3.Vec{}, false
	}
	p := c.At(u, v).Position
	pu := c.At(u+k, v).Position
	pv := c.At(u, v+k).Position
	if !finite(p) || !finite(pu) || !finite(pv) {
		return r3.Vec{}, false
	}
	du := r3.Sub(pu, p)
	dv := r3.Sub(pv, p)
	n := r3.Cross(du, dv)
	norm := r3.Norm(n)
	if norm == 0 || math.IsNaN(norm) {
		return r3.Vec{}, false
	}
	return r3.Scale(1/norm, n), true
}

// orientToSensor flips n toward the sensor so that, in camera frame
// (sensor at the origin), n_z < 0 (spec.md §4.4.1 step 2).
func orientToSensor(n, p r3.Vec) r3.Vec {
	if r3.Dot(n, p) > 0 {
		return r3.Scale(-1, n)
	}
	return n
}

// preprocessScan runs steps 1-5 of spec.md §4.4.1 over every finite pixel
// of the cloud, against the given pose and intrinsics, and returns the
// pixels that survive every filter, row-major.
func preprocessScan(c *Cloud, pose Pose, in Intrinsics, cfg *Config) []scanPoint {
	out := make([]scanPoint, 0, len(c.Pixels))
	for v := 0; v < c.Height; v++ {
		for u := 0; u < c.Width; u++ {
			px := c.At(u, v)
			if !finite(px.Position) {
				continue
			}
			n, ok := neighborNormal(c, u, v, 1)
			if !ok {
				continue // non-finite normal: drop (step 1)
			}
			n = orientToSensor(n, px.Position) // step 2
			if math.Abs(n.Z) < cfg.MinScanZNormal {
				continue // step 3: grazing-angle rejection
			}
			depth := px.Position.Z
			if depth < cfg.MinKinectDist || depth > cfg.MaxKinectDist {
				continue // step 4: depth filter
			}
			radius := depth * math.Sqrt2 / (in.Alpha * math.Abs(n.Z)) // step 5

			sp := scanPoint{
				u: u, v: v,
				cam:     px.Position,
				mapPos:  pose.ToMap(px.Position),
				normCam: n,
				normMap: pose.Quaternion.Rotate(n),
				color:   px.Color,
				radius:  radius,
			}
			out = append(out, sp)
		}
	}
	return out
}
