// Package surfel implements the surfel mapping core: fusion of registered
// RGB-D keyframes into a persistent map of oriented disks held in a
// spatial index.
package surfel

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Quaternion is a unit quaternion (w,x,y,z) describing a sensor
// orientation in the map frame.
type Quaternion struct {
	W, X, Y, Z float64
}

// Norm returns the quaternion's Euclidean norm.
func (q Quaternion) Norm() float64 {
	return quat.Abs(quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z})
}

// IsUnit reports whether q is normalized within tol.
func (q Quaternion) IsUnit(tol float64) bool {
	return math.Abs(q.Norm()-1) <= tol
}

// Rotate applies q's rotation to v: q . v . q^-1, using the standard
// pure-quaternion sandwich product. q must be unit (conj == inverse).
func (q Quaternion) Rotate(v r3.Vec) r3.Vec {
	qq := quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	res := quat.Mul(quat.Mul(qq, p), quat.Conj(qq))
	return r3.Vec{X: res.Imag, Y: res.Jmag, Z: res.Kmag}
}

// Conj returns the quaternion conjugate, which is the inverse rotation
// for a unit quaternion.
func (q Quaternion) Conj() Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Pose is a sensor pose in the map frame: origin plus a unit orientation.
type Pose struct {
	Origin     r3.Vec
	Quaternion Quaternion
}

// ToCamera transforms a point from map frame into this pose's camera
// frame: p_cam = q^-1 . (p_map - origin).
func (p Pose) ToCamera(pMap r3.Vec) r3.Vec {
	return p.Quaternion.Conj().Rotate(r3.Sub(pMap, p.Origin))
}

// ToMap transforms a point from this pose's camera frame into the map
// frame: p_map = origin + q . p_cam.
func (p Pose) ToMap(pCam r3.Vec) r3.Vec {
	return r3.Add(p.Origin, p.Quaternion.Rotate(pCam))
}

// Intrinsics is a pinhole camera model (spec.md §4.1).
type Intrinsics struct {
	Alpha, Beta float64 // focal lengths
	Cx, Cy      float64 // principal point
	Width       int
	Height      int
}

// Valid reports whether the intrinsics are usable: positive focal
// lengths and a positive frame size.
func (in Intrinsics) Valid() bool {
	return in.Alpha > 0 && in.Beta > 0 && in.Width > 0 && in.Height > 0
}

// Projection is the result of projecting a camera-frame point onto the
// image plane.
type Projection struct {
	U, V    int
	Depth   float64
	InFrame bool
}

// Project maps a camera-frame point to pixel coordinates, per spec.md
// §4.1. InFrame is false when p.Z <= 0 or the pixel falls outside
// [0,W)x[0,H).
func (in Intrinsics) Project(p r3.Vec) Projection {
	if p.Z <= 0 {
		return Projection{Depth: p.Z}
	}
	u := in.Alpha*p.X/p.Z + in.Cx
	v := in.Beta*p.Y/p.Z + in.Cy
	ui, vi := int(math.Floor(u+0.5)), int(math.Floor(v+0.5))
	proj := Projection{U: ui, V: vi, Depth: p.Z}
	proj.InFrame = ui >= 0 && ui < in.Width && vi >= 0 && vi < in.Height
	return proj
}

// Unproject maps a pixel plus depth back to a camera-frame point
// (inverse of Project).
func (in Intrinsics) Unproject(u, v int, depth float64) r3.Vec {
	x := (float64(u) - in.Cx) * depth / in.Alpha
	y := (float64(v) - in.Cy) * depth / in.Beta
	return r3.Vec{X: x, Y: y, Z: depth}
}

// InFrustum implements the frustum test from spec.md §4.1: a
// camera-frame point is accepted iff its projection is in-frame and its
// depth lies within [minD, maxD].
func (in Intrinsics) InFrustum(p r3.Vec, minD, maxD float64) bool {
	if p.Z < minD || p.Z > maxD {
		return false
	}
	return in.Project(p).InFrame
}

// finite reports whether all three components are finite (non-NaN,
// non-Inf). Used throughout to detect the sentinel "missing" position.
func finite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// nonFiniteVec is the sentinel used to mark an invalid surfel position.
var nonFiniteVec = r3.Vec{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
