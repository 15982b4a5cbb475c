package surfel

import "gonum.org/v1/gonum/spatial/r3"

// Pixel is one entry of an organized RGB-D cloud: a 3D point in the
// sensor's camera frame plus its color. A non-finite Position denotes a
// missing-depth pixel (spec.md §3).
type Pixel struct {
	Position r3.Vec
	Color    Color
}

// Cloud is a dense W x H organized point cloud, row-major (spec.md §3,
// §9 "organized cloud as a 2D grid" design note).
type Cloud struct {
	Width, Height int
	Pixels        []Pixel // len == Width*Height, row-major: idx = v*Width + u
}

// At returns the pixel at (u,v).
func (c *Cloud) At(u, v int) Pixel {
	return c.Pixels[v*c.Width+u]
}

// NewCloud allocates an empty organized cloud of the given dimensions,
// every pixel initialized to the missing-depth sentinel.
func NewCloud(width, height int) *Cloud {
	pixels := make([]Pixel, width*height)
	for i := range pixels {
		pixels[i].Position = nonFiniteVec
	}
	return &Cloud{Width: width, Height: height, Pixels: pixels}
}

// Keyframe is a single registered RGB-D observation (spec.md §3, §6).
type Keyframe struct {
	ID    string
	Cloud *Cloud
	Pose  Pose
}

// Result summarizes one IngestKeyframe call for the caller and the
// logger.
type Result struct {
	PixelsConsidered int
	PixelsFused      int // pixels that survived filtering and were matched or inserted
	Matched          int
	Inserted         int
}
