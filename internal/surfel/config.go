package surfel

import "fmt"

// Config holds the tunables recognized by the fusion engine (spec.md §6).
// Construct one with DefaultConfig and adjust with the With* setters
// before passing it to NewEngine.
type Config struct {
	// DMax is the depth tolerance (meters) for a pixel-surfel match.
	DMax float64
	// MinKinectDist rejects scan points closer than this (meters).
	MinKinectDist float64
	// MaxKinectDist rejects scan points farther than this (meters).
	MaxKinectDist float64
	// OctreeResolution is the spatial index leaf size (meters).
	OctreeResolution float64
	// PreviewResolution is the preview voxel size (meters).
	PreviewResolution float64
	// PreviewColorSamplesInVoxel caps how many reliable surfels are
	// averaged per preview voxel.
	PreviewColorSamplesInVoxel int
	// PreviewEmitStride throttles preview marker emission: 1 emits every
	// occupied voxel, N emits every Nth in enumeration order. Visualization
	// only; never affects fusion state (spec.md §9 Open Question a).
	PreviewEmitStride int
	// ConfidenceThreshold is C*: c >= C* marks a surfel reliable.
	ConfidenceThreshold int
	// MinScanZNormal rejects grazing-angle pixels (|n_z| below this).
	MinScanZNormal float64
	// UseFrustum enables the frustum pre-pass candidate filter.
	UseFrustum bool
	// SceneSize is the surfel store capacity (N_max).
	SceneSize int
	// Logging enables the structured per-frame logger.
	Logging bool
	// UseUpdate enables update-or-insert; when false every valid pixel
	// inserts a new surfel.
	UseUpdate bool
}

// DefaultConfig returns the defaults from spec.md §6.
func DefaultConfig() *Config {
	return &Config{
		DMax:                       0.005,
		MinKinectDist:              0.8,
		MaxKinectDist:              4.0,
		OctreeResolution:           0.2,
		PreviewResolution:          0.2,
		PreviewColorSamplesInVoxel: 3,
		PreviewEmitStride:          1,
		ConfidenceThreshold:        5,
		MinScanZNormal:             0.2,
		UseFrustum:                 true,
		SceneSize:                  30_000_000,
		Logging:                    true,
		UseUpdate:                  true,
	}
}

// Validate rejects out-of-range configuration before it reaches the
// engine.
func (c *Config) Validate() error {
	if c.DMax <= 0 {
		return fmt.Errorf("DMax must be positive, got %f", c.DMax)
	}
	if c.MinKinectDist < 0 {
		return fmt.Errorf("MinKinectDist must be non-negative, got %f", c.MinKinectDist)
	}
	if c.MaxKinectDist <= c.MinKinectDist {
		return fmt.Errorf("MaxKinectDist (%f) must exceed MinKinectDist (%f)", c.MaxKinectDist, c.MinKinectDist)
	}
	if c.OctreeResolution <= 0 {
		return fmt.Errorf("OctreeResolution must be positive, got %f", c.OctreeResolution)
	}
	if c.PreviewResolution <= 0 {
		return fmt.Errorf("PreviewResolution must be positive, got %f", c.PreviewResolution)
	}
	if c.PreviewColorSamplesInVoxel <= 0 {
		return fmt.Errorf("PreviewColorSamplesInVoxel must be positive, got %d", c.PreviewColorSamplesInVoxel)
	}
	if c.PreviewEmitStride <= 0 {
		return fmt.Errorf("PreviewEmitStride must be positive, got %d", c.PreviewEmitStride)
	}
	if c.ConfidenceThreshold < 0 {
		return fmt.Errorf("ConfidenceThreshold must be non-negative, got %d", c.ConfidenceThreshold)
	}
	if c.MinScanZNormal < 0 || c.MinScanZNormal > 1 {
		return fmt.Errorf("MinScanZNormal must be in [0, 1], got %f", c.MinScanZNormal)
	}
	if c.SceneSize <= 0 {
		return fmt.Errorf("SceneSize must be positive, got %d", c.SceneSize)
	}
	return nil
}

// WithDMax sets the depth-match tolerance.
func (c *Config) WithDMax(d float64) *Config { c.DMax = d; return c }

// WithKinectRange sets the accepted depth range.
func (c *Config) WithKinectRange(min, max float64) *Config {
	c.MinKinectDist, c.MaxKinectDist = min, max
	return c
}

// WithOctreeResolution sets the spatial index leaf size.
func (c *Config) WithOctreeResolution(r float64) *Config { c.OctreeResolution = r; return c }

// WithPreviewResolution sets the preview voxel size.
func (c *Config) WithPreviewResolution(r float64) *Config { c.PreviewResolution = r; return c }

// WithPreviewColorSamples sets how many reliable surfels are averaged
// per preview voxel.
func (c *Config) WithPreviewColorSamples(n int) *Config { c.PreviewColorSamplesInVoxel = n; return c }

// WithConfidenceThreshold sets C*.
func (c *Config) WithConfidenceThreshold(n int) *Config { c.ConfidenceThreshold = n; return c }

// WithMinScanZNormal sets the grazing-angle rejection threshold.
func (c *Config) WithMinScanZNormal(v float64) *Config { c.MinScanZNormal = v; return c }

// WithUseFrustum toggles the frustum pre-pass.
func (c *Config) WithUseFrustum(enabled bool) *Config { c.UseFrustum = enabled; return c }

// WithSceneSize sets the store capacity.
func (c *Config) WithSceneSize(n int) *Config { c.SceneSize = n; return c }

// WithLogging toggles the structured logger.
func (c *Config) WithLogging(enabled bool) *Config { c.Logging = enabled; return c }

// WithUseUpdate toggles update-or-insert vs. insert-only mode.
func (c *Config) WithUseUpdate(enabled bool) *Config { c.UseUpdate = enabled; return c }
