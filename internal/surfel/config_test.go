package surfel

import "testing"

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		cfg  *Config
	}{
		{"zero DMax", DefaultConfig().WithDMax(0)},
		{"negative DMax", DefaultConfig().WithDMax(-1)},
		{"negative MinKinectDist", DefaultConfig().WithKinectRange(-1, 4)},
		{"MaxKinectDist below MinKinectDist", DefaultConfig().WithKinectRange(3, 2)},
		{"zero OctreeResolution", DefaultConfig().WithOctreeResolution(0)},
		{"zero PreviewResolution", DefaultConfig().WithPreviewResolution(0)},
		{"zero PreviewColorSamplesInVoxel", DefaultConfig().WithPreviewColorSamples(0)},
		{"zero SceneSize", DefaultConfig().WithSceneSize(0)},
		{"MinScanZNormal above 1", DefaultConfig().WithMinScanZNormal(1.5)},
		{"MinScanZNormal below 0", DefaultConfig().WithMinScanZNormal(-0.1)},
		{"negative ConfidenceThreshold", DefaultConfig().WithConfidenceThreshold(-1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Fatalf("Validate() = nil, want error")
			}
		})
	}
}

func TestConfigWithSettersAreFluentAndIndependent(t *testing.T) {
	cfg := DefaultConfig().
		WithDMax(0.01).
		WithKinectRange(0.5, 5).
		WithOctreeResolution(0.1).
		WithUseUpdate(false).
		WithLogging(false)

	if cfg.DMax != 0.01 || cfg.MinKinectDist != 0.5 || cfg.MaxKinectDist != 5 ||
		cfg.OctreeResolution != 0.1 || cfg.UseUpdate || cfg.Logging {
		t.Fatalf("fluent setters did not apply: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() after setters = %v, want nil", err)
	}
}

func TestConfigWithPreviewEmitStrideRejectsNonPositive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreviewEmitStride = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() with PreviewEmitStride=0 = nil, want error")
	}
}
