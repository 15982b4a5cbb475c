// Command surfelviz is a small dev tool for eyeballing a surfel map: it
// replays a synthetic keyframe sweep through an Engine and renders the
// resulting preview cloud two ways, an interactive scatter (go-echarts)
// and a static confidence histogram (gonum/plot). It has no bearing on
// the fusion engine's behavior and is not part of its public surface.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/surfelmap/core/internal/surfel"
)

func main() {
	outHTML := flag.String("out-html", "surfelviz.html", "output path for the interactive scatter page")
	outPNG := flag.String("out-png", "surfelviz-confidence.png", "output path for the confidence histogram")
	frames := flag.Int("frames", 12, "number of synthetic keyframes to sweep through the engine")
	sceneSize := flag.Int("scene-size", 50_000, "engine scene_size (arena capacity)")
	flag.Parse()

	cfg := surfel.DefaultConfig().WithSceneSize(*sceneSize)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "surfelviz: invalid config: %v\n", err)
		os.Exit(1)
	}

	eng, err := surfel.NewEngine(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "surfelviz: new engine: %v\n", err)
		os.Exit(1)
	}
	if err := eng.SetIntrinsics(demoIntrinsics()); err != nil {
		fmt.Fprintf(os.Stderr, "surfelviz: set intrinsics: %v\n", err)
		os.Exit(1)
	}

	for f := 0; f < *frames; f++ {
		kf := syntheticKeyframe(f)
		if _, err := eng.IngestKeyframe(kf); err != nil {
			fmt.Fprintf(os.Stderr, "surfelviz: ingest frame %d: %v\n", f, err)
			os.Exit(1)
		}
	}

	preview := eng.GeneratePreview()
	if err := writeScatterHTML(preview, *outHTML); err != nil {
		fmt.Fprintf(os.Stderr, "surfelviz: scatter: %v\n", err)
		os.Exit(1)
	}
	if err := writeConfidenceHistogram(eng, *outPNG); err != nil {
		fmt.Fprintf(os.Stderr, "surfelviz: histogram: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("surfelviz: %d preview points -> %s, confidence histogram -> %s\n", len(preview), *outHTML, *outPNG)
}

// demoIntrinsics is a plausible VGA-ish depth camera model, close enough
// to real hardware to keep the frustum/projection math well-conditioned.
func demoIntrinsics() surfel.Intrinsics {
	return surfel.Intrinsics{
		Width: 640, Height: 480,
		Alpha: 525, Beta: 525,
		Cx: 319.5, Cy: 239.5,
	}
}

// syntheticKeyframe builds a small patch of range data, the same in
// camera frame every frame, seen from a camera that steps 2 cm back along
// its optical axis per frame. That step is wider than the default DMax,
// so each frame inserts new surfels and none of the earlier ones are
// updated; with the default ConfidenceThreshold the preview has no points.
func syntheticKeyframe(frame int) surfel.Keyframe {
	const w, h = 64, 48
	cloud := surfel.NewCloud(w, h)
	for v := 0; v < h; v++ {
		for u := 0; u < w; u++ {
			depth := 1.5 + 0.05*math.Sin(float64(u)/6) + 0.05*math.Cos(float64(v)/6)
			cloud.Pixels[v*w+u] = surfel.Pixel{
				Position: r3.Vec{X: (float64(u) - 319.5) * depth / 525, Y: (float64(v) - 239.5) * depth / 525, Z: depth},
				Color:    surfel.Color{R: 180, G: 180, B: 180},
			}
		}
	}
	pose := surfel.Pose{
		Origin:     r3.Vec{X: 0, Y: 0, Z: -float64(frame) * 0.02},
		Quaternion: surfel.Quaternion{W: 1},
	}
	return surfel.Keyframe{ID: fmt.Sprintf("demo-%03d", frame), Cloud: cloud, Pose: pose}
}

func writeScatterHTML(points []surfel.PreviewPoint, path string) error {
	data := make([]opts.Scatter3DData, 0, len(points))
	for _, p := range points {
		data = append(data, opts.Scatter3DData{Value: []interface{}{p.Position.X, p.Position.Y, p.Position.Z}})
	}

	chart := charts.NewScatter3D()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Surfel Preview", Theme: "dark", Width: "1000px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{Title: "Surfel Preview Cloud", Subtitle: fmt.Sprintf("points=%d", len(data))}),
	)
	chart.AddSeries("preview", data)

	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeConfidenceHistogram(eng *surfel.Engine, path string) error {
	indices := eng.GetAllIndices()
	vals := make(plotter.Values, 0, len(indices))
	for _, idx := range indices {
		vals = append(vals, float64(eng.Surfel(idx).Confidence))
	}

	p := plot.New()
	p.Title.Text = "Surfel Confidence Distribution"
	p.X.Label.Text = "confidence (observation count)"
	p.Y.Label.Text = "surfels"

	if len(vals) > 0 {
		hist, err := plotter.NewHist(vals, 16)
		if err != nil {
			return fmt.Errorf("histogram: %w", err)
		}
		p.Add(hist)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
