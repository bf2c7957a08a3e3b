// Package annotate rasterizes extracted geometry onto a base image.
//
// Invariants:
// - One composite call draws the union of every layer onto a single copy
//   of the base image; the input bytes are never mutated.
// - Z-order is fixed: boxes, then trajectories, then points.
// - An undecodable base image is returned unchanged (soft failure).
//
// Compositing is not idempotent: feeding a composite back in doubles the
// markers. Callers composite once per run, against the untouched original.
package annotate

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/geometry"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/task"
)

// jpegQuality is the fixed encode quality for composite output.
const jpegQuality = 85

// Layer is the geometry one pipeline step contributed, tagged with its
// step index so every step gets a distinct color and label.
type Layer struct {
	Step     int
	Task     task.Kind
	Geometry geometry.Geometry
}

// Step color palette, cycled by step index.
var palette = []color.RGBA{
	{0, 200, 83, 255},   // green
	{213, 0, 0, 255},    // red
	{41, 98, 255, 255},  // blue
	{255, 196, 0, 255},  // amber
	{213, 0, 213, 255},  // magenta
}

func stepColor(step int) color.RGBA {
	return palette[step%len(palette)]
}

// Composite draws every layer onto a copy of base and re-encodes it as
// JPEG. If base cannot be decoded it is returned as-is together with the
// decode error; callers treat that as a soft failure.
func Composite(base []byte, layers []Layer) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(base))
	if err != nil {
		return base, fmt.Errorf("decode base image: %w", err)
	}

	canvas := image.NewRGBA(src.Bounds())
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)

	for _, l := range layers {
		drawBoxes(canvas, l)
	}
	for _, l := range layers {
		drawPaths(canvas, l)
	}
	for _, l := range layers {
		drawPoints(canvas, l)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return base, fmt.Errorf("encode composite: %w", err)
	}
	return out.Bytes(), nil
}

func drawBoxes(canvas *image.RGBA, l Layer) {
	c := stepColor(l.Step)
	for i, b := range l.Geometry.Boxes {
		r := image.Rect(b.X1, b.Y1, b.X2, b.Y2).Canon()
		fillRect(canvas, r, c, 48)
		strokeRect(canvas, r, c, 3)
		drawLabel(canvas, r.Min.X+4, r.Min.Y-6, fmt.Sprintf("%d %s", i+1, l.Task), c)
	}
}

func drawPaths(canvas *image.RGBA, l Layer) {
	c := stepColor(l.Step)
	white := color.RGBA{255, 255, 255, 255}
	for _, path := range l.Geometry.Paths {
		pts := make([]image.Point, len(path))
		for i, p := range path {
			pts[i] = image.Pt(p.X, p.Y)
		}
		// Wide white underlay keeps the path readable on any background,
		// the colored overlay goes on top.
		for i := 0; i+1 < len(pts); i++ {
			drawLine(canvas, pts[i], pts[i+1], white, 7)
		}
		for i := 0; i+1 < len(pts); i++ {
			drawLine(canvas, pts[i], pts[i+1], c, 3)
		}
		for i, pt := range pts {
			switch i {
			case 0:
				// Start: hollow ring.
				fillCircle(canvas, pt, 9, white)
				fillCircle(canvas, pt, 6, c)
			case len(pts) - 1:
				// End: large solid marker.
				fillCircle(canvas, pt, 10, c)
				fillCircle(canvas, pt, 4, white)
			default:
				fillCircle(canvas, pt, 5, c)
			}
			drawLabel(canvas, pt.X+10, pt.Y-8, fmt.Sprintf("%d", i+1), white)
		}
	}
}

func drawPoints(canvas *image.RGBA, l Layer) {
	c := stepColor(l.Step)
	for i, p := range l.Geometry.Points {
		pt := image.Pt(p.X, p.Y)
		fillCircle(canvas, pt, 8, c)
		fillCircle(canvas, pt, 3, color.RGBA{255, 255, 255, 255})
		drawLabel(canvas, p.X+12, p.Y+4, fmt.Sprintf("%d", i+1), c)
	}
}
