package annotate

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// fillRect blends c over the rectangle at the given alpha (0..255).
func fillRect(canvas *image.RGBA, r image.Rectangle, c color.RGBA, alpha uint8) {
	r = r.Intersect(canvas.Bounds())
	a := uint32(alpha)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			blendPixel(canvas, x, y, c, a)
		}
	}
}

func blendPixel(canvas *image.RGBA, x, y int, c color.RGBA, a uint32) {
	i := canvas.PixOffset(x, y)
	px := canvas.Pix[i : i+4 : i+4]
	px[0] = uint8((uint32(c.R)*a + uint32(px[0])*(255-a)) / 255)
	px[1] = uint8((uint32(c.G)*a + uint32(px[1])*(255-a)) / 255)
	px[2] = uint8((uint32(c.B)*a + uint32(px[2])*(255-a)) / 255)
	px[3] = 255
}

// strokeRect draws a solid border of the given thickness just inside r.
func strokeRect(canvas *image.RGBA, r image.Rectangle, c color.RGBA, thickness int) {
	for t := 0; t < thickness; t++ {
		edge := r.Inset(t)
		if edge.Empty() {
			return
		}
		for x := edge.Min.X; x < edge.Max.X; x++ {
			setPixel(canvas, x, edge.Min.Y, c)
			setPixel(canvas, x, edge.Max.Y-1, c)
		}
		for y := edge.Min.Y; y < edge.Max.Y; y++ {
			setPixel(canvas, edge.Min.X, y, c)
			setPixel(canvas, edge.Max.X-1, y, c)
		}
	}
}

// drawLine stamps filled discs along the segment, which gives thick lines
// with round joins without any geometry math.
func drawLine(canvas *image.RGBA, a, b image.Point, c color.RGBA, thickness int) {
	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)
	steps := max(dx, dy)
	if steps == 0 {
		fillCircle(canvas, a, thickness/2, c)
		return
	}
	for i := 0; i <= steps; i++ {
		x := a.X + (b.X-a.X)*i/steps
		y := a.Y + (b.Y-a.Y)*i/steps
		fillCircle(canvas, image.Pt(x, y), thickness/2, c)
	}
}

func fillCircle(canvas *image.RGBA, center image.Point, radius int, c color.RGBA) {
	if radius < 1 {
		setPixel(canvas, center.X, center.Y, c)
		return
	}
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				setPixel(canvas, center.X+dx, center.Y+dy, c)
			}
		}
	}
}

func setPixel(canvas *image.RGBA, x, y int, c color.RGBA) {
	if !image.Pt(x, y).In(canvas.Bounds()) {
		return
	}
	canvas.SetRGBA(x, y, c)
}

// drawLabel renders text at the baseline point, clamped into the canvas so
// labels on boxes near the top edge stay visible.
func drawLabel(canvas *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	if y < face.Ascent {
		y = face.Ascent
	}
	if x < 0 {
		x = 0
	}
	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
