package annotate

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/geometry"
	"github.com/YasiruDEX/Robobrain-2.0/pkg/task"
)

func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{30, 30, 30, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompositeMixedLayers(t *testing.T) {
	base := testImage(t, 200, 150)

	out, err := Composite(base, []Layer{
		{Step: 0, Task: task.KindGrounding, Geometry: geometry.Geometry{
			Boxes: []geometry.Box{{X1: 20, Y1: 20, X2: 90, Y2: 80}},
		}},
		{Step: 1, Task: task.KindPointing, Geometry: geometry.Geometry{
			Points: []geometry.Point{{X: 150, Y: 100}},
		}},
		{Step: 2, Task: task.KindTrajectory, Geometry: geometry.Geometry{
			Paths: []geometry.Path{{{X: 10, Y: 140}, {X: 100, Y: 120}, {X: 190, Y: 130}}},
		}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, base, out)

	// A single output image carries annotations from every layer.
	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	assert.True(t, isStepColor(img, 20, 50, 0), "box border missing")
	assert.True(t, isStepColor(img, 144, 100, 1), "point marker missing")
	assert.True(t, isStepColor(img, 55, 130, 2) || isWhite(img, 55, 131), "trajectory stroke missing")
}

func TestCompositeOutOfBoundsGeometry(t *testing.T) {
	base := testImage(t, 50, 50)

	out, err := Composite(base, []Layer{
		{Step: 0, Task: task.KindGrounding, Geometry: geometry.Geometry{
			Boxes: []geometry.Box{{X1: -20, Y1: -20, X2: 500, Y2: 500}},
		}},
		{Step: 1, Task: task.KindPointing, Geometry: geometry.Geometry{
			Points: []geometry.Point{{X: -5, Y: 200}},
		}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestCompositeUndecodableBase(t *testing.T) {
	base := []byte("not an image")
	out, err := Composite(base, []Layer{
		{Step: 0, Task: task.KindPointing, Geometry: geometry.Geometry{
			Points: []geometry.Point{{X: 1, Y: 1}},
		}},
	})
	assert.Error(t, err)
	assert.Equal(t, base, out, "undecodable base must come back unchanged")
}

func TestCompositeNoLayers(t *testing.T) {
	base := testImage(t, 10, 10)
	out, err := Composite(base, nil)
	require.NoError(t, err)
	// Re-encoded but drawable surface untouched.
	_, _, err = image.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
}

// isStepColor reports whether the pixel is visibly closer to the step's
// palette color than to the dark background, tolerating JPEG artifacts.
func isStepColor(img image.Image, x, y, step int) bool {
	want := stepColor(step)
	r, g, b, _ := img.At(x, y).RGBA()
	dr := int(r>>8) - int(want.R)
	dg := int(g>>8) - int(want.G)
	db := int(b>>8) - int(want.B)
	return dr*dr+dg*dg+db*db < 90*90
}

func isWhite(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r>>8 > 200 && g>>8 > 200 && b>>8 > 200
}
