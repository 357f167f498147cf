package vision

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// screenshotImage белый фон с чёрным прямоугольником (50,30)-(150,90)
func screenshotImage() *image.RGBA {
	img := uniformImage(200, 120, color.White)
	draw.Draw(img, image.Rect(50, 30, 150, 90), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shot.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func samePixels(t *testing.T, a, b image.Image) {
	t.Helper()
	require.Equal(t, a.Bounds().Size(), b.Bounds().Size())
	for y := 0; y < a.Bounds().Dy(); y++ {
		for x := 0; x < a.Bounds().Dx(); x++ {
			ar, ag, ab, aa := a.At(a.Bounds().Min.X+x, a.Bounds().Min.Y+y).RGBA()
			br, bg, bb, ba := b.At(b.Bounds().Min.X+x, b.Bounds().Min.Y+y).RGBA()
			require.Equal(t, [4]uint32{ar, ag, ab, aa}, [4]uint32{br, bg, bb, ba}, "pixel %d,%d", x, y)
		}
	}
}

func isHighlight(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return g>>8 > 200 && r>>8 < 60 && b>>8 < 60
}
