package storage

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
)

const (
	jpegQuality  = 95
	gifMaxColors = 256
)

// encodeImage пишет картинку родным кодеком для расширения бандла.
func encodeImage(w io.Writer, img image.Image, ext string) error {
	switch ext {
	case "jpg", "jpeg":
		// Одинаковые пиксели дают одинаковые байты независимо от типа картинки (YCbCr, RGBA, Gray).
		return jpeg.Encode(w, toRGBA(img), &jpeg.Options{Quality: jpegQuality})
	case "png":
		return png.Encode(w, img)
	case "gif":
		return gif.Encode(w, toPaletted(img), nil)
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported image extension %q", ext)
	}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

// toPaletted переводит картинку в палитровую без дизеринга.
// Если цветов не больше 256, палитра строится из точных цветов и пиксели не меняются;
// иначе берётся ближайший цвет из Plan9.
func toPaletted(img image.Image) *image.Paletted {
	if pm, ok := img.(*image.Paletted); ok && len(pm.Palette) > 0 && len(pm.Palette) <= gifMaxColors {
		return pm
	}

	pal := exactPalette(img, gifMaxColors)
	if pal == nil {
		pal = palette.Plan9
	}

	b := img.Bounds()
	pm := image.NewPaletted(b, pal)
	draw.Draw(pm, b, img, b.Min, draw.Src)
	return pm
}

// exactPalette собирает все цвета картинки; nil если их больше limit.
func exactPalette(img image.Image, limit int) color.Palette {
	seen := make(map[color.RGBA]struct{}, limit)
	var pal color.Palette

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if _, ok := seen[c]; ok {
				continue
			}
			if len(pal) == limit {
				return nil
			}
			seen[c] = struct{}{}
			pal = append(pal, c)
		}
	}
	return pal
}
