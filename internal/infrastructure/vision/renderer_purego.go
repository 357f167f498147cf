//go:build !gocv
// +build !gocv

package vision

import (
	"errors"
	"image"
	"math"

	"github.com/fogleman/gg"

	"ui2html/internal/domain/entity"
)

// Grayscale переводит кадр в оттенки серого.
func (r *Renderer) Grayscale(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, errors.New("empty image")
	}
	return toGray(img), nil
}

// DetectEdges запускает Canny по серой версии кадра.
func (r *Renderer) DetectEdges(img image.Image) ([]entity.EdgePoint, error) {
	if img == nil {
		return nil, errors.New("empty image")
	}
	return canny(toGray(img), r.cfg.LowThreshold, r.cfg.HighThreshold), nil
}

// RenderOverlay рисует внешние контуры из точек границ поверх копии кадра.
// Вложенные компоненты не рисуются.
func (r *Renderer) RenderOverlay(img image.Image, points []entity.EdgePoint) (image.Image, error) {
	if img == nil {
		return nil, errors.New("empty image")
	}

	canvas := copyRGBA(img)
	if len(points) == 0 {
		return canvas, nil
	}

	thickness := float64(r.cfg.Thickness)
	if thickness < 1 {
		thickness = 1
	}
	half := math.Floor(thickness / 2)

	dc := gg.NewContextForRGBA(canvas)
	dc.SetColor(r.cfg.Highlight)
	b := canvas.Bounds()
	for _, contour := range externalContours(traceContours(points, b.Dx(), b.Dy())) {
		for _, p := range contour {
			dc.DrawRectangle(float64(p.X)-half, float64(p.Y)-half, thickness, thickness)
		}
		dc.Fill()
	}

	return canvas, nil
}
