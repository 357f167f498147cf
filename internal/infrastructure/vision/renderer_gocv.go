//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"image"

	"gocv.io/x/gocv"

	"ui2html/internal/domain/entity"
)

// Grayscale переводит кадр в оттенки серого.
func (r *Renderer) Grayscale(img image.Image) (image.Image, error) {
	mat, err := toMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	return gray.ToImage()
}

// DetectEdges запускает Canny по серой версии кадра и собирает ненулевые пиксели.
func (r *Renderer) DetectEdges(img image.Image) ([]entity.EdgePoint, error) {
	mat, err := toMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, r.cfg.LowThreshold, r.cfg.HighThreshold)

	var points []entity.EdgePoint
	for y := 0; y < edges.Rows(); y++ {
		for x := 0; x < edges.Cols(); x++ {
			if edges.GetUCharAt(y, x) != 0 {
				points = append(points, entity.EdgePoint{X: x, Y: y})
			}
		}
	}
	return points, nil
}

// RenderOverlay восстанавливает маску границ из точек, находит внешние контуры
// и рисует их поверх копии кадра.
func (r *Renderer) RenderOverlay(img image.Image, points []entity.EdgePoint) (image.Image, error) {
	mat, err := toMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if len(points) > 0 {
		mask := gocv.Zeros(mat.Rows(), mat.Cols(), gocv.MatTypeCV8U)
		defer mask.Close()
		for _, p := range points {
			if p.X < 0 || p.Y < 0 || p.X >= mat.Cols() || p.Y >= mat.Rows() {
				continue
			}
			mask.SetUCharAt(p.Y, p.X, 255)
		}

		contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
		defer contours.Close()
		gocv.DrawContours(&mat, contours, -1, r.cfg.Highlight, r.cfg.Thickness)
	}

	return mat.ToImage()
}

// toMat превращает image.Image в BGR gocv.Mat.
func toMat(img image.Image) (gocv.Mat, error) {
	if img == nil {
		return gocv.NewMat(), errors.New("empty image")
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to convert image")
}
