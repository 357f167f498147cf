//go:build !gocv
// +build !gocv

package vision

import (
	"image"

	"ui2html/internal/domain/entity"
)

// findRegions ищет области по контурам Canny с теми же порогами, что и оверлей.
func (d *LayoutDescriber) findRegions(img image.Image) ([]entity.Region, error) {
	gray := toGray(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()

	points := canny(gray, d.cfg.LowThreshold, d.cfg.HighThreshold)
	contours := traceContours(points, w, h)

	regions := make([]entity.Region, 0, len(contours))
	for _, contour := range contours {
		if region, ok := d.region(boundingRect(contour), w, h); ok {
			regions = append(regions, region)
		}
	}
	return regions, nil
}
