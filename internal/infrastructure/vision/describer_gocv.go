//go:build gocv
// +build gocv

package vision

import (
	"image"

	"gocv.io/x/gocv"

	"ui2html/internal/domain/entity"
)

// findRegions собирает области из трёх проходов: внешние контуры Canny,
// кнопки по адаптивному порогу и поля ввода по горизонтальной морфологии.
func (d *LayoutDescriber) findRegions(img image.Image) ([]entity.Region, error) {
	mat, err := toMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	w, h := mat.Cols(), mat.Rows()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, d.cfg.LowThreshold, d.cfg.HighThreshold)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	regions := make([]entity.Region, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))
		if region, ok := d.region(rect, w, h); ok {
			regions = append(regions, region)
		}
	}

	regions = mergeRegions(regions, detectButtons(gray))
	regions = mergeRegions(regions, detectInputs(gray))
	return regions, nil
}

// detectButtons: плотно залитые прямоугольники среднего размера.
func detectButtons(gray gocv.Mat) []entity.Region {
	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.AdaptiveThreshold(gray, &thresh, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, 11, 2)

	contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var buttons []entity.Region
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		area := gocv.ContourArea(c)
		if area <= 1000 || area >= 50000 {
			continue
		}

		rect := gocv.BoundingRect(c)
		if rect.Dy() == 0 {
			continue
		}
		aspect := float64(rect.Dx()) / float64(rect.Dy())
		if aspect <= 0.3 || aspect >= 8.0 {
			continue
		}

		// Контур занимает большую часть ограничивающего прямоугольника
		if area/float64(rect.Dx()*rect.Dy()) > 0.7 {
			buttons = append(buttons, regionFromRect(entity.RegionButton, rect))
		}
	}
	return buttons
}

// detectInputs: длинные невысокие прямоугольники с горизонтальными границами.
func detectInputs(gray gocv.Mat) []entity.Region {
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 30, 100)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(40, 1))
	defer kernel.Close()

	horizontal := gocv.NewMat()
	defer horizontal.Close()
	gocv.MorphologyEx(edges, &horizontal, gocv.MorphOpen, kernel)

	contours := gocv.FindContours(horizontal, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var inputs []entity.Region
	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))
		area := rect.Dx() * rect.Dy()
		if area <= 1000 || area >= 30000 || rect.Dy() == 0 {
			continue
		}
		aspect := float64(rect.Dx()) / float64(rect.Dy())
		if aspect > 3.0 && rect.Dx() > 100 && rect.Dy() > 20 && rect.Dy() < 60 {
			inputs = append(inputs, regionFromRect(entity.RegionInput, rect))
		}
	}
	return inputs
}

// mergeRegions добавляет кандидатов; почти совпадающая область только уточняет тип.
func mergeRegions(regions, candidates []entity.Region) []entity.Region {
	for _, c := range candidates {
		matched := false
		for i := range regions {
			if overlapRatio(regions[i], c) >= 0.8 {
				if regions[i].Kind == entity.RegionBlock {
					regions[i].Kind = c.Kind
				}
				matched = true
				break
			}
		}
		if !matched {
			regions = append(regions, c)
		}
	}
	return regions
}

func overlapRatio(a, b entity.Region) float64 {
	ra := image.Rect(a.X, a.Y, a.X+a.Width, a.Y+a.Height)
	rb := image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
	inter := ra.Intersect(rb)
	if inter.Empty() {
		return 0
	}
	union := a.Area() + b.Area() - inter.Dx()*inter.Dy()
	if union <= 0 {
		return 0
	}
	return float64(inter.Dx()*inter.Dy()) / float64(union)
}
