package entity

import (
	"fmt"
	"strings"
)

// MaxReportedRegions сколько областей попадает в текстовое описание
const MaxReportedRegions = 40

// LayoutReport итог анализа визуальной структуры скриншота.
type LayoutReport struct {
	Width      int
	Height     int
	Background string   // hex цвет фона
	Palette    []string // доминирующие цвета, hex
	Regions    []Region // упорядочены сверху вниз, слева направо
}

// Orientation ориентация кадра
func (r *LayoutReport) Orientation() string {
	switch {
	case r.Width > r.Height:
		return "landscape"
	case r.Width < r.Height:
		return "portrait"
	default:
		return "square"
	}
}

// Text собирает описание, которое уходит в промпт как есть.
func (r *LayoutReport) Text() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Screenshot: %dx%d px (%s)\n", r.Width, r.Height, r.Orientation()))
	if r.Background != "" {
		sb.WriteString(fmt.Sprintf("Background color: %s\n", r.Background))
	}
	if len(r.Palette) > 0 {
		sb.WriteString(fmt.Sprintf("Dominant colors: %s\n", strings.Join(r.Palette, ", ")))
	}

	if len(r.Regions) == 0 {
		sb.WriteString("Detected regions: none (flat image without visible components)\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Detected regions (%d):\n", len(r.Regions)))
	for i, region := range r.Regions {
		if i == MaxReportedRegions {
			sb.WriteString(fmt.Sprintf("... and %d more smaller regions\n", len(r.Regions)-MaxReportedRegions))
			break
		}
		sb.WriteString(fmt.Sprintf("%d. %s at (%d,%d) size %dx%d\n",
			i+1, region.Kind, region.X, region.Y, region.Width, region.Height))
	}

	return sb.String()
}
