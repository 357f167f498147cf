package entity

// EdgePoint пиксель, который детектор границ отметил как край.
type EdgePoint struct {
	X int
	Y int
}

// RegionKind грубая роль области на макете
type RegionKind string

const (
	RegionHeader  RegionKind = "header"
	RegionFooter  RegionKind = "footer"
	RegionInput   RegionKind = "input"
	RegionButton  RegionKind = "button"
	RegionCard    RegionKind = "image/card"
	RegionDivider RegionKind = "divider"
	RegionBlock   RegionKind = "block"
)

// Region представляет найденную на скриншоте область
type Region struct {
	Kind   RegionKind
	X      int // координата X левого верхнего угла
	Y      int // координата Y левого верхнего угла
	Width  int // ширина области в пикселях
	Height int // высота области в пикселях
}

// Area площадь ограничивающего прямоугольника
func (r Region) Area() int {
	return r.Width * r.Height
}
