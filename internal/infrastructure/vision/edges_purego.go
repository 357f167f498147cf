//go:build !gocv
// +build !gocv

package vision

import (
	"image"
	"image/draw"

	"ui2html/internal/domain/entity"
)

// tan(22.5°) в fixed point (15 бит), как в cv::Canny
const tg22 = 13573

// toGray переводит кадр в яркость по BT.601, как cv::cvtColor(BGR2GRAY).
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			lum := (299*(r>>8) + 587*(g>>8) + 114*(bl>>8) + 500) / 1000
			gray.Pix[y*gray.Stride+x] = uint8(lum)
		}
	}
	return gray
}

// copyRGBA копия кадра с началом координат в (0, 0)
func copyRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// canny: Sobel 3x3, L1-норма градиента, подавление немаксимумов и гистерезис.
func canny(gray *image.Gray, low, high float32) []entity.EdgePoint {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil
	}

	lo, hi := int(low), int(high)
	if lo > hi {
		lo, hi = hi, lo
	}

	// BORDER_REPLICATE для Собеля
	at := func(x, y int) int {
		x = clamp(x, 0, w-1)
		y = clamp(y, 0, h-1)
		return int(gray.Pix[y*gray.Stride+x])
	}

	dx := make([]int, w*h)
	dy := make([]int, w*h)
	mag := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) + at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) + at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			i := y*w + x
			dx[i], dy[i] = gx, gy
			mag[i] = abs(gx) + abs(gy)
		}
	}

	magAt := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	// 0: не граница, 1: слабая, 2: сильная
	state := make([]uint8, w*h)
	stack := make([]int, 0, 64)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= lo {
				continue
			}

			ax, ay := abs(dx[i]), abs(dy[i])
			tg22x := ax * tg22
			ay15 := ay << 15

			var keep bool
			switch {
			case ay15 < tg22x:
				keep = m > magAt(x-1, y) && m >= magAt(x+1, y)
			case ay15 > tg22x+(ax<<16):
				keep = m > magAt(x, y-1) && m >= magAt(x, y+1)
			default:
				s := 1
				if (dx[i] ^ dy[i]) < 0 {
					s = -1
				}
				keep = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
			}
			if !keep {
				continue
			}

			if m > hi {
				state[i] = 2
				stack = append(stack, i)
			} else {
				state[i] = 1
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == 1 {
					state[j] = 2
					stack = append(stack, j)
				}
			}
		}
	}

	var points []entity.EdgePoint
	for i, s := range state {
		if s == 2 {
			points = append(points, entity.EdgePoint{X: i % w, Y: i / w})
		}
	}
	return points
}

// traceContours группирует точки границ в 8-связные компоненты.
func traceContours(points []entity.EdgePoint, w, h int) [][]entity.EdgePoint {
	if len(points) == 0 || w <= 0 || h <= 0 {
		return nil
	}

	mask := make([]bool, w*h)
	for _, p := range points {
		if p.X >= 0 && p.Y >= 0 && p.X < w && p.Y < h {
			mask[p.Y*w+p.X] = true
		}
	}

	var contours [][]entity.EdgePoint
	queue := make([]int, 0, 64)
	for start := range mask {
		if !mask[start] {
			continue
		}
		mask[start] = false
		queue = append(queue[:0], start)

		var contour []entity.EdgePoint
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w
			contour = append(contour, entity.EdgePoint{X: x, Y: y})

			for ny := y - 1; ny <= y+1; ny++ {
				for nx := x - 1; nx <= x+1; nx++ {
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					j := ny*w + nx
					if mask[j] {
						mask[j] = false
						queue = append(queue, j)
					}
				}
			}
		}
		contours = append(contours, contour)
	}

	return contours
}

// boundingRect ограничивающий прямоугольник контура
func boundingRect(contour []entity.EdgePoint) image.Rectangle {
	if len(contour) == 0 {
		return image.Rectangle{}
	}
	r := image.Rect(contour[0].X, contour[0].Y, contour[0].X+1, contour[0].Y+1)
	for _, p := range contour[1:] {
		r = r.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
	}
	return r
}

// externalContours оставляет только внешние контуры: компонента, чей
// прямоугольник лежит строго внутри прямоугольника другой, отбрасывается.
func externalContours(contours [][]entity.EdgePoint) [][]entity.EdgePoint {
	rects := make([]image.Rectangle, len(contours))
	for i, c := range contours {
		rects[i] = boundingRect(c)
	}

	external := make([][]entity.EdgePoint, 0, len(contours))
	for i, c := range contours {
		if !nestedInAny(rects[i], rects, i) {
			external = append(external, c)
		}
	}
	return external
}

func nestedInAny(r image.Rectangle, rects []image.Rectangle, self int) bool {
	for j, outer := range rects {
		if j == self {
			continue
		}
		if outer.Min.X < r.Min.X && outer.Min.Y < r.Min.Y && r.Max.X < outer.Max.X && r.Max.Y < outer.Max.Y {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
