package vision

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/lucasb-eyer/go-colorful"

	"ui2html/config"
	"ui2html/internal/domain/entity"
	"ui2html/internal/domain/port"
)

// maxPaletteSamples ограничивает число пикселей для гистограммы цветов
const maxPaletteSamples = 40000

// LayoutDescriber локальный анализатор макета: области по контурам и палитра.
type LayoutDescriber struct {
	cfg            config.Detection
	MinAreaRatio   float64
	MinAspectRatio float64
	MaxAspectRatio float64
	PaletteSize    int
}

// NewLayoutDescriber создаёт анализатор с порогами рендерера.
func NewLayoutDescriber(cfg config.Detection) *LayoutDescriber {
	return &LayoutDescriber{
		cfg:            cfg,
		MinAreaRatio:   0.001,
		MinAspectRatio: 0.1,
		MaxAspectRatio: 10.0,
		PaletteSize:    6,
	}
}

// Describe возвращает текстовое описание макета для промпта.
func (d *LayoutDescriber) Describe(ctx context.Context, frame *entity.Frame) (string, error) {
	report, err := d.Analyze(ctx, frame)
	if err != nil {
		return "", err
	}
	return report.Text(), nil
}

// Analyze строит структурированный отчёт о макете.
func (d *LayoutDescriber) Analyze(ctx context.Context, frame *entity.Frame) (*entity.LayoutReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame == nil || frame.Image == nil {
		return nil, errors.New("empty image")
	}

	regions, err := d.findRegions(frame.Image)
	if err != nil {
		return nil, fmt.Errorf("find regions: %w", err)
	}
	sortRegions(regions)

	report := &entity.LayoutReport{
		Width:   frame.Width(),
		Height:  frame.Height(),
		Palette: dominantColors(frame.Image, d.PaletteSize),
		Regions: regions,
	}
	if len(report.Palette) > 0 {
		report.Background = report.Palette[0]
	}
	return report, nil
}

// region фильтрует прямоугольник по площади и пропорциям и определяет его роль.
func (d *LayoutDescriber) region(rect image.Rectangle, w, h int) (entity.Region, bool) {
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return entity.Region{}, false
	}

	kind := classifyRegion(rect, w, h)
	if kind != entity.RegionDivider {
		minArea := int(float64(w*h) * d.MinAreaRatio)
		if rect.Dx()*rect.Dy() < minArea {
			return entity.Region{}, false
		}
		aspect := float64(rect.Dx()) / float64(rect.Dy())
		if aspect < d.MinAspectRatio || aspect > d.MaxAspectRatio {
			return entity.Region{}, false
		}
	}

	return regionFromRect(kind, rect), true
}

// classifyRegion грубо угадывает роль области по геометрии.
func classifyRegion(rect image.Rectangle, w, h int) entity.RegionKind {
	rw, rh := rect.Dx(), rect.Dy()
	aspect := float64(rw) / float64(rh)
	wide := rw*10 >= w*8
	short := rh*5 <= h

	switch {
	case rh <= 4 && rw*10 >= w*3:
		return entity.RegionDivider
	case wide && short && rect.Min.Y*50 <= h:
		return entity.RegionHeader
	case wide && short && rect.Max.Y*50 >= h*49:
		return entity.RegionFooter
	case aspect > 3 && rw > 100 && rh > 20 && rh < 60:
		return entity.RegionInput
	case aspect >= 1.2 && aspect <= 8 && rh >= 16 && rh <= 60 && rw*3 <= w:
		return entity.RegionButton
	case rw*rh*20 >= w*h:
		return entity.RegionCard
	default:
		return entity.RegionBlock
	}
}

func regionFromRect(kind entity.RegionKind, rect image.Rectangle) entity.Region {
	return entity.Region{
		Kind:   kind,
		X:      rect.Min.X,
		Y:      rect.Min.Y,
		Width:  rect.Dx(),
		Height: rect.Dy(),
	}
}

// sortRegions сверху вниз, затем слева направо
func sortRegions(regions []entity.Region) {
	slices.SortStableFunc(regions, func(a, b entity.Region) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
}

type colorBucket struct {
	key     uint32
	count   int
	r, g, b uint64
}

// dominantColors считает гистограмму по 4 бита на канал и возвращает
// средние цвета самых частых корзин.
func dominantColors(img image.Image, n int) []string {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 || n <= 0 {
		return nil
	}

	step := 1
	for total/(step*step) > maxPaletteSamples {
		step++
	}

	buckets := make(map[uint32]*colorBucket)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			r8, g8, b8 := r>>8, g>>8, b>>8
			key := (r8>>4)<<8 | (g8>>4)<<4 | b8>>4

			bucket, ok := buckets[key]
			if !ok {
				bucket = &colorBucket{key: key}
				buckets[key] = bucket
			}
			bucket.count++
			bucket.r += uint64(r8)
			bucket.g += uint64(g8)
			bucket.b += uint64(b8)
		}
	}

	sorted := make([]*colorBucket, 0, len(buckets))
	for _, bucket := range buckets {
		sorted = append(sorted, bucket)
	}
	slices.SortFunc(sorted, func(a, b *colorBucket) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	palette := make([]string, 0, len(sorted))
	for _, bucket := range sorted {
		count := float64(bucket.count)
		col := colorful.Color{
			R: float64(bucket.r) / count / 255.0,
			G: float64(bucket.g) / count / 255.0,
			B: float64(bucket.b) / count / 255.0,
		}
		palette = append(palette, col.Hex())
	}
	return palette
}

var _ port.UIDescriber = (*LayoutDescriber)(nil)
