package entity

import "image"

// Frame декодированный скриншот интерфейса.
type Frame struct {
	Path   string      // путь к исходному файлу
	Format string      // формат, который вернул декодер (png, jpeg, gif, bmp, webp)
	Image  image.Image // пиксели
}

// Width ширина кадра в пикселях
func (f *Frame) Width() int {
	return f.Image.Bounds().Dx()
}

// Height высота кадра в пикселях
func (f *Frame) Height() int {
	return f.Image.Bounds().Dy()
}
