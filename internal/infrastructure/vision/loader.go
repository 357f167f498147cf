package vision

import (
	"context"
	"fmt"
	"image"
	"os"

	// Декодеры регистрируются в image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"ui2html/internal/domain/entity"
	"ui2html/internal/domain/port"
)

// FileLoader читает скриншот с локального диска.
type FileLoader struct{}

func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load декодирует картинку. Размер и формат проверяет только сам декодер.
func (l *FileLoader) Load(ctx context.Context, path string) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}

	return &entity.Frame{Path: path, Format: format, Image: img}, nil
}

var _ port.ImageLoader = (*FileLoader)(nil)
