package port

import (
	"context"

	"ui2html/internal/domain/entity"
)

// ImageLoader читает скриншот с диска
type ImageLoader interface {
	// Load декодирует файл; ошибка если файла нет или он не картинка
	Load(ctx context.Context, path string) (*entity.Frame, error)
}
