package port

import (
	"context"

	"ui2html/internal/domain/entity"
)

// BundleRepository хранилище бандлов на диске
type BundleRepository interface {
	// Save создаёт каталог бандла и пишет все четыре артефакта, возвращает путь к HTML
	Save(ctx context.Context, bundle *entity.Bundle) (string, error)

	// Lookup возвращает имена файлов существующего бандла
	Lookup(ctx context.Context, dir string) (entity.BundleFiles, error)
}
