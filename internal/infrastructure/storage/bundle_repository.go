package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"ui2html/internal/domain/entity"
	"ui2html/internal/domain/port"
)

// ErrBundleNotFound в каталоге нет index.html
var ErrBundleNotFound = errors.New("bundle not found")

// FileBundleRepository пишет бандлы в локальную файловую систему.
// Атомарности между четырьмя файлами нет: сбой посередине оставляет часть файлов.
type FileBundleRepository struct{}

func NewFileBundleRepository() *FileBundleRepository {
	return &FileBundleRepository{}
}

// Save создаёт каталог (вместе с родителями) и перезаписывает все четыре артефакта.
// Картинки с другим расширением от прошлых запусков удаляются.
func (r *FileBundleRepository) Save(ctx context.Context, bundle *entity.Bundle) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if bundle == nil || bundle.Dir == "" {
		return "", errors.New("bundle directory is empty")
	}

	if err := os.MkdirAll(bundle.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	if err := removeStaleImages(bundle.Dir, bundle.Ext); err != nil {
		return "", err
	}

	files := bundle.Files()
	images := []struct {
		name string
		img  image.Image
	}{
		{files.Original, bundle.Original},
		{files.Grayscale, bundle.Grayscale},
		{files.Overlay, bundle.Overlay},
	}
	for _, item := range images {
		if err := writeImage(filepath.Join(bundle.Dir, item.name), item.img, bundle.Ext); err != nil {
			return "", err
		}
	}

	htmlPath := filepath.Join(bundle.Dir, files.HTML)
	if err := os.WriteFile(htmlPath, []byte(bundle.HTML), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", files.HTML, err)
	}

	return htmlPath, nil
}

// Lookup находит файлы существующего бандла; расширение картинок берётся по frame.*.
func (r *FileBundleRepository) Lookup(ctx context.Context, dir string) (entity.BundleFiles, error) {
	if err := ctx.Err(); err != nil {
		return entity.BundleFiles{}, err
	}

	if _, err := os.Stat(filepath.Join(dir, entity.HTMLFileName)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entity.BundleFiles{}, ErrBundleNotFound
		}
		return entity.BundleFiles{}, fmt.Errorf("stat bundle: %w", err)
	}

	for _, ext := range entity.ImageExts {
		files := entity.FilesFor(ext)
		if _, err := os.Stat(filepath.Join(dir, files.Original)); err == nil {
			return files, nil
		}
	}

	return entity.FilesFor(entity.DefaultImageExt), nil
}

// removeStaleImages удаляет картинки прошлых запусков с другим расширением,
// чтобы в каталоге всегда было ровно четыре артефакта.
func removeStaleImages(dir, keepExt string) error {
	for _, ext := range entity.ImageExts {
		if ext == keepExt {
			continue
		}
		for _, name := range entity.FilesFor(ext).Images() {
			if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove stale %s: %w", name, err)
			}
		}
	}
	return nil
}

func writeImage(path string, img image.Image, ext string) error {
	if img == nil {
		return fmt.Errorf("write %s: empty image", filepath.Base(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}

	if err := encodeImage(f, img, ext); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.BundleRepository = (*FileBundleRepository)(nil)
