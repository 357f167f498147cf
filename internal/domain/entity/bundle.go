package entity

import (
	"image"
	"path/filepath"
	"strings"
)

// Имена артефактов внутри каталога бандла (без расширения у картинок).
const (
	OriginalBase  = "frame"
	GrayscaleBase = "grayscale_frame"
	OverlayBase   = "detected_components"
	HTMLFileName  = "index.html"

	DefaultImageExt = "jpg"
)

// ImageExts расширения, которые умеет писать хранилище бандлов
var ImageExts = []string{"jpg", "png", "gif", "bmp"}

// Bundle четыре артефакта одного запуска конвертации.
type Bundle struct {
	Dir       string // каталог бандла, его имя и есть идентификатор
	Ext       string // расширение картинок: jpg, png, gif, bmp
	Original  image.Image
	Grayscale image.Image
	Overlay   image.Image
	HTML      string // ответ модели без изменений
}

// ID идентификатор бандла
func (b *Bundle) ID() string {
	return filepath.Base(b.Dir)
}

// Files имена файлов бандла
func (b *Bundle) Files() BundleFiles {
	return FilesFor(b.Ext)
}

// BundleFiles имена четырёх файлов бандла.
type BundleFiles struct {
	Original  string
	Grayscale string
	Overlay   string
	HTML      string
}

// All возвращает имена в порядке записи
func (f BundleFiles) All() []string {
	return []string{f.Original, f.Grayscale, f.Overlay, f.HTML}
}

// Images имена трёх картинок бандла
func (f BundleFiles) Images() []string {
	return []string{f.Original, f.Grayscale, f.Overlay}
}

// FilesFor строит имена файлов для расширения картинок.
func FilesFor(ext string) BundleFiles {
	return BundleFiles{
		Original:  OriginalBase + "." + ext,
		Grayscale: GrayscaleBase + "." + ext,
		Overlay:   OverlayBase + "." + ext,
		HTML:      HTMLFileName,
	}
}

// ImageExt выбирает расширение картинок бандла по расширению входного файла
// или по формату декодера. Всё, что не умеем кодировать, пишем в jpg.
func ImageExt(pathOrFormat string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(pathOrFormat), "."))
	if ext == "" {
		ext = strings.ToLower(pathOrFormat)
	}

	switch ext {
	case "jpg", "jpeg":
		return "jpg"
	case "png", "gif", "bmp":
		return ext
	default:
		return DefaultImageExt
	}
}
