package port

import (
	"image"

	"ui2html/internal/domain/entity"
)

// DiagnosticRenderer строит диагностические картинки для человека.
type DiagnosticRenderer interface {
	// Grayscale переводит кадр в оттенки серого, размер не меняется
	Grayscale(img image.Image) (image.Image, error)

	// DetectEdges возвращает пиксели границ (Canny с фиксированными порогами)
	DetectEdges(img image.Image) ([]entity.EdgePoint, error)

	// RenderOverlay рисует внешние контуры точек границ поверх копии кадра
	RenderOverlay(img image.Image, points []entity.EdgePoint) (image.Image, error)
}
