package vision

import (
	"ui2html/config"
	"ui2html/internal/domain/port"
)

// Renderer строит grayscale, точки границ и оверлей контуров.
// Реализация выбирается тегом сборки: gocv или чистый Go.
type Renderer struct {
	cfg config.Detection
}

// NewRenderer создаёт рендерер с фиксированными порогами.
func NewRenderer(cfg config.Detection) *Renderer {
	return &Renderer{cfg: cfg}
}

var _ port.DiagnosticRenderer = (*Renderer)(nil)
