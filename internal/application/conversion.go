package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"ui2html/internal/domain/entity"
	"ui2html/internal/domain/port"
)

// ConversionService весь конвейер: скриншот -> анализ -> промпт -> HTML -> бандл.
type ConversionService struct {
	loader    port.ImageLoader
	renderer  port.DiagnosticRenderer
	describer port.UIDescriber
	composer  *PromptComposer
	generator port.Generator
	bundles   port.BundleRepository
}

// NewConversionService собирает конвейер из адаптеров.
func NewConversionService(
	loader port.ImageLoader,
	renderer port.DiagnosticRenderer,
	describer port.UIDescriber,
	composer *PromptComposer,
	generator port.Generator,
	bundles port.BundleRepository,
) *ConversionService {
	return &ConversionService{
		loader:    loader,
		renderer:  renderer,
		describer: describer,
		composer:  composer,
		generator: generator,
		bundles:   bundles,
	}
}

// Convert блокирующий запуск конвейера. Возвращает путь к index.html.
// Любая ошибка приходит как *entity.ConversionError.
// Каталог вывода создаётся только после успешной генерации.
func (s *ConversionService) Convert(ctx context.Context, imagePath, outputDir string) (string, error) {
	if s.loader == nil || s.renderer == nil || s.describer == nil || s.composer == nil || s.generator == nil || s.bundles == nil {
		return "", errors.New("conversion service is not configured")
	}

	frame, err := s.loader.Load(ctx, imagePath)
	if err != nil {
		return "", entity.NewConversionError(entity.StageLoad, err)
	}
	log.Printf("Loaded %s: %dx%d (%s)", imagePath, frame.Width(), frame.Height(), frame.Format)

	gray, err := s.renderer.Grayscale(frame.Image)
	if err != nil {
		return "", entity.NewConversionError(entity.StageAnalysis, fmt.Errorf("grayscale: %w", err))
	}

	points, err := s.renderer.DetectEdges(frame.Image)
	if err != nil {
		return "", entity.NewConversionError(entity.StageAnalysis, fmt.Errorf("detect edges: %w", err))
	}

	overlay, err := s.renderer.RenderOverlay(frame.Image, points)
	if err != nil {
		return "", entity.NewConversionError(entity.StageAnalysis, fmt.Errorf("render overlay: %w", err))
	}
	log.Printf("Detected %d edge points", len(points))

	analysis, err := s.describer.Describe(ctx, frame)
	if err != nil {
		return "", entity.NewConversionError(entity.StageAnalysis, err)
	}

	ext := entity.ImageExt(imagePath)
	prompt, err := s.composer.Compose(analysis, ext)
	if err != nil {
		return "", entity.NewConversionError(entity.StageGeneration, err)
	}

	html, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", entity.NewConversionError(entity.StageGeneration, err)
	}
	log.Printf("Generated %d bytes of HTML", len(html))

	bundle := &entity.Bundle{
		Dir:       filepath.Clean(outputDir),
		Ext:       ext,
		Original:  frame.Image,
		Grayscale: gray,
		Overlay:   overlay,
		HTML:      html,
	}

	htmlPath, err := s.bundles.Save(ctx, bundle)
	if err != nil {
		return "", entity.NewConversionError(entity.StageWrite, err)
	}

	log.Printf("Bundle %s saved to %s", bundle.ID(), bundle.Dir)
	return htmlPath, nil
}

// Lookup файлы готового бандла.
func (s *ConversionService) Lookup(ctx context.Context, dir string) (entity.BundleFiles, error) {
	return s.bundles.Lookup(ctx, dir)
}
