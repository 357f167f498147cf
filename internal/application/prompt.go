package app

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"ui2html/internal/domain/entity"
)

//go:embed templates/html_prompt.tmpl
var htmlPromptTemplate string

// PromptData данные для шаблона промпта генерации HTML.
type PromptData struct {
	Analysis  string
	ImageName string
}

// PromptComposer собирает промпт для генератора из текста анализа.
type PromptComposer struct {
	tmpl *template.Template
}

func NewPromptComposer() (*PromptComposer, error) {
	if htmlPromptTemplate == "" {
		return nil, errors.New("html prompt template is empty")
	}

	tmpl, err := template.New("html_prompt").Parse(htmlPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse html prompt template: %w", err)
	}
	return &PromptComposer{tmpl: tmpl}, nil
}

// Compose подставляет анализ как есть. ext задаёт расширение картинки в бандле.
func (c *PromptComposer) Compose(analysis, ext string) (string, error) {
	if ext == "" {
		ext = entity.DefaultImageExt
	}

	var sb strings.Builder
	data := PromptData{
		Analysis:  analysis,
		ImageName: entity.FilesFor(ext).Original,
	}
	if err := c.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("execute html prompt template: %w", err)
	}
	return sb.String(), nil
}
