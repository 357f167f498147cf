package port

import (
	"context"

	"ui2html/internal/domain/entity"
)

// UIDescriber описывает визуальную структуру скриншота текстом
type UIDescriber interface {
	Describe(ctx context.Context, frame *entity.Frame) (string, error)
}
