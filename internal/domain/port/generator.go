package port

import "context"

// Generator внешний сервис генерации текста
type Generator interface {
	// Generate отправляет промпт и возвращает сырой ответ модели
	Generate(ctx context.Context, prompt string) (string, error)
}
