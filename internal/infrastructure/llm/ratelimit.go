package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"ui2html/internal/domain/port"
)

// RateLimitedGenerator выдерживает минимальный интервал между вызовами модели.
// Ожидание единственное, что он добавляет: ретраев нет.
type RateLimitedGenerator struct {
	next    port.Generator
	limiter *rate.Limiter
}

func NewRateLimitedGenerator(next port.Generator, interval time.Duration) *RateLimitedGenerator {
	return &RateLimitedGenerator{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (g *RateLimitedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for generation slot: %w", err)
	}
	return g.next.Generate(ctx, prompt)
}

var _ port.Generator = (*RateLimitedGenerator)(nil)
