package container

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/genai"

	"ui2html/config"
	app "ui2html/internal/application"
	"ui2html/internal/domain/port"
	"ui2html/internal/infrastructure/llm"
	"ui2html/internal/infrastructure/storage"
	"ui2html/internal/infrastructure/vision"
)

type Container struct {
	UserService       *app.UserService
	ConversionService *app.ConversionService
}

func New(ctx context.Context, cfg *config.Config, userRepo port.UserRepository) (*Container, error) {
	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	describer, err := newDescriber(ctx, cfg)
	if err != nil {
		return nil, err
	}

	composer, err := app.NewPromptComposer()
	if err != nil {
		return nil, err
	}

	conversionService := app.NewConversionService(
		vision.NewFileLoader(),
		vision.NewRenderer(cfg.Detection),
		describer,
		composer,
		generator,
		storage.NewFileBundleRepository(),
	)

	return &Container{
		UserService:       app.NewUserService(userRepo),
		ConversionService: conversionService,
	}, nil
}

// newGenerator выбирает провайдера генерации и при необходимости ограничивает частоту вызовов.
func newGenerator(ctx context.Context, cfg *config.Config) (port.Generator, error) {
	var generator port.Generator

	switch cfg.GenerationProvider {
	case config.ProviderGemini:
		client, err := geminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		generator = llm.NewGeminiGenerator(client, cfg.GeminiModel)
		log.Printf("Generation provider: gemini (%s), key %s", cfg.GeminiModel, config.RedactKey(cfg.GeminiAPIKey))

	case config.ProviderOpenAI:
		gen, err := llm.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		generator = gen
		log.Printf("Generation provider: openai (%s), key %s", cfg.OpenAIModel, config.RedactKey(cfg.OpenAIAPIKey))

	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.GenerationProvider)
	}

	if cfg.GenerationRateInterval > 0 {
		generator = llm.NewRateLimitedGenerator(generator, cfg.GenerationRateInterval)
	}
	return generator, nil
}

func newDescriber(ctx context.Context, cfg *config.Config) (port.UIDescriber, error) {
	switch cfg.Analyzer {
	case config.AnalyzerCV:
		return vision.NewLayoutDescriber(cfg.Detection), nil

	case config.AnalyzerGemini:
		client, err := geminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return llm.NewGeminiDescriber(client, cfg.GeminiModel), nil

	default:
		return nil, fmt.Errorf("unknown analyzer %q", cfg.Analyzer)
	}
}

func geminiClient(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiBaseURL)
}
