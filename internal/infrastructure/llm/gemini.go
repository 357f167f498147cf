package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"

	"google.golang.org/genai"

	"ui2html/internal/domain/entity"
	"ui2html/internal/domain/port"
)

const defaultGeminiTemperature = float32(0.2)

// describePrompt инструкция для разбора скриншота vision-моделью
const describePrompt = `You are an expert frontend engineer. Analyze this UI screenshot and describe:
1. Layout structure: sections, grid/flex arrangement, component hierarchy.
2. Components: navigation, buttons, inputs, cards, images, icons, with their approximate positions.
3. Colors: background, primary, accent and text colors as hex values.
4. Typography: relative font sizes, weights, text hierarchy, visible text content.
5. Spacing: paddings, gaps, border radius, shadows.
Be precise and concise. Plain text only.`

// NewGeminiClient создаёт клиент Gemini API. baseURL нужен для тестов и прокси.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// GeminiGenerator генерирует HTML через Gemini. Одна попытка, без ретраев.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiGenerator(client *genai.Client, model string) *GeminiGenerator {
	return &GeminiGenerator{
		client:      client,
		model:       model,
		temperature: defaultGeminiTemperature,
	}
}

// Generate возвращает сырой текст ответа без какой-либо обработки.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	return responseText(resp)
}

// GeminiDescriber описывает скриншот vision-моделью Gemini.
type GeminiDescriber struct {
	client *genai.Client
	model  string
}

func NewGeminiDescriber(client *genai.Client, model string) *GeminiDescriber {
	return &GeminiDescriber{client: client, model: model}
}

// Describe отправляет кадр в PNG вместе с инструкцией анализа.
func (d *GeminiDescriber) Describe(ctx context.Context, frame *entity.Frame) (string, error) {
	if frame == nil || frame.Image == nil {
		return "", errors.New("empty image")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame.Image); err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(describePrompt),
		genai.NewPartFromBytes(buf.Bytes(), "image/png"),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := d.client.Models.GenerateContent(ctx, d.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(defaultGeminiTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("gemini describe: %w", err)
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned empty text")
	}
	return text, nil
}

var (
	_ port.Generator   = (*GeminiGenerator)(nil)
	_ port.UIDescriber = (*GeminiDescriber)(nil)
)
