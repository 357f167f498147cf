package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	AnalyzerCV     = "cv"
	AnalyzerGemini = "gemini"

	DefaultOutputDir      = "output"
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultWebAddr        = ":5000"
	DefaultUploadDir      = "web_uploads"
	DefaultWebOutputDir   = "web_outputs"
	DefaultBotOutputDir   = "bot_outputs"
	DefaultMaxUploadBytes = 16 * 1024 * 1024
)

// Detection фиксированные параметры детектора границ и отрисовки контуров.
type Detection struct {
	LowThreshold  float32    // нижний порог Canny
	HighThreshold float32    // верхний порог Canny
	Highlight     color.RGBA // цвет контуров на оверлее
	Thickness     int        // толщина линии контура в пикселях
}

// DefaultDetection возвращает пороги, с которыми строятся диагностические картинки.
func DefaultDetection() Detection {
	return Detection{
		LowThreshold:  100,
		HighThreshold: 200,
		Highlight:     color.RGBA{G: 255, A: 255},
		Thickness:     2,
	}
}

type Config struct {
	GenerationProvider     string
	GeminiAPIKey           string
	GeminiModel            string
	GeminiBaseURL          string
	OpenAIAPIKey           string
	OpenAIModel            string
	OpenAIBaseURL          string
	Analyzer               string
	GenerationRateInterval time.Duration

	WebAddr           string
	UploadDir         string
	WebOutputDir      string
	MaxUploadBytes    int64
	AllowedExtensions []string

	TelegramToken string
	BotOutputDir  string

	Detection Detection
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	maxUpload, err := strconv.ParseInt(getEnvWithDefault("MAX_UPLOAD_BYTES", strconv.Itoa(DefaultMaxUploadBytes)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse MAX_UPLOAD_BYTES: %w", err)
	}

	rateInterval, err := time.ParseDuration(getEnvWithDefault("GENERATION_RATE_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("parse GENERATION_RATE_INTERVAL: %w", err)
	}

	cfg := &Config{
		GenerationProvider:     strings.ToLower(getEnvWithDefault("GENERATION_PROVIDER", ProviderGemini)),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiModel:            getEnvWithDefault("GEMINI_MODEL", DefaultGeminiModel),
		GeminiBaseURL:          os.Getenv("GEMINI_BASE_URL"),
		OpenAIAPIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:            getEnvWithDefault("OPENAI_MODEL", DefaultOpenAIModel),
		OpenAIBaseURL:          os.Getenv("OPENAI_BASE_URL"),
		Analyzer:               strings.ToLower(getEnvWithDefault("ANALYZER", AnalyzerCV)),
		GenerationRateInterval: rateInterval,

		WebAddr:           getEnvWithDefault("WEB_ADDR", DefaultWebAddr),
		UploadDir:         getEnvWithDefault("UPLOAD_DIR", DefaultUploadDir),
		WebOutputDir:      getEnvWithDefault("WEB_OUTPUT_DIR", DefaultWebOutputDir),
		MaxUploadBytes:    maxUpload,
		AllowedExtensions: DefaultAllowedExtensions(),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		BotOutputDir:  getEnvWithDefault("BOT_OUTPUT_DIR", DefaultBotOutputDir),

		Detection: DefaultDetection(),
	}

	return cfg, nil
}

// DefaultAllowedExtensions расширения, которые принимает веб-форма.
func DefaultAllowedExtensions() []string {
	return []string{"png", "jpg", "jpeg", "gif"}
}

// RedactKey маскирует ключ API: xxxx...yyyy
func RedactKey(k string) string {
	if k == "" {
		return "<unset>"
	}
	if len(k) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", k[:4], k[len(k)-4:])
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
