package asr

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"voicebridge/internal/config"
)

// Result результат распознавания речи
type Result struct {
	Text     string
	Language string
}

// Recognizer распознает речь из wav файла (16 кГц, моно)
type Recognizer interface {
	Transcribe(ctx context.Context, wavPath string) (*Result, error)
	Name() string
}

// NewRecognizer создает распознаватель по имени провайдера из конфигурации.
// Google клиент держит gRPC соединение, его нужно закрыть через io.Closer.
func NewRecognizer(ctx context.Context, cfg config.ASRConfig, openAI config.OpenAIConfig, logger *zap.Logger) (Recognizer, error) {
	switch cfg.Provider {
	case config.ASRProviderWhisper:
		return NewWhisper(cfg.WhisperURL, logger), nil
	case config.ASRProviderOpenAI:
		return NewOpenAI(openAI.APIKey, openAI.BaseURL, logger), nil
	case config.ASRProviderGoogle:
		g, err := NewGoogle(ctx, cfg.GoogleLanguages, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("неизвестный ASR провайдер: %s", cfg.Provider)
	}
}

// normalizeLanguage приводит "uk-UA", "UK" и т.п. к коду ISO 639-1
func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if code, ok := languageNames[lang]; ok {
		return code
	}
	return lang
}

// OpenAI verbose_json возвращает язык полным английским названием
var languageNames = map[string]string{
	"english":    "en",
	"ukrainian":  "uk",
	"russian":    "ru",
	"german":     "de",
	"french":     "fr",
	"spanish":    "es",
	"italian":    "it",
	"polish":     "pl",
	"portuguese": "pt",
	"turkish":    "tr",
	"japanese":   "ja",
	"chinese":    "zh",
	"korean":     "ko",
	"arabic":     "ar",
	"dutch":      "nl",
	"czech":      "cs",
}
