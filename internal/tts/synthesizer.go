package tts

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"voicebridge/internal/config"
)

// Audio синтезированная речь
type Audio struct {
	Data   []byte
	Format string // расширение без точки: mp3, wav
}

// Synthesizer преобразует текст в аудио на заданном языке
type Synthesizer interface {
	// Synthesize возвращает аудио. lang код ISO 639-1
	Synthesize(ctx context.Context, text, lang string) (*Audio, error)
	// Name возвращает название провайдера
	Name() string
}

// NewSynthesizer создает синтезатор на основе конфигурации
func NewSynthesizer(cfg config.TTSConfig, openAI config.OpenAIConfig, logger *zap.Logger) (Synthesizer, error) {
	switch cfg.Provider {
	case config.TTSProviderGTranslate:
		return NewGTranslate(cfg.BaseURL, logger), nil
	case config.TTSProviderPiper:
		return NewPiper(cfg.BaseURL, logger), nil
	case config.TTSProviderOpenAI:
		return NewOpenAI(openAI.APIKey, openAI.BaseURL, cfg.Voice, logger), nil
	default:
		return nil, fmt.Errorf("неподдерживаемый TTS провайдер: %s. Поддерживаются: 'gtranslate', 'piper', 'openai'", cfg.Provider)
	}
}
