package tts

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAI синтезирует речь через OpenAI Audio API.
// Язык модель определяет сама по тексту.
type OpenAI struct {
	client *openai.Client
	voice  openai.SpeechVoice
	logger *zap.Logger
}

// NewOpenAI создает синтезатор. Пустой baseURL означает api.openai.com
func NewOpenAI(apiKey, baseURL, voice string, logger *zap.Logger) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		voice:  openai.SpeechVoice(voice),
		logger: logger,
	}
}

func (s *OpenAI) Name() string { return "openai" }

// Synthesize преобразует текст в mp3
func (s *OpenAI) Synthesize(ctx context.Context, text, lang string) (*Audio, error) {
	s.logger.Info("🎵 генерируем аудио через OpenAI TTS",
		zap.String("voice", string(s.voice)),
		zap.String("language", lang),
		zap.Int("text_length", len(text)))

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к OpenAI TTS: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудио данных: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("пустой ответ от OpenAI TTS")
	}

	return &Audio{Data: data, Format: "mp3"}, nil
}
