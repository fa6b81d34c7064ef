package asr

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAI распознает речь через OpenAI Audio API (whisper-1)
type OpenAI struct {
	client *openai.Client
	logger *zap.Logger
}

// NewOpenAI создает распознаватель. Пустой baseURL означает api.openai.com
func NewOpenAI(apiKey, baseURL string, logger *zap.Logger) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		logger: logger,
	}
}

func (c *OpenAI) Name() string { return "openai" }

// Transcribe загружает файл и запрашивает verbose_json, чтобы получить язык
func (c *OpenAI) Transcribe(ctx context.Context, wavPath string) (*Result, error) {
	c.logger.Info("отправка запроса на транскрибацию в OpenAI", zap.String("file", wavPath))

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: wavPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к OpenAI: %w", err)
	}

	return &Result{
		Text:     strings.TrimSpace(resp.Text),
		Language: normalizeLanguage(resp.Language),
	}, nil
}
