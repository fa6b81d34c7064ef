package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Piper синтезирует речь через HTTP API Piper TTS
type Piper struct {
	logger  *zap.Logger
	baseURL string
	client  *http.Client
}

// NewPiper создает новый Piper синтезатор
func NewPiper(baseURL string, logger *zap.Logger) *Piper {
	return &Piper{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second, // Таймаут для генерации аудио
		},
	}
}

func (s *Piper) Name() string { return "piper" }

// Synthesize преобразует текст в wav через Piper
func (s *Piper) Synthesize(ctx context.Context, text, lang string) (*Audio, error) {
	url := s.baseURL + "/synthesize-raw"

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("text", text)
	_ = writer.WriteField("language", lang)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка формирования формы: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	s.logger.Info("🎵 отправляем запрос к Piper TTS",
		zap.String("url", url),
		zap.String("language", lang),
		zap.Int("text_length", len(text)))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("неожиданный статус от Piper TTS: %d, тело: %s", resp.StatusCode, respBody)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудио данных: %w", err)
	}

	s.logger.Info("🎵 аудио успешно сгенерировано", zap.Int("audio_size", len(audioData)))

	return &Audio{Data: audioData, Format: "wav"}, nil
}
