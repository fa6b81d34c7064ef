package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Whisper клиент для openai-whisper-asr-webservice
type Whisper struct {
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWhisper создает новый клиент Whisper
func NewWhisper(apiURL string, logger *zap.Logger) *Whisper {
	return &Whisper{
		apiURL: strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // Распознавание на CPU бывает медленным
		},
		logger: logger,
	}
}

func (c *Whisper) Name() string { return "whisper" }

type whisperResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Transcribe отправляет файл на /asr и возвращает текст с языком
func (c *Whisper) Transcribe(ctx context.Context, wavPath string) (*Result, error) {
	file, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	part, err := writer.CreateFormFile("audio_file", filepath.Base(wavPath))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания формы: %w", err)
	}
	if _, err = io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("ошибка копирования файла: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка формирования формы: %w", err)
	}

	params := "output=json&task=transcribe"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/asr?"+params, &requestBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Info("отправка запроса на транскрибацию",
		zap.String("file", wavPath),
		zap.String("api_url", c.apiURL),
		zap.String("params", params))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ошибка API (статус %d): %s", resp.StatusCode, string(body))
	}

	// Сервис иногда отдает JSON с Content-Type text/plain
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") && !strings.Contains(contentType, "text/plain") {
		return nil, fmt.Errorf("неожиданный Content-Type: %s, тело: %s", contentType, string(body))
	}

	var response whisperResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("ошибка парсинга ответа: %w, тело: %s", err, string(body))
	}

	c.logger.Info("транскрибация завершена",
		zap.String("language", response.Language),
		zap.Int("text_length", len(response.Text)))

	return &Result{
		Text:     strings.TrimSpace(response.Text),
		Language: normalizeLanguage(response.Language),
	}, nil
}
