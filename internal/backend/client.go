package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"voicebridge/internal/apperr"
	"voicebridge/internal/metrics"
	"voicebridge/pkg/models"
)

const (
	generatePath   = "/generate-audio"
	transcribePath = "/transcribe-audio"
	// имя файла, под которым голосовое уходит в сервис обработки
	uploadFilename = "voice.ogg"
	// сколько символов тела ответа без detail попадает в ошибку
	maxDetailRunes = 200
)

// StatusError ответ сервиса обработки с не-2xx статусом
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("статус %d: %s", e.Status, e.Detail)
}

// Client обращается к сервису обработки речи от имени бота
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewClient создает клиент. timeout 0 означает отсутствие общего таймаута.
func NewClient(baseURL, token string, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: m,
		logger:  logger,
	}
}

// GenerateAudio отправляет текст на синтез
func (c *Client) GenerateAudio(ctx context.Context, text string) (*models.GenerateAudioResponse, error) {
	payload, err := json.Marshal(models.TextRequest{Text: text})
	if err != nil {
		return nil, apperr.Transport("ошибка сериализации запроса", err)
	}

	var resp models.GenerateAudioResponse
	if err := c.do(ctx, generatePath, "application/json", bytes.NewReader(payload), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TranscribeAudio загружает локальный файл на распознавание
func (c *Client) TranscribeAudio(ctx context.Context, path string) (*models.TranscribeResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperr.Transport("ошибка открытия файла", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", uploadFilename)
	if err != nil {
		return nil, apperr.Transport("ошибка создания формы", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, apperr.Transport("ошибка копирования файла", err)
	}
	if err := writer.Close(); err != nil {
		return nil, apperr.Transport("ошибка формирования формы", err)
	}

	var resp models.TranscribeResponse
	if err := c.do(ctx, transcribePath, writer.FormDataContentType(), &body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, out any) (err error) {
	started := time.Now()
	defer func() { c.metrics.ObserveBackend(path, started, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return apperr.Transport("ошибка создания запроса", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.logger.Debug("запрос к сервису обработки", zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Transport("ошибка отправки запроса", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Transport("ошибка чтения ответа", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperr.Transport("сервис вернул ошибку", &StatusError{Status: resp.StatusCode, Detail: detail(data)})
	}

	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Transport("ошибка разбора ответа", err)
	}
	return nil
}

// detail достает текст ошибки из {"detail": ...} либо возвращает тело как есть
func detail(body []byte) string {
	var e models.ErrorResponse
	if json.Unmarshal(body, &e) == nil && e.Detail != "" {
		return e.Detail
	}
	s := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(s) > maxDetailRunes {
		s = string([]rune(s)[:maxDetailRunes])
	}
	if s == "" {
		s = "пустой ответ"
	}
	return s
}
