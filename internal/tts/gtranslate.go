package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	gtranslateDefaultURL = "https://translate.google.com"
	// Google Translate TTS принимает не больше ~100 символов за запрос
	gtranslateMaxChunk = 100
	gtranslateUA       = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// GTranslate синтезирует речь через публичный TTS эндпоинт Google Translate.
// Длинный текст режется на фрагменты, mp3 фрагменты склеиваются подряд.
type GTranslate struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewGTranslate создает синтезатор. Пустой baseURL означает translate.google.com
func NewGTranslate(baseURL string, logger *zap.Logger) *GTranslate {
	if baseURL == "" {
		baseURL = gtranslateDefaultURL
	}
	return &GTranslate{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (s *GTranslate) Name() string { return "gtranslate" }

// Synthesize преобразует текст в mp3
func (s *GTranslate) Synthesize(ctx context.Context, text, lang string) (*Audio, error) {
	chunks := splitText(text, gtranslateMaxChunk)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("пустой текст")
	}

	s.logger.Info("🎵 генерируем аудио через Google Translate TTS",
		zap.String("language", lang),
		zap.Int("text_length", utf8.RuneCountInString(text)),
		zap.Int("chunks", len(chunks)))

	var out bytes.Buffer
	for i, chunk := range chunks {
		data, err := s.fetchChunk(ctx, chunk, lang, i, len(chunks))
		if err != nil {
			return nil, fmt.Errorf("ошибка генерации фрагмента %d/%d: %w", i+1, len(chunks), err)
		}
		out.Write(data)
	}

	s.logger.Info("🎵 аудио успешно сгенерировано", zap.Int("audio_size", out.Len()))

	return &Audio{Data: out.Bytes(), Format: "mp3"}, nil
}

func (s *GTranslate) fetchChunk(ctx context.Context, chunk, lang string, idx, total int) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", lang)
	params.Set("q", chunk)
	params.Set("idx", strconv.Itoa(idx))
	params.Set("total", strconv.Itoa(total))
	params.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/translate_tts?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("User-Agent", gtranslateUA)
	req.Header.Set("Referer", "http://translate.google.com/")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("неожиданный статус от Google Translate TTS: %d (язык %q), тело: %s", resp.StatusCode, lang, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудио данных: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("пустой ответ от Google Translate TTS")
	}

	return data, nil
}

// splitText режет текст на фрагменты не длиннее max рун по границам слов.
// Слово длиннее max режется посимвольно.
func splitText(text string, max int) []string {
	var chunks []string
	var cur []rune

	flush := func() {
		if s := strings.TrimSpace(string(cur)); s != "" {
			chunks = append(chunks, s)
		}
		cur = cur[:0]
	}

	for _, word := range strings.FieldsFunc(text, unicode.IsSpace) {
		w := []rune(word)

		for len(w) > max {
			flush()
			chunks = append(chunks, string(w[:max]))
			w = w[max:]
		}

		if len(cur) > 0 && len(cur)+1+len(w) > max {
			flush()
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	flush()

	return chunks
}
