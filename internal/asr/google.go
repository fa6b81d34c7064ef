package asr

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	gax "github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
)

// Google Speech-to-Text ограничивает синхронный Recognize примерно минутой звука,
// голосовые сообщения в пределах лимита бота сюда укладываются.
type speechClient interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// Google распознает речь через Google Cloud Speech-to-Text v1.
// Учетные данные берутся из GOOGLE_APPLICATION_CREDENTIALS.
type Google struct {
	client    speechClient
	languages []string
	logger    *zap.Logger
}

// NewGoogle создает клиент. Первый язык основной, остальные альтернативные.
func NewGoogle(ctx context.Context, languages []string, logger *zap.Logger) (*Google, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента Google Speech: %w", err)
	}
	return newGoogleWithClient(client, languages, logger), nil
}

func newGoogleWithClient(client speechClient, languages []string, logger *zap.Logger) *Google {
	if len(languages) == 0 {
		languages = []string{"en-US"}
	}
	return &Google{client: client, languages: languages, logger: logger}
}

func (c *Google) Name() string { return "google" }

// Close закрывает gRPC соединение
func (c *Google) Close() error {
	return c.client.Close()
}

// Transcribe отправляет LINEAR16 16 кГц и склеивает лучшие альтернативы
func (c *Google) Transcribe(ctx context.Context, wavPath string) (*Result, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}

	c.logger.Info("отправка запроса на транскрибацию в Google Speech",
		zap.String("file", wavPath),
		zap.Strings("languages", c.languages))

	resp, err := c.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                 speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:          16000,
			LanguageCode:             c.languages[0],
			AlternativeLanguageCodes: c.languages[1:],
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к Google Speech: %w", err)
	}

	var parts []string
	language := ""
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		parts = append(parts, strings.TrimSpace(alts[0].GetTranscript()))
		if language == "" {
			language = result.GetLanguageCode()
		}
	}

	return &Result{
		Text:     strings.TrimSpace(strings.Join(parts, " ")),
		Language: normalizeLanguage(language),
	}, nil
}
