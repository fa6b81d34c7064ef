package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"voicebridge/internal/apperr"
	"voicebridge/internal/asr"
	"voicebridge/internal/audio"
	"voicebridge/internal/langdetect"
	"voicebridge/internal/metrics"
	"voicebridge/internal/scratch"
	"voicebridge/internal/tts"
	"voicebridge/pkg/models"
)

const (
	// NoSpeechText возвращается, если распознаватель не вернул текст
	NoSpeechText = "Не вдалося розпізнати текст."
	// UnknownLanguage возвращается, если язык не определен
	UnknownLanguage = "unknown"

	msgGenerate   = "Error generating audio"
	msgTranscribe = "Error processing audio"
)

// Допустимые расширения загружаемого аудио
var allowedExtensions = map[string]bool{
	".ogg": true,
	".oga": true,
	".mp3": true,
}

// Service синтез и распознавание речи. Все файлы запроса живут в отдельной
// арене и удаляются до возврата из метода, в том числе при ошибке.
type Service struct {
	root       *scratch.Root
	detector   langdetect.Detector
	synth      tts.Synthesizer
	transcoder audio.Transcoder
	recognizer asr.Recognizer
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewService создает сервис обработки речи
func NewService(
	root *scratch.Root,
	detector langdetect.Detector,
	synth tts.Synthesizer,
	transcoder audio.Transcoder,
	recognizer asr.Recognizer,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		root:       root,
		detector:   detector,
		synth:      synth,
		transcoder: transcoder,
		recognizer: recognizer,
		metrics:    m,
		logger:     logger,
	}
}

// Synthesize превращает текст в ogg/opus на языке текста
func (s *Service) Synthesize(ctx context.Context, text string) (*models.AudioArtifact, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Text must not be empty")
	}

	started := time.Now()
	lang, err := s.detector.Detect(text)
	s.metrics.ObserveStage("detect", started, err)
	if err != nil {
		return nil, apperr.Processing(msgGenerate, err)
	}

	arena, err := s.root.New()
	if err != nil {
		return nil, apperr.Processing(msgGenerate, err)
	}
	defer arena.Close()

	started = time.Now()
	synthesized, err := s.synth.Synthesize(ctx, text, lang)
	s.metrics.ObserveStage("synthesize", started, err)
	if err != nil {
		return nil, apperr.Processing(msgGenerate, err)
	}

	input, err := arena.WriteFile(synthesized.Format, synthesized.Data)
	if err != nil {
		return nil, apperr.Processing(msgGenerate, err)
	}
	output := arena.Path(audio.FormatOggOpus.Ext())

	if err := s.transcode(ctx, input, output, audio.FormatOggOpus); err != nil {
		return nil, apperr.Processing(msgGenerate, err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, apperr.Processing(msgGenerate, fmt.Errorf("ошибка чтения результата: %w", err))
	}

	s.logger.Info("аудио сгенерировано",
		zap.String("language", lang),
		zap.String("engine", s.synth.Name()),
		zap.Int("text_length", len([]rune(text))),
		zap.Int("audio_size", len(data)))

	return &models.AudioArtifact{
		Data:     data,
		Format:   string(audio.FormatOggOpus),
		Language: lang,
	}, nil
}

// Transcribe распознает загруженное аудио. Расширение проверяется
// до выделения арены.
func (s *Service) Transcribe(ctx context.Context, r io.Reader, filename string) (*models.TranscriptionResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, apperr.Validation(fmt.Sprintf("Unsupported audio format %q, expected .ogg, .oga or .mp3", ext))
	}

	arena, err := s.root.New()
	if err != nil {
		return nil, apperr.Processing(msgTranscribe, err)
	}
	defer arena.Close()

	input, err := s.stage(arena, ext, r)
	if err != nil {
		return nil, apperr.Processing(msgTranscribe, err)
	}

	wav := arena.Path(audio.FormatWAV16k.Ext())
	if err := s.transcode(ctx, input, wav, audio.FormatWAV16k); err != nil {
		return nil, apperr.Processing(msgTranscribe, err)
	}

	started := time.Now()
	res, err := s.recognizer.Transcribe(ctx, wav)
	s.metrics.ObserveStage("transcribe", started, err)
	if err != nil {
		return nil, apperr.Processing(msgTranscribe, err)
	}

	result := &models.TranscriptionResult{
		Text:     strings.TrimSpace(res.Text),
		Language: strings.TrimSpace(res.Language),
	}
	if result.Text == "" {
		result.Text = NoSpeechText
	}
	if result.Language == "" {
		result.Language = UnknownLanguage
	}

	s.logger.Info("аудио распознано",
		zap.String("language", result.Language),
		zap.String("engine", s.recognizer.Name()),
		zap.Int("text_length", len([]rune(result.Text))))

	return result, nil
}

func (s *Service) stage(arena *scratch.Arena, ext string, r io.Reader) (string, error) {
	f, err := arena.Create(ext)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("ошибка сохранения загруженного файла: %w", err)
	}
	return f.Name(), nil
}

func (s *Service) transcode(ctx context.Context, input, output string, format audio.Format) error {
	started := time.Now()
	err := s.transcoder.Transcode(ctx, input, output, format)
	s.metrics.ObserveStage("transcode", started, err)
	return err
}
