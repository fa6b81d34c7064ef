package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Format целевой контейнер/кодек перекодирования
type Format string

const (
	// FormatOggOpus формат голосовых сообщений Telegram
	FormatOggOpus Format = "ogg"
	// FormatWAV16k 16 кГц моно PCM, который ожидают распознаватели
	FormatWAV16k Format = "wav"
)

// Ext возвращает расширение файла для формата
func (f Format) Ext() string {
	return "." + string(f)
}

func (f Format) args() ([]string, error) {
	switch f {
	case FormatOggOpus:
		return []string{"-vn", "-c:a", "libopus", "-f", "ogg"}, nil
	case FormatWAV16k:
		return []string{"-vn", "-ar", "16000", "-ac", "1", "-c:a", "pcm_s16le", "-f", "wav"}, nil
	default:
		return nil, fmt.Errorf("неподдерживаемый формат: %q", string(f))
	}
}

// Transcoder перекодирует аудио файл в заданный формат
type Transcoder interface {
	Transcode(ctx context.Context, inputFile, outputFile string, format Format) error
}

// FFmpeg реализует Transcoder через внешний процесс ffmpeg
type FFmpeg struct {
	path   string
	logger *zap.Logger
}

// NewFFmpeg создает транскодер. path путь к бинарнику ffmpeg
func NewFFmpeg(path string, logger *zap.Logger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{
		path:   path,
		logger: logger,
	}
}

// Transcode запускает ffmpeg и проверяет, что выходной файл создан
func (f *FFmpeg) Transcode(ctx context.Context, inputFile, outputFile string, format Format) error {
	formatArgs, err := format.args()
	if err != nil {
		return err
	}

	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", inputFile}
	args = append(args, formatArgs...)
	args = append(args, outputFile)

	cmd := exec.CommandContext(ctx, f.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ошибка выполнения ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	info, err := os.Stat(outputFile)
	if err != nil {
		return fmt.Errorf("ffmpeg не создал выходной файл: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("ffmpeg создал пустой файл: %s", outputFile)
	}

	f.logger.Debug("аудио перекодировано",
		zap.String("format", string(format)),
		zap.Int64("size", info.Size()),
		zap.Duration("took", time.Since(start)))

	return nil
}
