package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Root корневой каталог для временных файлов обоих сервисов.
// Каждый запрос получает собственный подкаталог с UUID именем,
// поэтому параллельные запросы не пересекаются по путям.
type Root struct {
	dir    string
	logger *zap.Logger
}

// NewRoot создает корневой каталог, если его нет
func NewRoot(dir string, logger *zap.Logger) (*Root, error) {
	if dir == "" {
		return nil, fmt.Errorf("пустой путь к каталогу временных файлов")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога временных файлов: %w", err)
	}
	return &Root{dir: dir, logger: logger}, nil
}

// Dir возвращает путь к корневому каталогу
func (r *Root) Dir() string {
	return r.dir
}

// New выделяет арену для одного запроса
func (r *Root) New() (*Arena, error) {
	dir := filepath.Join(r.dir, uuid.NewString())
	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания арены: %w", err)
	}
	return &Arena{dir: dir, logger: r.logger}, nil
}

// Sweep удаляет арены старше ttl. Используется для уборки после падения процесса.
func (r *Root) Sweep(ttl time.Duration, dryRun bool) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога %s: %w", r.dir, err)
	}

	cutoff := time.Now().Add(-ttl)
	var removed []string

	for _, entry := range entries {
		if _, err := uuid.Parse(entry.Name()); err != nil {
			// не наша арена
			continue
		}

		info, err := entry.Info()
		if err != nil {
			r.logger.Warn("не удалось прочитать атрибуты арены",
				zap.String("name", entry.Name()),
				zap.Error(err))
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(r.dir, entry.Name())
		if !dryRun {
			if err := os.RemoveAll(path); err != nil {
				r.logger.Warn("ошибка удаления арены", zap.String("path", path), zap.Error(err))
				continue
			}
		}
		removed = append(removed, path)
	}

	return removed, nil
}

// Arena каталог временных файлов одного запроса. Close удаляет все содержимое.
type Arena struct {
	dir    string
	logger *zap.Logger
}

// Dir возвращает путь к каталогу арены
func (a *Arena) Dir() string {
	return a.dir
}

// Path возвращает уникальный путь внутри арены с расширением ext
func (a *Arena) Path(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(a.dir, uuid.NewString()+ext)
}

// WriteFile записывает данные в новый файл арены
func (a *Arena) WriteFile(ext string, data []byte) (string, error) {
	path := a.Path(ext)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("ошибка записи временного файла: %w", err)
	}
	return path, nil
}

// Create создает новый файл арены для потоковой записи
func (a *Arena) Create(ext string) (*os.File, error) {
	path := a.Path(ext)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	return f, nil
}

// Close удаляет арену целиком
func (a *Arena) Close() error {
	if err := os.RemoveAll(a.dir); err != nil {
		a.logger.Warn("ошибка удаления временных файлов",
			zap.String("dir", a.dir),
			zap.Error(err))
		return err
	}
	return nil
}
