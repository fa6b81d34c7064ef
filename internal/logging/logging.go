package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"voicebridge/internal/config"
)

// New инициализирует логгер сервиса.
// В разработке консольный формат, иначе JSON. Пишет в stdout и logs/<service>.log.
func New(service string, app config.AppConfig) (*zap.Logger, error) {
	var cfg zap.Config
	if app.IsDevelopment() {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = app.GetLogLevel()

	// Создаем директорию для логов если её нет
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории логов: %w", err)
	}

	cfg.OutputPaths = []string{"stdout", filepath.Join("logs", service+".log")}
	cfg.ErrorOutputPaths = []string{"stderr", filepath.Join("logs", service+".error.log")}
	cfg.InitialFields = map[string]interface{}{"service": service}

	return cfg.Build()
}
