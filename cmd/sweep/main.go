package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"voicebridge/internal/config"
	"voicebridge/internal/logging"
	"voicebridge/internal/scratch"
)

func main() {
	cfg := config.LoadScratch()

	var (
		dir    = flag.String("dir", cfg.Scratch.Dir, "Каталог временных файлов")
		ttl    = flag.Duration("ttl", cfg.Scratch.TTL, "Удалять каталоги запросов старше этого возраста")
		dryRun = flag.Bool("dry-run", false, "Показать что будет удалено без фактического удаления")
	)
	flag.Parse()

	logger, err := logging.New("sweep", cfg.App)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	root, err := scratch.NewRoot(*dir, logger)
	if err != nil {
		logger.Fatal("Ошибка открытия каталога временных файлов", zap.Error(err))
	}

	removed, err := root.Sweep(*ttl, *dryRun)
	if err != nil {
		logger.Fatal("Ошибка уборки временных файлов", zap.Error(err))
	}

	if *dryRun {
		for _, path := range removed {
			logger.Info("DRY RUN: будет удален", zap.String("path", path))
		}
	}

	logger.Info("Уборка временных файлов завершена",
		zap.String("dir", *dir),
		zap.Duration("ttl", *ttl),
		zap.Bool("dry_run", *dryRun),
		zap.Int("count", len(removed)))
}
