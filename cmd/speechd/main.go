package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"voicebridge/internal/asr"
	"voicebridge/internal/audio"
	"voicebridge/internal/auth"
	"voicebridge/internal/config"
	"voicebridge/internal/langdetect"
	"voicebridge/internal/logging"
	"voicebridge/internal/metrics"
	"voicebridge/internal/scheduler"
	"voicebridge/internal/scratch"
	"voicebridge/internal/server"
	"voicebridge/internal/speech"
	"voicebridge/internal/tts"
)

func main() {
	cfg, err := config.LoadProcessor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New("speechd", cfg.App)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск сервиса обработки речи",
		zap.String("tts_provider", cfg.TTS.Provider),
		zap.String("asr_provider", cfg.ASR.Provider),
		zap.String("scratch_dir", cfg.Scratch.Dir))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, err := scratch.NewRoot(cfg.Scratch.Dir, logger)
	if err != nil {
		logger.Fatal("ошибка инициализации каталога временных файлов", zap.Error(err))
	}

	synth, err := tts.NewSynthesizer(cfg.TTS, cfg.OpenAI, logger)
	if err != nil {
		logger.Fatal("ошибка создания синтезатора", zap.Error(err))
	}

	recognizer, err := asr.NewRecognizer(ctx, cfg.ASR, cfg.OpenAI, logger)
	if err != nil {
		logger.Fatal("ошибка создания распознавателя", zap.Error(err))
	}
	if closer, ok := recognizer.(io.Closer); ok {
		defer closer.Close()
	}

	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, "speechd", root.Dir(), logger)

	svc := speech.NewService(
		root,
		langdetect.NewWhatlang(cfg.TTS.DefaultLanguage, logger),
		synth,
		audio.NewFFmpeg(cfg.Audio.FFmpegPath, logger),
		recognizer,
		metricsSystem,
		logger,
	)

	srv := server.New(svc, auth.NewGuard(cfg.Auth.Token, logger), metricsSystem, metricsHandler, cfg.Audio.MaxUploadBytes, logger)

	// Уборка временных каталогов, оставшихся после падений
	taskScheduler := scheduler.NewScheduler(logger)
	taskScheduler.AddJob(scheduler.NewSweepJob(root, cfg.Scratch.TTL, metricsSystem, logger))
	go taskScheduler.Start(ctx, cfg.Scratch.SweepInterval)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go serve(httpServer, stop, logger)

	logger.Info("сервис обработки речи запущен", zap.String("address", httpServer.Addr))

	<-ctx.Done()
	logger.Info("получен сигнал завершения, начинаем graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке HTTP сервера", zap.Error(err))
	}

	logger.Info("сервис обработки речи остановлен")
}

// serve запускает HTTP сервер. При ошибке запуска вызывает stop, чтобы main
// прошел обычный путь остановки с отложенными вызовами.
func serve(srv *http.Server, stop func(), logger *zap.Logger) {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("ошибка HTTP сервера", zap.Error(err))
		stop()
	}
}
