package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"voicebridge/internal/backend"
	"voicebridge/internal/bot"
	"voicebridge/internal/config"
	"voicebridge/internal/logging"
	"voicebridge/internal/metrics"
	"voicebridge/internal/scratch"
)

func main() {
	cfg, err := config.LoadRelay()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New("relay", cfg.App)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск Telegram relay",
		zap.String("api_url", cfg.Backend.BaseURL),
		zap.Int("max_text_length", cfg.Relay.MaxTextLength),
		zap.Int("max_voice_seconds", cfg.Relay.MaxVoiceSeconds))

	root, err := scratch.NewRoot(cfg.Scratch.Dir, logger)
	if err != nil {
		logger.Fatal("ошибка инициализации каталога временных файлов", zap.Error(err))
	}

	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, "relay", root.Dir(), logger)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatal("ошибка инициализации Telegram бота", zap.Error(err))
	}

	logger.Info("Telegram бот инициализирован",
		zap.String("username", botAPI.Self.UserName),
		zap.Int64("id", botAPI.Self.ID))

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Auth.Token, cfg.Backend.Timeout, metricsSystem, logger)
	router := bot.NewRouter(botAPI, client, root, cfg.Relay, metricsSystem, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go startMetricsServer(ctx, cfg.Relay.MetricsPort, metricsHandler, logger)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := botAPI.GetUpdatesChan(updateConfig)

	logger.Info("relay запущен и готов к работе")

	// Run возвращается после отмены ctx и завершения начатых обработчиков
	router.Run(ctx, updates)

	botAPI.StopReceivingUpdates()
	logger.Info("relay остановлен")
}

// startMetricsServer запускает HTTP сервер для метрик и проверки здоровья
func startMetricsServer(ctx context.Context, port int, handler *metrics.Handler, logger *zap.Logger) {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("HTTP сервер метрик запущен", zap.String("address", server.Addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ошибка HTTP сервера метрик", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке HTTP сервера метрик", zap.Error(err))
	}

	logger.Info("HTTP сервер метрик остановлен")
}
