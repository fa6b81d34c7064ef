package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config содержит все конфигурационные параметры обоих сервисов
type Config struct {
	Telegram TelegramConfig
	Backend  BackendConfig
	Relay    RelayConfig
	Auth     AuthConfig
	TTS      TTSConfig
	ASR      ASRConfig
	OpenAI   OpenAIConfig
	Audio    AudioConfig
	Scratch  ScratchConfig
	App      AppConfig
}

// TelegramConfig содержит настройки Telegram бота
type TelegramConfig struct {
	BotToken string
}

// BackendConfig описывает, как relay обращается к сервису обработки
type BackendConfig struct {
	BaseURL string
	// Timeout 0 означает таймаут транспорта по умолчанию
	Timeout time.Duration
}

// RelayConfig лимиты на входящие сообщения
type RelayConfig struct {
	MaxTextLength   int
	MaxVoiceSeconds int
	MetricsPort     int
}

type AuthConfig struct {
	Token string
}

// TTSConfig настройки синтеза речи
type TTSConfig struct {
	Provider        string
	BaseURL         string
	DefaultLanguage string
	Voice           string
}

// ASRConfig настройки распознавания речи
type ASRConfig struct {
	Provider        string
	WhisperURL      string
	GoogleLanguages []string
}

// OpenAIConfig общий для TTS и ASR провайдеров openai
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

type AudioConfig struct {
	FFmpegPath     string
	MaxUploadBytes int64
}

// ScratchConfig каталог временных файлов и параметры уборки
type ScratchConfig struct {
	Dir           string
	TTL           time.Duration
	SweepInterval time.Duration
}

type AppConfig struct {
	Env      string
	LogLevel string
	Port     int
}

const (
	TTSProviderGTranslate = "gtranslate"
	TTSProviderPiper      = "piper"
	TTSProviderOpenAI     = "openai"

	ASRProviderWhisper = "whisper"
	ASRProviderOpenAI  = "openai"
	ASRProviderGoogle  = "google"
)

// LoadRelay загружает конфигурацию Telegram relay
func LoadRelay() (*Config, error) {
	cfg := load()
	if err := validateRelay(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}
	return cfg, nil
}

// LoadProcessor загружает конфигурацию сервиса обработки речи
func LoadProcessor() (*Config, error) {
	cfg := load()
	if err := validateProcessor(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}
	return cfg, nil
}

// LoadScratch загружает только настройки, нужные для уборки временных файлов
func LoadScratch() *Config {
	return load()
}

func load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	// Telegram
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	// Backend
	cfg.Backend.BaseURL = strings.TrimRight(getEnvDefault("API_URL", "http://localhost:8000"), "/")
	cfg.Backend.Timeout = getEnvDurationDefault("BACKEND_TIMEOUT", 0)

	// Relay
	cfg.Relay.MaxTextLength = getEnvIntDefault("MAX_TEXT_LENGTH", 500)
	cfg.Relay.MaxVoiceSeconds = getEnvIntDefault("MAX_VOICE_SECONDS", 30)
	cfg.Relay.MetricsPort = getEnvIntDefault("METRICS_PORT", 9091)

	// Auth
	cfg.Auth.Token = os.Getenv("AUTH_TOKEN")

	// TTS
	cfg.TTS.Provider = strings.ToLower(getEnvDefault("TTS_PROVIDER", TTSProviderGTranslate))
	cfg.TTS.BaseURL = os.Getenv("TTS_BASE_URL")
	cfg.TTS.DefaultLanguage = getEnvDefault("TTS_DEFAULT_LANGUAGE", "en")
	cfg.TTS.Voice = getEnvDefault("TTS_VOICE", "alloy")

	// ASR
	cfg.ASR.Provider = strings.ToLower(getEnvDefault("ASR_PROVIDER", ASRProviderWhisper))
	cfg.ASR.WhisperURL = strings.TrimRight(getEnvDefault("WHISPER_API_URL", "http://whisper:9000"), "/")
	cfg.ASR.GoogleLanguages = getEnvListDefault("GOOGLE_SPEECH_LANGUAGES", []string{"en-US", "uk-UA", "ru-RU"})

	// OpenAI, общий для TTS и ASR провайдеров openai
	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAI.BaseURL = os.Getenv("OPENAI_BASE_URL")

	// Audio
	cfg.Audio.FFmpegPath = getEnvDefault("FFMPEG_PATH", "ffmpeg")
	cfg.Audio.MaxUploadBytes = int64(getEnvIntDefault("MAX_UPLOAD_BYTES", 25*1024*1024))

	// Scratch
	cfg.Scratch.Dir = getEnvDefault("SCRATCH_DIR", filepath.Join(os.TempDir(), "voicebridge"))
	cfg.Scratch.TTL = getEnvDurationDefault("SCRATCH_TTL", time.Hour)
	cfg.Scratch.SweepInterval = getEnvDurationDefault("SWEEP_INTERVAL", 15*time.Minute)

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.Port = getEnvIntDefault("APP_PORT", 8000)

	return cfg
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvListDefault(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// validateRelay проверяет конфигурацию relay
func validateRelay(cfg *Config) error {
	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN не установлен")
	}
	if cfg.Auth.Token == "" {
		return fmt.Errorf("AUTH_TOKEN не установлен")
	}
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("API_URL не установлен")
	}
	if cfg.Relay.MaxTextLength <= 0 {
		return fmt.Errorf("MAX_TEXT_LENGTH должен быть положительным")
	}
	if cfg.Relay.MaxVoiceSeconds <= 0 {
		return fmt.Errorf("MAX_VOICE_SECONDS должен быть положительным")
	}
	return nil
}

// validateProcessor проверяет конфигурацию сервиса обработки
func validateProcessor(cfg *Config) error {
	if cfg.Auth.Token == "" {
		return fmt.Errorf("AUTH_TOKEN не установлен")
	}

	switch cfg.TTS.Provider {
	case TTSProviderGTranslate:
	case TTSProviderPiper:
		if cfg.TTS.BaseURL == "" {
			return fmt.Errorf("TTS_BASE_URL обязателен для провайдера piper")
		}
	case TTSProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY не установлен")
		}
	default:
		return fmt.Errorf("поддерживаются только TTS_PROVIDER: gtranslate, piper, openai")
	}

	switch cfg.ASR.Provider {
	case ASRProviderWhisper:
		if cfg.ASR.WhisperURL == "" {
			return fmt.Errorf("WHISPER_API_URL не установлен")
		}
	case ASRProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY не установлен")
		}
	case ASRProviderGoogle:
		if len(cfg.ASR.GoogleLanguages) == 0 {
			return fmt.Errorf("GOOGLE_SPEECH_LANGUAGES не установлен")
		}
	default:
		return fmt.Errorf("поддерживаются только ASR_PROVIDER: whisper, openai, google")
	}

	if cfg.Audio.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES должен быть положительным")
	}
	return nil
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction проверяет, запущено ли приложение в продакшн режиме
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
