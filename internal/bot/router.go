package bot

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"voicebridge/internal/apperr"
	"voicebridge/internal/backend"
	"voicebridge/internal/config"
	"voicebridge/internal/metrics"
	"voicebridge/internal/scratch"
	"voicebridge/pkg/models"
)

const (
	// Bot API не отдает файлы больше 20MB
	MaxFileSize = 20 * 1024 * 1024

	downloadTimeout = 30 * time.Second
	// сколько ждем начатые обработчики при остановке, прежде чем отменить их
	drainTimeout = 30 * time.Second
)

// BotAPI часть Telegram Bot API, которой пользуется роутер. *tgbotapi.BotAPI ей удовлетворяет.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Backend сервис обработки речи
type Backend interface {
	GenerateAudio(ctx context.Context, text string) (*models.GenerateAudioResponse, error)
	TranscribeAudio(ctx context.Context, path string) (*models.TranscribeResponse, error)
}

// Router разбирает входящие сообщения по типу и пересылает их в сервис обработки
type Router struct {
	bot        BotAPI
	backend    Backend
	root       *scratch.Root
	httpClient *http.Client
	maxText    int
	maxVoice   int
	metrics    *metrics.Metrics
	logger     *zap.Logger

	drainTimeout time.Duration
	wg           sync.WaitGroup
}

// NewRouter создает роутер
func NewRouter(api BotAPI, svc Backend, root *scratch.Root, cfg config.RelayConfig, m *metrics.Metrics, logger *zap.Logger) *Router {
	return &Router{
		bot:     api,
		backend: svc,
		root:    root,
		httpClient: &http.Client{
			Timeout: downloadTimeout,
		},
		maxText:      cfg.MaxTextLength,
		maxVoice:     cfg.MaxVoiceSeconds,
		metrics:      m,
		logger:       logger,
		drainTimeout: drainTimeout,
	}
}

// Run обрабатывает обновления, каждое в своей горутине. После отмены ctx
// или закрытия канала новые обновления не принимаются, а уже начатые
// обработчики дорабатывают до конца, но не дольше drainTimeout.
func (r *Router) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	// отмена ctx не должна обрывать запросы, которые уже в работе
	handlerCtx, cancelHandlers := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelHandlers()
	defer r.drain(cancelHandlers)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				r.logger.Info("канал обновлений закрыт")
				return
			}
			if update.Message == nil {
				continue
			}

			r.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer r.wg.Done()
				if err := r.HandleUpdate(handlerCtx, update); err != nil {
					r.logger.Error("ошибка обработки обновления",
						zap.Int64("chat_id", update.Message.Chat.ID),
						zap.Error(err))
				}
			}(update)

		case <-ctx.Done():
			r.logger.Info("остановка обработки обновлений")
			return
		}
	}
}

// drain ждет начатые обработчики. По истечении drainTimeout отменяет их
// контекст и дожидается выхода.
func (r *Router) drain(cancel context.CancelFunc) {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(r.drainTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		r.logger.Warn("обработчики не завершились вовремя, отменяем", zap.Duration("timeout", r.drainTimeout))
		cancel()
		<-done
	}
}

// HandleUpdate обрабатывает одно обновление. Ошибки сервиса обработки
// уходят пользователю текстом; наружу возвращаются только ошибки отправки в Telegram.
func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	message := update.Message
	if message == nil {
		return nil
	}

	r.logger.Debug("получено обновление",
		zap.Int64("chat_id", message.Chat.ID),
		zap.Int("message_id", message.MessageID))

	switch {
	case message.IsCommand():
		return r.handleCommand(message)
	case message.Voice != nil:
		return r.handleVoice(ctx, message)
	case message.Text != "":
		return r.handleText(ctx, message)
	default:
		r.logger.Debug("пропускаем сообщение неподдерживаемого типа", zap.Int64("chat_id", message.Chat.ID))
		return nil
	}
}

func (r *Router) handleCommand(message *tgbotapi.Message) error {
	r.metrics.RecordRelayMessage("command", "ok")

	switch message.Command() {
	case "start", "help":
		return r.reply(message, msgHello, false)
	default:
		return r.reply(message, msgUnknownCommand, false)
	}
}

func (r *Router) handleText(ctx context.Context, message *tgbotapi.Message) error {
	// лимит считается по исходному тексту, до обрезки пробелов
	if n := utf8.RuneCountInString(message.Text); n > r.maxText {
		r.metrics.RecordRelayMessage("text", "rejected")
		return r.reply(message, fmt.Sprintf(msgTextTooLong, n, r.maxText), false)
	}

	resp, err := r.backend.GenerateAudio(ctx, strings.TrimSpace(message.Text))
	if err != nil {
		return r.replyFailure(message, "text", err)
	}

	if resp.AudioBase64 == "" {
		r.metrics.RecordRelayMessage("text", "failed")
		return r.reply(message, msgNoAudio, false)
	}

	data, err := base64.StdEncoding.DecodeString(resp.AudioBase64)
	if err != nil {
		r.logger.Error("ошибка декодирования аудио", zap.Error(err))
		r.metrics.RecordRelayMessage("text", "failed")
		return r.reply(message, msgNoAudio, false)
	}

	arena, err := r.root.New()
	if err != nil {
		return r.replyFailure(message, "text", err)
	}
	defer arena.Close()

	path, err := arena.WriteFile(".ogg", data)
	if err != nil {
		return r.replyFailure(message, "text", err)
	}

	voice := tgbotapi.NewVoice(message.Chat.ID, tgbotapi.FilePath(path))
	voice.ReplyToMessageID = message.MessageID
	if _, err := r.bot.Send(voice); err != nil {
		r.metrics.RecordRelayMessage("text", "failed")
		return fmt.Errorf("ошибка отправки голосового: %w", err)
	}

	r.metrics.RecordRelayMessage("text", "ok")
	r.logger.Info("голосовое отправлено",
		zap.Int64("chat_id", message.Chat.ID),
		zap.String("language", resp.Language),
		zap.Int("audio_size", len(data)))
	return nil
}

func (r *Router) handleVoice(ctx context.Context, message *tgbotapi.Message) error {
	if d := message.Voice.Duration; d > r.maxVoice {
		r.metrics.RecordRelayMessage("voice", "rejected")
		return r.reply(message, fmt.Sprintf(msgVoiceTooLong, d, r.maxVoice), false)
	}

	arena, err := r.root.New()
	if err != nil {
		return r.replyFailure(message, "voice", err)
	}
	defer arena.Close()

	path := arena.Path(".ogg")
	if err := r.fetchVoice(ctx, message.Voice.FileID, path); err != nil {
		r.logger.Error("ошибка получения голосового из Telegram", zap.Error(err))
		r.metrics.RecordRelayMessage("voice", "failed")
		return r.reply(message, msgNoVoiceFile, false)
	}

	resp, err := r.backend.TranscribeAudio(ctx, path)
	if err != nil {
		return r.replyFailure(message, "voice", err)
	}

	text := resp.TranscribedText
	if text == "" {
		text = msgNoTranscript
	}
	language := resp.Language
	if language == "" {
		language = msgUnknownLanguage
	}

	r.metrics.RecordRelayMessage("voice", "ok")
	return r.reply(message, fmt.Sprintf(msgTranscript, html.EscapeString(text), html.EscapeString(language)), true)
}

// fetchVoice скачивает файл голосового сообщения по file_id в path
func (r *Router) fetchVoice(ctx context.Context, fileID, path string) error {
	link, err := r.bot.GetFileDirectURL(fileID)
	if err != nil {
		return apperr.UpstreamFetch("ошибка получения ссылки на файл", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return apperr.UpstreamFetch("ошибка создания запроса", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		// в тексте ошибки url с токеном бота
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return apperr.UpstreamFetch("ошибка скачивания файла", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperr.UpstreamFetch("ошибка скачивания файла", fmt.Errorf("статус %d", resp.StatusCode))
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return apperr.UpstreamFetch("ошибка создания файла", err)
	}

	written, err := io.Copy(out, io.LimitReader(resp.Body, MaxFileSize+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return apperr.UpstreamFetch("ошибка сохранения файла", err)
	}
	if written > MaxFileSize {
		return apperr.UpstreamFetch("файл слишком большой", fmt.Errorf("больше %d байт", MaxFileSize))
	}
	return nil
}

// replyFailure сообщает пользователю об ошибке запроса к сервису обработки
func (r *Router) replyFailure(message *tgbotapi.Message, kind string, err error) error {
	r.logger.Error("ошибка запроса к сервису обработки",
		zap.Int64("chat_id", message.Chat.ID),
		zap.String("kind", kind),
		zap.Error(err))
	r.metrics.RecordRelayMessage(kind, "failed")
	return r.reply(message, failureText(err), false)
}

// failureText текст ошибки для пользователя. Внутренние подробности и адрес
// сервиса остаются только в логе, наружу уходит лишь detail из ответа сервиса.
func failureText(err error) string {
	var statusErr *backend.StatusError
	switch {
	case errors.As(err, &statusErr):
		return fmt.Sprintf(msgRequestErr, statusErr.Detail)
	case apperr.Is(err, apperr.KindTransport):
		return msgServiceDown
	default:
		return msgInternalErr
	}
}

func (r *Router) reply(message *tgbotapi.Message, text string, asHTML bool) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	if asHTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}

	if _, err := r.bot.Send(msg); err != nil {
		return fmt.Errorf("ошибка отправки сообщения: %w", err)
	}
	return nil
}
