package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"voicebridge/internal/apperr"
	"voicebridge/internal/auth"
	"voicebridge/internal/metrics"
	"voicebridge/pkg/models"
)

const (
	// часть multipart формы, которая держится в памяти; остальное уходит во временные файлы
	maxFormMemory = 8 << 20
)

// Speech операции, которые сервер открывает наружу
type Speech interface {
	Synthesize(ctx context.Context, text string) (*models.AudioArtifact, error)
	Transcribe(ctx context.Context, r io.Reader, filename string) (*models.TranscriptionResult, error)
}

// Server HTTP слой сервиса обработки речи
type Server struct {
	speech    Speech
	guard     *auth.Guard
	metrics   *metrics.Metrics
	health    *metrics.Handler
	maxUpload int64
	logger    *zap.Logger
}

// New создает сервер
func New(speech Speech, guard *auth.Guard, m *metrics.Metrics, health *metrics.Handler, maxUpload int64, logger *zap.Logger) *Server {
	return &Server{
		speech:    speech,
		guard:     guard,
		metrics:   m,
		health:    health,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// Routes собирает роутер. Проверка токена стоит перед обработчиками,
// поэтому отклоненный запрос не доходит до движков и диска.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		}),
	)

	r.Get("/health", s.health.HealthHandler)
	r.Method(http.MethodGet, "/metrics", s.health.MetricsHandler())

	r.Group(func(pr chi.Router) {
		pr.Use(s.observe, s.guard.Middleware)

		pr.Post("/generate-audio", s.generateAudio)
		pr.Post("/transcribe-audio", s.transcribeAudio)
	})

	return r
}

// observe пишет лог и метрику по каждому запросу к API, включая отклоненные
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordHTTPRequest(r.URL.Path, status)
		s.logger.Info("запрос обработан",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(started)))
	})
}

func (s *Server) generateAudio(w http.ResponseWriter, r *http.Request) {
	var req models.TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperr.Wrap(apperr.KindValidation, "Invalid JSON body", err))
		return
	}

	art, err := s.speech.Synthesize(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, models.GenerateAudioResponse{
		AudioBase64: base64.StdEncoding.EncodeToString(art.Data),
		Format:      art.Format,
		Language:    art.Language,
	})
}

func (s *Server) transcribeAudio(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, apperr.Validation(fmt.Sprintf("Uploaded file exceeds %d bytes", tooLarge.Limit)))
			return
		}
		s.writeError(w, apperr.Wrap(apperr.KindValidation, "Invalid multipart form", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, apperr.Validation("Field 'file' is required"))
		return
	}
	defer file.Close()

	res, err := s.transcribe(r.Context(), file, header)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, models.TranscribeResponse{
		TranscribedText: res.Text,
		Language:        res.Language,
	})
}

func (s *Server) transcribe(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*models.TranscriptionResult, error) {
	s.logger.Info("получен файл на распознавание",
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size))
	return s.speech.Transcribe(ctx, file, header.Filename)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("ошибка обработки запроса", zap.Error(err))
	} else {
		s.logger.Warn("некорректный запрос", zap.Error(err))
	}
	s.writeJSON(w, status, models.ErrorResponse{Detail: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("ошибка записи ответа", zap.Error(err))
	}
}
