package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicebridge/internal/apperr"
	"voicebridge/internal/metrics"
	"voicebridge/pkg/models"
)

func newClient(url string) *Client {
	return NewClient(url+"/", "tok", 0, metrics.New(zap.NewNop()), zap.NewNop())
}

func TestGenerateAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-audio", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req models.TextRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hello", req.Text)

		_ = json.NewEncoder(w).Encode(models.GenerateAudioResponse{AudioBase64: "T2dnUw==", Format: "ogg", Language: "en"})
	}))
	defer srv.Close()

	resp, err := newClient(srv.URL).GenerateAudio(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "T2dnUw==", resp.AudioBase64)
	assert.Equal(t, "en", resp.Language)
}

func TestTranscribeAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe-audio", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer file.Close()
			data, _ := io.ReadAll(file)
			assert.Equal(t, "OggS", string(data))
			assert.Equal(t, "voice.ogg", header.Filename)
		}

		_ = json.NewEncoder(w).Encode(models.TranscribeResponse{TranscribedText: "Привіт", Language: "uk"})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "in.ogg")
	require.NoError(t, os.WriteFile(path, []byte("OggS"), 0600))

	resp, err := newClient(srv.URL).TranscribeAudio(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Привіт", resp.TranscribedText)
	assert.Equal(t, "uk", resp.Language)
}

func TestDetail(t *testing.T) {
	assert.Equal(t, "Invalid token", detail([]byte(`{"detail":"Invalid token"}`)))
	assert.Equal(t, "пустой ответ", detail([]byte("  ")))

	long := detail([]byte(strings.Repeat("ж", 500)))
	assert.True(t, utf8.ValidString(long))
	assert.Equal(t, maxDetailRunes, utf8.RuneCountInString(long))
}

func TestErrors(t *testing.T) {
	t.Run("статус с detail", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"detail":"Invalid token"}`))
		}))
		defer srv.Close()

		_, err := newClient(srv.URL).GenerateAudio(context.Background(), "Hello")
		require.Error(t, err)
		assert.Equal(t, apperr.KindTransport, apperr.KindOf(err))
		assert.Contains(t, err.Error(), "403")

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusForbidden, se.Status)
		assert.Equal(t, "Invalid token", se.Detail)
	})

	t.Run("сеть", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := newClient(url).GenerateAudio(context.Background(), "Hello")
		require.Error(t, err)
		assert.Equal(t, apperr.KindTransport, apperr.KindOf(err))
	})

	t.Run("невалидный json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}))
		defer srv.Close()

		_, err := newClient(srv.URL).GenerateAudio(context.Background(), "Hello")
		assert.True(t, apperr.Is(err, apperr.KindTransport))
	})

	t.Run("нет файла", func(t *testing.T) {
		_, err := newClient("http://127.0.0.1:1").TranscribeAudio(context.Background(), "/nonexistent.ogg")
		assert.True(t, apperr.Is(err, apperr.KindTransport))
	})
}
