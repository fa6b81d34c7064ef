package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicebridge/internal/apperr"
	"voicebridge/internal/auth"
	"voicebridge/internal/metrics"
	"voicebridge/pkg/models"
)

const testToken = "secret-token"

type fakeSpeech struct {
	mu          sync.Mutex
	calls       int
	audio       []byte
	gotFilename string
	gotUpload   []byte
	err         error
}

func (f *fakeSpeech) Synthesize(_ context.Context, text string) (*models.AudioArtifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("Text must not be empty")
	}
	return &models.AudioArtifact{Data: f.audio, Format: "ogg", Language: "en"}, nil
}

func (f *fakeSpeech) Transcribe(_ context.Context, r io.Reader, filename string) (*models.TranscriptionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.gotFilename = filename
	f.gotUpload, _ = io.ReadAll(r)
	return &models.TranscriptionResult{Text: "Привіт", Language: "uk"}, nil
}

func newTestServer(t *testing.T, speech *fakeSpeech, maxUpload int64) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	m := metrics.New(logger)

	s := New(speech, auth.NewGuard(testToken, logger), m, metrics.NewHandler(m, "speechd", t.TempDir(), logger), maxUpload, logger)
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, authHeader, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func postFile(t *testing.T, url, field, filename string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeDetail(t *testing.T, resp *http.Response) string {
	t.Helper()
	var e models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e.Detail
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "без заголовка", header: "", want: http.StatusUnauthorized},
		{name: "без Bearer", header: "Token " + testToken, want: http.StatusUnauthorized},
		{name: "чужой токен", header: "Bearer wrong", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			speech := &fakeSpeech{}
			srv := newTestServer(t, speech, 0)

			for _, path := range []string{"/generate-audio", "/transcribe-audio"} {
				resp := postJSON(t, srv.URL+path, tt.header, `{"text":"Hello"}`)
				assert.Equal(t, tt.want, resp.StatusCode, path)
				assert.NotEmpty(t, decodeDetail(t, resp))
			}
			assert.Zero(t, speech.calls, "движки не должны вызываться без авторизации")
		})
	}
}

func TestGenerateAudio(t *testing.T) {
	raw := make([]byte, 256)
	for i := range raw {
		raw[i] = byte(i)
	}
	srv := newTestServer(t, &fakeSpeech{audio: raw}, 0)

	resp := postJSON(t, srv.URL+"/generate-audio", "Bearer "+testToken, `{"text":"Hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.GenerateAudioResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ogg", body.Format)
	assert.Equal(t, "en", body.Language)

	decoded, err := base64.StdEncoding.DecodeString(body.AudioBase64)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestGenerateAudioBadRequest(t *testing.T) {
	srv := newTestServer(t, &fakeSpeech{}, 0)

	resp := postJSON(t, srv.URL+"/generate-audio", "Bearer "+testToken, `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/generate-audio", "Bearer "+testToken, `{"text":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateAudioLongTextAccepted(t *testing.T) {
	speech := &fakeSpeech{audio: []byte("OggS")}
	srv := newTestServer(t, speech, 1024)

	// длину текста ограничивает бот, сервис принимает любой размер тела
	body := `{"text":"` + strings.Repeat("a", 2<<20) + `"}`
	resp := postJSON(t, srv.URL+"/generate-audio", "Bearer "+testToken, body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, speech.calls)
}

func TestGenerateAudioProcessingError(t *testing.T) {
	speech := &fakeSpeech{err: apperr.Processing("Error generating audio", io.ErrUnexpectedEOF)}
	srv := newTestServer(t, speech, 0)

	resp := postJSON(t, srv.URL+"/generate-audio", "Bearer "+testToken, `{"text":"Hello"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Error generating audio: unexpected EOF", decodeDetail(t, resp))
}

func TestTranscribeAudio(t *testing.T) {
	speech := &fakeSpeech{}
	srv := newTestServer(t, speech, 1<<20)

	resp := postFile(t, srv.URL+"/transcribe-audio", "file", "voice.ogg", []byte("OggS"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.TranscribeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Привіт", body.TranscribedText)
	assert.Equal(t, "uk", body.Language)
	assert.Equal(t, "voice.ogg", speech.gotFilename)
	assert.Equal(t, []byte("OggS"), speech.gotUpload)
}

func TestTranscribeAudioBadRequest(t *testing.T) {
	t.Run("нет поля file", func(t *testing.T) {
		speech := &fakeSpeech{}
		srv := newTestServer(t, speech, 1<<20)

		resp := postFile(t, srv.URL+"/transcribe-audio", "audio", "voice.ogg", []byte("OggS"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Zero(t, speech.calls)
	})

	t.Run("не multipart", func(t *testing.T) {
		srv := newTestServer(t, &fakeSpeech{}, 1<<20)

		resp := postJSON(t, srv.URL+"/transcribe-audio", "Bearer "+testToken, `{}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("слишком большой файл", func(t *testing.T) {
		speech := &fakeSpeech{}
		srv := newTestServer(t, speech, 1024)

		resp := postFile(t, srv.URL+"/transcribe-audio", "file", "voice.ogg", bytes.Repeat([]byte("x"), 4096))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Zero(t, speech.calls)
	})
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeSpeech{}, 0)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
