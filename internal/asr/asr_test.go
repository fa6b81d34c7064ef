package asr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicebridge/internal/config"
)

func writeWAV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voice.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVE"), 0600))
	return path
}

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "uk", normalizeLanguage("uk-UA"))
	assert.Equal(t, "en", normalizeLanguage("English"))
	assert.Equal(t, "ru", normalizeLanguage(" ru "))
	assert.Equal(t, "", normalizeLanguage(""))
	assert.Equal(t, "eo", normalizeLanguage("eo"))
}

func TestWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/asr", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("output"))
		assert.Equal(t, "transcribe", r.URL.Query().Get("task"))

		file, header, err := r.FormFile("audio_file")
		if assert.NoError(t, err) {
			file.Close()
			assert.Equal(t, "voice.wav", header.Filename)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" Привіт, світ ","language":"uk","segments":[]}`))
	}))
	defer srv.Close()

	c := NewWhisper(srv.URL+"/", zap.NewNop())
	res, err := c.Transcribe(context.Background(), writeWAV(t))
	require.NoError(t, err)

	assert.Equal(t, "Привіт, світ", res.Text)
	assert.Equal(t, "uk", res.Language)
}

func TestWhisperErrors(t *testing.T) {
	t.Run("статус", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewWhisper(srv.URL, zap.NewNop()).Transcribe(context.Background(), writeWAV(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("content-type", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		}))
		defer srv.Close()

		_, err := NewWhisper(srv.URL, zap.NewNop()).Transcribe(context.Background(), writeWAV(t))
		assert.Error(t, err)
	})

	t.Run("нет файла", func(t *testing.T) {
		_, err := NewWhisper("http://127.0.0.1:1", zap.NewNop()).Transcribe(context.Background(), "/nonexistent.wav")
		assert.Error(t, err)
	})
}

func TestOpenAITranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"task":"transcribe","language":"english","duration":1.2,"text":"Hello there"}`))
	}))
	defer srv.Close()

	c := NewOpenAI("sk-test", srv.URL+"/v1", zap.NewNop())
	res, err := c.Transcribe(context.Background(), writeWAV(t))
	require.NoError(t, err)

	assert.Equal(t, "Hello there", res.Text)
	assert.Equal(t, "en", res.Language)
}

type fakeSpeechClient struct {
	req    *speechpb.RecognizeRequest
	resp   *speechpb.RecognizeResponse
	closed bool
}

func (f *fakeSpeechClient) Recognize(_ context.Context, req *speechpb.RecognizeRequest, _ ...gax.CallOption) (*speechpb.RecognizeResponse, error) {
	f.req = req
	return f.resp, nil
}

func (f *fakeSpeechClient) Close() error {
	f.closed = true
	return nil
}

func TestGoogleTranscribe(t *testing.T) {
	fake := &fakeSpeechClient{
		resp: &speechpb.RecognizeResponse{
			Results: []*speechpb.SpeechRecognitionResult{
				{
					Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "Добрий день"}},
					LanguageCode: "uk-ua",
				},
				{
					Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " як справи"}},
					LanguageCode: "uk-ua",
				},
				{},
			},
		},
	}

	c := newGoogleWithClient(fake, []string{"en-US", "uk-UA"}, zap.NewNop())
	res, err := c.Transcribe(context.Background(), writeWAV(t))
	require.NoError(t, err)

	assert.Equal(t, "Добрий день як справи", res.Text)
	assert.Equal(t, "uk", res.Language)

	require.NotNil(t, fake.req)
	assert.Equal(t, "en-US", fake.req.GetConfig().GetLanguageCode())
	assert.Equal(t, []string{"uk-UA"}, fake.req.GetConfig().GetAlternativeLanguageCodes())
	assert.Equal(t, int32(16000), fake.req.GetConfig().GetSampleRateHertz())
	assert.Equal(t, []byte("RIFF....WAVE"), fake.req.GetAudio().GetContent())

	require.NoError(t, c.Close())
	assert.True(t, fake.closed)
}

func TestGoogleEmptyResult(t *testing.T) {
	c := newGoogleWithClient(&fakeSpeechClient{resp: &speechpb.RecognizeResponse{}}, nil, zap.NewNop())
	res, err := c.Transcribe(context.Background(), writeWAV(t))
	require.NoError(t, err)

	assert.Empty(t, res.Text)
	assert.Empty(t, res.Language)
}

func TestNewRecognizer(t *testing.T) {
	logger := zap.NewNop()

	r, err := NewRecognizer(context.Background(), config.ASRConfig{Provider: config.ASRProviderWhisper, WhisperURL: "http://whisper:9000"}, config.OpenAIConfig{}, logger)
	require.NoError(t, err)
	assert.Equal(t, "whisper", r.Name())

	r, err = NewRecognizer(context.Background(), config.ASRConfig{Provider: config.ASRProviderOpenAI}, config.OpenAIConfig{APIKey: "k"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "openai", r.Name())

	_, err = NewRecognizer(context.Background(), config.ASRConfig{Provider: "vosk"}, config.OpenAIConfig{}, logger)
	assert.Error(t, err)
}
