package models

// TextRequest тело запроса POST /generate-audio
type TextRequest struct {
	Text string `json:"text"`
}

// GenerateAudioResponse ответ POST /generate-audio
type GenerateAudioResponse struct {
	AudioBase64 string `json:"audio_base64"`
	Format      string `json:"format"`
	Language    string `json:"language"`
}

// TranscribeResponse ответ POST /transcribe-audio
type TranscribeResponse struct {
	TranscribedText string `json:"transcribed_text"`
	Language        string `json:"language"`
}

// ErrorResponse тело любого ответа с ошибкой
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// AudioArtifact результат синтеза. Живет только в пределах запроса.
type AudioArtifact struct {
	Data     []byte
	Format   string // всегда ogg
	Language string
}

// TranscriptionResult результат распознавания
type TranscriptionResult struct {
	Text     string
	Language string
}
