package speech

import (
	"context"
	"fmt"

	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/openai"
)

// Whisper реализует domain.Transcriber через OpenAI Audio API.
type Whisper struct {
	client   *openai.Client
	model    string
	language string
}

var _ domain.Transcriber = (*Whisper)(nil)

// NewWhisper создаёт адаптер расшифровки аудио.
func NewWhisper(client *openai.Client) *Whisper {
	return &Whisper{client: client, model: "whisper-1", language: "ru"}
}

// Transcribe переводит аудиозапись в текст.
func (w *Whisper) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, w.model, w.language, filename, audio)
	if err != nil {
		return "", fmt.Errorf("расшифровка аудио: %w", err)
	}
	return resp.Text, nil
}
