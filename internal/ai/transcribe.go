package ai

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"
)

// Transcribe recognizes an OGG voice clip through the Whisper endpoint and
// returns the plain text, or "" when nothing intelligible came back.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model:    openai.AudioModel(c.whisperModel),
		File:     openai.File(bytes.NewReader(audio), "voice.ogg", "audio/ogg"),
		Language: openai.String("ru"),
	})
	if err != nil {
		return "", fmt.Errorf("transcribe voice: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text != "" {
		c.logger.Info("voice recognized", zap.Int("audio_bytes", len(audio)), zap.Int("text_len", len(text)))
	}
	return text, nil
}
