package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	requestTimeout = 60 * time.Second
	temperature    = 0.3
	maxTokens      = 2048
)

// Client talks to an OpenAI-compatible endpoint (Groq, DeepSeek or OpenAI
// itself) for chat completions and Whisper transcription.
type Client struct {
	client       openai.Client
	model        string
	whisperModel string
	logger       *zap.Logger
}

func NewClient(apiKey, baseURL, model, whisperModel string, logger *zap.Logger) *Client {
	httpClient := &http.Client{Timeout: requestTimeout}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)
	return &Client{
		client:       client,
		model:        model,
		whisperModel: whisperModel,
		logger:       logger,
	}
}

// Complete sends the assembled conversation and returns the raw model text.
// The caller normalizes it; this layer only reports transport-level failure.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    toUnionMessages(messages),
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	}

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func toUnionMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
