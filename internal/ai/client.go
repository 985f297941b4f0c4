// Package ai wraps the Gemini API behind the analysis collaborator
// contract: hard timeouts, bounded retries, and field-by-field defaulting
// of partial responses. Callers treat any returned error as "collaborator
// unavailable" and switch to the offline fallback classifier; nothing in
// this package is allowed to surface to the UI layer as a hard failure.
package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrEmptyResponse is returned when the model produced no usable candidate.
var ErrEmptyResponse = errors.New("ai: empty model response")

// Config holds the model selection and the per-operation timeout budgets.
type Config struct {
	Model          string
	MessageTimeout time.Duration
	MediaTimeout   time.Duration
}

// DefaultConfig returns the stock model and timeout budgets: 8s for text
// messages, 60s for deep forensic media analysis.
func DefaultConfig() Config {
	return Config{
		Model:          "gemini-2.5-flash",
		MessageTimeout: 8 * time.Second,
		MediaTimeout:   60 * time.Second,
	}
}

// Client talks to Gemini with separate tuned models for message
// classification and media forensics.
type Client struct {
	genai        *genai.Client
	messageModel *genai.GenerativeModel
	mediaModel   *genai.GenerativeModel
	cfg          Config
	logger       *zap.Logger
}

// NewClient dials Gemini and prepares the two analysis models. Low
// temperature keeps the output analytical rather than creative.
func NewClient(ctx context.Context, apiKey string, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.MessageTimeout <= 0 {
		cfg.MessageTimeout = DefaultConfig().MessageTimeout
	}
	if cfg.MediaTimeout <= 0 {
		cfg.MediaTimeout = DefaultConfig().MediaTimeout
	}

	gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	messageModel := gc.GenerativeModel(cfg.Model)
	messageModel.SystemInstruction = genai.NewUserContent(genai.Text(messageSystemPrompt))
	messageModel.ResponseMIMEType = applicationJSON
	messageModel.ResponseSchema = messageSchema()
	messageModel.SetTemperature(0.2)

	mediaModel := gc.GenerativeModel(cfg.Model)
	mediaModel.ResponseMIMEType = applicationJSON
	mediaModel.ResponseSchema = mediaSchema()
	mediaModel.SetTemperature(0.2)

	return &Client{
		genai:        gc,
		messageModel: messageModel,
		mediaModel:   mediaModel,
		cfg:          cfg,
		logger:       logger.Named("ai"),
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.genai.Close()
}

const applicationJSON = "application/json"

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
