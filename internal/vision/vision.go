// Package vision talks to hosted vision-language models.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/example/snake-check/internal/config"
)

// Prompt is the fixed instruction sent with every snake photo.
const Prompt = `Analyze this image of a snake and provide:
1. Species identification (if possible)
2. Safety classification: "Venomous", "Mildly Venomous", or "Not Venomous"
3. Brief description with key identifying features
4. Safety advice

Format your response as JSON with 'status' and 'description' fields.`

const (
	DefaultOpenAIModel = "gpt-4o"
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultMaxTokens   = 500
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("vision model returned no content")

// Request is a single image question.
type Request struct {
	Prompt    string
	Image     []byte
	MIMEType  string
	MaxTokens int
}

// Client describes an image using a hosted model.
type Client interface {
	// Describe returns the model's free-form answer to req.
	Describe(ctx context.Context, req Request) (string, error)
	ProviderName() string
	ModelName() string
}

// DataURI embeds data inline, e.g. "data:image/jpeg;base64,...".
func DataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// New builds the client selected by cfg.Provider.
func New(ctx context.Context, cfg config.VisionConfig) (Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported vision provider %q", cfg.Provider)
	}
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxTokens
	}
	return n
}
