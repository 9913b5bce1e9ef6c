// Package textgen wraps the generative-text providers used to draft
// candidate questions and to suggest resolutions.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"academy/internal/config"
)

var ErrParse = errors.New("generated text has no usable structure")

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New builds the configured provider. An empty provider returns (nil, nil):
// callers treat a nil Generator as "text generation disabled".
func New(cfg config.TextGenConfig) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "":
		return nil, nil
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("textgen: openai api key is empty")
		}
		return NewOpenAI(cfg), nil
	case "anthropic":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("textgen: anthropic api key is empty")
		}
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("textgen: unknown provider %q", cfg.Provider)
	}
}
