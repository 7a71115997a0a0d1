package extract

import (
	"errors"
	"fmt"

	"video-failures-go/internal/config"
)

// ErrNotConfigured marks a provider selected without its required
// settings. The HTTP layer maps it to 501.
var ErrNotConfigured = errors.New("extraction provider not configured")

// NewBackendFromConfig selects the backend named by EXTRACT_PROVIDER.
func NewBackendFromConfig(cfg config.Config) (Backend, error) {
	switch cfg.ExtractProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for the openai provider", ErrNotConfigured)
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.LLMModel), nil
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown EXTRACT_PROVIDER %q", cfg.ExtractProvider)
	}
}
