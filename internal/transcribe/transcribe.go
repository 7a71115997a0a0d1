package transcribe

import (
	"context"
	"errors"
	"fmt"

	"video-failures-go/internal/config"
	"video-failures-go/internal/types"
)

// Backend turns a mono 16 kHz WAV file into ordered transcript segments.
// An empty recording yields an empty slice, not an error.
type Backend interface {
	Transcribe(ctx context.Context, wavPath string) ([]types.TranscriptSegment, error)
}

// Error is a transcription failure after a valid waveform was handed to
// the backend. Fatal to the request, surfaced as an upstream error.
type Error struct {
	Backend string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transcription (%s): %v", e.Backend, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// IsTranscriptionError reports whether err is (or wraps) a transcription Error.
func IsTranscriptionError(err error) bool {
	var te *Error
	return errors.As(err, &te)
}

// ErrNotConfigured marks a provider selected without its required
// settings. The HTTP layer maps it to 501.
var ErrNotConfigured = errors.New("transcription provider not configured")

// NewFromConfig selects the backend named by TRANSCRIBE_PROVIDER.
func NewFromConfig(cfg config.Config) (Backend, error) {
	switch cfg.TranscribeProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for the openai provider", ErrNotConfigured)
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.WhisperModel), nil
	case "whispercpp":
		if cfg.WhisperCppBin == "" || cfg.WhisperCppModelPath == "" {
			return nil, fmt.Errorf("%w: WHISPERCPP_BIN and WHISPERCPP_MODEL_PATH are required for the whispercpp provider", ErrNotConfigured)
		}
		return NewWhisperCpp(cfg.WhisperCppBin, cfg.WhisperCppModelPath), nil
	case "fixture":
		if cfg.TranscribeFixture == "" {
			return nil, fmt.Errorf("%w: TRANSCRIBE_FIXTURE is required for the fixture provider", ErrNotConfigured)
		}
		return NewFixture(cfg.TranscribeFixture), nil
	default:
		return nil, fmt.Errorf("unknown TRANSCRIBE_PROVIDER %q", cfg.TranscribeProvider)
	}
}
