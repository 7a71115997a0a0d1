package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the full environment-driven configuration, read once at
// process start. Provider selection happens here, not at request time.
type Config struct {
	Port string

	// media tooling
	FFmpegPath  string
	FFprobePath string

	// upload limits
	MaxDurationSeconds float64
	MaxUploadBytes     int64

	// transcription backend: openai | whispercpp | fixture
	TranscribeProvider  string
	OpenAIAPIKey        string
	WhisperModel        string
	WhisperCppBin       string
	WhisperCppModelPath string
	TranscribeFixture   string

	// extraction backend: openai | mock
	ExtractProvider    string
	LLMModel           string
	ExtractConcurrency int
}

func FromEnv() Config {
	return Config{
		Port:                envOr("PORT", "8080"),
		FFmpegPath:          envOr("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:         envOr("FFPROBE_PATH", "ffprobe"),
		MaxDurationSeconds:  envFloatOr("MAX_DURATION_SECONDS", 300),
		MaxUploadBytes:      envInt64Or("MAX_UPLOAD_BYTES", 200<<20),
		TranscribeProvider:  envOr("TRANSCRIBE_PROVIDER", "openai"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		WhisperModel:        envOr("WHISPER_MODEL", "whisper-1"),
		WhisperCppBin:       os.Getenv("WHISPERCPP_BIN"),
		WhisperCppModelPath: os.Getenv("WHISPERCPP_MODEL_PATH"),
		TranscribeFixture:   os.Getenv("TRANSCRIBE_FIXTURE"),
		ExtractProvider:     envOr("EXTRACT_PROVIDER", "openai"),
		LLMModel:            envOr("LLM_MODEL", "gpt-4o-mini"),
		ExtractConcurrency:  envIntOr("EXTRACT_CONCURRENCY", 3),
	}
}

// Validate checks settings that would otherwise fail deep inside a request.
func (c Config) Validate() error {
	if c.MaxDurationSeconds <= 0 {
		return fmt.Errorf("MAX_DURATION_SECONDS must be > 0, got %v", c.MaxDurationSeconds)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0, got %d", c.MaxUploadBytes)
	}
	if c.ExtractConcurrency < 1 {
		return fmt.Errorf("EXTRACT_CONCURRENCY must be >= 1, got %d", c.ExtractConcurrency)
	}
	switch c.TranscribeProvider {
	case "openai", "whispercpp", "fixture":
	default:
		return fmt.Errorf("unknown TRANSCRIBE_PROVIDER %q", c.TranscribeProvider)
	}
	switch c.ExtractProvider {
	case "openai", "mock":
	default:
		return fmt.Errorf("unknown EXTRACT_PROVIDER %q", c.ExtractProvider)
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envIntOr(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envInt64Or(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envFloatOr(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
