package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"video-failures-go/internal/types"
)

// WhisperCpp runs a local whisper.cpp binary and reads its JSON output.
type WhisperCpp struct {
	bin   string
	model string
}

func NewWhisperCpp(binPath, modelPath string) *WhisperCpp {
	return &WhisperCpp{bin: binPath, model: modelPath}
}

// whisper.cpp -oj output shape (timestamps in "HH:MM:SS,mmm" plus offsets
// in milliseconds; offsets are authoritative).
type whisperCppOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func (w *WhisperCpp) Transcribe(ctx context.Context, wavPath string) ([]types.TranscriptSegment, error) {
	outPrefix := filepath.Join(os.TempDir(), "whisper-"+uuid.New().String())
	defer os.Remove(outPrefix + ".json")

	cmd := exec.CommandContext(ctx, w.bin,
		"-m", w.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, &Error{Backend: "whispercpp", Cause: fmt.Errorf("whisper.cpp failed: %w: %s", err, truncate(out))}
	}

	raw, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, &Error{Backend: "whispercpp", Cause: fmt.Errorf("read whisper.cpp output: %w", err)}
	}

	var parsed whisperCppOutput
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &Error{Backend: "whispercpp", Cause: fmt.Errorf("decode whisper.cpp output: %w", err)}
	}

	segments := make([]types.TranscriptSegment, 0, len(parsed.Transcription))
	for _, t := range parsed.Transcription {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		segments = append(segments, types.TranscriptSegment{
			Start: float64(t.Offsets.From) / 1000.0,
			End:   float64(t.Offsets.To) / 1000.0,
			Text:  text,
		})
	}
	return segments, nil
}
