package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"video-failures-go/internal/types"
)

// Fixture replays canned segments from a JSON file. Useful for demos and
// end-to-end runs without a speech backend.
type Fixture struct {
	path string
}

func NewFixture(path string) *Fixture {
	return &Fixture{path: path}
}

func (f *Fixture) Transcribe(ctx context.Context, wavPath string) ([]types.TranscriptSegment, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, &Error{Backend: "fixture", Cause: fmt.Errorf("read fixture: %w", err)}
	}
	var segments []types.TranscriptSegment
	if err := json.Unmarshal(raw, &segments); err != nil {
		return nil, &Error{Backend: "fixture", Cause: fmt.Errorf("decode fixture: %w", err)}
	}
	return segments, nil
}
