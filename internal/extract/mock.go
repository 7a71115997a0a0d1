package extract

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"video-failures-go/internal/types"
)

// Mock is a deterministic offline backend. It fabricates one plausible
// failure event from the window text in the user message, so the full
// parse/validate path is exercised without any API key.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Complete(ctx context.Context, msgs []Message) (string, error) {
	var window string
	for _, msg := range msgs {
		if msg.Role == "user" {
			window = msg.Content
			break
		}
	}

	lines := nonEmptyLines(window)
	if len(lines) == 0 {
		return "[]", nil
	}

	mid := lines[len(lines)/2]
	timestamp := parseLineStart(mid)
	lower := strings.ToLower(window)

	var expected, actual string
	switch {
	case strings.Contains(lower, "doesn't") || strings.Contains(lower, "does not"):
		expected = "Feature should work as intended"
		actual = "Feature is not working"
	case strings.Contains(lower, "error") || strings.Contains(lower, "bug"):
		expected = "No errors should occur"
		actual = "Error or bug encountered"
	case strings.Contains(lower, "broken") || strings.Contains(lower, "crash"):
		expected = "Application should remain stable"
		actual = "Application is broken or crashed"
	default:
		expected = "Expected behavior"
		actual = "Unexpected behavior observed"
	}

	evidence := window
	if len(evidence) > 100 {
		evidence = strings.TrimSpace(evidence[:100]) + "..."
	}

	out, err := json.Marshal([]types.FailureEvent{{
		TimestampSeconds: timestamp,
		Title:            "Issue described in narration",
		Expected:         expected,
		Actual:           actual,
		Evidence:         evidence,
		Confidence:       0.6,
	}})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// parseLineStart reads the leading "[12.3s" timestamp from a formatted
// window line. Returns 0 when the line does not carry one.
func parseLineStart(line string) float64 {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") {
		return 0
	}
	end := strings.Index(line, "s ")
	if end <= 1 {
		return 0
	}
	v, err := strconv.ParseFloat(line[1:end], 64)
	if err != nil {
		return 0
	}
	return v
}
