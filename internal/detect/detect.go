package detect

import (
	"strings"

	"video-failures-go/internal/types"
)

// FailureKeywords are the lexical signals that flag a segment as a
// candidate. Substring matched, case-insensitive, so "problematic" also
// trips "problem". This is a pre-filter, not a classifier: false
// positives are weeded out by the extraction engine.
var FailureKeywords = []string{
	"doesn't",
	"does not",
	"nothing happens",
	"broken",
	"error",
	"bug",
	"fails",
	"wrong",
	"stuck",
	"crash",
	"not working",
	"issue",
	"problem",
}

// WindowRadius is how many neighboring segments are included on each
// side of a candidate.
const WindowRadius = 2

// Candidates returns the indices of segments whose text contains any
// failure keyword. Pure and deterministic.
func Candidates(segments []types.TranscriptSegment) []int {
	var out []int
	for i, seg := range segments {
		lower := strings.ToLower(seg.Text)
		for _, kw := range FailureKeywords {
			if strings.Contains(lower, kw) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// Window builds the context window around one candidate index, clamped
// at transcript boundaries. CenterIndex is relative to the window.
func Window(segments []types.TranscriptSegment, idx int) types.ContextWindow {
	start := idx - WindowRadius
	if start < 0 {
		start = 0
	}
	end := idx + WindowRadius
	if end > len(segments)-1 {
		end = len(segments) - 1
	}
	return types.ContextWindow{
		Segments:    segments[start : end+1],
		CenterIndex: idx - start,
	}
}

// Windows expands every candidate into its window, preserving candidate
// order. Nearby candidates produce overlapping windows on purpose; the
// deduplicator reconciles the resulting repeats.
func Windows(segments []types.TranscriptSegment, candidates []int) []types.ContextWindow {
	out := make([]types.ContextWindow, 0, len(candidates))
	for _, idx := range candidates {
		out = append(out, Window(segments, idx))
	}
	return out
}
