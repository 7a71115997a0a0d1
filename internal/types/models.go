package types

import "fmt"

// TranscriptSegment is one timestamped span of transcribed narration.
// Segments are produced only by a transcription backend and are ordered
// by Start within a transcript.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// ContextWindow is a bounded run of consecutive segments around one
// candidate segment. CenterIndex is relative to Segments.
type ContextWindow struct {
	Segments    []TranscriptSegment
	CenterIndex int
}

// Start returns the earliest segment start in the window.
func (w ContextWindow) Start() float64 {
	if len(w.Segments) == 0 {
		return 0
	}
	return w.Segments[0].Start
}

// End returns the latest segment end in the window.
func (w ContextWindow) End() float64 {
	if len(w.Segments) == 0 {
		return 0
	}
	return w.Segments[len(w.Segments)-1].End
}

// FailureEvent is one distinct bug described in the narration.
type FailureEvent struct {
	TimestampSeconds float64 `json:"timestamp_seconds"`
	Title            string  `json:"title"`
	Expected         string  `json:"expected"`
	Actual           string  `json:"actual"`
	Evidence         string  `json:"evidence"`
	Confidence       float64 `json:"confidence"`
}

// Validate rejects events whose confidence falls outside [0,1].
// Malformed events are dropped, never clamped.
func (e FailureEvent) Validate() error {
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range [0,1]", e.Confidence)
	}
	return nil
}

// AnalyzeResponse is the success payload of POST /analyze.
type AnalyzeResponse struct {
	Failures []FailureEvent `json:"failures"`
}
