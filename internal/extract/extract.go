package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"video-failures-go/internal/types"
)

// Message is one turn of a chat-style completion request.
type Message struct {
	Role    string
	Content string
}

// Backend is the structured-extraction collaborator. It returns raw text
// that is expected, not guaranteed, to be a strict JSON array; parsing
// and repair are entirely the engine's job.
type Backend interface {
	Complete(ctx context.Context, msgs []Message) (string, error)
}

// Engine runs the two-attempt extraction protocol per window: one
// initial call, at most one repair call, then the window is skipped.
type Engine struct {
	backend Backend
	log     *logrus.Entry
}

func NewEngine(backend Backend, log *logrus.Entry) *Engine {
	return &Engine{backend: backend, log: log}
}

// Extract returns the failure events described in one context window.
// A window whose both attempts fail contributes zero events; extraction
// never fails the request.
func (e *Engine) Extract(ctx context.Context, window types.ContextWindow) []types.FailureEvent {
	msgs := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: FormatWindow(window)},
	}

	reply, err := e.backend.Complete(ctx, msgs)
	if err == nil {
		events, parseErr := ParseFailures(reply)
		if parseErr == nil {
			return events
		}
		err = parseErr
	}

	// Repair attempt: replay the conversation with the error spelled out.
	repair := msgs
	if reply != "" {
		repair = append(repair, Message{Role: "assistant", Content: reply})
	}
	repair = append(repair, Message{Role: "user", Content: repairPrompt(err)})

	reply, err2 := e.backend.Complete(ctx, repair)
	if err2 == nil {
		events, parseErr := ParseFailures(reply)
		if parseErr == nil {
			return events
		}
		err2 = parseErr
	}

	e.log.WithFields(logrus.Fields{
		"window_start": window.Start(),
		"first_error":  err.Error(),
		"repair_error": err2.Error(),
	}).Warn("window skipped after failed repair attempt")
	return nil
}

// FormatWindow renders a window's segments the way the extraction prompt
// expects them.
func FormatWindow(window types.ContextWindow) string {
	lines := make([]string, 0, len(window.Segments))
	for _, seg := range window.Segments {
		lines = append(lines, fmt.Sprintf("[%.1fs - %.1fs] %s", seg.Start, seg.End, seg.Text))
	}
	return strings.Join(lines, "\n")
}

// rawEvent uses pointer fields so a missing key is distinguishable from
// a zero value.
type rawEvent struct {
	TimestampSeconds *float64 `json:"timestamp_seconds"`
	Title            *string  `json:"title"`
	Expected         *string  `json:"expected"`
	Actual           *string  `json:"actual"`
	Evidence         *string  `json:"evidence"`
	Confidence       *float64 `json:"confidence"`
}

func (r rawEvent) validate() error {
	switch {
	case r.TimestampSeconds == nil:
		return fmt.Errorf("missing field timestamp_seconds")
	case r.Title == nil:
		return fmt.Errorf("missing field title")
	case r.Expected == nil:
		return fmt.Errorf("missing field expected")
	case r.Actual == nil:
		return fmt.Errorf("missing field actual")
	case r.Evidence == nil:
		return fmt.Errorf("missing field evidence")
	case r.Confidence == nil:
		return fmt.Errorf("missing field confidence")
	}
	return nil
}

// ParseFailures decodes a backend reply into validated failure events.
// Any malformed element invalidates the whole attempt so the repair call
// can name the problem.
func ParseFailures(text string) ([]types.FailureEvent, error) {
	cleaned := stripFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}

	var raw []rawEvent
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("not a valid JSON array: %w", err)
	}

	events := make([]types.FailureEvent, 0, len(raw))
	for i, r := range raw {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		ev := types.FailureEvent{
			TimestampSeconds: *r.TimestampSeconds,
			Title:            *r.Title,
			Expected:         *r.Expected,
			Actual:           *r.Actual,
			Evidence:         *r.Evidence,
			Confidence:       *r.Confidence,
		}
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// stripFences removes markdown code fences some models wrap around JSON.
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	var kept []string
	for _, line := range strings.Split(t, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
