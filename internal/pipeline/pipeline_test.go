package pipeline

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync/atomic"
	"testing"

	"video-failures-go/internal/logger"
	"video-failures-go/internal/media"
	"video-failures-go/internal/transcribe"
	"video-failures-go/internal/types"
)

type fakeMedia struct {
	duration float64
	wavPath  string
	probeErr error
}

func (f *fakeMedia) ProbeDuration(ctx context.Context, videoPath string) (float64, error) {
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	return f.duration, nil
}

func (f *fakeMedia) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	tmp, err := os.CreateTemp("", "test-audio-*.wav")
	if err != nil {
		return "", err
	}
	tmp.Close()
	f.wavPath = tmp.Name()
	return f.wavPath, nil
}

type fakeTranscriber struct {
	segments []types.TranscriptSegment
	err      error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, wavPath string) ([]types.TranscriptSegment, error) {
	return f.segments, f.err
}

type fakeEngine struct {
	calls  atomic.Int64
	events func(w types.ContextWindow) []types.FailureEvent
}

func (f *fakeEngine) Extract(ctx context.Context, w types.ContextWindow) []types.FailureEvent {
	f.calls.Add(1)
	if f.events == nil {
		return nil
	}
	return f.events(w)
}

func newPipeline(m MediaTool, tr transcribe.Backend, e WindowExtractor) *Pipeline {
	return &Pipeline{
		Media:              m,
		Transcriber:        tr,
		Engine:             e,
		MaxDurationSeconds: 300,
		Concurrency:        3,
		Log:                logger.New().WithField("component", "test"),
	}
}

func seg(start, end float64, text string) types.TranscriptSegment {
	return types.TranscriptSegment{Start: start, End: end, Text: text}
}

func TestRunEmptyTranscript(t *testing.T) {
	fm := &fakeMedia{duration: 60}
	fe := &fakeEngine{}
	p := newPipeline(fm, &fakeTranscriber{}, fe)

	got, err := p.Run(context.Background(), "video.mp4")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("got %v, want empty non-nil slice", got)
	}
	if fe.calls.Load() != 0 {
		t.Fatalf("extraction backend called %d times for empty transcript, want 0", fe.calls.Load())
	}
	assertRemoved(t, fm.wavPath)
}

func TestRunNoCandidates(t *testing.T) {
	fm := &fakeMedia{duration: 60}
	fe := &fakeEngine{}
	tr := &fakeTranscriber{segments: []types.TranscriptSegment{
		seg(0, 5, "everything works great"),
	}}
	p := newPipeline(fm, tr, fe)

	got, err := p.Run(context.Background(), "video.mp4")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 0 || fe.calls.Load() != 0 {
		t.Fatalf("got %v with %d engine calls, want none", got, fe.calls.Load())
	}
	assertRemoved(t, fm.wavPath)
}

func TestRunOverDuration(t *testing.T) {
	fm := &fakeMedia{duration: 400}
	p := newPipeline(fm, &fakeTranscriber{}, &fakeEngine{})

	_, err := p.Run(context.Background(), "video.mp4")
	if !media.IsMediaError(err) {
		t.Fatalf("err = %v, want a media error for over-duration input", err)
	}
}

func TestRunTranscriptionFailureStillCleansUp(t *testing.T) {
	fm := &fakeMedia{duration: 60}
	tr := &fakeTranscriber{err: &transcribe.Error{Backend: "test", Cause: errors.New("quota")}}
	p := newPipeline(fm, tr, &fakeEngine{})

	_, err := p.Run(context.Background(), "video.mp4")
	if !transcribe.IsTranscriptionError(err) {
		t.Fatalf("err = %v, want a transcription error", err)
	}
	assertRemoved(t, fm.wavPath)
}

func TestRunSuccessCleansUp(t *testing.T) {
	fm := &fakeMedia{duration: 60}
	tr := &fakeTranscriber{segments: []types.TranscriptSegment{
		seg(0, 5, "the page is broken"),
	}}
	fe := &fakeEngine{events: func(w types.ContextWindow) []types.FailureEvent {
		return []types.FailureEvent{{
			TimestampSeconds: w.Start(),
			Title:            "Page broken",
			Expected:         "e", Actual: "a", Evidence: "ev",
			Confidence: 0.8,
		}}
	}}
	p := newPipeline(fm, tr, fe)

	got, err := p.Run(context.Background(), "video.mp4")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	assertRemoved(t, fm.wavPath)
}

func TestRunDropsOutOfRangeTimestamps(t *testing.T) {
	fm := &fakeMedia{duration: 60}
	tr := &fakeTranscriber{segments: []types.TranscriptSegment{
		seg(0, 5, "the page is broken"),
	}}
	fe := &fakeEngine{events: func(w types.ContextWindow) []types.FailureEvent {
		return []types.FailureEvent{
			{TimestampSeconds: 500, Title: "Past the end", Expected: "e", Actual: "a", Evidence: "ev", Confidence: 0.9},
			{TimestampSeconds: 2, Title: "In range", Expected: "e", Actual: "a", Evidence: "ev", Confidence: 0.9},
		}
	}}
	p := newPipeline(fm, tr, fe)

	got, err := p.Run(context.Background(), "video.mp4")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || got[0].Title != "In range" {
		t.Fatalf("got %+v, want only the in-range event", got)
	}
}

func TestRunSortsByTimestamp(t *testing.T) {
	fm := &fakeMedia{duration: 60}
	tr := &fakeTranscriber{segments: []types.TranscriptSegment{
		seg(0, 5, "first bug here"),
		seg(5, 10, "fine"),
		seg(10, 15, "fine"),
		seg(15, 20, "fine"),
		seg(20, 25, "fine"),
		seg(25, 30, "another crash there"),
	}}
	// windows for candidates 0 and 5 begin at segments 0 and 3
	timestamps := map[float64]float64{0: 42.3, 15: 5.1}
	fe := &fakeEngine{events: func(w types.ContextWindow) []types.FailureEvent {
		ts := timestamps[w.Start()]
		return []types.FailureEvent{{
			TimestampSeconds: ts,
			Title:            "Bug at " + strconv.Itoa(int(ts)),
			Expected:         "e", Actual: "a", Evidence: "ev",
			Confidence: 0.8,
		}}
	}}
	p := newPipeline(fm, tr, fe)

	got, err := p.Run(context.Background(), "video.mp4")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].TimestampSeconds != 5.1 || got[1].TimestampSeconds != 42.3 {
		t.Fatalf("order = [%v, %v], want ascending [5.1, 42.3]", got[0].TimestampSeconds, got[1].TimestampSeconds)
	}
}

// Results must be reassembled in candidate order regardless of which
// extraction goroutine finishes first, so the greedy merge stays
// deterministic.
func TestRunCandidateOrderDeterministic(t *testing.T) {
	fm := &fakeMedia{duration: 300}
	segments := make([]types.TranscriptSegment, 20)
	for i := range segments {
		segments[i] = seg(float64(i*10), float64(i*10+5), "a bug appears")
	}
	tr := &fakeTranscriber{segments: segments}
	fe := &fakeEngine{events: func(w types.ContextWindow) []types.FailureEvent {
		return []types.FailureEvent{{
			TimestampSeconds: w.Start(),
			Title:            "Recurring glitch",
			Expected:         "e", Actual: "a", Evidence: "ev",
			Confidence: 0.8,
		}}
	}}
	p := newPipeline(fm, tr, fe)

	first, err := p.Run(context.Background(), "video.mp4")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 0; i < 3; i++ {
		fm2 := &fakeMedia{duration: 300}
		p2 := newPipeline(fm2, tr, fe)
		again, err := p2.Run(context.Background(), "video.mp4")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d produced %d events, first run produced %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d diverged at %d: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}

func assertRemoved(t *testing.T, path string) {
	t.Helper()
	if path == "" {
		return
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		os.Remove(path)
		t.Fatalf("temp file %s was not cleaned up", path)
	}
}
