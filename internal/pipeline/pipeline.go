package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"video-failures-go/internal/dedupe"
	"video-failures-go/internal/detect"
	"video-failures-go/internal/media"
	"video-failures-go/internal/transcribe"
	"video-failures-go/internal/types"
)

// MediaTool is the slice of the media adapter the pipeline needs.
type MediaTool interface {
	ProbeDuration(ctx context.Context, videoPath string) (float64, error)
	ExtractAudio(ctx context.Context, videoPath string) (string, error)
}

// WindowExtractor produces failure events for one context window. It
// never fails the request; a bad window contributes zero events.
type WindowExtractor interface {
	Extract(ctx context.Context, window types.ContextWindow) []types.FailureEvent
}

// Pipeline drives one request through every analysis stage:
// audio -> transcript -> candidates -> windows -> extraction -> dedupe -> sort.
type Pipeline struct {
	Media       MediaTool
	Transcriber transcribe.Backend
	Engine      WindowExtractor

	// MaxDurationSeconds gates uploads before conversion.
	MaxDurationSeconds float64
	// Concurrency bounds the per-window extraction fan-out.
	Concurrency int

	Log *logrus.Entry
}

// Run analyzes one video file and returns the deduplicated, sorted
// failure events. Temporary files created along the way are removed on
// every exit path.
func (p *Pipeline) Run(ctx context.Context, videoPath string) ([]types.FailureEvent, error) {
	log := p.Log

	duration, err := p.Media.ProbeDuration(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	if duration > p.MaxDurationSeconds {
		return nil, &media.Error{Reason: fmt.Sprintf("video is %.0fs, max allowed is %.0fs", duration, p.MaxDurationSeconds)}
	}

	log.WithField("duration_s", duration).Info("extracting audio")
	wavPath, err := p.Media.ExtractAudio(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Cleanup must never fail the request.
		if err := os.Remove(wavPath); err != nil && !os.IsNotExist(err) {
			log.WithField("path", wavPath).WithField("error", err.Error()).Warn("temp WAV cleanup failed")
		}
	}()

	log.Info("transcribing audio")
	segments, err := p.Transcriber.Transcribe(ctx, wavPath)
	if err != nil {
		return nil, err
	}
	log.WithField("segments", len(segments)).Info("transcription done")
	if len(segments) == 0 {
		return []types.FailureEvent{}, nil
	}

	candidates := detect.Candidates(segments)
	log.WithField("candidates", len(candidates)).Info("candidate detection done")
	if len(candidates) == 0 {
		return []types.FailureEvent{}, nil
	}

	windows := detect.Windows(segments, candidates)
	raw := p.extractAll(ctx, windows)
	log.WithField("raw_events", len(raw)).Info("extraction done")

	kept := raw[:0]
	for _, ev := range raw {
		if ev.TimestampSeconds < 0 || ev.TimestampSeconds > duration {
			log.WithField("timestamp_s", ev.TimestampSeconds).Warn("dropping event outside video duration")
			continue
		}
		kept = append(kept, ev)
	}

	merged := dedupe.Merge(kept)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TimestampSeconds < merged[j].TimestampSeconds
	})
	log.WithField("failures", len(merged)).Info("pipeline done")
	return merged, nil
}

// extractAll fans windows out to the extraction engine with bounded
// parallelism, then reassembles results in candidate order so the
// merger's order-sensitive tie-breaking stays deterministic.
func (p *Pipeline) extractAll(ctx context.Context, windows []types.ContextWindow) []types.FailureEvent {
	limit := p.Concurrency
	if limit < 1 {
		limit = 1
	}

	results := make([][]types.FailureEvent, len(windows))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, w := range windows {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, w types.ContextWindow) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = p.Engine.Extract(ctx, w)
		}(i, w)
	}
	wg.Wait()

	var out []types.FailureEvent
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}
