package dedupe

import (
	"strings"

	"video-failures-go/internal/types"
)

// Two events describe the same real-world failure when their timestamps
// are within MaxTimestampGap seconds and their titles clear the
// similarity threshold.
const (
	MaxTimestampGap     = 30.0
	SimilarityThreshold = 0.5
)

// TitleSimilarity is word-level Jaccard similarity on lowercased text.
// Near-paraphrases of the same title score high; unrelated titles at
// nearby timestamps do not.
func TitleSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 1.0
	}
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}
	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

// Duplicates reports whether a and b describe the same failure.
func Duplicates(a, b types.FailureEvent) bool {
	gap := a.TimestampSeconds - b.TimestampSeconds
	if gap < 0 {
		gap = -gap
	}
	return gap <= MaxTimestampGap && TitleSimilarity(a.Title, b.Title) > SimilarityThreshold
}

// Merge collapses duplicate events, keeping exactly one per real-world
// failure. The merge is greedy: each event, in production order, is
// compared against the already-accepted set. On a duplicate the higher
// confidence wins; on a tie the earlier-produced event stays. Events
// pass through unchanged - the merger only drops or replaces. The
// result's membership can depend on input order; callers must feed
// events in a deterministic order.
func Merge(events []types.FailureEvent) []types.FailureEvent {
	accepted := make([]types.FailureEvent, 0, len(events))
	for _, ev := range events {
		dup := -1
		for i, kept := range accepted {
			if Duplicates(ev, kept) {
				dup = i
				break
			}
		}
		if dup == -1 {
			accepted = append(accepted, ev)
			continue
		}
		if ev.Confidence > accepted[dup].Confidence {
			accepted[dup] = ev
		}
	}
	return accepted
}
