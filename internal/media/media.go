package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// AllowedExtensions is the supported upload container set.
var AllowedExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
}

// Error is a media-level failure: unreadable, unsupported, or
// over-duration input. Fatal to the request, surfaced as a client error.
type Error struct {
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("media: %s: %v", e.Reason, e.Cause)
	}
	return "media: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Cause }

// IsMediaError reports whether err is (or wraps) a media Error.
func IsMediaError(err error) bool {
	var me *Error
	return errors.As(err, &me)
}

// Extractor shells out to ffmpeg/ffprobe.
type Extractor struct {
	ffmpeg  string
	ffprobe string
}

func NewExtractor(ffmpegPath, ffprobePath string) *Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Extractor{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// CheckExtension validates the upload filename against the supported
// container set.
func CheckExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !AllowedExtensions[ext] {
		return &Error{Reason: fmt.Sprintf("unsupported format %q, allowed: .mp4, .mov, .webm", ext)}
	}
	return nil
}

// ProbeDuration returns the container duration in seconds via ffprobe.
func (e *Extractor) ProbeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, &Error{Reason: "cannot read video metadata", Cause: fmt.Errorf("ffprobe: %w: %s", err, trim(out))}
	}
	s := strings.TrimSpace(string(out))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &Error{Reason: fmt.Sprintf("unparseable duration %q", s), Cause: err}
	}
	return sec, nil
}

// ExtractAudio converts the video to a temporary mono 16 kHz WAV file and
// returns its path. The caller owns cleanup of the returned file.
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	wavPath := filepath.Join(os.TempDir(), "audio-"+uuid.New().String()+".wav")

	cmd := exec.CommandContext(ctx, e.ffmpeg,
		"-y",
		"-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		wavPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(wavPath)
		return "", &Error{Reason: "audio extraction failed", Cause: fmt.Errorf("ffmpeg: %w: %s", err, trim(out))}
	}
	if _, err := os.Stat(wavPath); err != nil {
		return "", &Error{Reason: "ffmpeg produced no output file", Cause: err}
	}
	return wavPath, nil
}

// CheckTools verifies ffmpeg is runnable. Called once at startup so a
// missing binary is reported before the first upload arrives.
func (e *Extractor) CheckTools(ctx context.Context) error {
	if out, err := exec.CommandContext(ctx, e.ffmpeg, "-version").CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg not available: %w: %s", err, trim(out))
	}
	return nil
}

func trim(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 500 {
		s = s[:500]
	}
	return s
}
