package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"video-failures-go/internal/types"
)

const openAITranscriptionURL = "https://api.openai.com/v1/audio/transcriptions"

// OpenAI calls the hosted Whisper API with verbose_json output so the
// response carries per-segment timestamps.
type OpenAI struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		apiKey: apiKey,
		model:  model,
		url:    openAITranscriptionURL,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

type verboseResponse struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (o *OpenAI) Transcribe(ctx context.Context, wavPath string) ([]types.TranscriptSegment, error) {
	body, contentType, err := buildMultipart(wavPath, o.model)
	if err != nil {
		return nil, &Error{Backend: "openai", Cause: err}
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 90 * time.Second

	var parsed verboseResponse
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
		req.Header.Set("Content-Type", contentType)

		resp, err := o.client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("whisper server error %d: %s", resp.StatusCode, truncate(respBody))
			return lastErr
		}
		if resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("whisper request rejected %d: %s", resp.StatusCode, truncate(respBody))
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			lastErr = fmt.Errorf("decode whisper response: %w body=%s", err, truncate(respBody))
			return lastErr
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, &Error{Backend: "openai", Cause: lastErr}
	}

	segments := make([]types.TranscriptSegment, 0, len(parsed.Segments))
	for _, s := range parsed.Segments {
		segments = append(segments, types.TranscriptSegment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return segments, nil
}

func buildMultipart(wavPath, model string) ([]byte, string, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	if err := w.WriteField("model", model); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("response_format", "verbose_json"); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("timestamp_granularities[]", "segment"); err != nil {
		return nil, "", err
	}
	fw, err := w.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return b.Bytes(), w.FormDataContentType(), nil
}

func truncate(b []byte) string {
	s := string(b)
	if len(s) > 400 {
		s = s[:400]
	}
	return s
}
