package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"video-failures-go/internal/config"
	"video-failures-go/internal/types"
)

func writeTempWav(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFFfake"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFixtureBackend(t *testing.T) {
	segments := []types.TranscriptSegment{
		{Start: 0, End: 5, Text: "hello"},
		{Start: 5, End: 9, Text: "the button is broken"},
	}
	data, _ := json.Marshal(segments)
	path := filepath.Join(t.TempDir(), "transcript.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFixture(path).Transcribe(context.Background(), "ignored.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(got) != 2 || got[1].Text != "the button is broken" {
		t.Fatalf("got %+v", got)
	}
}

func TestFixtureBackendMissingFile(t *testing.T) {
	_, err := NewFixture("/nonexistent.json").Transcribe(context.Background(), "x.wav")
	if !IsTranscriptionError(err) {
		t.Fatalf("err = %v, want a transcription error", err)
	}
}

func TestOpenAITranscribe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.FormValue("response_format") != "verbose_json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"segments": [
			{"start": 0.0, "end": 4.2, "text": " I open the settings page "},
			{"start": 4.2, "end": 8.0, "text": "and it crashes"}
		]}`))
	}))
	defer ts.Close()

	backend := NewOpenAI("test-key", "whisper-1")
	backend.url = ts.URL

	got, err := backend.Transcribe(context.Background(), writeTempWav(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2", len(got))
	}
	if got[0].Text != "I open the settings page" {
		t.Fatalf("text not trimmed: %q", got[0].Text)
	}
}

func TestOpenAITranscribeEmptyAudioIsNotError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"segments": []}`))
	}))
	defer ts.Close()

	backend := NewOpenAI("test-key", "whisper-1")
	backend.url = ts.URL

	got, err := backend.Transcribe(context.Background(), writeTempWav(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %+v, want empty", got)
	}
}

func TestOpenAITranscribeRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "bad key"}`))
	}))
	defer ts.Close()

	backend := NewOpenAI("wrong-key", "whisper-1")
	backend.url = ts.URL

	_, err := backend.Transcribe(context.Background(), writeTempWav(t))
	if !IsTranscriptionError(err) {
		t.Fatalf("err = %v, want a transcription error", err)
	}
}

func TestNewFromConfigSelection(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"openai ok", config.Config{TranscribeProvider: "openai", OpenAIAPIKey: "k"}, false},
		{"openai missing key", config.Config{TranscribeProvider: "openai"}, true},
		{"whispercpp ok", config.Config{TranscribeProvider: "whispercpp", WhisperCppBin: "b", WhisperCppModelPath: "m"}, false},
		{"whispercpp missing model", config.Config{TranscribeProvider: "whispercpp", WhisperCppBin: "b"}, true},
		{"fixture ok", config.Config{TranscribeProvider: "fixture", TranscribeFixture: "f.json"}, false},
		{"unknown", config.Config{TranscribeProvider: "siri"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewFromConfig(c.cfg)
			if (err != nil) != c.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, c.wantErr)
			}
		})
	}
}
