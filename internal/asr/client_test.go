package asr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	if err := os.WriteFile(path, []byte("fake-audio-bytes"), 0o644); err != nil {
		t.Fatalf("write temp audio: %v", err)
	}
	return path
}

func TestTranscribeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q, want verbose_json", got)
		}
		if got := r.FormValue("timestamp_granularities[]"); got != "word" {
			t.Errorf("timestamp_granularities[] = %q, want word", got)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q, want whisper-1", got)
		}

		resp := Response{
			Text:     "hello wrld",
			Language: "en",
			Duration: 1.2,
			Words: []Word{
				{Word: "hello", Start: 0.0, End: 0.4, Probability: 0.95},
				{Word: "wrld", Start: 0.4, End: 0.8, Probability: 0.30},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New(srv.URL, "whisper-1", 5*time.Second)
	got, err := c.Transcribe(context.Background(), writeTempAudio(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(got.Words) != 2 {
		t.Fatalf("len(Words) = %d, want 2", len(got.Words))
	}
	if got.Words[1].Probability != 0.30 {
		t.Errorf("Words[1].Probability = %v, want 0.30", got.Words[1].Probability)
	}
}

func TestTranscribeNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c := New(srv.URL, "whisper-1", 5*time.Second)
	_, err := c.Transcribe(context.Background(), writeTempAudio(t))
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	c := New("http://example.invalid", "whisper-1", time.Second)
	_, err := c.Transcribe(context.Background(), "/nonexistent/path.wav")
	if err == nil {
		t.Fatal("expected error for missing audio file")
	}
}
