package multimodal

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

func writeTempClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("fake-clip-bytes"), 0o644); err != nil {
		t.Fatalf("write temp clip: %v", err)
	}
	return path
}

func TestCorrectStripsPreamble(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Temperature != defaultTemperature {
			t.Errorf("Temperature = %v, want %v", req.Temperature, defaultTemperature)
		}
		resp := chatResponse{}
		resp.Choices = []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}{{}}
		resp.Choices[0].Message.Content = "Here is the transcription: the quick brown fox"
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New(srv.URL, "gpt-4o-audio-preview", "", 5*time.Second)
	got, err := c.Correct(context.Background(), writeTempClip(t))
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if got != "the quick brown fox" {
		t.Errorf("Correct() = %q, want stripped preamble", got)
	}
}

func TestCorrectNoStripWhenNoPreamble(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse{}
		resp.Choices = []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}{{}}
		resp.Choices[0].Message.Content = "the quick brown fox"
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New(srv.URL, "m", "", 5*time.Second)
	got, err := c.Correct(context.Background(), writeTempClip(t))
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if got != "the quick brown fox" {
		t.Errorf("Correct() = %q, want unchanged", got)
	}
}

func TestCorrectNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, "m", "", 5*time.Second)
	_, err := c.Correct(context.Background(), writeTempClip(t))
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestStripLeadingPhraseCaseInsensitive(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"transcription_colon", "Transcription: hello there", "hello there"},
		{"speaker_says", "The speaker says: hello there", "hello there"},
		{"no_match", "hello there", "hello there"},
		{"whitespace_only_trim", "  hello there  ", "hello there"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripLeadingPhrase(tt.in); got != tt.want {
				t.Errorf("stripLeadingPhrase(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
