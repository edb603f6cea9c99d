package slicer

import (
	"context"
	"strings"
	"testing"
)

func TestClipPathForDeterministicNaming(t *testing.T) {
	path := clipPathFor("/clips", "/uploads/call123.wav", 10.5, 30.5)
	if !strings.HasPrefix(path, "/clips/call123-") {
		t.Errorf("clip path = %q, want prefix /clips/call123-", path)
	}
	if !strings.HasSuffix(path, ".wav") {
		t.Errorf("clip path = %q, want .wav suffix", path)
	}
}

func TestClipPathForCollisionFree(t *testing.T) {
	a := clipPathFor("/clips", "/uploads/call123.wav", 10.5, 30.5)
	b := clipPathFor("/clips", "/uploads/call123.wav", 10.5, 30.5)
	if a == b {
		t.Error("two clips of the same window collided on path")
	}
}

func TestSliceInvalidWindow(t *testing.T) {
	s := New("ffmpeg", t.TempDir())
	_, _, err := s.Slice(context.Background(), "/uploads/a.wav", 10, 5)
	if err == nil {
		t.Fatal("expected error for end <= start")
	}
}

func TestSliceFFmpegUnavailable(t *testing.T) {
	ffmpegAvailable = nil
	s := New("/nonexistent/ffmpeg-binary-xyz", t.TempDir())
	_, _, err := s.Slice(context.Background(), "/uploads/a.wav", 0, 5)
	if err == nil {
		t.Fatal("expected error when ffmpeg binary is unavailable")
	}
	ffmpegAvailable = nil
}
