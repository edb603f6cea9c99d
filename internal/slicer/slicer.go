// Package slicer extracts a time window from a source audio file into a
// normalized clip suitable for the multimodal second-pass corrector.
package slicer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ffmpegAvailable caches whether the configured ffmpeg binary is runnable
// (checked once, lazily, on the first CheckFFmpeg call, whether from startup
// or from Slice).
var ffmpegAvailable *bool

// CheckFFmpeg checks whether ffmpegPath resolves to a runnable binary.
// Call once at startup; the result is cached for subsequent calls.
func CheckFFmpeg(ffmpegPath string) bool {
	if ffmpegAvailable != nil {
		return *ffmpegAvailable
	}
	_, err := exec.LookPath(ffmpegPath)
	avail := err == nil
	ffmpegAvailable = &avail
	return avail
}

// Slicer wraps ffmpeg to produce 16kHz mono PCM clips from a source file.
type Slicer struct {
	ffmpegPath string
	clipDir    string
}

// New creates a Slicer that writes clips under clipDir using the ffmpeg
// binary located at ffmpegPath (or resolved via PATH if just "ffmpeg").
func New(ffmpegPath, clipDir string) *Slicer {
	return &Slicer{ffmpegPath: ffmpegPath, clipDir: clipDir}
}

// Slice extracts [start, start+duration) from inputPath into a 16kHz mono
// PCM WAV clip and returns its path plus a cleanup function that removes it.
//
// Seeking uses -ss *after* -i so ffmpeg decodes accurately from the input's
// true timeline rather than snapping to the nearest keyframe, which would
// misalign the correction window by up to a GOP's worth of audio.
func (s *Slicer) Slice(ctx context.Context, inputPath string, start, end float64) (clipPath string, cleanup func(), err error) {
	noop := func() {}
	if !CheckFFmpeg(s.ffmpegPath) {
		return "", noop, fmt.Errorf("ffmpeg not available at %q", s.ffmpegPath)
	}
	if end <= start {
		return "", noop, fmt.Errorf("invalid window [%.3f, %.3f)", start, end)
	}

	if err := os.MkdirAll(s.clipDir, 0o755); err != nil {
		return "", noop, fmt.Errorf("mkdir clip dir: %w", err)
	}
	clipPath = clipPathFor(s.clipDir, inputPath, start, end)

	duration := end - start
	cmd := exec.CommandContext(ctx, s.ffmpegPath,
		"-y",
		"-i", inputPath,
		"-ss", fmt.Sprintf("%.3f", start),
		"-t", fmt.Sprintf("%.3f", duration),
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		clipPath,
	)
	if err := cmd.Run(); err != nil {
		os.Remove(clipPath)
		return "", noop, fmt.Errorf("ffmpeg slice: %w", err)
	}

	cleanup = func() { os.Remove(clipPath) }
	return clipPath, cleanup, nil
}

// clipPathFor derives a collision-free temp path from the input's base name,
// the window bounds, and the current wallclock, so concurrent clips of the
// same job never collide.
func clipPathFor(clipDir, inputPath string, start, end float64) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	base = base[:len(base)-len(ext)]
	name := fmt.Sprintf("%s-%06d-%06d-%d.wav",
		base,
		int(start*1000),
		int(end*1000),
		time.Now().UnixNano(),
	)
	return filepath.Join(clipDir, name)
}
