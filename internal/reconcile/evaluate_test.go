package reconcile

import (
	"testing"

	"github.com/snarg/audio-correct/internal/asr"
)

func wordsInWindow() []asr.Word {
	return []asr.Word{
		{Word: "the", Start: 0.0, End: 0.2, Probability: 0.95},
		{Word: "wrld", Start: 0.2, End: 0.6, Probability: 0.3},
		{Word: "is", Start: 0.6, End: 0.8, Probability: 0.9},
		{Word: "round", Start: 0.8, End: 1.2, Probability: 0.85},
	}
}

func TestEvaluateAccepts(t *testing.T) {
	eval := Evaluate(wordsInWindow(), "the world is round", 0.0, 1.2)
	if !eval.ShouldApply {
		t.Errorf("ShouldApply = false, reason %q, want accept", eval.Reason)
	}
	if eval.OriginalText != "the wrld is round" {
		t.Errorf("OriginalText = %q", eval.OriginalText)
	}
}

func TestEvaluateRejectsEmpty(t *testing.T) {
	eval := Evaluate(wordsInWindow(), "", 0.0, 1.2)
	if eval.ShouldApply {
		t.Error("ShouldApply = true, want reject for empty correction")
	}
	if eval.Reason != "empty or unintelligible" {
		t.Errorf("Reason = %q, want \"empty or unintelligible\"", eval.Reason)
	}
}

func TestEvaluateRejectsUnintelligibleSentinel(t *testing.T) {
	eval := Evaluate(wordsInWindow(), "[unintelligible]", 0.0, 1.2)
	if eval.ShouldApply {
		t.Error("ShouldApply = true, want reject for [unintelligible] sentinel")
	}
	if eval.Reason != "empty or unintelligible" {
		t.Errorf("Reason = %q, want \"empty or unintelligible\"", eval.Reason)
	}
}

func TestEvaluateRejectsTooShort(t *testing.T) {
	eval := Evaluate(wordsInWindow(), "hi", 0.0, 1.2)
	if eval.ShouldApply {
		t.Error("ShouldApply = true, want reject for < 3 char correction")
	}
	if eval.Reason != "empty or unintelligible" {
		t.Errorf("Reason = %q, want \"empty or unintelligible\"", eval.Reason)
	}
}

func TestEvaluateRejectsHighEditDistance(t *testing.T) {
	eval := Evaluate(wordsInWindow(), "completely unrelated content about something else entirely", 0.0, 1.2)
	if eval.ShouldApply {
		t.Error("ShouldApply = true, want reject for hallucinated content")
	}
	if eval.Reason != "Levenshtein ratio too high" {
		t.Errorf("Reason = %q, want \"Levenshtein ratio too high\"", eval.Reason)
	}
}

func TestEvaluateRejectsNoChanges(t *testing.T) {
	eval := Evaluate(wordsInWindow(), "the wrld is round", 0.0, 1.2)
	if eval.ShouldApply {
		t.Error("ShouldApply = true, want reject when cleaned text is identical")
	}
	if eval.Reason != "No changes" {
		t.Errorf("Reason = %q, want \"No changes\"", eval.Reason)
	}
}

func TestEvaluateCleaningIgnoresPunctuationAndCase(t *testing.T) {
	eval := Evaluate(wordsInWindow(), "THE WRLD IS ROUND!!", 0.0, 1.2)
	if eval.ShouldApply {
		t.Error("ShouldApply = true, want reject: only case/punctuation differ")
	}
	if eval.Reason != "No changes" {
		t.Errorf("Reason = %q, want \"No changes\"", eval.Reason)
	}
}

func TestEvaluateWindowFiltersToClipBounds(t *testing.T) {
	eval := Evaluate(wordsInWindow(), "the world", 0.0, 0.6)
	if eval.OriginalText != "the wrld" {
		t.Errorf("OriginalText = %q, want words clipped to [0, 0.6]", eval.OriginalText)
	}
}
