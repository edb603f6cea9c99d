package reconcile

import (
	"regexp"
	"strings"

	"github.com/snarg/audio-correct/internal/asr"
)

const hallucinationRatio = 0.70

var nonWordSpace = regexp.MustCompile(`[^\w\s]`)
var multiSpace = regexp.MustCompile(`\s+`)

// Evaluation is the result of judging one candidate second-pass correction
// against the original transcript window it targets.
type Evaluation struct {
	OriginalText        string
	CorrectedText       string
	LevenshteinDistance int
	ShouldApply         bool
	Reason              string
}

// Evaluate judges a candidate corrected text against the original words
// falling inside [clipStart, clipEnd], applying the hallucination guard.
func Evaluate(words []asr.Word, correctedText string, clipStart, clipEnd float64) Evaluation {
	var inWindow []asr.Word
	for _, w := range words {
		if w.Start >= clipStart && w.End <= clipEnd {
			inWindow = append(inWindow, w)
		}
	}

	var originalWords []string
	for _, w := range inWindow {
		originalWords = append(originalWords, w.Word)
	}
	originalText := strings.Join(originalWords, " ")

	cleanedOriginal := clean(originalText)
	cleanedCorrection := clean(correctedText)

	distance := levenshtein(cleanedOriginal, cleanedCorrection)

	maxLen := len(cleanedOriginal)
	if len(cleanedCorrection) > maxLen {
		maxLen = len(cleanedCorrection)
	}
	ratio := 0.0
	if maxLen > 0 {
		ratio = float64(distance) / float64(maxLen)
	}

	eval := Evaluation{
		OriginalText:        originalText,
		CorrectedText:       correctedText,
		LevenshteinDistance: distance,
	}

	switch {
	case cleanedCorrection == "" || cleanedCorrection == "unintelligible" || len(cleanedCorrection) < 3:
		eval.ShouldApply = false
		eval.Reason = "empty or unintelligible"
	case ratio > hallucinationRatio:
		eval.ShouldApply = false
		eval.Reason = "Levenshtein ratio too high"
	case cleanedOriginal == cleanedCorrection:
		eval.ShouldApply = false
		eval.Reason = "No changes"
	default:
		eval.ShouldApply = true
	}

	return eval
}

// clean normalizes text for distance comparison: lowercase, strip all
// non-word/non-space characters, collapse whitespace, trim.
func clean(s string) string {
	s = strings.ToLower(s)
	s = nonWordSpace.ReplaceAllString(s, "")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
