package reconcile

import (
	"regexp"
	"sort"
	"strings"

	"github.com/snarg/audio-correct/internal/asr"
)

// CorrectionCandidate is one cluster's evaluated correction, ready to be
// merged into (or skipped from) the final transcript.
type CorrectionCandidate struct {
	ClipStart     float64
	ClipEnd       float64
	CorrectedText string
	ShouldApply   bool
}

// MergeResult is the outcome of stitching accepted corrections into the
// original word sequence.
type MergeResult struct {
	Text               string
	AppliedCorrections int
	SkippedCorrections int
}

var purePunctuation = regexp.MustCompile(`^[.,!?;:'"()\-]+$`)

// Merge sorts corrections by ascending clipStart and walks the original word
// sequence with a cursor, substituting each accepted correction's text for
// the original words it covers. Rejected corrections are skipped without
// advancing the cursor. Clustering's output is already non-overlapping, so
// the sort is stable and sufficient; Merge does not re-verify non-overlap.
func Merge(words []asr.Word, corrections []CorrectionCandidate) MergeResult {
	sorted := make([]CorrectionCandidate, len(corrections))
	copy(sorted, corrections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ClipStart < sorted[j].ClipStart
	})

	var tokens []string
	cursor := 0
	result := MergeResult{}

	for _, c := range sorted {
		if !c.ShouldApply {
			result.SkippedCorrections++
			continue
		}

		for cursor < len(words) && words[cursor].End <= c.ClipStart {
			tokens = append(tokens, words[cursor].Word)
			cursor++
		}

		tokens = append(tokens, c.CorrectedText)
		result.AppliedCorrections++

		for cursor < len(words) && words[cursor].Start < c.ClipEnd {
			cursor++
		}
	}

	for cursor < len(words) {
		tokens = append(tokens, words[cursor].Word)
		cursor++
	}

	result.Text = joinTokens(tokens)
	return result
}

// joinTokens joins tokens with a space unless either side is pure
// punctuation, in which case no space is inserted.
func joinTokens(tokens []string) string {
	var sb strings.Builder
	for i, tok := range tokens {
		if i == 0 {
			sb.WriteString(tok)
			continue
		}
		prev := tokens[i-1]
		if purePunctuation.MatchString(tok) || purePunctuation.MatchString(prev) {
			sb.WriteString(tok)
		} else {
			sb.WriteByte(' ')
			sb.WriteString(tok)
		}
	}
	return sb.String()
}
