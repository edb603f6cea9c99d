// Package clustering groups low-confidence words from a first-pass
// transcript into clip-sized correction windows for second-pass re-inference.
package clustering

import "github.com/snarg/audio-correct/internal/asr"

// Cluster is a group of temporally nearby low-confidence words annotated
// with the clip window a second-pass call should target.
type Cluster struct {
	Words             []asr.Word
	StartTime         float64
	EndTime           float64
	CenterTime        float64
	AverageConfidence float64
	ClipStart         float64
	ClipEnd           float64
}

// Params tunes the clustering algorithm.
type Params struct {
	// ConfidenceThreshold (τ): words with probability below this are
	// considered uncertain and become clustering candidates.
	ConfidenceThreshold float64
	// ProximityThreshold (p): maximum gap, in seconds, between consecutive
	// uncertain words for them to join the same cluster.
	ProximityThreshold float64
	// CorrectionWindow (W): width, in seconds, of the clip window centered
	// on each cluster.
	CorrectionWindow float64
}

// Run runs the four-step clustering algorithm: filter by confidence,
// group by proximity, annotate with clip windows, then merge overlapping
// windows. Returns clusters ordered by time with non-overlapping
// [ClipStart, ClipEnd) intervals.
func Run(words []asr.Word, p Params) []Cluster {
	low := filter(words, p.ConfidenceThreshold)
	if len(low) == 0 {
		return nil
	}
	grouped := groupByProximity(low, p.ProximityThreshold)
	annotated := make([]Cluster, len(grouped))
	for i, g := range grouped {
		annotated[i] = annotate(g, p.CorrectionWindow)
	}
	return mergeOverlaps(annotated)
}

// filter takes the sub-sequence of words with probability < τ, preserving order.
func filter(words []asr.Word, threshold float64) []asr.Word {
	var out []asr.Word
	for _, w := range words {
		if w.Probability < threshold {
			out = append(out, w)
		}
	}
	return out
}

// groupByProximity walks the filtered sequence, starting a new group
// whenever the gap to the previous word exceeds p. A zero gap is valid and
// never breaks the group.
func groupByProximity(words []asr.Word, p float64) [][]asr.Word {
	if len(words) == 0 {
		return nil
	}
	var groups [][]asr.Word
	current := []asr.Word{words[0]}
	for i := 1; i < len(words); i++ {
		gap := words[i].Start - current[len(current)-1].End
		if gap <= p {
			current = append(current, words[i])
		} else {
			groups = append(groups, current)
			current = []asr.Word{words[i]}
		}
	}
	groups = append(groups, current)
	return groups
}

// annotate computes a single cluster's timing and clip window from its words.
func annotate(words []asr.Word, window float64) Cluster {
	start := words[0].Start
	end := words[len(words)-1].End
	center := (start + end) / 2

	var sum float64
	for _, w := range words {
		sum += w.Probability
	}
	avg := sum / float64(len(words))

	clipStart := center - window/2
	if clipStart < 0 {
		clipStart = 0
	}
	clipEnd := center + window/2

	return Cluster{
		Words:             words,
		StartTime:         start,
		EndTime:           end,
		CenterTime:        center,
		AverageConfidence: avg,
		ClipStart:         clipStart,
		ClipEnd:           clipEnd,
	}
}

// mergeOverlaps performs a single left-to-right pass merging clusters whose
// clip windows overlap or touch. centerTime of a merged cluster is the
// midpoint of the two centers being merged (not recomputed from words), and
// averageConfidence is the word-count-weighted mean — both documented
// contracts, not implementation incidentals.
func mergeOverlaps(clusters []Cluster) []Cluster {
	if len(clusters) == 0 {
		return nil
	}
	var out []Cluster
	current := clusters[0]
	for i := 1; i < len(clusters); i++ {
		next := clusters[i]
		if current.ClipEnd >= next.ClipStart {
			current = mergeTwo(current, next)
		} else {
			out = append(out, current)
			current = next
		}
	}
	out = append(out, current)
	return out
}

func mergeTwo(a, b Cluster) Cluster {
	words := make([]asr.Word, 0, len(a.Words)+len(b.Words))
	words = append(words, a.Words...)
	words = append(words, b.Words...)

	startTime := min(a.StartTime, b.StartTime)
	endTime := max(a.EndTime, b.EndTime)
	clipStart := min(a.ClipStart, b.ClipStart)
	clipEnd := max(a.ClipEnd, b.ClipEnd)
	centerTime := (a.CenterTime + b.CenterTime) / 2

	totalWords := float64(len(a.Words) + len(b.Words))
	avgConfidence := (a.AverageConfidence*float64(len(a.Words)) + b.AverageConfidence*float64(len(b.Words))) / totalWords

	return Cluster{
		Words:             words,
		StartTime:         startTime,
		EndTime:           endTime,
		CenterTime:        centerTime,
		AverageConfidence: avgConfidence,
		ClipStart:         clipStart,
		ClipEnd:           clipEnd,
	}
}
