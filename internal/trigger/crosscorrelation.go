package trigger

import (
	"math"

	"github.com/wavescope/wavescope/internal/audio"
)

// computeCrosscorrelation slides the previously displayed region across
// the current analysis window and starts the display where the two match
// best. Scores are normalized so that silence and unrelated material fall
// below the confidence threshold instead of producing a spurious lock.
func computeCrosscorrelation(win audio.Window, cfg Config, st *State) Result {
	if st.PrevWindow == nil {
		// Nothing to correlate against on the first frame.
		return freeze(st)
	}

	scores, err := st.crossCorrelate(win.Samples, st.PrevWindow)
	if err != nil || scores == nil {
		return freeze(st)
	}

	var patEnergy float64
	for _, v := range st.PrevWindow {
		patEnergy += float64(v) * float64(v)
	}
	if patEnergy <= 1e-9 {
		return freeze(st)
	}

	// Prefix sums give the signal energy under the pattern at each
	// candidate start in O(1).
	prefix := make([]float64, len(win.Samples)+1)
	for i, v := range win.Samples {
		prefix[i+1] = prefix[i] + float64(v)*float64(v)
	}
	winEnergy := func(o int) float64 {
		return prefix[o+len(st.PrevWindow)] - prefix[o]
	}

	lo, hi := searchRange(cfg, st, len(win.Samples))
	if hi >= len(scores) {
		hi = len(scores) - 1
	}

	best := -1
	var bestScore float64
	norm := make([]float64, len(scores))
	for o := lo; o <= hi; o++ {
		e := winEnergy(o)
		if e <= 1e-9 {
			continue
		}
		norm[o] = scores[o] / math.Sqrt(patEnergy*e)
		if best < 0 || norm[o] > bestScore {
			bestScore = norm[o]
			best = o
		}
	}

	if best < 0 || bestScore < cfg.CorrelationThreshold {
		return freeze(st)
	}
	if bestScore > 1 {
		bestScore = 1
	}

	offset := float64(best)
	if best > lo && best < hi {
		offset += parabolicPeak(norm[best-1], norm[best], norm[best+1])
	}

	return Result{Offset: offset, Confidence: float32(bestScore)}
}
