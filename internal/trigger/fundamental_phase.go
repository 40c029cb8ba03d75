package trigger

import (
	"math"
	"math/cmplx"

	"github.com/wavescope/wavescope/internal/audio"
)

// computeFundamentalPhase estimates the fundamental period by
// autocorrelation, then slides the displayed region so that it always
// starts at the same phase of that period. Phase is anchored on the first
// confident frame and tracked modulo the period afterwards, which avoids
// octave jumps when the period estimate wobbles between harmonics.
func computeFundamentalPhase(win audio.Window, cfg Config, st *State) Result {
	sr := float64(win.SampleRate)
	minLag := int(sr / cfg.MaxPitchHz)
	maxLag := int(sr/cfg.MinPitchHz) + 1
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(win.Samples) {
		maxLag = len(win.Samples) - 1
	}
	if minLag >= maxLag {
		return freeze(st)
	}

	r, err := st.autocorrelate(win.Samples, maxLag)
	if err != nil || r[0] <= 1e-9 {
		return freeze(st)
	}

	best := -1
	var bestVal float64
	for lag := minLag; lag <= maxLag; lag++ {
		if r[lag] > bestVal {
			bestVal = r[lag]
			best = lag
		}
	}
	if best < 0 {
		return freeze(st)
	}

	conf := bestVal / r[0]
	if conf < cfg.CorrelationThreshold {
		return freeze(st)
	}
	if conf > 1 {
		conf = 1
	}

	period := float64(best)
	if best > minLag && best < maxLag {
		period += parabolicPeak(r[best-1], r[best], r[best+1])
	}

	// Single-bin DFT at the refined fundamental gives the phase of the
	// oscillation at sample 0 of the analysis window.
	phase := fundamentalPhaseAt(win.Samples, period)

	target := phase
	if st.hasPhase {
		target = st.PrevPhase
	}

	// Smallest offset whose phase matches the target, then the congruent
	// candidate closest to the previous offset.
	base := (target - phase) / (2 * math.Pi) * period
	base = math.Mod(base, period)
	if base < 0 {
		base += period
	}
	offset := base + period*math.Round((st.PrevOffset-base)/period)
	m := float64(maxOffset(len(win.Samples), cfg.WindowLen))
	for offset < 0 {
		offset += period
	}
	for offset > m && offset-period >= 0 {
		offset -= period
	}
	if offset > m {
		offset = m
	}

	return Result{
		Offset:     offset,
		Confidence: float32(conf),
		Period:     period,
		phase:      phase + 2*math.Pi*offset/period,
		hasPhase:   true,
	}
}

// fundamentalPhaseAt correlates the window against a complex oscillator of
// the given period and returns the oscillation's phase at sample 0.
func fundamentalPhaseAt(samples []float32, period float64) float64 {
	w := -2 * math.Pi / period
	var acc complex128
	for n, v := range samples {
		s, c := math.Sincos(w * float64(n))
		acc += complex(float64(v)*c, float64(v)*s)
	}
	return cmplx.Phase(acc)
}
