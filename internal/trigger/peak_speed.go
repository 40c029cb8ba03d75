package trigger

import "github.com/wavescope/wavescope/internal/audio"

// speedFloor is the slope below which a window is treated as silent.
const speedFloor = 1e-4

// computePeakSpeed aligns on the steepest sample-to-sample slope inside
// the bounded search region around the previous offset. The bound keeps
// the trace from jumping to an unrelated transient across the window.
func computePeakSpeed(win audio.Window, cfg Config, st *State) Result {
	lo, hi := searchRange(cfg, st, len(win.Samples))

	best := -1
	var bestDelta float32
	for i := lo; i <= hi && i+1 < len(win.Samples); i++ {
		d := win.Samples[i+1] - win.Samples[i]
		if d < 0 {
			d = -d
		}
		if d > bestDelta {
			bestDelta = d
			best = i
		}
	}

	if best < 0 || bestDelta < speedFloor {
		return freeze(st)
	}

	conf := float64(bestDelta) * 8
	if conf > 1 {
		conf = 1
	}
	return Result{Offset: float64(best), Confidence: float32(conf)}
}
