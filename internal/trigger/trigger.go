// Package trigger keeps an oscilloscope trace stable from frame to frame.
// Each mode picks an offset into the analysis window at which the displayed
// region should start, so that periodic content appears stationary.
package trigger

import (
	"fmt"
	"strings"

	"github.com/wavescope/wavescope/internal/audio"
)

// Mode selects the centering algorithm for a trace.
type Mode int

const (
	// PeakSpeed aligns on the point of steepest slope near the previous
	// offset. Cheap, good for percussive material.
	PeakSpeed Mode = iota

	// FundamentalPhase estimates the fundamental period by autocorrelation
	// and aligns the window to a consistent phase of it.
	FundamentalPhase

	// Crosscorrelation aligns the window against the previously displayed
	// region. Robust for arbitrary periodic content.
	Crosscorrelation

	// ExternalTrigger fires on level crossings of a separate trigger
	// channel, classic scope style.
	ExternalTrigger
)

// ParseMode maps a CLI mode name to its Mode value.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "peakspeed":
		return PeakSpeed, nil
	case "phase":
		return FundamentalPhase, nil
	case "xcorr":
		return Crosscorrelation, nil
	case "external":
		return ExternalTrigger, nil
	default:
		return 0, fmt.Errorf("unknown centering mode %q (want peakspeed, phase, xcorr or external)", name)
	}
}

func (m Mode) String() string {
	switch m {
	case PeakSpeed:
		return "peakspeed"
	case FundamentalPhase:
		return "phase"
	case Crosscorrelation:
		return "xcorr"
	case ExternalTrigger:
		return "external"
	default:
		return "unknown"
	}
}

// Config carries the per-trace centering parameters. Zero values are not
// usable; build one from internal/config defaults.
type Config struct {
	// WindowLen is the displayed region length in samples. The analysis
	// window passed to Compute must be at least this long.
	WindowLen int

	// SearchWidth bounds how far the offset may move per frame.
	SearchWidth int

	// MinPitchHz and MaxPitchHz bound the fundamental period search.
	MinPitchHz float64
	MaxPitchHz float64

	// CorrelationThreshold is the minimum normalized correlation below
	// which a frame is treated as untriggered.
	CorrelationThreshold float64

	// Level, Hysteresis, Slope and DeadTime configure ExternalTrigger.
	// Slope is +1 for rising edges, -1 for falling.
	Level      float32
	Hysteresis float32
	Slope      int
	DeadTime   int64
}

// Input is everything one centering computation may look at. Trigger is
// only set in ExternalTrigger mode and covers the same sample span as
// Window on the trigger channel.
type Input struct {
	Window  audio.Window
	Trigger *audio.Window
}

// Result is the outcome of one centering computation. Confidence 0 means
// the frame is untriggered and Offset simply repeats the previous value.
type Result struct {
	// Offset is the fractional sample index into the analysis window at
	// which the displayed region starts.
	Offset float64

	// Confidence is 0 when untriggered, up to 1 for a clean lock.
	Confidence float32

	// Period is the estimated fundamental period in samples, when the
	// mode computes one. Zero otherwise.
	Period float64

	// phase is the reference phase anchored on the first confident
	// FundamentalPhase frame.
	phase    float64
	hasPhase bool

	// edge is the absolute sample index of the external trigger edge.
	edge int64
}

// State is the persistent per-trace centering state. It is owned by a
// single analysis goroutine and must never be shared.
type State struct {
	// Frame counts completed computations, 0 before the first.
	Frame int64

	// PrevOffset is the offset committed by the last Update.
	PrevOffset float64

	// PrevWindow is a copy of the previously displayed region, kept for
	// Crosscorrelation.
	PrevWindow []float32

	// Period is the last committed fundamental period estimate.
	Period float64

	// PrevPhase is the phase target FundamentalPhase realigns to.
	PrevPhase float64
	hasPhase  bool

	// LastEdge is the absolute index of the last external trigger edge,
	// used for dead-time gating.
	LastEdge int64

	// fftScratch is reused across frames to avoid per-frame allocation.
	fftScratch []complex128
}

// NewState returns the state for a fresh trace: offset 0, no history.
func NewState() *State {
	return &State{LastEdge: -1 << 62}
}

// Compute runs one centering computation. It is a pure function of the
// input and the current state: it never mutates anything observable in st
// (scratch buffers aside) and never blocks, so calling it twice with the
// same arguments yields the same Result.
func Compute(in Input, mode Mode, cfg Config, st *State) Result {
	if len(in.Window.Samples) < cfg.WindowLen {
		return freeze(st)
	}
	switch mode {
	case PeakSpeed:
		return computePeakSpeed(in.Window, cfg, st)
	case FundamentalPhase:
		return computeFundamentalPhase(in.Window, cfg, st)
	case Crosscorrelation:
		return computeCrosscorrelation(in.Window, cfg, st)
	case ExternalTrigger:
		return computeExternal(in, cfg, st)
	default:
		return freeze(st)
	}
}

// Update commits a Result into the state. Kept separate from Compute so
// that a computation whose frame is later discarded leaves no trace.
func (st *State) Update(in Input, mode Mode, cfg Config, res Result) {
	st.Frame++
	st.PrevOffset = res.Offset

	if res.Period > 0 {
		st.Period = res.Period
	}
	if res.hasPhase && !st.hasPhase {
		st.PrevPhase = res.phase
		st.hasPhase = true
	}
	if mode == ExternalTrigger && res.Confidence > 0 {
		st.LastEdge = res.edge
	}

	// Remember the displayed region for the next crosscorrelation.
	if mode == Crosscorrelation {
		start := clampOffset(res.Offset, len(in.Window.Samples), cfg.WindowLen)
		if st.PrevWindow == nil {
			st.PrevWindow = make([]float32, cfg.WindowLen)
		}
		copy(st.PrevWindow, in.Window.Samples[start:start+cfg.WindowLen])
	}
}

// freeze is the unified no-trigger fallback: keep the previous offset and
// report no confidence.
func freeze(st *State) Result {
	return Result{Offset: st.PrevOffset, Confidence: 0}
}

// maxOffset is the largest offset at which a full displayed region still
// fits inside the analysis window.
func maxOffset(windowSamples, windowLen int) int {
	m := windowSamples - windowLen
	if m < 0 {
		m = 0
	}
	return m
}

// clampOffset rounds a fractional offset to the nearest integer start
// index that keeps the displayed region in bounds.
func clampOffset(offset float64, windowSamples, windowLen int) int {
	i := int(offset + 0.5)
	if i < 0 {
		i = 0
	}
	if m := maxOffset(windowSamples, windowLen); i > m {
		i = m
	}
	return i
}

// searchRange bounds the candidate offsets to SearchWidth either side of
// the previous offset, clamped to the valid offset range.
func searchRange(cfg Config, st *State, windowSamples int) (lo, hi int) {
	center := int(st.PrevOffset + 0.5)
	lo = center - cfg.SearchWidth
	hi = center + cfg.SearchWidth
	if lo < 0 {
		lo = 0
	}
	if m := maxOffset(windowSamples, cfg.WindowLen); hi > m {
		hi = m
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
