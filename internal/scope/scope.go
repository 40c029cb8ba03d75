// Package scope wires the analysis side (sample windows, centering, line
// building) to the rasterizer. One goroutine per trace computes and
// publishes snapshots; the render loop consumes the latest snapshot per
// trace and never blocks on analysis.
package scope

import (
	"context"
	"fmt"
	"image"

	"github.com/wavescope/wavescope/internal/audio"
	"github.com/wavescope/wavescope/internal/line"
	"github.com/wavescope/wavescope/internal/render"
	"github.com/wavescope/wavescope/internal/trigger"
)

// Config assembles a Scope. Channels lists the source channel for each
// trace, top to bottom.
type Config struct {
	Source  *audio.Source
	Profile *audio.Profile

	Channels       []int
	Mode           trigger.Mode
	TriggerChannel int
	Trigger        trigger.Config

	Width     int
	Height    int
	Thickness float32
	WindowLen int
	Margin    int
	FPS       int

	Renderer render.Frame

	// WaitAnalysis makes RenderFrame wait for every trace to finish the
	// requested frame. Offline export wants deterministic frames; a live
	// view would leave this off and reuse stale snapshots instead.
	WaitAnalysis bool
}

// Scope drives all traces and the renderer through frames.
type Scope struct {
	cfg       Config
	windowLen int
	fence     *line.Fence
	traces    []*Trace
	img       *image.RGBA
	started   bool
}

// New validates the config and builds the scope and its traces.
func New(cfg Config) (*Scope, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("scope needs an audio source")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("scope needs a renderer")
	}
	if len(cfg.Channels) == 0 {
		return nil, fmt.Errorf("scope needs at least one trace")
	}
	for _, ch := range cfg.Channels {
		if ch < 0 || ch >= cfg.Source.NumChannels() {
			return nil, fmt.Errorf("trace channel %d out of range (source has %d)", ch, cfg.Source.NumChannels())
		}
	}
	if cfg.Mode == trigger.ExternalTrigger &&
		(cfg.TriggerChannel < 0 || cfg.TriggerChannel >= cfg.Source.NumChannels()) {
		return nil, fmt.Errorf("trigger channel %d out of range", cfg.TriggerChannel)
	}

	s := &Scope{
		cfg:       cfg,
		windowLen: cfg.WindowLen,
		fence:     &line.Fence{},
		img:       image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
	}
	for i, ch := range cfg.Channels {
		s.traces = append(s.traces, newTrace(s, i, ch))
	}
	return s, nil
}

// Fence exposes the draw fence, mainly for tests.
func (s *Scope) Fence() *line.Fence {
	return s.fence
}

// NumTraces returns the trace count.
func (s *Scope) NumTraces() int {
	return len(s.traces)
}

// LineBufferFloats is the shared line buffer capacity the renderer must
// provide for this scope.
func (s *Scope) LineBufferFloats() int {
	return len(s.traces) * 2 * 2 * s.windowLen
}

// Start launches every trace's analysis goroutine.
func (s *Scope) Start(ctx context.Context) {
	if s.started {
		return
	}
	for _, t := range s.traces {
		t.start(ctx)
	}
	s.started = true
}

// Stop cancels all trace goroutines.
func (s *Scope) Stop() {
	for _, t := range s.traces {
		t.remove()
	}
	s.started = false
}

// RemoveTrace cancels one trace's goroutine; its last snapshot stops
// being drawn. In-flight work is discarded unwritten.
func (s *Scope) RemoveTrace(i int) {
	if i < 0 || i >= len(s.traces) {
		return
	}
	s.traces[i].remove()
	s.traces = append(s.traces[:i], s.traces[i+1:]...)
}

// FrameCenter maps a frame number to the absolute sample index the
// window is centered on.
func (s *Scope) FrameCenter(frame int64) int64 {
	return frame * int64(s.cfg.Source.SampleRate()) / int64(s.cfg.FPS)
}

// NumFrames returns how many frames cover the whole source at the
// configured rate.
func (s *Scope) NumFrames() int64 {
	return s.cfg.Source.NumSamples() * int64(s.cfg.FPS) / int64(s.cfg.Source.SampleRate())
}

// RenderFrame produces one frame: it hands the frame to every trace,
// gathers the latest snapshots, draws them, and signals the fence so the
// builders can recycle their arenas. The returned image is reused across
// calls; confidences come back per trace for the UI.
func (s *Scope) RenderFrame(ctx context.Context, frame int64) (*image.RGBA, []float32, error) {
	center := s.FrameCenter(frame)
	for _, t := range s.traces {
		select {
		case t.req <- request{frame: frame, center: center}:
		default:
			// Trace still busy with an older frame; it will catch up.
		}
	}

	if s.cfg.WaitAnalysis {
		// Wait until every trace reports the frame processed, even if a
		// held arena made it keep the previous snapshot. The ready channel
		// can carry a stale wakeup from an earlier frame, so done is
		// re-checked after every receive.
		for _, t := range s.traces {
			for t.done.Load() < frame {
				select {
				case <-ctx.Done():
					return nil, nil, ctx.Err()
				case <-t.ready:
				}
			}
		}
	}

	draws := make([]render.TraceDraw, 0, len(s.traces))
	confidences := make([]float32, len(s.traces))
	for i, t := range s.traces {
		snap := t.snapshot.Load()
		if snap == nil {
			continue
		}
		draws = append(draws, snap.Draw)
		confidences[i] = snap.Confidence
	}

	if err := s.cfg.Renderer.RenderFrame(draws, s.img); err != nil {
		return nil, nil, fmt.Errorf("render frame %d: %w", frame, err)
	}
	s.fence.Signal()
	return s.img, confidences, nil
}
