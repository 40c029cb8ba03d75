package scope

import (
	"context"
	"sync/atomic"

	"github.com/wavescope/wavescope/internal/audio"
	"github.com/wavescope/wavescope/internal/line"
	"github.com/wavescope/wavescope/internal/render"
	"github.com/wavescope/wavescope/internal/trigger"
)

// Snapshot is one trace's most recent completed frame: a ready draw plus
// the centering confidence for the UI. Published through an atomic
// pointer so the render loop never waits on analysis.
type Snapshot struct {
	Draw       render.TraceDraw
	Confidence float32
	Frame      int64
}

// request asks a trace to analyze and build the window around center.
type request struct {
	frame  int64
	center int64
}

// Trace owns everything one scope channel needs: centering state, the
// line builder, and the goroutine they live on. Only the snapshot
// pointer crosses goroutines.
type Trace struct {
	channel     int
	trigChannel int
	mode        trigger.Mode
	cfg         trigger.Config

	src      *audio.Source
	state    *trigger.State
	builder  *line.Builder
	analysis int

	// bufferOffset is this trace's float offset in the shared line
	// buffer; uniforms carries everything per-frame constant.
	bufferOffset uint32
	uniforms     render.Uniforms

	snapshot atomic.Pointer[Snapshot]

	// done is the highest frame this trace has finished processing,
	// including frames whose build was skipped. The ready channel only
	// wakes waiters; done decides whether the wait is over.
	done   atomic.Int64
	req    chan request
	ready  chan struct{}
	cancel context.CancelFunc
}

func newTrace(s *Scope, index, channel int) *Trace {
	regionFloats := uint32(2 * 2 * s.windowLen)
	t := &Trace{
		channel:      channel,
		trigChannel:  s.cfg.TriggerChannel,
		mode:         s.cfg.Mode,
		cfg:          s.cfg.Trigger,
		src:          s.cfg.Source,
		state:        trigger.NewState(),
		builder:      line.NewBuilder(s.windowLen, s.fence),
		analysis:     s.windowLen + s.cfg.Margin,
		bufferOffset: uint32(index) * regionFloats,
		req:          make(chan request, 1),
		ready:        make(chan struct{}, 1),
	}
	gain := float32(1)
	if s.cfg.Profile != nil {
		gain = s.cfg.Profile.AmplitudeScale(channel)
	}
	t.done.Store(-1)
	transform := render.TraceTransform(index, len(s.cfg.Channels), s.windowLen, gain)
	t.uniforms = render.NewUniforms(s.cfg.Width, s.cfg.Height, transform, s.cfg.Thickness, 0)
	return t
}

// start launches the analysis goroutine. The trace stops when the parent
// context is canceled or remove is called; an in-flight build is
// discarded without publishing.
func (t *Trace) start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)
	go t.run(ctx)
}

func (t *Trace) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-t.req:
			t.process(req)
			t.done.Store(req.frame)
			select {
			case t.ready <- struct{}{}:
			default:
			}
		}
	}
}

// process runs one centering computation and rebuilds the line data.
// When the inactive arena is still in flight the frame is skipped and
// the previous snapshot stays current.
func (t *Trace) process(req request) {
	win := t.src.ReadWindow(t.channel, req.center, t.analysis)
	in := trigger.Input{Window: win}
	if t.mode == trigger.ExternalTrigger {
		tw := t.src.ReadWindow(t.trigChannel, req.center, t.analysis)
		in.Trigger = &tw
	}

	res := trigger.Compute(in, t.mode, t.cfg, t.state)
	t.state.Update(in, t.mode, t.cfg, res)

	base, ok := t.builder.Build(win.Samples, res.Offset)
	if !ok {
		return
	}

	stride := 2 * t.builder.WindowLen()
	arena := t.builder.Data()[base : int(base)+stride]
	u := t.uniforms
	u.BaseIndex = int32(t.bufferOffset) + base

	t.snapshot.Store(&Snapshot{
		Draw: render.TraceDraw{
			Data:         arena,
			BufferOffset: t.bufferOffset + uint32(base),
			Uniforms:     u,
			VertexCount:  uint32(render.VerticesPerSegment * (t.builder.WindowLen() - 1)),
		},
		Confidence: res.Confidence,
		Frame:      req.frame,
	})
}

// remove cancels the trace's goroutine.
func (t *Trace) remove() {
	if t.cancel != nil {
		t.cancel()
	}
}
