// Package line turns centered sample windows into the flat vertex-pulling
// buffer the rasterizer reads. Each trace owns one Builder with two
// fixed-capacity arenas inside a single backing buffer; the builder only
// ever writes an arena no in-flight draw can still read.
package line

// Builder double-buffers line data for one trace. Not safe for concurrent
// use; each analysis goroutine owns exactly one.
type Builder struct {
	windowLen int
	data      []float32
	fence     *Fence

	// next selects the arena for the coming Build.
	next int

	// release holds, per arena, the fence generation after which no draw
	// can be reading it anymore. published marks arenas that have ever
	// been handed out as a snapshot.
	release   [2]int64
	published [2]bool
}

// NewBuilder allocates both arenas for windows of windowLen samples.
func NewBuilder(windowLen int, fence *Fence) *Builder {
	return &Builder{
		windowLen: windowLen,
		data:      make([]float32, 2*2*windowLen),
		fence:     fence,
	}
}

// arenaStride is measured in floats: one (index, amplitude) pair per sample.
func (b *Builder) arenaStride() int {
	return 2 * b.windowLen
}

// Build writes windowLen (index, amplitude) pairs into the inactive arena,
// sampling the input at the fractional offset with linear interpolation.
// Reads past the end of samples clamp to the last sample. It returns the
// arena's base index into Data and whether the build happened at all: when
// the inactive arena is still referenced by an in-flight draw the frame is
// skipped rather than risking a read/write overlap.
func (b *Builder) Build(samples []float32, offset float64) (base int32, ok bool) {
	a := b.next
	if !b.fence.Reached(b.release[a]) {
		return 0, false
	}

	stride := b.arenaStride()
	arena := b.data[a*stride : (a+1)*stride]
	last := len(samples) - 1
	for i := 0; i < b.windowLen; i++ {
		pos := offset + float64(i)
		lo := int(pos)
		frac := float32(pos - float64(lo))
		if lo < 0 {
			lo, frac = 0, 0
		}
		if lo >= last {
			lo, frac = last, 0
		}
		hi := lo
		if lo < last {
			hi = lo + 1
		}
		v := samples[lo] + frac*(samples[hi]-samples[lo])
		arena[2*i] = float32(i)
		arena[2*i+1] = v
	}

	// Once this arena's snapshot goes out, the previous snapshot becomes
	// stale one draw later: any draw issued after that can only be
	// reading us. An arena that never carried a snapshot is free already.
	other := 1 - a
	if b.published[other] {
		b.release[other] = b.fence.Generation() + 1
	}
	b.published[a] = true
	b.next = other
	return int32(a * stride), true
}

// Data exposes the backing buffer both arenas live in. Base indices
// returned by Build address into this slice.
func (b *Builder) Data() []float32 {
	return b.data
}

// WindowLen returns the number of pairs written per build.
func (b *Builder) WindowLen() int {
	return b.windowLen
}
