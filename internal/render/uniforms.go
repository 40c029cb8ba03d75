package render

import (
	"encoding/binary"
	"math"
)

// UniformStride is the byte stride between per-draw uniform blocks. 256
// is the largest minUniformBufferOffsetAlignment across the backends we
// target, so dynamic offsets at this stride are always legal.
const UniformStride = 256

// Uniforms is the per-draw uniform block read by the line shader.
// Layout (std140): vec4 resolution, mat4 transform, f32 thickness,
// i32 base_index, padded out to UniformStride.
type Uniforms struct {
	// Resolution holds the target size in pixels in x and y; z and w are
	// padding.
	Resolution [4]float32

	// Transform maps (index, amplitude, 0, 1) to clip space. Stored
	// row-major; the shader multiplies with the vector on the left so the
	// rows land in the right place.
	Transform [16]float32

	// Thickness is the line width in pixels.
	Thickness float32

	// BaseIndex is the first float of this draw's region in the shared
	// line buffer.
	BaseIndex int32
}

// NewUniforms assembles a uniform block for one trace draw.
func NewUniforms(width, height int, transform [16]float32, thickness float32, base int32) Uniforms {
	return Uniforms{
		Resolution: [4]float32{float32(width), float32(height), 0, 0},
		Transform:  transform,
		Thickness:  thickness,
		BaseIndex:  base,
	}
}

// Pack serializes the block into buf, which must hold UniformStride
// bytes. Bytes past the payload keep whatever buf held; callers hand in
// zeroed slices.
func (u *Uniforms) Pack(buf []byte) {
	_ = buf[UniformStride-1]
	off := 0
	for _, v := range u.Resolution {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	for _, v := range u.Transform {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(u.Thickness))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(u.BaseIndex))
}

// PackSlice serializes all blocks at UniformStride intervals, the layout
// the dynamic-offset bind group expects.
func PackSlice(us []Uniforms) []byte {
	buf := make([]byte, len(us)*UniformStride)
	for i := range us {
		us[i].Pack(buf[i*UniformStride:])
	}
	return buf
}

// TraceTransform builds the row-major matrix that places one trace's
// band on screen. Line points come in as (index, amplitude): index runs
// 0..windowLen-1 across the full width, amplitude is normalized and
// scaled by gain into the trace's horizontal band. Traces stack top to
// bottom. Clip-space Y points down while amplitude points up, so the
// amplitude row carries the sign flip here rather than in the shader.
func TraceTransform(trace, numTraces, windowLen int, gain float32) [16]float32 {
	if numTraces < 1 {
		numTraces = 1
	}
	sx := float32(2) / float32(windowLen-1)
	bandHalf := float32(1) / float32(numTraces)
	// Band center with +Y up, top trace first.
	centerUp := 1 - float32(2*trace+1)/float32(numTraces)

	var m [16]float32
	m[0] = sx
	m[3] = -1
	m[5] = -gain * bandHalf
	m[7] = -centerUp
	m[10] = 1
	m[15] = 1
	return m
}
