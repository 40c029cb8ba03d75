package render

import (
	"encoding/binary"
	"math"
	"testing"
)

func readFloat(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestUniformsPackLayout(t *testing.T) {
	var transform [16]float32
	for i := range transform {
		transform[i] = float32(i)
	}
	u := NewUniforms(1920, 1080, transform, 4, 8192)

	buf := make([]byte, UniformStride)
	u.Pack(buf)

	if got := readFloat(buf, 0); got != 1920 {
		t.Errorf("resolution.x: expected 1920, got %f", got)
	}
	if got := readFloat(buf, 4); got != 1080 {
		t.Errorf("resolution.y: expected 1080, got %f", got)
	}
	for i := 0; i < 16; i++ {
		if got := readFloat(buf, 16+i*4); got != float32(i) {
			t.Errorf("transform[%d]: expected %d, got %f", i, i, got)
		}
	}
	if got := readFloat(buf, 80); got != 4 {
		t.Errorf("thickness: expected 4, got %f", got)
	}
	if got := int32(binary.LittleEndian.Uint32(buf[84:])); got != 8192 {
		t.Errorf("base_index: expected 8192, got %d", got)
	}
}

func TestPackSliceStride(t *testing.T) {
	us := []Uniforms{
		NewUniforms(640, 480, [16]float32{}, 2, 0),
		NewUniforms(640, 480, [16]float32{}, 3, 4096),
	}
	buf := PackSlice(us)
	if len(buf) != 2*UniformStride {
		t.Fatalf("expected %d bytes, got %d", 2*UniformStride, len(buf))
	}
	if got := readFloat(buf, UniformStride+80); got != 3 {
		t.Errorf("second thickness: expected 3, got %f", got)
	}
	if got := int32(binary.LittleEndian.Uint32(buf[UniformStride+84:])); got != 4096 {
		t.Errorf("second base_index: expected 4096, got %d", got)
	}
}

// applyTransform mirrors the shader's row-vector multiply.
func applyTransform(m [16]float32, x, y float32) (float32, float32) {
	cx := m[0]*x + m[1]*y + m[3]
	cy := m[4]*x + m[5]*y + m[7]
	return cx, cy
}

func TestTraceTransformSingleTrace(t *testing.T) {
	m := TraceTransform(0, 1, 2048, 1)

	// First sample lands at the left clip edge, last at the right.
	cx, cy := applyTransform(m, 0, 0)
	if math.Abs(float64(cx)+1) > 1e-6 {
		t.Errorf("first sample x: expected -1, got %f", cx)
	}
	if math.Abs(float64(cy)) > 1e-6 {
		t.Errorf("zero amplitude y: expected 0, got %f", cy)
	}
	cx, _ = applyTransform(m, 2047, 0)
	if math.Abs(float64(cx)-1) > 1e-6 {
		t.Errorf("last sample x: expected 1, got %f", cx)
	}

	// Positive amplitude points up, which is negative clip-space Y.
	_, cy = applyTransform(m, 0, 1)
	if cy >= 0 {
		t.Errorf("positive amplitude must map to negative clip y, got %f", cy)
	}
}

func TestTraceTransformBands(t *testing.T) {
	top := TraceTransform(0, 2, 2048, 1)
	bottom := TraceTransform(1, 2, 2048, 1)

	_, topY := applyTransform(top, 0, 0)
	_, bottomY := applyTransform(bottom, 0, 0)

	if math.Abs(float64(topY)+0.5) > 1e-6 {
		t.Errorf("top band center: expected -0.5, got %f", topY)
	}
	if math.Abs(float64(bottomY)-0.5) > 1e-6 {
		t.Errorf("bottom band center: expected 0.5, got %f", bottomY)
	}

	// Full amplitude stays inside the band.
	_, y := applyTransform(top, 0, 1)
	if y < -1 || y > 0 {
		t.Errorf("top band amplitude escaped its half: %f", y)
	}
}

func TestTraceTransformGain(t *testing.T) {
	unit := TraceTransform(0, 1, 2048, 1)
	doubled := TraceTransform(0, 1, 2048, 2)

	_, y1 := applyTransform(unit, 0, 0.25)
	_, y2 := applyTransform(doubled, 0, 0.25)
	if math.Abs(float64(y2)-2*float64(y1)) > 1e-6 {
		t.Errorf("expected gain 2 to double deflection: %f vs %f", y1, y2)
	}
}
