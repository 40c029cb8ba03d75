// Package render rasterizes line data into frames, either on the GPU via
// a wgpu render pipeline or on the CPU with the same coverage math. The
// two paths share this file so the software rasterizer doubles as the
// oracle for the shader.
package render

import "math"

// QuadCorner maps one of the six vertices of a segment quad to an
// endpoint and a side of the line. End selects endpoint A (0) or B (1);
// Side is the sign of the perpendicular offset. The order yields two
// counter-clockwise triangles: (A-, A+, B-) and (A+, B+, B-).
type QuadCorner struct {
	End  float32
	Side float32
}

// CornerLUT is the fixed direction lookup table indexed by
// vertex_index % 6. It is mirrored verbatim in the vertex shader.
var CornerLUT = [6]QuadCorner{
	{0, -1}, {0, 1}, {1, -1},
	{0, 1}, {1, 1}, {1, -1},
}

// VerticesPerSegment is the draw-call expansion factor: each adjacent
// sample pair becomes one quad of two triangles.
const VerticesPerSegment = 6

// FeatherMargin is the extra quad padding in pixels that keeps the
// anti-aliasing ramp inside the rasterized area.
const FeatherMargin = 1.0

// SegmentDistance returns the distance from point p to the segment ab,
// clamping the projection to the segment's extent so endpoints produce
// round caps.
func SegmentDistance(px, py, ax, ay, bx, by float32) float32 {
	abx := bx - ax
	aby := by - ay
	len2 := abx*abx + aby*aby
	if len2 < 1e-12 {
		// Degenerate segment: distance to the single point.
		dx := px - ax
		dy := py - ay
		return float32(math.Sqrt(float64(dx*dx + dy*dy)))
	}
	t := ((px-ax)*abx + (py-ay)*aby) / len2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	dx := px - (ax + t*abx)
	dy := py - (ay + t*aby)
	return float32(math.Sqrt(float64(dx*dx + dy*dy)))
}

// Coverage converts a distance from the line center into an alpha value:
// full inside the half-thickness, fading linearly over one pixel.
func Coverage(dist, thickness float32) float32 {
	a := 0.5 - (dist - thickness*0.5)
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}
