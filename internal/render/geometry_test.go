package render

import (
	"math"
	"testing"
)

func TestSegmentDistanceInterior(t *testing.T) {
	// Projection lands inside the segment.
	d := SegmentDistance(5, 3, 0, 0, 10, 0)
	if math.Abs(float64(d)-3) > 1e-6 {
		t.Errorf("expected distance 3, got %f", d)
	}
}

func TestSegmentDistancePastEndpoint(t *testing.T) {
	// Projection clamps to the start of the segment.
	d := SegmentDistance(-2, 0, 0, 0, 10, 0)
	if math.Abs(float64(d)-2) > 1e-6 {
		t.Errorf("expected distance 2, got %f", d)
	}

	d = SegmentDistance(12, 0, 0, 0, 10, 0)
	if math.Abs(float64(d)-2) > 1e-6 {
		t.Errorf("expected distance 2 past the far end, got %f", d)
	}
}

func TestSegmentDistanceDegenerate(t *testing.T) {
	d := SegmentDistance(3, 4, 0, 0, 0, 0)
	if math.Abs(float64(d)-5) > 1e-6 {
		t.Errorf("expected distance 5 to a point segment, got %f", d)
	}
}

func TestCoverageCenterline(t *testing.T) {
	// On the centerline of a 4px line the pixel is fully covered.
	if a := Coverage(0, 4); a != 1 {
		t.Errorf("expected alpha 1 on the centerline, got %f", a)
	}
}

func TestCoverageOutside(t *testing.T) {
	// 3px past the half-thickness the feather has long run out.
	if a := Coverage(2+3, 4); a != 0 {
		t.Errorf("expected alpha 0 outside the feather, got %f", a)
	}
}

func TestCoverageFeatherRamp(t *testing.T) {
	// Halfway through the one-pixel ramp.
	a := Coverage(2, 4)
	if math.Abs(float64(a)-0.5) > 1e-6 {
		t.Errorf("expected alpha 0.5 at the half-thickness edge, got %f", a)
	}
}

func TestCornerLUTWinding(t *testing.T) {
	// Both triangles of the quad must wind the same way so CullModeNone
	// stays a choice rather than a requirement.
	corner := func(c QuadCorner) (float32, float32) {
		// Unit segment along +X, unit half-thickness.
		return c.End, c.Side
	}
	signedArea := func(i, j, k int) float32 {
		x0, y0 := corner(CornerLUT[i])
		x1, y1 := corner(CornerLUT[j])
		x2, y2 := corner(CornerLUT[k])
		return (x1-x0)*(y2-y0) - (x2-x0)*(y1-y0)
	}
	a1 := signedArea(0, 1, 2)
	a2 := signedArea(3, 4, 5)
	if a1 == 0 || a2 == 0 {
		t.Fatal("degenerate LUT triangle")
	}
	if (a1 > 0) != (a2 > 0) {
		t.Error("quad triangles wind in opposite directions")
	}
}

func TestCornerLUTCoversQuad(t *testing.T) {
	var ends, sides [2]int
	for _, c := range CornerLUT {
		ends[int(c.End)]++
		if c.Side < 0 {
			sides[0]++
		} else {
			sides[1]++
		}
	}
	if ends[0] != 3 || ends[1] != 3 {
		t.Errorf("expected 3 corners per endpoint, got %v", ends)
	}
	if sides[0] != 3 || sides[1] != 3 {
		t.Errorf("expected 3 corners per side, got %v", sides)
	}
}
