package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// Software rasterizes the same TraceDraw contract on the CPU with the
// shared distance and coverage math. It exists for machines without a
// usable GPU and as the reference the shader is checked against.
type Software struct {
	width, height int
}

// NewSoftware returns a CPU rasterizer for a fixed target size.
func NewSoftware(width, height int) *Software {
	return &Software{width: width, height: height}
}

// RenderFrame draws every trace into target over an opaque black clear,
// blending each segment like the GPU pipeline does.
func (s *Software) RenderFrame(draws []TraceDraw, target *image.RGBA) error {
	draw.Draw(target, target.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	for i := range draws {
		if err := s.renderTrace(&draws[i], target); err != nil {
			return fmt.Errorf("trace %d: %w", i, err)
		}
	}
	return nil
}

// Destroy is a no-op; present for the Frame contract.
func (s *Software) Destroy() {}

func (s *Software) renderTrace(d *TraceDraw, target *image.RGBA) error {
	numSegments := int(d.VertexCount) / VerticesPerSegment
	rel := int(d.Uniforms.BaseIndex) - int(d.BufferOffset)
	if rel < 0 || rel+2*(numSegments+1) > len(d.Data) {
		return fmt.Errorf("base index %d outside draw data", d.Uniforms.BaseIndex)
	}

	// Transform every point to pixel space once.
	px := make([]float32, numSegments+1)
	py := make([]float32, numSegments+1)
	m := &d.Uniforms.Transform
	w := float32(s.width)
	h := float32(s.height)
	for i := 0; i <= numSegments; i++ {
		x := d.Data[rel+2*i]
		y := d.Data[rel+2*i+1]
		cx := m[0]*x + m[1]*y + m[3]
		cy := m[4]*x + m[5]*y + m[7]
		px[i] = (cx*0.5 + 0.5) * w
		py[i] = (cy*0.5 + 0.5) * h
	}

	reach := d.Uniforms.Thickness*0.5 + FeatherMargin
	for i := 0; i < numSegments; i++ {
		s.renderSegment(target, px[i], py[i], px[i+1], py[i+1], reach, d.Uniforms.Thickness)
	}
	return nil
}

func (s *Software) renderSegment(target *image.RGBA, ax, ay, bx, by, reach, thickness float32) {
	minX := int(minf(ax, bx) - reach)
	maxX := int(maxf(ax, bx) + reach + 1)
	minY := int(minf(ay, by) - reach)
	maxY := int(maxf(ay, by) + reach + 1)
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > s.width {
		maxX = s.width
	}
	if maxY > s.height {
		maxY = s.height
	}

	for y := minY; y < maxY; y++ {
		row := target.Pix[y*target.Stride:]
		for x := minX; x < maxX; x++ {
			d := SegmentDistance(float32(x)+0.5, float32(y)+0.5, ax, ay, bx, by)
			a := Coverage(d, thickness)
			if a <= 0 {
				continue
			}
			blendWhite(row[x*4:x*4+4], a)
		}
	}
}

// blendWhite composites premultiplied white of the given alpha over one
// RGBA pixel, matching the GPU blend state.
func blendWhite(pix []byte, alpha float32) {
	src := alpha * 255
	inv := 1 - alpha
	for c := 0; c < 3; c++ {
		v := src + float32(pix[c])*inv
		if v > 255 {
			v = 255
		}
		pix[c] = byte(v + 0.5)
	}
	pix[3] = 255
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
