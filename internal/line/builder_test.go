package line

import (
	"math"
	"testing"
)

func TestBuildFixedLength(t *testing.T) {
	fence := &Fence{}
	b := NewBuilder(16, fence)

	samples := make([]float32, 64)
	for i := range samples {
		samples[i] = float32(i)
	}

	base, ok := b.Build(samples, 0)
	if !ok {
		t.Fatal("expected first build to succeed")
	}
	if base != 0 {
		t.Errorf("expected base 0, got %d", base)
	}

	data := b.Data()
	for i := 0; i < 16; i++ {
		if data[2*i] != float32(i) {
			t.Errorf("pair %d: expected index %d, got %f", i, i, data[2*i])
		}
		if data[2*i+1] != float32(i) {
			t.Errorf("pair %d: expected amplitude %d, got %f", i, i, data[2*i+1])
		}
	}
}

func TestBuildFractionalOffset(t *testing.T) {
	fence := &Fence{}
	b := NewBuilder(8, fence)

	samples := []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	_, ok := b.Build(samples, 1.5)
	if !ok {
		t.Fatal("expected build to succeed")
	}

	data := b.Data()
	for i := 0; i < 8; i++ {
		want := 1.5 + float64(i)
		if math.Abs(float64(data[2*i+1])-want) > 1e-6 {
			t.Errorf("pair %d: expected %f, got %f", i, want, data[2*i+1])
		}
	}
}

func TestBuildClampsTrailingEdge(t *testing.T) {
	fence := &Fence{}
	b := NewBuilder(8, fence)

	samples := []float32{1, 2, 3, 4}
	_, ok := b.Build(samples, 1)
	if !ok {
		t.Fatal("expected build to succeed")
	}

	data := b.Data()
	want := []float32{2, 3, 4, 4, 4, 4, 4, 4}
	for i, w := range want {
		if data[2*i+1] != w {
			t.Errorf("pair %d: expected %f, got %f", i, w, data[2*i+1])
		}
	}
}

func TestBuildAlternatesArenas(t *testing.T) {
	fence := &Fence{}
	b := NewBuilder(4, fence)
	samples := []float32{0, 0, 0, 0, 0}

	base0, ok := b.Build(samples, 0)
	if !ok || base0 != 0 {
		t.Fatalf("first build: base %d ok %v", base0, ok)
	}

	fence.Signal()
	base1, ok := b.Build(samples, 0)
	if !ok || base1 != 8 {
		t.Fatalf("second build: base %d ok %v", base1, ok)
	}

	fence.Signal()
	base2, ok := b.Build(samples, 0)
	if !ok || base2 != 0 {
		t.Fatalf("third build: base %d ok %v", base2, ok)
	}
}

func TestBuildSkipsWhenArenaHeld(t *testing.T) {
	fence := &Fence{}
	b := NewBuilder(4, fence)
	samples := []float32{0, 0, 0, 0, 0}

	if _, ok := b.Build(samples, 0); !ok {
		t.Fatal("expected first build to succeed")
	}
	// No draw has signaled, so the second arena's predecessor may still be
	// in flight once the snapshot flips. The first rebuild of arena 0 must
	// be refused until a draw lands.
	if _, ok := b.Build(samples, 0); !ok {
		t.Fatal("expected second build to succeed")
	}
	if _, ok := b.Build(samples, 0); ok {
		t.Error("expected third build to skip with no draws signaled")
	}

	fence.Signal()
	if _, ok := b.Build(samples, 0); !ok {
		t.Error("expected build to succeed after the fence signaled")
	}
}

func BenchmarkBuild(b *testing.B) {
	fence := &Fence{}
	builder := NewBuilder(2048, fence)
	samples := make([]float32, 3072)
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i) / 30))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fence.Signal()
		builder.Build(samples, 13.7)
	}
}
