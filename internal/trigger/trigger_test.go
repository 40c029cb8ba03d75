package trigger

import (
	"math"
	"testing"

	"github.com/wavescope/wavescope/internal/audio"
)

const (
	testRate      = 44100
	testWindowLen = 1024
	testMargin    = 512
)

func testConfig() Config {
	return Config{
		WindowLen:            testWindowLen,
		SearchWidth:          256,
		MinPitchHz:           40,
		MaxPitchHz:           2000,
		CorrelationThreshold: 0.35,
		Level:                0,
		Hysteresis:           0.05,
		Slope:                1,
		DeadTime:             64,
	}
}

// sineWindow cuts an analysis window out of an endless sine of the given
// frequency, following the Source.ReadWindow start convention.
func sineWindow(freqHz float64, start int64, length int) audio.Window {
	samples := make([]float32, length)
	for i := range samples {
		t := float64(start + int64(i))
		samples[i] = float32(0.7 * math.Sin(2*math.Pi*freqHz*t/testRate))
	}
	return audio.Window{Samples: samples, SampleRate: testRate, Start: start}
}

func silentWindow(start int64, length int) audio.Window {
	return audio.Window{
		Samples:    make([]float32, length),
		SampleRate: testRate,
		Start:      start,
	}
}

// alignedPosition is where the displayed region starts in absolute
// samples, folded into one period of the test tone.
func alignedPosition(win audio.Window, offset, period float64) float64 {
	p := math.Mod(float64(win.Start)+offset, period)
	if p < 0 {
		p += period
	}
	return p
}

// periodDistance folds a position difference into [-period/2, period/2].
func periodDistance(a, b, period float64) float64 {
	d := math.Mod(a-b, period)
	if d > period/2 {
		d -= period
	}
	if d < -period/2 {
		d += period
	}
	return math.Abs(d)
}

func runSineFrames(t *testing.T, mode Mode, freqHz float64, frames int) []float64 {
	t.Helper()

	cfg := testConfig()
	st := NewState()
	period := testRate / freqHz
	hop := int64(testRate / 60)
	length := testWindowLen + testMargin

	var positions []float64
	for f := 0; f < frames; f++ {
		win := sineWindow(freqHz, int64(f)*hop, length)
		in := Input{Window: win}
		res := Compute(in, mode, cfg, st)
		st.Update(in, mode, cfg, res)
		if res.Confidence > 0 {
			positions = append(positions, alignedPosition(win, res.Offset, period))
		}
	}
	return positions
}

func TestCrosscorrelationSineContinuity(t *testing.T) {
	positions := runSineFrames(t, Crosscorrelation, 220, 12)
	if len(positions) < 10 {
		t.Fatalf("expected at least 10 confident frames, got %d", len(positions))
	}
	period := float64(testRate) / 220
	for i := 1; i < len(positions); i++ {
		if d := periodDistance(positions[i], positions[0], period); d > 1.0 {
			t.Errorf("frame %d drifted %.3f samples from the locked phase", i, d)
		}
	}
}

func TestFundamentalPhaseSineContinuity(t *testing.T) {
	positions := runSineFrames(t, FundamentalPhase, 220, 12)
	if len(positions) < 11 {
		t.Fatalf("expected at least 11 confident frames, got %d", len(positions))
	}
	period := float64(testRate) / 220
	for i := 1; i < len(positions); i++ {
		if d := periodDistance(positions[i], positions[0], period); d > 1.0 {
			t.Errorf("frame %d drifted %.3f samples from the locked phase", i, d)
		}
	}
}

func TestFundamentalPhasePeriodEstimate(t *testing.T) {
	cfg := testConfig()
	st := NewState()
	win := sineWindow(220, 0, testWindowLen+testMargin)

	res := Compute(Input{Window: win}, FundamentalPhase, cfg, st)
	if res.Confidence == 0 {
		t.Fatal("expected a confident lock on a pure sine")
	}
	want := float64(testRate) / 220
	if math.Abs(res.Period-want) > 0.5 {
		t.Errorf("expected period near %.2f, got %.2f", want, res.Period)
	}
}

func TestCrosscorrelationSilenceFreezes(t *testing.T) {
	cfg := testConfig()
	st := NewState()
	length := testWindowLen + testMargin

	// Lock onto a tone first so PrevWindow and PrevOffset are set.
	for f := 0; f < 3; f++ {
		win := sineWindow(220, int64(f)*735, length)
		in := Input{Window: win}
		res := Compute(in, Crosscorrelation, cfg, st)
		st.Update(in, Crosscorrelation, cfg, res)
	}
	lockedOffset := st.PrevOffset

	win := silentWindow(3*735, length)
	res := Compute(Input{Window: win}, Crosscorrelation, cfg, st)
	if res.Confidence != 0 {
		t.Errorf("expected confidence 0 on silence, got %f", res.Confidence)
	}
	if res.Offset != lockedOffset {
		t.Errorf("expected frozen offset %f, got %f", lockedOffset, res.Offset)
	}
}

func TestCrosscorrelationFirstFrameFreezes(t *testing.T) {
	cfg := testConfig()
	st := NewState()
	win := sineWindow(220, 0, testWindowLen+testMargin)

	res := Compute(Input{Window: win}, Crosscorrelation, cfg, st)
	if res.Confidence != 0 {
		t.Errorf("expected confidence 0 with no history, got %f", res.Confidence)
	}
	if res.Offset != 0 {
		t.Errorf("expected offset 0 on first frame, got %f", res.Offset)
	}
}

func TestPeakSpeedFindsSteepestEdge(t *testing.T) {
	cfg := testConfig()
	st := NewState()

	samples := make([]float32, testWindowLen+testMargin)
	samples[200] = 0
	samples[201] = 0.9
	win := audio.Window{Samples: samples, SampleRate: testRate}

	res := Compute(Input{Window: win}, PeakSpeed, cfg, st)
	if res.Confidence == 0 {
		t.Fatal("expected a confident result on a step")
	}
	if res.Offset != 200 {
		t.Errorf("expected offset 200, got %f", res.Offset)
	}
}

func TestPeakSpeedSilenceFreezes(t *testing.T) {
	cfg := testConfig()
	st := NewState()
	st.PrevOffset = 123

	win := silentWindow(0, testWindowLen+testMargin)
	res := Compute(Input{Window: win}, PeakSpeed, cfg, st)
	if res.Confidence != 0 {
		t.Errorf("expected confidence 0 on silence, got %f", res.Confidence)
	}
	if res.Offset != 123 {
		t.Errorf("expected frozen offset 123, got %f", res.Offset)
	}
}

func TestExternalTriggerRamp(t *testing.T) {
	cfg := testConfig()
	st := NewState()
	length := testWindowLen + testMargin

	trig := silentWindow(0, length)
	trig.Samples[0] = -1
	for i := 1; i < length; i++ {
		trig.Samples[i] = 1
	}
	in := Input{Window: silentWindow(0, length), Trigger: &trig}

	res := Compute(in, ExternalTrigger, cfg, st)
	if res.Confidence != 1 {
		t.Fatalf("expected confidence 1, got %f", res.Confidence)
	}
	// The trigger lands on the first sample past the crossing.
	if res.Offset != 1 {
		t.Errorf("expected offset 1, got %f", res.Offset)
	}

	again := Compute(in, ExternalTrigger, cfg, st)
	if again != res {
		t.Error("expected identical results for identical inputs")
	}
}

func TestExternalTriggerDeadTime(t *testing.T) {
	cfg := testConfig()
	st := NewState()
	length := testWindowLen + testMargin

	trig := silentWindow(0, length)
	trig.Samples[0] = -1
	for i := 1; i < length; i++ {
		trig.Samples[i] = 1
	}
	in := Input{Window: silentWindow(0, length), Trigger: &trig}

	res := Compute(in, ExternalTrigger, cfg, st)
	st.Update(in, ExternalTrigger, cfg, res)

	// The same edge seen again within the dead time must not retrigger.
	next := trig
	next.Start = 0
	res = Compute(Input{Window: silentWindow(0, length), Trigger: &next}, ExternalTrigger, cfg, st)
	if res.Confidence != 0 {
		t.Errorf("expected dead-time suppression, got confidence %f", res.Confidence)
	}
}

func TestExternalTriggerFallingSlope(t *testing.T) {
	cfg := testConfig()
	cfg.Slope = -1
	st := NewState()
	length := testWindowLen + testMargin

	trig := silentWindow(0, length)
	trig.Samples[0] = 1
	for i := 1; i < length; i++ {
		trig.Samples[i] = -1
	}
	in := Input{Window: silentWindow(0, length), Trigger: &trig}

	res := Compute(in, ExternalTrigger, cfg, st)
	if res.Confidence != 1 {
		t.Fatalf("expected confidence 1 on a falling edge, got %f", res.Confidence)
	}
	if res.Offset != 1 {
		t.Errorf("expected offset 1, got %f", res.Offset)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	cfg := testConfig()
	length := testWindowLen + testMargin
	win := sineWindow(220, 3000, length)
	trig := sineWindow(220, 3000, length)

	for _, mode := range []Mode{PeakSpeed, FundamentalPhase, Crosscorrelation, ExternalTrigger} {
		st := NewState()
		st.PrevOffset = 50
		st.PrevWindow = make([]float32, testWindowLen)
		copy(st.PrevWindow, win.Samples[:testWindowLen])

		in := Input{Window: win, Trigger: &trig}
		first := Compute(in, mode, cfg, st)
		second := Compute(in, mode, cfg, st)
		if first != second {
			t.Errorf("%v: repeated Compute diverged: %+v vs %+v", mode, first, second)
		}
		if st.PrevOffset != 50 {
			t.Errorf("%v: Compute mutated PrevOffset to %f", mode, st.PrevOffset)
		}
	}
}

func TestShortWindowFreezes(t *testing.T) {
	cfg := testConfig()
	st := NewState()
	st.PrevOffset = 7

	win := sineWindow(220, 0, cfg.WindowLen/2)
	res := Compute(Input{Window: win}, Crosscorrelation, cfg, st)
	if res.Confidence != 0 || res.Offset != 7 {
		t.Errorf("expected frozen result, got %+v", res)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"peakspeed": PeakSpeed,
		"phase":     FundamentalPhase,
		"XCORR":     Crosscorrelation,
		"external":  ExternalTrigger,
	}
	for name, want := range cases {
		got, err := ParseMode(name)
		if err != nil {
			t.Errorf("ParseMode(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseMode("fancy"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
