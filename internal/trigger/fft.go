package trigger

import (
	"math/cmplx"

	"github.com/argusdusty/gofft"
)

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// scratch returns a zeroed complex scratch buffer of length n, reusing the
// state's allocation when it is already big enough.
func (st *State) scratch(n int) []complex128 {
	if cap(st.fftScratch) < n {
		st.fftScratch = make([]complex128, n)
	}
	buf := st.fftScratch[:n]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// autocorrelate computes the linear autocorrelation of x for lags
// 0..maxLag via the FFT of the zero-padded signal.
func (st *State) autocorrelate(x []float32, maxLag int) ([]float64, error) {
	n := len(x)
	if maxLag >= n {
		maxLag = n - 1
	}
	m := nextPow2(2 * n)
	if err := gofft.Prepare(m); err != nil {
		return nil, err
	}

	buf := st.scratch(m)
	for i, v := range x {
		buf[i] = complex(float64(v), 0)
	}
	if err := gofft.FFT(buf); err != nil {
		return nil, err
	}
	for i, v := range buf {
		buf[i] = v * cmplx.Conj(v)
	}
	if err := gofft.IFFT(buf); err != nil {
		return nil, err
	}

	r := make([]float64, maxLag+1)
	for lag := range r {
		r[lag] = real(buf[lag])
	}
	return r, nil
}

// crossCorrelate computes, for every start position o, the dot product of
// pattern against signal[o : o+len(pattern)]. The result has
// len(signal)-len(pattern)+1 entries.
func (st *State) crossCorrelate(signal, pattern []float32) ([]float64, error) {
	if len(pattern) > len(signal) {
		return nil, nil
	}
	m := nextPow2(len(signal) + len(pattern))
	if err := gofft.Prepare(m); err != nil {
		return nil, err
	}

	// Two FFTs share one scratch arena laid end to end.
	if cap(st.fftScratch) < 2*m {
		st.fftScratch = make([]complex128, 2*m)
	}
	a := st.fftScratch[:m]
	b := st.fftScratch[m : 2*m]
	for i := range a {
		a[i] = 0
		b[i] = 0
	}
	for i, v := range signal {
		a[i] = complex(float64(v), 0)
	}
	for i, v := range pattern {
		b[i] = complex(float64(v), 0)
	}
	if err := gofft.FFT(a); err != nil {
		return nil, err
	}
	if err := gofft.FFT(b); err != nil {
		return nil, err
	}
	for i := range a {
		a[i] *= cmplx.Conj(b[i])
	}
	if err := gofft.IFFT(a); err != nil {
		return nil, err
	}

	out := make([]float64, len(signal)-len(pattern)+1)
	for o := range out {
		out[o] = real(a[o])
	}
	return out, nil
}

// parabolicPeak refines a discrete peak position using its two neighbors.
// The returned shift is in [-0.5, 0.5] samples.
func parabolicPeak(yl, yc, yr float64) float64 {
	denom := yl - 2*yc + yr
	if denom == 0 {
		return 0
	}
	shift := 0.5 * (yl - yr) / denom
	if shift > 0.5 {
		shift = 0.5
	} else if shift < -0.5 {
		shift = -0.5
	}
	return shift
}
