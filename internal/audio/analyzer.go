package audio

import "math"

// ChannelProfile summarizes one channel's levels across the whole stream.
type ChannelProfile struct {
	Peak float32
	RMS  float32
}

// Profile holds per-channel level statistics used to pick trace
// amplitude scaling before rendering starts.
type Profile struct {
	Channels []ChannelProfile
}

// headroom keeps the loudest sample short of the trace's vertical extent.
const headroom = 0.85

// Analyze scans every channel once and computes peak and RMS levels.
func Analyze(src *Source) *Profile {
	p := &Profile{Channels: make([]ChannelProfile, src.NumChannels())}
	for ch := range p.Channels {
		data := src.channels[ch]
		var peak float32
		var sumSq float64
		for _, v := range data {
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
			sumSq += float64(v) * float64(v)
		}
		var rms float32
		if len(data) > 0 {
			rms = float32(math.Sqrt(sumSq / float64(len(data))))
		}
		p.Channels[ch] = ChannelProfile{Peak: peak, RMS: rms}
	}
	return p
}

// AmplitudeScale returns the vertical gain for a channel's trace so that
// its loudest sample lands at the headroom fraction of full scale.
// Silent channels get unity gain.
func (p *Profile) AmplitudeScale(channel int) float32 {
	peak := p.Channels[channel].Peak
	if peak < 1e-6 {
		return 1.0
	}
	return headroom / peak
}
