package audio

import (
	"fmt"
	"io"
)

// Window is one contiguous span of samples from a single channel.
// It is immutable once produced and owned by the caller for the duration
// of one centering computation.
type Window struct {
	// Samples holds the amplitude values, normalized to [-1, 1].
	Samples []float32

	// SampleRate is the source sample rate in Hz.
	SampleRate int

	// Start is the absolute index of Samples[0] in the source stream.
	Start int64
}

// Source holds fully decoded per-channel sample data and serves
// clamped window reads to the analysis threads. Reads are lock-free:
// the sample data is immutable after Load.
type Source struct {
	channels   [][]float32
	sampleRate int
}

// readChunkFrames is the decode granularity in frames.
const readChunkFrames = 65536

// LoadFile decodes an entire audio file into a Source.
func LoadFile(filename string) (*Source, error) {
	dec, err := OpenDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	defer dec.Close()
	return Load(dec)
}

// Load drains a decoder into a Source, deinterleaving channels.
func Load(dec Decoder) (*Source, error) {
	numChans := dec.NumChannels()
	if numChans < 1 {
		return nil, fmt.Errorf("decoder reports %d channels", numChans)
	}

	channels := make([][]float32, numChans)
	for {
		chunk, err := dec.ReadChunk(readChunkFrames)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading audio: %w", err)
		}
		// A decoder that yields nothing without an error would never
		// advance; treat it as end of stream.
		if len(chunk) == 0 {
			break
		}
		for i := 0; i+numChans <= len(chunk); i += numChans {
			for ch := 0; ch < numChans; ch++ {
				channels[ch] = append(channels[ch], chunk[i+ch])
			}
		}
	}

	if len(channels[0]) == 0 {
		return nil, fmt.Errorf("no audio data in stream")
	}

	return &Source{
		channels:   channels,
		sampleRate: dec.SampleRate(),
	}, nil
}

// NewSourceFromSamples wraps pre-decoded per-channel sample data.
func NewSourceFromSamples(channels [][]float32, sampleRate int) *Source {
	return &Source{channels: channels, sampleRate: sampleRate}
}

// ReadWindow returns length samples of the given channel centered on the
// absolute sample index center. Reads that run past either end of the
// stream are clamped to the edge samples, so the returned window always
// has exactly length samples.
func (s *Source) ReadWindow(channel int, center int64, length int) Window {
	data := s.channels[channel]
	n := int64(len(data))
	start := center - int64(length)/2

	out := make([]float32, length)
	for i := range out {
		idx := start + int64(i)
		if idx < 0 {
			idx = 0
		} else if idx >= n {
			idx = n - 1
		}
		out[i] = data[idx]
	}

	return Window{Samples: out, SampleRate: s.sampleRate, Start: start}
}

// NumChannels returns the number of channels in the source.
func (s *Source) NumChannels() int {
	return len(s.channels)
}

// NumSamples returns the per-channel sample count.
func (s *Source) NumSamples() int64 {
	return int64(len(s.channels[0]))
}

// SampleRate returns the sample rate in Hz.
func (s *Source) SampleRate() int {
	return s.sampleRate
}

// Duration returns the stream length in seconds.
func (s *Source) Duration() float64 {
	return float64(s.NumSamples()) / float64(s.sampleRate)
}
