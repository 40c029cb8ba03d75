package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder implements Decoder for FLAC files.
type FLACDecoder struct {
	stream     *flac.Stream
	file       *os.File
	sampleRate int
	numChans   int

	// Leftover interleaved samples from the last parsed frame.
	pending []float32
}

// NewFLACDecoder creates a new FLAC decoder.
func NewFLACDecoder(filename string) (*FLACDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	// Parse FLAC stream signature and StreamInfo block.
	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}

	return &FLACDecoder{
		stream:     stream,
		file:       f,
		sampleRate: int(stream.Info.SampleRate),
		numChans:   int(stream.Info.NChannels),
	}, nil
}

// ReadChunk reads the next chunk of interleaved samples.
func (d *FLACDecoder) ReadChunk(numFrames int) ([]float32, error) {
	want := numFrames * d.numChans
	samples := make([]float32, 0, want)

	if len(d.pending) > 0 {
		take := min(len(d.pending), want)
		samples = append(samples, d.pending[:take]...)
		d.pending = d.pending[take:]
	}

	for len(samples) < want {
		frame, err := d.stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				if len(samples) == 0 {
					return nil, io.EOF
				}
				return samples, nil
			}
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		// FLAC frames hold one subframe per channel; interleave and
		// normalize by the frame's bit depth.
		frameLen := len(frame.Subframes[0].Samples)
		maxVal := float32(int64(1) << (frame.BitsPerSample - 1))
		for i := 0; i < frameLen; i++ {
			for ch := 0; ch < d.numChans; ch++ {
				s := float32(frame.Subframes[ch].Samples[i]) / maxVal
				if len(samples) < want {
					samples = append(samples, s)
				} else {
					d.pending = append(d.pending, s)
				}
			}
		}
	}

	return samples, nil
}

// SampleRate returns the sample rate.
func (d *FLACDecoder) SampleRate() int {
	return d.sampleRate
}

// NumChannels returns the number of audio channels.
func (d *FLACDecoder) NumChannels() int {
	return d.numChans
}

// Close closes the decoder and releases resources.
func (d *FLACDecoder) Close() error {
	if d.stream != nil {
		d.stream.Close()
	}
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
