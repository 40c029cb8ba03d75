package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Decoder is the interface implemented by all audio format decoders.
// Samples are returned interleaved, one float32 per channel per frame,
// normalized to [-1, 1].
type Decoder interface {
	// ReadChunk reads up to numFrames frames of interleaved samples.
	// Returns io.EOF when the stream is exhausted.
	ReadChunk(numFrames int) ([]float32, error)

	// SampleRate returns the audio sample rate in Hz.
	SampleRate() int

	// NumChannels returns the number of audio channels.
	NumChannels() int

	// Close closes the decoder and releases resources.
	Close() error
}

// OpenDecoder opens the decoder matching the file extension.
func OpenDecoder(filename string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return NewWAVDecoder(filename)
	case ".aiff", ".aif":
		return NewAIFFDecoder(filename)
	case ".mp3":
		return NewMP3Decoder(filename)
	case ".flac":
		return NewFLACDecoder(filename)
	case ".ogg", ".oga":
		return NewVorbisDecoder(filename)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", filepath.Ext(filename))
	}
}
