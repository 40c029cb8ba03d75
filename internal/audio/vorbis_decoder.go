package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

// VorbisDecoder implements Decoder for Ogg Vorbis files.
type VorbisDecoder struct {
	reader     *oggvorbis.Reader
	file       *os.File
	sampleRate int
	numChans   int
}

// NewVorbisDecoder creates a new Ogg Vorbis decoder.
func NewVorbisDecoder(filename string) (*VorbisDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create Vorbis decoder: %w", err)
	}

	return &VorbisDecoder{
		reader:     reader,
		file:       f,
		sampleRate: reader.SampleRate(),
		numChans:   reader.Channels(),
	}, nil
}

// ReadChunk reads the next chunk of interleaved samples.
// oggvorbis decodes directly to normalized float32. Short reads are
// retried until the chunk fills or the stream ends; an empty read with
// no data accumulated reports io.EOF so callers always make progress.
func (d *VorbisDecoder) ReadChunk(numFrames int) ([]float32, error) {
	buf := make([]float32, numFrames*d.numChans)
	total := 0
	for total < len(buf) {
		n, err := d.reader.Read(buf[total:])
		total += n
		if err == io.EOF || (n == 0 && err == nil) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if total == 0 {
		return nil, io.EOF
	}
	return buf[:total], nil
}

// SampleRate returns the sample rate.
func (d *VorbisDecoder) SampleRate() int {
	return d.sampleRate
}

// NumChannels returns the number of audio channels.
func (d *VorbisDecoder) NumChannels() int {
	return d.numChans
}

// Close closes the decoder and releases resources.
func (d *VorbisDecoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
