package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// ErrDecode is returned when compressed input cannot be decoded.
var ErrDecode = errors.New("undecodable audio")

// SourceFromMP3 decodes an MP3 stream into a mono Source.
// go-mp3 always emits 16-bit little-endian stereo at the stream's native
// sample rate, so the two channels are mixed down the same way as WAV input.
func SourceFromMP3(buf []byte) (Source, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(buf))
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	n := len(pcm) / 4 // one frame is two 16-bit channels
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		l := int16(binary.LittleEndian.Uint16(pcm[i*4 : i*4+2]))
		r := int16(binary.LittleEndian.Uint16(pcm[i*4+2 : i*4+4]))
		samples[i] = (float64(l) + float64(r)) / 2
	}

	return Source{Samples: samples, SampleRate: dec.SampleRate()}, nil
}
