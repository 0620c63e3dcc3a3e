package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrFormat is returned when a buffer is not a well-formed WAV file.
	ErrFormat = errors.New("malformed wav file")
	// ErrValidation is returned when a WAV file is well-formed but outside
	// the ranges the converters accept.
	ErrValidation = errors.New("unsupported wav format")
)

// Descriptor holds the canonical parameters of a parsed WAV file.
type Descriptor struct {
	AudioFormat   int
	Channels      int
	SampleRate    int
	BitsPerSample int
	DataOffset    int
	DataLength    int
}

// File is a parsed WAV buffer. The underlying bytes are not copied.
type File struct {
	Descriptor

	raw      []byte
	warnings []string
}

// Parse scans the RIFF chunk list of buf and returns a File describing it.
// The scan starts at byte 12 and reads chunks as {4-byte id, LE32 size,
// payload}; odd-sized chunks are followed by a single pad byte, and unknown
// chunk ids are skipped by size.
func Parse(buf []byte) (*File, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than a wav header", ErrFormat, len(buf))
	}
	if string(buf[0:4]) != "RIFF" {
		return nil, fmt.Errorf("%w: missing RIFF magic", ErrFormat)
	}
	if string(buf[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing WAVE magic", ErrFormat)
	}

	f := &File{raw: buf}
	haveFmt := false
	haveData := false

	off := 12
	for off+8 <= len(buf) {
		id := string(buf[off : off+4])
		size := int(binary.LittleEndian.Uint32(buf[off+4 : off+8]))
		body := off + 8
		if size < 0 || size > len(buf)-body {
			// Truncated chunk; use whatever payload is present.
			size = len(buf) - body
		}

		switch id {
		case "fmt ":
			if size < 14 {
				return nil, fmt.Errorf("%w: fmt chunk is %d bytes", ErrFormat, size)
			}
			f.AudioFormat = int(binary.LittleEndian.Uint16(buf[body : body+2]))
			f.Channels = int(binary.LittleEndian.Uint16(buf[body+2 : body+4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(buf[body+4 : body+8]))
			if size >= 16 {
				f.BitsPerSample = int(binary.LittleEndian.Uint16(buf[body+14 : body+16]))
			} else {
				// Short fmt chunk: assume 16-bit and let the caller surface it.
				f.BitsPerSample = 16
				f.warnings = append(f.warnings, "fmt chunk has no bits-per-sample field, assuming 16-bit")
			}
			haveFmt = true
		case "data":
			f.DataOffset = body
			f.DataLength = size
			haveData = true
		}

		off = body + size
		if size%2 == 1 {
			off++ // RIFF pad byte keeps chunks word-aligned
		}
	}

	if !haveFmt {
		return nil, fmt.Errorf("%w: no fmt chunk found", ErrFormat)
	}
	if !haveData {
		return nil, fmt.Errorf("%w: no data chunk found", ErrFormat)
	}

	return f, nil
}

// Data returns the raw sample bytes of the data chunk.
func (f *File) Data() []byte {
	return f.raw[f.DataOffset : f.DataOffset+f.DataLength]
}

// Warnings returns non-fatal findings from parsing, such as a defaulted
// bits-per-sample value.
func (f *File) Warnings() []string {
	return f.warnings
}

// SampleCount returns the number of sample frames in the data chunk.
func (f *File) SampleCount() int {
	bytesPerSample := f.BitsPerSample / 8
	if bytesPerSample == 0 || f.Channels == 0 {
		return 0
	}
	return f.DataLength / bytesPerSample / f.Channels
}

// Validate checks the descriptor against the ranges the converters accept.
// It is a pure predicate: the file is never mutated, and the returned error
// names the failing field.
func (f *File) Validate() error {
	if f.AudioFormat != FormatPCM {
		return fmt.Errorf("%w: audio format %d is not PCM", ErrValidation, f.AudioFormat)
	}
	if f.Channels < 1 || f.Channels > 2 {
		return fmt.Errorf("%w: %d channels (must be mono or stereo)", ErrValidation, f.Channels)
	}
	if f.SampleRate < MinSampleRate || f.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: sample rate %d outside %d-%d Hz", ErrValidation, f.SampleRate, MinSampleRate, MaxSampleRate)
	}
	switch f.BitsPerSample {
	case 8, 16, 24:
	default:
		return fmt.Errorf("%w: %d bits per sample (must be 8, 16 or 24)", ErrValidation, f.BitsPerSample)
	}
	if n := f.SampleCount(); n < MinSampleCount {
		return fmt.Errorf("%w: only %d samples (need at least %d)", ErrValidation, n, MinSampleCount)
	}
	return nil
}
