// Package snd encodes and decodes Akai S3000/MPC3000 sample files.
//
// The format is a fixed 192-byte big-endian header followed by 16-bit
// big-endian PCM. There is no magic number; format identity is positional.
package snd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ErrFormat is returned when a buffer cannot hold an SND sample.
var ErrFormat = errors.New("malformed snd file")

// Format constants.
const (
	// HeaderSize is the fixed header length in bytes.
	HeaderSize = 192

	// NameLen is the length of the space-padded name field.
	NameLen = 12

	// DefaultRootNote is the MIDI note a sample plays back at pitch.
	DefaultRootNote = 60

	formatByte = 3
	loopModeNone = 2
	numLoopRecords = 7
	loopRecordSize = 12
)

// Sample is an SND sample file in memory.
type Sample struct {
	Name       string
	SampleRate int
	RootNote   byte
	SemiTune   int8
	CentsTune  int8
	PCM        []int16
}

// Encode serializes s into a complete SND file.
func Encode(s *Sample) []byte {
	buf := make([]byte, HeaderSize+len(s.PCM)*2)

	buf[0] = formatByte
	if s.SampleRate >= 44100 {
		buf[1] = 1 // 44.1 kHz flag
	}
	root := s.RootNote
	if root == 0 {
		root = DefaultRootNote
	}
	buf[2] = root

	name := s.Name
	if len(name) > NameLen {
		name = name[:NameLen]
	}
	copy(buf[3:15], []byte(name+strings.Repeat(" ", NameLen-len(name))))

	buf[15] = 128
	buf[16] = 0 // active loop count
	buf[17] = 0 // first active loop
	buf[18] = 0
	buf[19] = loopModeNone
	buf[20] = byte(s.CentsTune)
	buf[21] = byte(s.SemiTune)
	buf[22] = 0
	buf[23] = 8
	buf[24] = 2
	buf[25] = 0

	words := uint32(len(s.PCM))
	binary.BigEndian.PutUint32(buf[26:30], words)
	binary.BigEndian.PutUint32(buf[30:34], 0)     // start marker
	binary.BigEndian.PutUint32(buf[34:38], words) // end marker

	// Bytes 38-181 hold seven 12-byte loop records, all inactive (zero).

	buf[182] = 0
	buf[183] = 0
	buf[184] = 255
	buf[185] = 255
	binary.BigEndian.PutUint16(buf[186:188], uint16(s.SampleRate))
	buf[188] = 0 // loop tune offset
	// 189-191 reserved

	for i, v := range s.PCM {
		binary.BigEndian.PutUint16(buf[HeaderSize+i*2:], uint16(v))
	}

	return buf
}

// Decode parses an SND file. The only structural check possible is length:
// the format carries no magic number.
func Decode(buf []byte) (*Sample, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d-byte header", ErrFormat, len(buf), HeaderSize)
	}

	words := int(binary.BigEndian.Uint32(buf[26:30]))
	if avail := (len(buf) - HeaderSize) / 2; words > avail {
		return nil, fmt.Errorf("%w: header claims %d words but only %d are present", ErrFormat, words, avail)
	}

	s := &Sample{
		Name:       strings.TrimRight(string(buf[3:15]), " "),
		SampleRate: int(binary.BigEndian.Uint16(buf[186:188])),
		RootNote:   buf[2],
		CentsTune:  int8(buf[20]),
		SemiTune:   int8(buf[21]),
		PCM:        make([]int16, words),
	}
	for i := range s.PCM {
		s.PCM[i] = int16(binary.BigEndian.Uint16(buf[HeaderSize+i*2:]))
	}

	return s, nil
}
