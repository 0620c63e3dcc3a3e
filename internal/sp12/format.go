// Package sp12 implements the reverse-engineered E-mu SP-1200 disk image and
// single-sample file formats.
//
// A disk image is a fixed 824,576-byte buffer: a small little-endian header,
// a 32-slot pad table at 0x800, and 256-byte-aligned sample data from 0x1000,
// each sample followed by a 0x8000 end marker. Samples are 12-bit unsigned
// values packed in 16-bit little-endian words.
package sp12

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Disk layout constants.
const (
	// DiskSize is the exact size of a disk image in bytes.
	DiskSize = 824576

	// Magic identifies SP-1200 images, stored little-endian at offset 0.
	Magic = 0x1200

	// SampleRate is the native sampling rate of the hardware in Hz.
	SampleRate = 26040

	// MaxSampleWords is the per-pad sample capacity (2.5 seconds).
	MaxSampleWords = 65100

	// EndMarker is the sentinel word written after each sample's data.
	EndMarker = 0x8000

	// MaxNameLen is the length of the name field in a pad entry.
	MaxNameLen = 12

	// PadsPerBank is the number of pads in each of the four banks.
	PadsPerBank = 8

	padSlots       = 32
	padTableOffset = 0x0800
	padEntrySize   = 32
	dataBase       = 0x1000
	blockSize      = 256

	countSamplesOffset   = 2
	countSequencesOffset = 4
)

var (
	// ErrFormat is returned when a buffer is not a well-formed SP-1200 image.
	ErrFormat = errors.New("malformed sp-1200 image")
	// ErrValidation is returned for out-of-range pad assignments.
	ErrValidation = errors.New("invalid pad assignment")
	// ErrCapacity is returned when sample data would overflow the disk image.
	ErrCapacity = errors.New("disk image capacity exceeded")
)

// Bank identifies one of the four pad banks, A through D.
type Bank byte

// The four banks.
const (
	BankA Bank = 'A'
	BankB Bank = 'B'
	BankC Bank = 'C'
	BankD Bank = 'D'
)

// Valid reports whether b names an existing bank.
func (b Bank) Valid() bool {
	return b >= BankA && b <= BankD
}

func (b Bank) String() string {
	return string(rune(b))
}

// ParseBank converts a one-letter bank name, case-insensitively.
func ParseBank(s string) (Bank, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("%w: bank %q", ErrValidation, s)
	}
	b := Bank(strings.ToUpper(s)[0])
	if !b.Valid() {
		return 0, fmt.Errorf("%w: bank %q", ErrValidation, s)
	}
	return b, nil
}

// SlotIndex maps (bank, pad) onto a pad-table slot. Each bank owns eight
// consecutive slots in A,B,C,D order, so the mapping is a bijection from
// the 4x8 pad grid onto [0,31].
func SlotIndex(bank Bank, pad int) int {
	return int(bank-BankA)*PadsPerBank + pad - 1
}

// Metadata is the per-pad playback metadata stored in a pad entry.
type Metadata struct {
	Tuning     int // semitones, -12..12
	Volume     int // 0..255
	Loop       bool
	LoopStart  int
	LoopEnd    int
	TruncStart int
	TruncEnd   int
}

// DefaultMetadata returns the metadata written for pads that carry none:
// full volume, everything else zero.
func DefaultMetadata() Metadata {
	return Metadata{Volume: 255}
}

// PadAssignment binds a sample to a pad. Data holds 12-bit sample values
// packed as 16-bit little-endian words.
type PadAssignment struct {
	Bank Bank
	Pad  int // 1..8
	Name string
	Data []byte
	Meta Metadata
}

// WordCount returns the number of 16-bit sample words in Data.
func (a *PadAssignment) WordCount() int {
	return len(a.Data) / 2
}

// validate checks bank and pad ranges and normalizes name and metadata.
func (a *PadAssignment) validate() error {
	if !a.Bank.Valid() {
		return fmt.Errorf("%w: bank %q", ErrValidation, a.Bank.String())
	}
	if a.Pad < 1 || a.Pad > PadsPerBank {
		return fmt.Errorf("%w: pad %d outside 1-%d", ErrValidation, a.Pad, PadsPerBank)
	}
	if len(a.Name) > MaxNameLen {
		a.Name = a.Name[:MaxNameLen]
	}
	if a.Meta == (Metadata{}) {
		a.Meta = DefaultMetadata()
	}
	return nil
}

// Pad entry layout (32 bytes):
//
//	 0-11  name, zero-padded
//	12-15  sample word count (LE32)
//	16-19  sample data offset (LE32)
//	20     bank index (0-3)
//	21     pad index (0-based)
//	22     tuning, stored as (tuning+12)&0xFF
//	23     volume
//	24-25  loop start (LE16)
//	26-27  loop end (LE16)
//	28-29  trunc start (LE16)
//	30-31  trunc end (LE16)
//
// The loop flag is not stored; a pad loops when loop end exceeds loop start.
func encodePadEntry(dst []byte, a *PadAssignment, dataOffset int) {
	copy(dst[0:MaxNameLen], a.Name)
	binary.LittleEndian.PutUint32(dst[12:16], uint32(a.WordCount()))
	binary.LittleEndian.PutUint32(dst[16:20], uint32(dataOffset))
	dst[20] = byte(a.Bank - BankA)
	dst[21] = byte(a.Pad - 1)
	dst[22] = byte(a.Meta.Tuning+12) & 0xFF
	dst[23] = byte(a.Meta.Volume)
	binary.LittleEndian.PutUint16(dst[24:26], uint16(a.Meta.LoopStart))
	binary.LittleEndian.PutUint16(dst[26:28], uint16(a.Meta.LoopEnd))
	binary.LittleEndian.PutUint16(dst[28:30], uint16(a.Meta.TruncStart))
	binary.LittleEndian.PutUint16(dst[30:32], uint16(a.Meta.TruncEnd))
}

// decodePadEntry reconstructs an assignment from a pad entry and the image
// it points into. An all-zero word count means the slot is empty.
func decodePadEntry(entry, image []byte) (*PadAssignment, error) {
	words := int(binary.LittleEndian.Uint32(entry[12:16]))
	if words == 0 {
		return nil, nil
	}

	bank := BankA + Bank(entry[20])
	pad := int(entry[21]) + 1
	if !bank.Valid() || pad < 1 || pad > PadsPerBank {
		return nil, fmt.Errorf("%w: pad entry addresses bank %d pad %d", ErrFormat, entry[20], pad)
	}

	off := int(binary.LittleEndian.Uint32(entry[16:20]))
	if off < dataBase || off+words*2 > len(image) {
		return nil, fmt.Errorf("%w: sample data at %#x (%d words) is out of bounds", ErrFormat, off, words)
	}

	meta := Metadata{
		Tuning:     int(entry[22]) - 12,
		Volume:     int(entry[23]),
		LoopStart:  int(binary.LittleEndian.Uint16(entry[24:26])),
		LoopEnd:    int(binary.LittleEndian.Uint16(entry[26:28])),
		TruncStart: int(binary.LittleEndian.Uint16(entry[28:30])),
		TruncEnd:   int(binary.LittleEndian.Uint16(entry[30:32])),
	}
	meta.Loop = meta.LoopEnd > meta.LoopStart

	return &PadAssignment{
		Bank: bank,
		Pad:  pad,
		Name: strings.TrimRight(string(entry[0:MaxNameLen]), "\x00"),
		Data: append([]byte(nil), image[off:off+words*2]...),
		Meta: meta,
	}, nil
}

// alignUp rounds n up to the next multiple of block.
func alignUp(n, block int) int {
	rem := n % block
	if rem == 0 {
		return n
	}
	return n + block - rem
}

// writeImageHeader writes magic and entity counts into a disk image buffer.
func writeImageHeader(img []byte, samples, sequences int) {
	binary.LittleEndian.PutUint16(img[0:2], Magic)
	binary.LittleEndian.PutUint16(img[countSamplesOffset:], uint16(samples))
	binary.LittleEndian.PutUint16(img[countSequencesOffset:], uint16(sequences))
}

// checkImage verifies the size and magic of an SP-1200 image buffer.
func checkImage(buf []byte) error {
	if len(buf) < dataBase {
		return fmt.Errorf("%w: %d bytes is too short", ErrFormat, len(buf))
	}
	if m := binary.LittleEndian.Uint16(buf[0:2]); m != Magic {
		return fmt.Errorf("%w: magic %#04x (want %#04x)", ErrFormat, m, Magic)
	}
	return nil
}
