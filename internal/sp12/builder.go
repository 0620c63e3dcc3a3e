package sp12

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// Sequence is a pattern stored on an SP-1200 disk. The builder declares the
// type for the disk header's sequence count but never populates it; pattern
// data is not implemented.
type Sequence struct {
	Name  string
	Tempo float64
	Steps []int
}

// Builder aggregates pad assignments and lays them out as a disk image.
//
// Each Builder is an independent instance; callers that serve multiple
// conversion sessions create one Builder per session. All methods are safe
// for concurrent use on a single Builder.
type Builder struct {
	mu        sync.Mutex
	pads      [padSlots]*PadAssignment
	sequences []Sequence
}

// NewBuilder returns an empty disk builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddSample assigns a sample to a pad, replacing any existing assignment at
// the same (bank, pad). The name is truncated to 12 characters and absent
// metadata defaults to full volume.
func (b *Builder) AddSample(a PadAssignment) error {
	if err := a.validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.pads[SlotIndex(a.Bank, a.Pad)] = &a
	return nil
}

// RemoveSample clears a pad. It reports whether an assignment was removed.
func (b *Builder) RemoveSample(bank Bank, pad int) bool {
	if !bank.Valid() || pad < 1 || pad > PadsPerBank {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	slot := SlotIndex(bank, pad)
	removed := b.pads[slot] != nil
	b.pads[slot] = nil
	return removed
}

// Sample returns the assignment at a pad, if any.
func (b *Builder) Sample(bank Bank, pad int) (PadAssignment, bool) {
	if !bank.Valid() || pad < 1 || pad > PadsPerBank {
		return PadAssignment{}, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.pads[SlotIndex(bank, pad)]
	if a == nil {
		return PadAssignment{}, false
	}
	return *a, true
}

// Assignments returns a copy of all current pad assignments.
func (b *Builder) Assignments() []PadAssignment {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]PadAssignment, 0, padSlots)
	for _, a := range b.pads {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out
}

// Len returns the number of assigned pads.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, a := range b.pads {
		if a != nil {
			n++
		}
	}
	return n
}

// Clear removes every assignment.
func (b *Builder) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pads = [padSlots]*PadAssignment{}
	b.sequences = nil
}

// CreateDiskImage serializes the current assignments into a complete disk
// image of exactly DiskSize bytes.
//
// Layout is deterministic: the pad arena iterates in (bank, pad) order, so
// two builders holding the same assignments produce byte-identical images
// regardless of insertion order. Sample data starts at 0x1000; each entry
// is aligned up to a 256-byte boundary, followed by its data and a 2-byte
// end marker. Overflow fails with ErrCapacity; no partial image is returned.
func (b *Builder) CreateDiskImage() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	img := make([]byte, DiskSize)
	count := 0
	cursor := dataBase

	for slot, a := range b.pads {
		if a == nil {
			continue
		}

		cursor = alignUp(cursor, blockSize)
		end := cursor + len(a.Data) + 2
		if end > DiskSize {
			return nil, fmt.Errorf("%w: %s%d needs %d bytes at %#x", ErrCapacity, a.Bank, a.Pad, len(a.Data)+2, cursor)
		}

		encodePadEntry(img[padTableOffset+slot*padEntrySize:padTableOffset+(slot+1)*padEntrySize], a, cursor)
		copy(img[cursor:], a.Data)
		binary.LittleEndian.PutUint16(img[cursor+len(a.Data):], EndMarker)

		cursor = alignUp(end, blockSize)
		count++
	}

	writeImageHeader(img, count, len(b.sequences))
	return img, nil
}

// LoadDiskImage replaces the builder's state with the assignments parsed
// from a disk image.
func (b *Builder) LoadDiskImage(buf []byte) error {
	assignments, err := ParseDisk(buf)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.pads = [padSlots]*PadAssignment{}
	b.sequences = nil
	for i := range assignments {
		a := assignments[i]
		b.pads[SlotIndex(a.Bank, a.Pad)] = &a
	}
	return nil
}

// ParseDisk reconstructs pad assignments from a disk image.
func ParseDisk(buf []byte) ([]PadAssignment, error) {
	if err := checkImage(buf); err != nil {
		return nil, err
	}

	var out []PadAssignment
	for slot := 0; slot < padSlots; slot++ {
		entry := buf[padTableOffset+slot*padEntrySize : padTableOffset+(slot+1)*padEntrySize]
		a, err := decodePadEntry(entry, buf)
		if err != nil {
			return nil, err
		}
		if a != nil {
			out = append(out, *a)
		}
	}
	return out, nil
}
