package sp12

import (
	"encoding/binary"
	"fmt"
)

// EncodeSample serializes a single pad assignment as a standalone SP-1200
// sample file: the full disk-sized envelope with a sample count of one, the
// pad entry in the first table slot, and sample data at the fixed data base.
func EncodeSample(a PadAssignment) ([]byte, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	if dataBase+len(a.Data)+2 > DiskSize {
		return nil, fmt.Errorf("%w: sample is %d bytes", ErrCapacity, len(a.Data))
	}

	img := make([]byte, DiskSize)
	writeImageHeader(img, 1, 0)
	encodePadEntry(img[padTableOffset:padTableOffset+padEntrySize], &a, dataBase)
	copy(img[dataBase:], a.Data)
	binary.LittleEndian.PutUint16(img[dataBase+len(a.Data):], EndMarker)

	return img, nil
}

// DecodeSample parses a standalone sample file produced by EncodeSample.
func DecodeSample(buf []byte) (*PadAssignment, error) {
	if err := checkImage(buf); err != nil {
		return nil, err
	}

	entry := buf[padTableOffset : padTableOffset+padEntrySize]
	a, err := decodePadEntry(entry, buf)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: no sample present", ErrFormat)
	}
	return a, nil
}
