package snd

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeHeaderLayout(t *testing.T) {
	centsTune := int8(-5)
	s := &Sample{
		Name:       "KICK",
		SampleRate: 44100,
		SemiTune:   3,
		CentsTune:  centsTune,
		PCM:        []int16{0, 100, -100, 32767, -32768},
	}
	buf := Encode(s)

	if len(buf) != HeaderSize+len(s.PCM)*2 {
		t.Fatalf("len = %d, want %d", len(buf), HeaderSize+len(s.PCM)*2)
	}

	checks := []struct {
		name   string
		offset int
		want   byte
	}{
		{"format byte", 0, 3},
		{"44.1kHz flag", 1, 1},
		{"root note", 2, DefaultRootNote},
		{"constant 128", 15, 128},
		{"loop mode none", 19, 2},
		{"cents tune", 20, byte(centsTune)},
		{"semi tune", 21, 3},
		{"fixed byte 22", 22, 0},
		{"fixed byte 23", 23, 8},
		{"fixed byte 24", 24, 2},
		{"fixed byte 25", 25, 0},
		{"end marker 184", 184, 255},
		{"end marker 185", 185, 255},
	}
	for _, c := range checks {
		if buf[c.offset] != c.want {
			t.Errorf("%s: buf[%d] = %d, want %d", c.name, c.offset, buf[c.offset], c.want)
		}
	}

	if got := string(buf[3:15]); got != "KICK        " {
		t.Errorf("name field = %q, want space-padded KICK", got)
	}
	if got := binary.BigEndian.Uint32(buf[26:30]); got != 5 {
		t.Errorf("word count = %d, want 5", got)
	}
	if got := binary.BigEndian.Uint32(buf[34:38]); got != 5 {
		t.Errorf("end marker = %d, want 5", got)
	}
	if got := binary.BigEndian.Uint16(buf[186:188]); got != 44100 {
		t.Errorf("sample rate = %d, want 44100", got)
	}

	// PCM is big-endian 16-bit
	if got := int16(binary.BigEndian.Uint16(buf[HeaderSize+2:])); got != 100 {
		t.Errorf("pcm[1] = %d, want 100", got)
	}
	if got := int16(binary.BigEndian.Uint16(buf[HeaderSize+4:])); got != -100 {
		t.Errorf("pcm[2] = %d, want -100", got)
	}
}

func TestEncode22kFlag(t *testing.T) {
	buf := Encode(&Sample{Name: "HAT", SampleRate: 22050, PCM: []int16{0}})
	if buf[1] != 0 {
		t.Errorf("rate flag = %d, want 0 for 22.05kHz", buf[1])
	}
}

func TestEncodeTruncatesName(t *testing.T) {
	buf := Encode(&Sample{Name: "ABCDEFGHIJKLMNOP", SampleRate: 44100, PCM: []int16{0}})
	if got := string(buf[3:15]); got != "ABCDEFGHIJKL" {
		t.Errorf("name field = %q, want first 12 chars", got)
	}
}

func TestRoundTrip(t *testing.T) {
	in := &Sample{
		Name:       "SNARE 7",
		SampleRate: 44100,
		RootNote:   DefaultRootNote,
		SemiTune:   -2,
		CentsTune:  12,
		PCM:        []int16{1, -1, 2, -2, 30000, -30000},
	}

	out, err := Decode(Encode(in))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if out.Name != in.Name {
		t.Errorf("Name = %q, want %q", out.Name, in.Name)
	}
	if out.SampleRate != in.SampleRate {
		t.Errorf("SampleRate = %d, want %d", out.SampleRate, in.SampleRate)
	}
	if out.SemiTune != in.SemiTune || out.CentsTune != in.CentsTune {
		t.Errorf("tune = (%d,%d), want (%d,%d)", out.SemiTune, out.CentsTune, in.SemiTune, in.CentsTune)
	}
	if len(out.PCM) != len(in.PCM) {
		t.Fatalf("PCM length = %d, want %d", len(out.PCM), len(in.PCM))
	}
	for i := range in.PCM {
		if out.PCM[i] != in.PCM[i] {
			t.Errorf("PCM[%d] = %d, want %d", i, out.PCM[i], in.PCM[i])
		}
	}
}

func TestDecodeTooShort(t *testing.T) {
	if _, err := Decode(make([]byte, HeaderSize-1)); !errors.Is(err, ErrFormat) {
		t.Errorf("Decode(short) = %v, want ErrFormat", err)
	}
}

func TestDecodeOverstatedWordCount(t *testing.T) {
	buf := Encode(&Sample{Name: "X", SampleRate: 44100, PCM: []int16{1, 2, 3}})
	binary.BigEndian.PutUint32(buf[26:30], 1000)
	if _, err := Decode(buf); !errors.Is(err, ErrFormat) {
		t.Errorf("Decode(overstated count) = %v, want ErrFormat", err)
	}
}
