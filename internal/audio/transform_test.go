package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/SPODhub/mpc3000-snd-player/internal/wav"
)

func TestExtract8Bit(t *testing.T) {
	// 8-bit samples are unsigned, centered at 128.
	pcm := []byte{128, 255, 0, 129}
	f := mustParse(t, wav.WrapRawPCM(pcm, 22050, 1, 8))

	src := Extract(f)
	want := []float64{0, 127 * 256, -128 * 256, 256}
	for i, w := range want {
		if src.Samples[i] != w {
			t.Errorf("sample %d = %v, want %v", i, src.Samples[i], w)
		}
	}
	if src.SampleRate != 22050 {
		t.Errorf("SampleRate = %d, want 22050", src.SampleRate)
	}
}

func TestExtract16Bit(t *testing.T) {
	pcm := make([]byte, 8)
	for i, v := range []int16{0, 32767, -32768, -1} {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(v))
	}
	f := mustParse(t, wav.WrapRawPCM(pcm, 44100, 1, 16))

	src := Extract(f)
	want := []float64{0, 32767, -32768, -1}
	for i, w := range want {
		if src.Samples[i] != w {
			t.Errorf("sample %d = %v, want %v", i, src.Samples[i], w)
		}
	}
}

func TestExtract24Bit(t *testing.T) {
	// Full-scale positive, full-scale negative, and -256 (sign extension).
	pcm := []byte{
		0xFF, 0xFF, 0x7F, // 8388607
		0x00, 0x00, 0x80, // -8388608
		0x00, 0xFF, 0xFF, // -256
	}
	f := mustParse(t, wav.WrapRawPCM(pcm, 44100, 1, 24))

	src := Extract(f)
	want := []float64{8388607.0 / 256, -32768, -1}
	for i, w := range want {
		if src.Samples[i] != w {
			t.Errorf("sample %d = %v, want %v", i, src.Samples[i], w)
		}
	}
}

func TestExtractStereoMixdown(t *testing.T) {
	pcm := make([]byte, 8)
	for i, v := range []int16{1000, 3000, -500, -1500} { // L, R, L, R
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(v))
	}
	f := mustParse(t, wav.WrapRawPCM(pcm, 44100, 2, 16))

	src := Extract(f)
	if len(src.Samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(src.Samples))
	}
	if src.Samples[0] != 2000 {
		t.Errorf("sample 0 = %v, want 2000", src.Samples[0])
	}
	if src.Samples[1] != -1000 {
		t.Errorf("sample 1 = %v, want -1000", src.Samples[1])
	}
}

func TestTunedRate(t *testing.T) {
	tests := []struct {
		tuning int
		want   float64
	}{
		{0, 26040},
		{12, 52080},
		{-12, 13020},
	}
	for _, tt := range tests {
		got := TunedRate(26040, tt.tuning)
		if math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("TunedRate(26040, %d) = %v, want %v", tt.tuning, got, tt.want)
		}
	}
}

func TestResampleIdentity(t *testing.T) {
	src := Source{Samples: rampSamples(100), SampleRate: 26040}
	out, truncated := Resample(src, 26040, 0)
	if truncated {
		t.Error("identity resample reported truncation")
	}
	if len(out) != 100 {
		t.Fatalf("got %d samples, want 100", len(out))
	}
	for i := range out {
		if out[i] != src.Samples[i] {
			t.Fatalf("sample %d = %v, want %v", i, out[i], src.Samples[i])
		}
	}
}

func TestResampleDropSample(t *testing.T) {
	// Halving the rate keeps every second sample, no interpolation.
	src := Source{Samples: rampSamples(100), SampleRate: 20000}
	out, _ := Resample(src, 10000, 0)
	if len(out) != 50 {
		t.Fatalf("got %d samples, want 50", len(out))
	}
	for i := range out {
		if out[i] != src.Samples[i*2] {
			t.Fatalf("sample %d = %v, want %v", i, out[i], src.Samples[i*2])
		}
	}
}

func TestResampleTruncation(t *testing.T) {
	src := Source{Samples: make([]float64, 1000), SampleRate: 10000}
	out, truncated := Resample(src, 10000, 400)
	if !truncated {
		t.Error("expected truncation to be reported")
	}
	if len(out) != 400 {
		t.Errorf("got %d samples, want the 400-sample cap", len(out))
	}

	// An exact fit is not a truncation.
	out, truncated = Resample(src, 10000, 1000)
	if truncated {
		t.Error("exact fit reported truncation")
	}
	if len(out) != 1000 {
		t.Errorf("got %d samples, want 1000", len(out))
	}
}

func TestPackSP12Silence(t *testing.T) {
	// Silence has peak 0, so the scale stays 1 and every word is the
	// zero-bias midpoint 2048.
	packed := PackSP12(make([]float64, 64))
	if len(packed) != 128 {
		t.Fatalf("got %d bytes, want 128", len(packed))
	}
	for i := 0; i < 64; i++ {
		if v := binary.LittleEndian.Uint16(packed[i*2:]); v != 2048 {
			t.Fatalf("word %d = %d, want 2048", i, v)
		}
	}
}

func TestPackSP12Range(t *testing.T) {
	samples := []float64{-32768, -16384, -1, 0, 1, 16384, 32767}
	packed := PackSP12(samples)
	for i := range samples {
		v := binary.LittleEndian.Uint16(packed[i*2:])
		if v > 4095 {
			t.Errorf("word %d = %d, outside 12-bit range", i, v)
		}
	}
}

func TestPackSP12QuantizationError(t *testing.T) {
	// Unpacking and re-normalizing must land within 1/4096 of full scale.
	samples := rampSamples(256)
	for i := range samples {
		samples[i] = samples[i]*256 - 32768 // spread across the 16-bit range
	}
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	scale := 4095.0 / peak

	packed := PackSP12(samples)
	for i, s := range samples {
		v := float64(binary.LittleEndian.Uint16(packed[i*2:]))
		want := (s + 32768) * scale / 16
		if want < 0 {
			want = 0
		}
		if want > 4095 {
			want = 4095
		}
		if math.Abs(v-want) > 0.5+1e-9 {
			t.Fatalf("word %d = %v, want %v within rounding", i, v, want)
		}
	}
}

func TestPCM16Clamps(t *testing.T) {
	out := PCM16([]float64{-40000, -32768.4, 0.4, 32767.4, 40000})
	want := []int16{-32768, -32768, 0, 32767, 32767}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestSourceFromMP3Garbage(t *testing.T) {
	if _, err := SourceFromMP3([]byte("definitely not an mp3 stream")); err == nil {
		t.Error("expected an error for garbage input")
	}
}

func mustParse(t *testing.T, buf []byte) *wav.File {
	t.Helper()
	f, err := wav.Parse(buf)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return f
}

func rampSamples(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}
