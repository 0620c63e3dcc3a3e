// Package audio converts decoded PCM into device-native sample data.
package audio

import (
	"encoding/binary"
	"math"

	"github.com/SPODhub/mpc3000-snd-player/internal/wav"
)

// Source is a mono PCM signal in 16-bit signed units at a known sample rate.
type Source struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the length of the source in seconds.
func (s Source) Duration() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// Extract reads the sample data of a parsed WAV file into a mono Source.
// 8-bit samples are unsigned centered at 128, 16-bit and 24-bit are signed
// little-endian; stereo is mixed down as the mean of left and right.
func Extract(f *wav.File) Source {
	data := f.Data()
	n := f.SampleCount()
	samples := make([]float64, n)

	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < f.Channels; c++ {
			sum += readSample(data, i*f.Channels+c, f.BitsPerSample)
		}
		samples[i] = sum / float64(f.Channels)
	}

	return Source{Samples: samples, SampleRate: f.SampleRate}
}

// readSample returns one sample scaled into 16-bit signed units.
func readSample(data []byte, idx, bits int) float64 {
	switch bits {
	case 8:
		return (float64(data[idx]) - 128) * 256
	case 16:
		off := idx * 2
		return float64(int16(binary.LittleEndian.Uint16(data[off : off+2])))
	case 24:
		off := idx * 3
		v := int32(data[off]) | int32(data[off+1])<<8 | int32(data[off+2])<<16
		if v&0x800000 != 0 {
			v -= 1 << 24 // sign-extend from 3 bytes
		}
		return float64(v) / 256
	}
	return 0
}

// TunedRate returns the playback rate for a tuning offset in semitones:
// nativeRate * 2^(tuning/12).
func TunedRate(nativeRate, tuning int) float64 {
	return float64(nativeRate) * math.Pow(2, float64(tuning)/12)
}

// Resample maps src onto targetRate using drop-sample selection: output
// index i takes input index floor(i*sourceRate/targetRate), no
// interpolation, matching the resampling of the emulated hardware.
//
// When maxSamples is positive the output is silently capped there; the
// returned bool reports whether the cap discarded material, which callers
// surface as a warning rather than an error.
func Resample(src Source, targetRate float64, maxSamples int) ([]float64, bool) {
	if len(src.Samples) == 0 || targetRate <= 0 || src.SampleRate <= 0 {
		return nil, false
	}

	outLen := int(float64(len(src.Samples)) * targetRate / float64(src.SampleRate))
	truncated := false
	if maxSamples > 0 && outLen > maxSamples {
		outLen = maxSamples
		truncated = true
	}

	ratio := float64(src.SampleRate) / targetRate
	out := make([]float64, outLen)
	for i := range out {
		j := int(float64(i) * ratio)
		if j >= len(src.Samples) {
			j = len(src.Samples) - 1
		}
		out[i] = src.Samples[j]
	}

	return out, truncated
}

// PackSP12 normalizes samples and packs them as 12-bit unsigned values in
// 16-bit little-endian words, upper four bits zero.
//
// The peak absolute input value sets the scale factor 4095/peak (1 for a
// silent input); each sample is bias-shifted into unsigned range and
// quantized by round((s+32768)*scale/16), clamped into [0,4095].
func PackSP12(samples []float64) []byte {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	scale := 1.0
	if peak > 0 {
		scale = 4095.0 / peak
	}

	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := math.Round((s + 32768) * scale / 16)
		if v < 0 {
			v = 0
		}
		if v > 4095 {
			v = 4095
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v)&0x0FFF)
	}
	return out
}

// PCM16 quantizes samples to 16-bit signed PCM without normalization.
func PCM16(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := math.Round(s)
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}
