package audio

import (
	"math"
	"testing"

	"github.com/example/go-supertonic/internal/testutil"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const sampleRate = 44100

	samples := make([]float32, 200)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * float64(i) / 50))
	}

	data, err := EncodeWAV(samples, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	testutil.AssertValidWAV(t, data, sampleRate)

	decoded, gotRate, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if gotRate != sampleRate {
		t.Errorf("sample rate = %d, want %d", gotRate, sampleRate)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(decoded), len(samples))
	}

	// 16-bit quantization loses at most a step or two of precision.
	for i := range samples {
		if diff := math.Abs(float64(decoded[i] - samples[i])); diff > 2.0/32767 {
			t.Fatalf("sample %d: decoded %v, original %v (diff %v)", i, decoded[i], samples[i], diff)
		}
	}
}

func TestEncodeWAVClampsOutOfRange(t *testing.T) {
	data, err := EncodeWAV([]float32{2.0, -3.0, 0.5}, 24000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	decoded, _, err := DecodeWAV(data)
	if err != nil {
		t.Fatal(err)
	}

	if decoded[0] < 0.99 {
		t.Errorf("decoded[0] = %v, want clamped to ~1.0", decoded[0])
	}
	if decoded[1] > -0.99 {
		t.Errorf("decoded[1] = %v, want clamped to ~-1.0", decoded[1])
	}
}

func TestEncodeWAVRejectsBadRate(t *testing.T) {
	if _, err := EncodeWAV([]float32{0}, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestDecodeWAVRejectsBadInput(t *testing.T) {
	if _, _, err := DecodeWAV(nil); err == nil {
		t.Error("expected error for empty input")
	}
	if _, _, err := DecodeWAV([]byte("definitely not a wav file")); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestPeakNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		wantPeak float32
	}{
		{name: "scales half-amplitude signal", input: []float32{0.0, 0.5, -0.25, 0.5}, wantPeak: 1.0},
		{name: "scales quiet signal", input: []float32{0.1, -0.1, 0.05}, wantPeak: 1.0},
		{name: "already normalized unchanged", input: []float32{0.0, 1.0, -0.5}, wantPeak: 1.0},
		{name: "silence remains silence", input: []float32{0, 0, 0}, wantPeak: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]float32, len(tt.input))
			copy(in, tt.input)

			got := PeakNormalize(in)
			peak := peakOf(got)

			if math.Abs(float64(peak-tt.wantPeak)) > 1e-6 {
				t.Errorf("peak = %v, want %v", peak, tt.wantPeak)
			}
		})
	}
}

func TestFadeIn(t *testing.T) {
	samples := ones(100)
	FadeIn(samples, 1000, 50) // 50 samples at 1 kHz

	if samples[0] != 0 {
		t.Errorf("first sample = %v, want 0", samples[0])
	}
	if samples[25] >= 1 {
		t.Errorf("mid-ramp sample = %v, want < 1", samples[25])
	}
	if samples[60] != 1 {
		t.Errorf("post-ramp sample = %v, want untouched 1", samples[60])
	}
}

func TestFadeOut(t *testing.T) {
	samples := ones(100)
	FadeOut(samples, 1000, 50)

	if samples[99] != 0 {
		t.Errorf("last sample = %v, want 0", samples[99])
	}
	if samples[40] != 1 {
		t.Errorf("pre-ramp sample = %v, want untouched 1", samples[40])
	}
}

func TestFadeLongerThanSignal(t *testing.T) {
	samples := ones(10)
	FadeIn(samples, 48000, 1000) // ramp far longer than signal

	for i, v := range samples {
		if v > 1 {
			t.Errorf("sample %d = %v, fade must not amplify", i, v)
		}
	}
}

func ones(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

func peakOf(samples []float32) float32 {
	var peak float32
	for _, v := range samples {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}
