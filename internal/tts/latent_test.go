package tts

import "testing"

func testModelConfig() ModelConfig {
	return ModelConfig{
		AE:  AEConfig{SampleRate: 100, BaseChunkSize: 5},
		TTL: TTLConfig{ChunkCompressFactor: 2, LatentDim: 3},
	}
}

func TestSampleNoisyLatentShapes(t *testing.T) {
	cfg := testModelConfig() // chunk size 10, latent channels 6

	latent, mask, err := SampleNoisyLatent([]float32{1.0, 0.45}, cfg)
	if err != nil {
		t.Fatal(err)
	}

	// Longest item: round(1.0*100) = 100 samples -> ceil(100/10) = 10 steps.
	shape := latent.Shape()
	if shape[0] != 2 || shape[1] != 6 || shape[2] != 10 {
		t.Fatalf("latent shape = %v, want [2 6 10]", shape)
	}

	maskShape := mask.Shape()
	if maskShape[0] != 2 || maskShape[1] != 1 || maskShape[2] != 10 {
		t.Fatalf("mask shape = %v, want [2 1 10]", maskShape)
	}
}

func TestSampleNoisyLatentMaskZeroesPadding(t *testing.T) {
	cfg := testModelConfig()

	// Second item: round(0.45*100) = 45 samples -> ceil(45/10) = 5 valid steps.
	latent, mask, err := SampleNoisyLatent([]float32{1.0, 0.45}, cfg)
	if err != nil {
		t.Fatal(err)
	}

	maskData, err := mask.Float32s()
	if err != nil {
		t.Fatal(err)
	}
	for step := range 10 {
		want := float32(0)
		if step < 5 {
			want = 1
		}
		if maskData[10+step] != want {
			t.Errorf("mask[1][%d] = %v, want %v", step, maskData[10+step], want)
		}
	}

	// Padding positions of the noise are exactly zero in every channel.
	noise, err := latent.Float32s()
	if err != nil {
		t.Fatal(err)
	}
	for ch := range 6 {
		for step := 5; step < 10; step++ {
			idx := (1*6+ch)*10 + step
			if noise[idx] != 0 {
				t.Errorf("noise[b=1][ch=%d][t=%d] = %v, want exactly 0", ch, step, noise[idx])
			}
		}
	}
}

func TestSampleNoisyLatentNonZeroContent(t *testing.T) {
	cfg := testModelConfig()

	latent, _, err := SampleNoisyLatent([]float32{1.0}, cfg)
	if err != nil {
		t.Fatal(err)
	}

	noise, err := latent.Float32s()
	if err != nil {
		t.Fatal(err)
	}

	nonZero := 0
	for _, v := range noise {
		if v != 0 {
			nonZero++
		}
	}
	// 60 Gaussian draws; all zero is astronomically unlikely.
	if nonZero == 0 {
		t.Error("latent noise is all zero")
	}
}

func TestSampleNoisyLatentZeroDuration(t *testing.T) {
	cfg := testModelConfig()

	latent, _, err := SampleNoisyLatent([]float32{0}, cfg)
	if err != nil {
		t.Fatal(err)
	}

	// Latent length is floored at one step.
	if latent.Dim(2) != 1 {
		t.Errorf("latent length = %d, want 1", latent.Dim(2))
	}
}
