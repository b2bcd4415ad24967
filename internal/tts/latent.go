package tts

import (
	"math"
	"math/rand/v2"

	"github.com/example/go-supertonic/internal/tensor"
	"github.com/example/go-supertonic/internal/text"
)

// SampleNoisyLatent draws the initial Gaussian latent for a batch of
// predicted durations and builds its validity mask.
//
// The latent has shape [B, latent_dim*compress, T] with
// T = ceil(max(round(dur*rate)) / chunk_size); the mask has shape [B, 1, T]
// with 1.0 for steps below ceil(round(dur_i*rate) / chunk_size). The noise is
// multiplied by the mask so padding positions are exactly zero, not merely
// skipped: downstream consumers read full tensor extents.
func SampleNoisyLatent(durations []float32, cfg ModelConfig) (*tensor.Tensor, *tensor.Tensor, error) {
	bsz := len(durations)
	chunkSize := cfg.ChunkSize()

	sampleCounts := make([]int, bsz)
	maxSamples := 0
	for i, d := range durations {
		sampleCounts[i] = int(math.Round(float64(d) * float64(cfg.AE.SampleRate)))
		if sampleCounts[i] > maxSamples {
			maxSamples = sampleCounts[i]
		}
	}

	latentLen := (maxSamples + chunkSize - 1) / chunkSize
	if latentLen < 1 {
		latentLen = 1
	}

	latentDim := cfg.LatentChannels()

	latentLengths := make([]int, bsz)
	for i, n := range sampleCounts {
		latentLengths[i] = (n + chunkSize - 1) / chunkSize
	}

	mask, err := text.LengthToMask(latentLengths, latentLen)
	if err != nil {
		return nil, nil, err
	}

	maskData, err := mask.Float32s()
	if err != nil {
		return nil, nil, err
	}

	noise := make([]float32, bsz*latentDim*latentLen)
	for b := range bsz {
		for d := range latentDim {
			base := (b*latentDim + d) * latentLen
			for t := range latentLen {
				noise[base+t] = float32(rand.NormFloat64()) * maskData[b*latentLen+t]
			}
		}
	}

	latent, err := tensor.New(noise, []int64{int64(bsz), int64(latentDim), int64(latentLen)})
	if err != nil {
		return nil, nil, err
	}

	return latent, mask, nil
}
