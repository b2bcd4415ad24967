package tts

import (
	"encoding/json"
	"fmt"
	"os"
)

// ModelConfig mirrors the tts.json shipped alongside the ONNX graphs. It is
// loaded once per engine and immutable afterwards.
type ModelConfig struct {
	AE  AEConfig  `json:"ae"`
	TTL TTLConfig `json:"ttl"`
}

type AEConfig struct {
	SampleRate    int `json:"sample_rate"`
	BaseChunkSize int `json:"base_chunk_size"`
}

type TTLConfig struct {
	ChunkCompressFactor int `json:"chunk_compress_factor"`
	LatentDim           int `json:"latent_dim"`
}

// ChunkSize returns the number of waveform samples covered by one latent step.
func (c ModelConfig) ChunkSize() int {
	return c.AE.BaseChunkSize * c.TTL.ChunkCompressFactor
}

// LatentChannels returns the channel dimension of the denoised latent.
func (c ModelConfig) LatentChannels() int {
	return c.TTL.LatentDim * c.TTL.ChunkCompressFactor
}

// LoadModelConfig reads and validates tts.json from path.
func LoadModelConfig(path string) (ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ModelConfig{}, fmt.Errorf("read model config: %w", err)
	}

	return ParseModelConfig(data)
}

// ParseModelConfig decodes and validates a model config from raw JSON bytes.
func ParseModelConfig(data []byte) (ModelConfig, error) {
	var cfg ModelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ModelConfig{}, fmt.Errorf("decode model config: %w", err)
	}

	if cfg.AE.SampleRate < 1 {
		return ModelConfig{}, fmt.Errorf("model config: sample_rate %d is not positive", cfg.AE.SampleRate)
	}

	if cfg.AE.BaseChunkSize < 1 {
		return ModelConfig{}, fmt.Errorf("model config: base_chunk_size %d is not positive", cfg.AE.BaseChunkSize)
	}

	if cfg.TTL.ChunkCompressFactor < 1 {
		return ModelConfig{}, fmt.Errorf("model config: chunk_compress_factor %d is not positive", cfg.TTL.ChunkCompressFactor)
	}

	if cfg.TTL.LatentDim < 1 {
		return ModelConfig{}, fmt.Errorf("model config: latent_dim %d is not positive", cfg.TTL.LatentDim)
	}

	return cfg, nil
}
