// Package tts orchestrates the four-stage Supertonic inference pipeline:
// duration prediction, text encoding, iterative latent denoising, and
// vocoding. Model execution itself is delegated to Graph implementations.
package tts

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/example/go-supertonic/internal/engine"
	"github.com/example/go-supertonic/internal/tensor"
	"github.com/example/go-supertonic/internal/text"
)

// Model artifact filenames inside the model directory.
const (
	ConfigFile            = "tts.json"
	IndexerFile           = "unicode_indexer.json"
	DurationPredictorFile = "duration_predictor.onnx"
	TextEncoderFile       = "text_encoder.onnx"
	VectorEstimatorFile   = "vector_estimator.onnx"
	VocoderFile           = "vocoder.onnx"
)

// Named tensors of the engine call contract.
const (
	inTextIDs     = "text_ids"
	inTextMask    = "text_mask"
	inStyleTTL    = "style_ttl"
	inStyleDP     = "style_dp"
	inNoisyLatent = "noisy_latent"
	inTextEmb     = "text_emb"
	inLatentMask  = "latent_mask"
	inCurrentStep = "current_step"
	inTotalStep   = "total_step"
	inLatent      = "latent"

	outDuration = "duration"
	outTextEmb  = "text_emb"
	outDenoised = "denoised_latent"
	outWaveform = "wav_tts"
)

// Graph executes one pretrained model on named tensors. Implemented by
// engine.Runner; tests substitute fakes.
type Graph interface {
	Run(ctx context.Context, inputs map[string]*tensor.Tensor) (map[string]*tensor.Tensor, error)
	Close()
}

// Engine owns the four model graphs, the model config, and the text indexer.
//
// An Engine is not safe for concurrent use: the denoising loop mutates the
// latent step to step, so callers sharing one instance must hold a lock for
// the duration of an entire Infer call. There is no internal cancellation
// finer than the context checks between model invocations; the safest
// cancellation point is before a call begins.
type Engine struct {
	cfg     ModelConfig
	indexer *text.Indexer

	durationPredictor Graph
	textEncoder       Graph
	vectorEstimator   Graph
	vocoder           Graph
}

// NewEngine assembles an Engine from already-constructed parts.
func NewEngine(cfg ModelConfig, indexer *text.Indexer, durationPredictor, textEncoder, vectorEstimator, vocoder Graph) *Engine {
	return &Engine{
		cfg:               cfg,
		indexer:           indexer,
		durationPredictor: durationPredictor,
		textEncoder:       textEncoder,
		vectorEstimator:   vectorEstimator,
		vocoder:           vocoder,
	}
}

// Load builds an Engine from the five artifacts in modelDir using rt for
// graph execution.
func Load(rt *engine.Runtime, modelDir string) (*Engine, error) {
	cfg, err := LoadModelConfig(filepath.Join(modelDir, ConfigFile))
	if err != nil {
		return nil, err
	}

	indexer, err := text.NewIndexer(filepath.Join(modelDir, IndexerFile))
	if err != nil {
		return nil, err
	}

	graphs := make([]Graph, 0, 4)
	closeAll := func() {
		for _, g := range graphs {
			g.Close()
		}
	}

	load := func(name, file string) (Graph, error) {
		r, err := rt.NewRunner(name, filepath.Join(modelDir, file))
		if err != nil {
			closeAll()
			return nil, err
		}

		graphs = append(graphs, r)

		return r, nil
	}

	dp, err := load("duration_predictor", DurationPredictorFile)
	if err != nil {
		return nil, err
	}

	te, err := load("text_encoder", TextEncoderFile)
	if err != nil {
		return nil, err
	}

	ve, err := load("vector_estimator", VectorEstimatorFile)
	if err != nil {
		return nil, err
	}

	voc, err := load("vocoder", VocoderFile)
	if err != nil {
		return nil, err
	}

	slog.Info("loaded TTS engine",
		"model_dir", modelDir,
		"sample_rate", cfg.AE.SampleRate,
		"latent_dim", cfg.TTL.LatentDim,
		"chunk_size", cfg.ChunkSize(),
	)

	return NewEngine(cfg, indexer, dp, te, ve, voc), nil
}

// SampleRate returns the output sample rate in Hz.
func (e *Engine) SampleRate() int {
	return e.cfg.AE.SampleRate
}

// Config returns the immutable model configuration.
func (e *Engine) Config() ModelConfig {
	return e.cfg
}

// Close releases all four graphs.
func (e *Engine) Close() {
	for _, g := range []Graph{e.durationPredictor, e.textEncoder, e.vectorEstimator, e.vocoder} {
		if g != nil {
			g.Close()
		}
	}
}

// Infer synthesizes one waveform per chunk. The four model stages run
// sequentially; totalSteps vector-estimator passes refine the latent before
// vocoding (totalSteps = 0 vocodes the initial noise directly). speed > 1
// shortens speech. The call either returns every waveform and duration or
// fails as a whole; partial results are never returned.
func (e *Engine) Infer(ctx context.Context, chunks []string, style *Style, totalSteps int, speed float32) ([][]float32, []float32, error) {
	bsz := len(chunks)
	if bsz == 0 {
		return nil, nil, ErrEmptyBatch
	}

	if style == nil {
		return nil, nil, ErrNoStyles
	}

	if style.Batch() != int64(bsz) {
		return nil, nil, fmt.Errorf("%w: %d styles for %d texts", ErrStyleBatchMismatch, style.Batch(), bsz)
	}

	if speed <= 0 {
		return nil, nil, fmt.Errorf("speed %v is not positive", speed)
	}

	if totalSteps < 0 {
		return nil, nil, fmt.Errorf("total steps %d is negative", totalSteps)
	}

	ids, textMask, err := e.indexer.Encode(chunks)
	if err != nil {
		return nil, nil, err
	}

	textIDs, err := flattenIDs(ids)
	if err != nil {
		return nil, nil, err
	}

	// Stage 1: duration prediction, then the speed factor.
	dpOut, err := e.durationPredictor.Run(ctx, map[string]*tensor.Tensor{
		inTextIDs:  textIDs,
		inStyleDP:  style.DP,
		inTextMask: textMask,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("duration predictor: %w", err)
	}

	durations, err := outputFloat32s(dpOut, outDuration, "duration predictor")
	if err != nil {
		return nil, nil, err
	}

	if len(durations) != bsz {
		return nil, nil, fmt.Errorf("duration predictor returned %d durations for batch %d", len(durations), bsz)
	}

	for i := range durations {
		durations[i] /= speed
	}

	// Stage 2: text encoding.
	teOut, err := e.textEncoder.Run(ctx, map[string]*tensor.Tensor{
		inTextIDs:  textIDs,
		inStyleTTL: style.TTL,
		inTextMask: textMask,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("text encoder: %w", err)
	}

	textEmb, ok := teOut[outTextEmb]
	if !ok {
		return nil, nil, fmt.Errorf("text encoder returned no %q output", outTextEmb)
	}

	// Stage 3: iterative denoising from masked Gaussian noise.
	latent, latentMask, err := SampleNoisyLatent(durations, e.cfg)
	if err != nil {
		return nil, nil, err
	}

	latentShape := latent.Shape()

	totalStep, err := stepTensor(bsz, float32(totalSteps))
	if err != nil {
		return nil, nil, err
	}

	for step := range totalSteps {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		currentStep, err := stepTensor(bsz, float32(step))
		if err != nil {
			return nil, nil, err
		}

		veOut, err := e.vectorEstimator.Run(ctx, map[string]*tensor.Tensor{
			inNoisyLatent: latent,
			inTextEmb:     textEmb,
			inStyleTTL:    style.TTL,
			inLatentMask:  latentMask,
			inTextMask:    textMask,
			inCurrentStep: currentStep,
			inTotalStep:   totalStep,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("vector estimator step %d: %w", step, err)
		}

		denoised, ok := veOut[outDenoised]
		if !ok {
			return nil, nil, fmt.Errorf("vector estimator returned no %q output", outDenoised)
		}

		// The estimator output replaces the latent in full; enforcing the
		// original shape keeps a misbehaving graph from drifting the loop.
		latent, err = denoised.Reshape(latentShape)
		if err != nil {
			return nil, nil, fmt.Errorf("vector estimator step %d: %w", step, err)
		}
	}

	// Stage 4: vocoding and per-item slicing.
	vocOut, err := e.vocoder.Run(ctx, map[string]*tensor.Tensor{inLatent: latent})
	if err != nil {
		return nil, nil, fmt.Errorf("vocoder: %w", err)
	}

	flat, err := outputFloat32s(vocOut, outWaveform, "vocoder")
	if err != nil {
		return nil, nil, err
	}

	waveforms, err := sliceWaveforms(flat, durations, e.cfg.AE.SampleRate)
	if err != nil {
		return nil, nil, err
	}

	return waveforms, durations, nil
}

// sliceWaveforms cuts the flat batched vocoder output back into per-item
// waveforms of round(rate*duration) samples. A duration longer than the
// padded per-item length is clamped; the audio loss is accepted and the
// padding beyond the true length is never emitted.
func sliceWaveforms(flat []float32, durations []float32, sampleRate int) ([][]float32, error) {
	bsz := len(durations)
	if len(flat) == 0 || len(flat)%bsz != 0 {
		return nil, fmt.Errorf("vocoder output length %d is not divisible by batch %d", len(flat), bsz)
	}

	perItem := len(flat) / bsz
	waveforms := make([][]float32, bsz)

	for i, d := range durations {
		trueLen := int(math.Round(float64(sampleRate) * float64(d)))
		if trueLen < 0 {
			trueLen = 0
		}
		if trueLen > perItem {
			trueLen = perItem
		}

		start := i * perItem
		waveforms[i] = append([]float32(nil), flat[start:start+trueLen]...)
	}

	return waveforms, nil
}

func flattenIDs(ids [][]int64) (*tensor.Tensor, error) {
	bsz := len(ids)
	cols := len(ids[0])

	flat := make([]int64, 0, bsz*cols)
	for _, row := range ids {
		flat = append(flat, row...)
	}

	return tensor.New(flat, []int64{int64(bsz), int64(cols)})
}

func stepTensor(bsz int, value float32) (*tensor.Tensor, error) {
	data := make([]float32, bsz)
	for i := range data {
		data[i] = value
	}

	return tensor.New(data, []int64{int64(bsz)})
}

func outputFloat32s(outputs map[string]*tensor.Tensor, name, stage string) ([]float32, error) {
	t, ok := outputs[name]
	if !ok {
		return nil, fmt.Errorf("%s returned no %q output", stage, name)
	}

	data, err := t.Float32s()
	if err != nil {
		return nil, fmt.Errorf("%s output %q: %w", stage, name, err)
	}

	return append([]float32(nil), data...), nil
}
