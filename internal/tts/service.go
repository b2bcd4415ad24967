package tts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/go-supertonic/internal/text"
)

// Options tune a synthesis call. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// TotalSteps is the number of denoising iterations.
	TotalSteps int
	// Speed scales speech rate; values above 1 speak faster.
	Speed float32
	// SilenceSeconds of zero samples inserted between chunks of one text.
	SilenceSeconds float32
	// MaxChunkChars bounds the length of a single model invocation's text.
	MaxChunkChars int
}

// DefaultOptions returns the tuning used when the caller has no opinion.
func DefaultOptions() Options {
	return Options{
		TotalSteps:     5,
		Speed:          1.05,
		SilenceSeconds: 0.3,
		MaxChunkChars:  MaxChunkLength,
	}
}

// MaxChunkLength re-exports the text chunker's default bound so callers of
// this package need not import internal/text for it.
const MaxChunkLength = text.MaxChunkLength

// Result is one synthesized utterance.
type Result struct {
	// Samples is the mono waveform at the engine's sample rate.
	Samples []float32
	// Duration is the predicted speech duration in seconds, silence included.
	Duration float32
}

// Synthesize renders one text of arbitrary length with a single voice. The
// text is chunked, each chunk is inferred on its own, and the waveforms are
// joined with SilenceSeconds of zeros between them. Duration accumulates the
// per-chunk predictions plus the inserted silence.
func (e *Engine) Synthesize(ctx context.Context, input string, style *Style, opts Options) (*Result, error) {
	if style == nil {
		return nil, ErrNoStyles
	}

	if style.Batch() != 1 {
		return nil, fmt.Errorf("%w: single-text synthesis takes one voice, got %d", ErrStyleBatchMismatch, style.Batch())
	}

	maxChars := opts.MaxChunkChars
	if maxChars < 1 {
		maxChars = MaxChunkLength
	}

	chunks := text.Chunk(input, maxChars)

	silence := int(float32(e.cfg.AE.SampleRate) * opts.SilenceSeconds)
	if silence < 0 {
		silence = 0
	}

	var (
		samples  []float32
		duration float32
	)

	for i, chunk := range chunks {
		start := time.Now()

		waveforms, durations, err := e.Infer(ctx, []string{chunk}, style, opts.TotalSteps, opts.Speed)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}

		slog.Debug("synthesized chunk",
			"chunk", i+1,
			"chunks", len(chunks),
			"chars", len(chunk),
			"duration_s", durations[0],
			"elapsed", time.Since(start),
		)

		if i > 0 && silence > 0 {
			samples = append(samples, make([]float32, silence)...)
			duration += opts.SilenceSeconds
		}

		samples = append(samples, waveforms[0]...)
		duration += durations[0]
	}

	return &Result{Samples: samples, Duration: duration}, nil
}

// Batch renders several short texts in one model invocation. Texts are
// normalized but never chunked, so each must fit the model's context; the
// style batch must match the number of texts. Results are returned in input
// order.
func (e *Engine) Batch(ctx context.Context, texts []string, style *Style, opts Options) ([]Result, error) {
	waveforms, durations, err := e.Infer(ctx, texts, style, opts.TotalSteps, opts.Speed)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(texts))
	for i := range results {
		results[i] = Result{Samples: waveforms[i], Duration: durations[i]}
	}

	return results, nil
}
