package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/example/go-supertonic/internal/audio"
	"github.com/example/go-supertonic/internal/config"
	"github.com/example/go-supertonic/internal/engine"
	"github.com/example/go-supertonic/internal/tts"
	"github.com/spf13/cobra"
)

func newSynthCmd() *cobra.Command {
	var texts []string
	var voiceStyles []string
	var batch bool
	var nTest int
	var saveDir string
	var normalize bool
	var fadeInMS float64
	var fadeOutMS float64

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize text to WAV files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			inputs, err := readSynthTexts(texts, os.Stdin)
			if err != nil {
				return err
			}

			if len(voiceStyles) == 0 {
				return fmt.Errorf("at least one --voice-style is required")
			}

			if nTest < 1 {
				nTest = 1
			}

			rt, err := engine.Open(cfg.Runtime)
			if err != nil {
				return err
			}
			defer rt.Close()

			start := time.Now()
			eng, err := tts.Load(rt, cfg.Paths.ModelDir)
			if err != nil {
				return err
			}
			defer eng.Close()
			slog.Info("models loaded", "elapsed", time.Since(start))

			voices, err := tts.NewVoiceManager(cfg.Paths.VoiceDir)
			if err != nil {
				return err
			}

			stylePaths, err := resolveStylePaths(voices, voiceStyles, len(inputs), batch)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(saveDir, 0o755); err != nil {
				return fmt.Errorf("create save dir: %w", err)
			}

			opts := synthOptions(cfg)
			dsp := dspOptions{normalize: normalize, fadeInMS: fadeInMS, fadeOutMS: fadeOutMS}

			if batch {
				return runBatchSynth(cmd, eng, inputs, stylePaths, opts, nTest, saveDir, dsp)
			}

			return runSingleSynth(cmd, eng, inputs, stylePaths[0], opts, nTest, saveDir, dsp)
		},
	}

	cmd.Flags().StringArrayVar(&texts, "text", nil, "Text to synthesize (repeatable; if empty, read from stdin)")
	cmd.Flags().StringArrayVar(&voiceStyles, "voice-style", nil, "Voice id or style JSON path (repeatable)")
	cmd.Flags().BoolVar(&batch, "batch", false, "Synthesize all texts in one batched model invocation")
	cmd.Flags().IntVar(&nTest, "n-test", 1, "Number of synthesis repetitions per text (for timing)")
	cmd.Flags().StringVar(&saveDir, "save-dir", "results", "Directory for output WAV files")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Peak-normalize output audio")
	cmd.Flags().Float64Var(&fadeInMS, "fade-in-ms", 0, "Apply linear fade-in duration in milliseconds")
	cmd.Flags().Float64Var(&fadeOutMS, "fade-out-ms", 0, "Apply linear fade-out duration in milliseconds")

	return cmd
}

type dspOptions struct {
	normalize bool
	fadeInMS  float64
	fadeOutMS float64
}

func synthOptions(cfg config.Config) tts.Options {
	return tts.Options{
		TotalSteps:     cfg.TTS.TotalSteps,
		Speed:          float32(cfg.TTS.Speed),
		SilenceSeconds: float32(cfg.TTS.SilenceSeconds),
		MaxChunkChars:  cfg.TTS.MaxChunkChars,
	}
}

// readSynthTexts returns the --text values, or one text read from stdin when
// none were given.
func readSynthTexts(texts []string, stdin io.Reader) ([]string, error) {
	if len(texts) > 0 {
		return texts, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("no input text: pass --text or pipe text on stdin")
	}

	return []string{text}, nil
}

// resolveStylePaths maps voice flags to style file paths. Batch mode needs
// one style per text; a single style is tiled across the batch.
func resolveStylePaths(voices *tts.VoiceManager, flags []string, nTexts int, batch bool) ([]string, error) {
	paths := make([]string, len(flags))
	for i, v := range flags {
		p, err := voices.ResolvePath(v)
		if err != nil {
			return nil, err
		}
		paths[i] = p
	}

	if !batch {
		if len(paths) > 1 {
			return nil, fmt.Errorf("single-text synthesis takes exactly one --voice-style, got %d", len(paths))
		}
		return paths, nil
	}

	if len(paths) == 1 && nTexts > 1 {
		tiled := make([]string, nTexts)
		for i := range tiled {
			tiled[i] = paths[0]
		}
		return tiled, nil
	}

	if len(paths) != nTexts {
		return nil, fmt.Errorf("batch mode needs one --voice-style per text: %d styles for %d texts", len(paths), nTexts)
	}

	return paths, nil
}

func runSingleSynth(cmd *cobra.Command, eng *tts.Engine, inputs []string, stylePath string, opts tts.Options, nTest int, saveDir string, dsp dspOptions) error {
	style, err := tts.LoadStyle([]string{stylePath})
	if err != nil {
		return err
	}

	n := 0
	for run := range nTest {
		for _, input := range inputs {
			start := time.Now()

			res, err := eng.Synthesize(cmd.Context(), input, style, opts)
			if err != nil {
				return err
			}

			elapsed := time.Since(start)
			slog.Info("synthesis complete",
				"run", run+1,
				"chars", len(input),
				"audio_s", res.Duration,
				"elapsed", elapsed,
				"rtf", float64(elapsed.Seconds())/float64(res.Duration),
			)

			if err := saveWaveform(eng, res.Samples, input, n, saveDir, dsp); err != nil {
				return err
			}
			n++
		}
	}

	return nil
}

func runBatchSynth(cmd *cobra.Command, eng *tts.Engine, inputs []string, stylePaths []string, opts tts.Options, nTest int, saveDir string, dsp dspOptions) error {
	style, err := tts.LoadStyle(stylePaths)
	if err != nil {
		return err
	}

	n := 0
	for run := range nTest {
		start := time.Now()

		results, err := eng.Batch(cmd.Context(), inputs, style, opts)
		if err != nil {
			return err
		}

		slog.Info("batch synthesis complete",
			"run", run+1,
			"batch", len(inputs),
			"elapsed", time.Since(start),
		)

		for i, res := range results {
			if err := saveWaveform(eng, res.Samples, inputs[i], n, saveDir, dsp); err != nil {
				return err
			}
			n++
		}
	}

	return nil
}

func saveWaveform(eng *tts.Engine, samples []float32, input string, n int, saveDir string, dsp dspOptions) error {
	if dsp.normalize {
		samples = audio.PeakNormalize(samples)
	}
	if dsp.fadeInMS > 0 {
		samples = audio.FadeIn(samples, eng.SampleRate(), dsp.fadeInMS)
	}
	if dsp.fadeOutMS > 0 {
		samples = audio.FadeOut(samples, eng.SampleRate(), dsp.fadeOutMS)
	}

	data, err := audio.EncodeWAV(samples, eng.SampleRate())
	if err != nil {
		return err
	}

	path := filepath.Join(saveDir, fmt.Sprintf("%s_%d.wav", sanitizeFilename(input), n))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	slog.Info("saved", "path", path, "bytes", len(data))

	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeFilename turns the leading words of a text into a safe filename stem.
func sanitizeFilename(text string) string {
	const maxStem = 32

	stem := unsafeFilenameChars.ReplaceAllString(text, "_")
	stem = strings.Trim(stem, "_")
	if len(stem) > maxStem {
		stem = stem[:maxStem]
	}
	if stem == "" {
		stem = "out"
	}

	return stem
}
