// Package testutil provides shared fixtures and skip helpers for tests.
//
// Skip helpers call t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// RequireONNXRuntime skips the test if no ONNX Runtime shared library can be
// located. It checks (in order): the ORT_LIBRARY_PATH env var, then the
// SUPERTONIC_ORT_LIB env var, then common system library paths.
func RequireONNXRuntime(tb testing.TB) {
	tb.Helper()

	for _, env := range []string{"ORT_LIBRARY_PATH", "SUPERTONIC_ORT_LIB"} {
		if p := os.Getenv(env); p != "" {
			_, err := os.Stat(p)
			if err == nil {
				return // found
			}

			tb.Skipf("ONNX Runtime library not found at %s=%q", env, p)
		}
	}
	// Fall back to common system locations.
	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
	}
	for _, p := range candidates {
		_, err := os.Stat(p)
		if err == nil {
			return // found
		}
	}

	tb.Skip("ONNX Runtime shared library not found; set ORT_LIBRARY_PATH or SUPERTONIC_ORT_LIB")
}

// RequireModelDir skips the test unless SUPERTONIC_MODEL_DIR points to an
// existing directory containing the model artifacts.
func RequireModelDir(tb testing.TB) string {
	tb.Helper()

	dir := os.Getenv("SUPERTONIC_MODEL_DIR")
	if dir == "" {
		tb.Skip("SUPERTONIC_MODEL_DIR not set; skipping model integration test")
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		tb.Skipf("SUPERTONIC_MODEL_DIR=%q is not a directory", dir)
	}

	return dir
}

// WriteModelConfig writes a minimal tts.json into dir and returns its path.
func WriteModelConfig(tb testing.TB, dir string, sampleRate, baseChunkSize, compressFactor, latentDim int) string {
	tb.Helper()

	path := filepath.Join(dir, "tts.json")
	content := fmt.Sprintf(
		`{"ae":{"sample_rate":%d,"base_chunk_size":%d},"ttl":{"chunk_compress_factor":%d,"latent_dim":%d}}`,
		sampleRate, baseChunkSize, compressFactor, latentDim,
	)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write model config: %v", err)
	}

	return path
}

// WriteIndexer writes a unicode_indexer.json holding table into dir and
// returns its path.
func WriteIndexer(tb testing.TB, dir string, table []int64) string {
	tb.Helper()

	data, err := json.Marshal(table)
	if err != nil {
		tb.Fatalf("marshal indexer table: %v", err)
	}

	path := filepath.Join(dir, "unicode_indexer.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write indexer: %v", err)
	}

	return path
}

// StyleJSON renders a voice style document with both components shaped
// [1, rows, cols] and every element set to fill.
func StyleJSON(tb testing.TB, rows, cols int, fill float32) []byte {
	tb.Helper()

	block := make([][]float32, rows)
	for r := range block {
		row := make([]float32, cols)
		for c := range row {
			row[c] = fill
		}
		block[r] = row
	}

	component := map[string]any{
		"data": [][][]float32{block},
		"dims": []int{1, rows, cols},
		"type": "float32",
	}

	data, err := json.Marshal(map[string]any{
		"style_ttl": component,
		"style_dp":  component,
	})
	if err != nil {
		tb.Fatalf("marshal style: %v", err)
	}

	return data
}

// WriteStyle writes a voice style file named id.json into dir and returns
// its path.
func WriteStyle(tb testing.TB, dir, id string, rows, cols int, fill float32) string {
	tb.Helper()

	path := filepath.Join(dir, id+".json")
	if err := os.WriteFile(path, StyleJSON(tb, rows, cols, fill), 0o644); err != nil {
		tb.Fatalf("write style: %v", err)
	}

	return path
}
