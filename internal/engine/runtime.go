// Package engine executes the pretrained Supertonic graphs through ONNX
// Runtime. The rest of the pipeline treats it as a black box that accepts
// named tensors and returns named tensors.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/example/go-supertonic/internal/config"
	ort "github.com/shota3506/onnxruntime-purego/onnxruntime"
)

// ErrGPUUnsupported is returned when GPU execution is requested. There is no
// silent CPU fallback; the caller must drop the request explicitly.
var ErrGPUUnsupported = errors.New("GPU execution is not supported")

const defaultAPIVersion = 23

// Runtime owns the shared ORT library handle and environment from which all
// graph sessions are created.
type Runtime struct {
	rt  *ort.Runtime
	env *ort.Env
}

// Open loads the ONNX Runtime shared library and creates the process
// environment. A GPU request fails immediately with ErrGPUUnsupported.
func Open(cfg config.RuntimeConfig) (*Runtime, error) {
	if cfg.UseGPU {
		return nil, ErrGPUUnsupported
	}

	libPath, err := resolveLibraryPath(cfg.ORTLibraryPath)
	if err != nil {
		return nil, err
	}

	apiVersion := cfg.ORTAPIVersion
	if apiVersion == 0 {
		apiVersion = defaultAPIVersion
	}

	rt, err := ort.NewRuntime(libPath, apiVersion)
	if err != nil {
		return nil, fmt.Errorf("ort runtime (lib=%q api=%d): %w", libPath, apiVersion, err)
	}

	env, err := rt.NewEnv("supertonic", ort.LoggingLevelWarning)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("ort env: %w", err)
	}

	slog.Info("ONNX Runtime initialized", "library", libPath, "api_version", apiVersion, "device", "cpu")

	return &Runtime{rt: rt, env: env}, nil
}

// Close releases the ORT environment and library handle. Safe to call more
// than once.
func (r *Runtime) Close() {
	if r.env != nil {
		r.env.Close()
		r.env = nil
	}

	if r.rt != nil {
		_ = r.rt.Close()
		r.rt = nil
	}
}

func resolveLibraryPath(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("ort library path check failed: %w", err)
		}

		return configured, nil
	}

	for _, env := range []string{"SUPERTONIC_ORT_LIB", "ORT_LIBRARY_PATH"} {
		if p := os.Getenv(env); p != "" {
			return p, nil
		}
	}

	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
		"/usr/local/lib/libonnxruntime.dylib",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}

	return "", errors.New("unable to locate ONNX Runtime library; set --runtime-ort-library-path or ORT_LIBRARY_PATH")
}
