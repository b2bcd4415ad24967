package engine

import (
	"context"
	"fmt"

	"github.com/example/go-supertonic/internal/tensor"
	ort "github.com/shota3506/onnxruntime-purego/onnxruntime"
)

// Runner wraps one ORT session for a single ONNX graph.
type Runner struct {
	name    string
	runtime *Runtime
	session *ort.Session
}

// NewRunner creates a session for the graph stored at path. The name is used
// in error and log messages only.
func (r *Runtime) NewRunner(name, path string) (*Runner, error) {
	session, err := r.rt.NewSession(r.env, path, nil)
	if err != nil {
		return nil, fmt.Errorf("ort session for %q (%s): %w", name, path, err)
	}

	return &Runner{name: name, runtime: r, session: session}, nil
}

// Run executes the graph with the given named input tensors and returns the
// named outputs. Any ORT failure is surfaced wrapped with the graph name.
func (r *Runner) Run(ctx context.Context, inputs map[string]*tensor.Tensor) (map[string]*tensor.Tensor, error) {
	ortInputs := make(map[string]*ort.Value, len(inputs))
	for name, t := range inputs {
		v, err := tensorToORT(r.runtime.rt, t)
		if err != nil {
			closeORTValues(ortInputs)
			return nil, fmt.Errorf("input %q: %w", name, err)
		}

		ortInputs[name] = v
	}

	defer closeORTValues(ortInputs)

	ortOutputs, err := r.session.Run(ctx, ortInputs)
	if err != nil {
		return nil, fmt.Errorf("run %q: %w", r.name, err)
	}
	defer closeORTValues(ortOutputs)

	results := make(map[string]*tensor.Tensor, len(ortOutputs))
	for name, v := range ortOutputs {
		t, err := ortToTensor(v)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", name, err)
		}

		results[name] = t
	}

	return results, nil
}

// Name returns the graph name the runner was created with.
func (r *Runner) Name() string {
	return r.name
}

// Close releases the session. Safe to call multiple times.
func (r *Runner) Close() {
	if r.session != nil {
		r.session.Close()
		r.session = nil
	}
}

func tensorToORT(rt *ort.Runtime, t *tensor.Tensor) (*ort.Value, error) {
	switch data := t.Data().(type) {
	case []float32:
		return ort.NewTensorValue(rt, data, t.Shape())
	case []int64:
		return ort.NewTensorValue(rt, data, t.Shape())
	default:
		return nil, fmt.Errorf("unsupported tensor dtype %T", data)
	}
}

func ortToTensor(v *ort.Value) (*tensor.Tensor, error) {
	elemType, err := v.GetTensorElementType()
	if err != nil {
		return nil, fmt.Errorf("get element type: %w", err)
	}

	switch elemType {
	case ort.ONNXTensorElementDataTypeFloat:
		data, shape, err := ort.GetTensorData[float32](v)
		if err != nil {
			return nil, err
		}

		return tensor.New(data, shape)
	case ort.ONNXTensorElementDataTypeInt64:
		data, shape, err := ort.GetTensorData[int64](v)
		if err != nil {
			return nil, err
		}

		return tensor.New(data, shape)
	default:
		return nil, fmt.Errorf("unsupported ORT element type %d", elemType)
	}
}

func closeORTValues(vals map[string]*ort.Value) {
	for _, v := range vals {
		if v != nil {
			v.Close()
		}
	}
}
