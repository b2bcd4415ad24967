// Package tensor provides the dense named-tensor payloads exchanged with the
// ONNX execution engine. Only the two dtypes the Supertonic graphs use are
// supported: float32 and int64.
package tensor

import (
	"fmt"
	"math"
)

type DType string

const (
	Float32 DType = "float32"
	Int64   DType = "int64"
)

// ShapeError reports a failed reshape or construction. Unlike a plain
// element-count message it carries both the declared dims and what was
// actually available, so callers can log the full mismatch.
type ShapeError struct {
	Expected []int64
	Actual   []int64 // actual dims when known, nil otherwise
	Elements int     // flat element count that failed to fill Expected
}

func (e *ShapeError) Error() string {
	if e.Actual != nil {
		return fmt.Sprintf("shape mismatch: expected %v, got %v", e.Expected, e.Actual)
	}

	return fmt.Sprintf("shape mismatch: expected %v (%d elements), got %d elements", e.Expected, mustElements(e.Expected), e.Elements)
}

type Tensor struct {
	dtype DType
	shape []int64
	data  any
}

// New builds a tensor from a flat backing slice, validating the element count
// against the declared shape.
func New[T ~float32 | ~int64](data []T, shape []int64) (*Tensor, error) {
	count, err := Elements(shape)
	if err != nil {
		return nil, err
	}

	if count != len(data) {
		return nil, &ShapeError{Expected: append([]int64(nil), shape...), Elements: len(data)}
	}

	t := &Tensor{shape: append([]int64(nil), shape...)}

	var zero T
	switch any(zero).(type) {
	case float32:
		t.dtype = Float32
		converted := make([]float32, len(data))
		for i, v := range data {
			converted[i] = float32(v)
		}
		t.data = converted
	case int64:
		t.dtype = Int64
		converted := make([]int64, len(data))
		for i, v := range data {
			converted[i] = int64(v)
		}
		t.data = converted
	default:
		return nil, fmt.Errorf("unsupported tensor data type %T", zero)
	}

	return t, nil
}

// Zeros builds an all-zero float32 tensor with the given shape.
func Zeros(shape []int64) (*Tensor, error) {
	count, err := Elements(shape)
	if err != nil {
		return nil, err
	}

	return New(make([]float32, count), shape)
}

func (t *Tensor) DType() DType {
	return t.dtype
}

func (t *Tensor) Shape() []int64 {
	return append([]int64(nil), t.shape...)
}

// Dim returns the size of axis i, or 0 if the tensor has fewer axes.
func (t *Tensor) Dim(i int) int64 {
	if i < 0 || i >= len(t.shape) {
		return 0
	}

	return t.shape[i]
}

// Float32s returns the flat float32 backing data. The slice is shared, not
// copied; callers that mutate it mutate the tensor.
func (t *Tensor) Float32s() ([]float32, error) {
	data, ok := t.data.([]float32)
	if !ok {
		return nil, fmt.Errorf("expected float32 tensor, got %s", t.dtype)
	}

	return data, nil
}

// Int64s returns the flat int64 backing data (shared, not copied).
func (t *Tensor) Int64s() ([]int64, error) {
	data, ok := t.data.([]int64)
	if !ok {
		return nil, fmt.Errorf("expected int64 tensor, got %s", t.dtype)
	}

	return data, nil
}

// Data returns the backing slice as an untyped value for dtype dispatch.
func (t *Tensor) Data() any {
	return t.data
}

// Reshape returns a tensor viewing the same backing data under a new shape.
// Fails with a ShapeError carrying both shapes when the element counts differ.
func (t *Tensor) Reshape(shape []int64) (*Tensor, error) {
	want, err := Elements(shape)
	if err != nil {
		return nil, err
	}

	have, err := Elements(t.shape)
	if err != nil {
		return nil, err
	}

	if want != have {
		return nil, &ShapeError{
			Expected: append([]int64(nil), shape...),
			Actual:   append([]int64(nil), t.shape...),
		}
	}

	return &Tensor{dtype: t.dtype, shape: append([]int64(nil), shape...), data: t.data}, nil
}

// Elements returns the element count implied by shape.
func Elements(shape []int64) (int, error) {
	count := int64(1)
	for i, dim := range shape {
		if dim < 1 {
			return 0, fmt.Errorf("shape[%d]=%d is not positive", i, dim)
		}

		if count > math.MaxInt64/dim {
			return 0, fmt.Errorf("shape %v overflows element count", shape)
		}

		count *= dim
	}

	if count > int64(math.MaxInt) {
		return 0, fmt.Errorf("shape %v exceeds platform int capacity", shape)
	}

	return int(count), nil
}

func mustElements(shape []int64) int {
	n, err := Elements(shape)
	if err != nil {
		return 0
	}

	return n
}
