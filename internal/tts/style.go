package tts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/example/go-supertonic/internal/tensor"
)

// Style holds the two conditioning tensors of one or more voices stacked
// along the batch axis: TTL conditions the text encoder and vector estimator,
// DP conditions the duration predictor. Both have shape [batch, dim1, dim2].
type Style struct {
	TTL *tensor.Tensor
	DP  *tensor.Tensor
}

// Batch returns the number of stacked voices.
func (s *Style) Batch() int64 {
	return s.TTL.Dim(0)
}

type styleComponent struct {
	Data [][][]float32 `json:"data"`
	Dims []int64       `json:"dims"`
	Type string        `json:"type"`
}

type styleFile struct {
	StyleTTL styleComponent `json:"style_ttl"`
	StyleDP  styleComponent `json:"style_dp"`
}

// LoadStyle reads one or more voice style JSON files and stacks them into a
// single Style. All files must share the inner dimensions of the first.
func LoadStyle(paths []string) (*Style, error) {
	if len(paths) == 0 {
		return nil, ErrNoStyles
	}

	buffers := make([][]byte, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read voice style: %w", err)
		}

		buffers[i] = data
	}

	style, err := LoadStyleBytes(buffers)
	if err != nil {
		return nil, err
	}

	slog.Info("loaded voice styles", "count", len(paths))

	return style, nil
}

// LoadStyleBytes stacks voice styles from in-memory JSON buffers. Identical
// bytes produce tensors identical to those from LoadStyle on the same files.
func LoadStyleBytes(buffers [][]byte) (*Style, error) {
	if len(buffers) == 0 {
		return nil, ErrNoStyles
	}

	bsz := len(buffers)

	var first styleFile
	if err := json.Unmarshal(buffers[0], &first); err != nil {
		return nil, fmt.Errorf("decode voice style: %w", err)
	}

	ttlDim1, ttlDim2, err := innerDims(first.StyleTTL, "style_ttl")
	if err != nil {
		return nil, err
	}

	dpDim1, dpDim2, err := innerDims(first.StyleDP, "style_dp")
	if err != nil {
		return nil, err
	}

	ttlFlat := make([]float32, int64(bsz)*ttlDim1*ttlDim2)
	dpFlat := make([]float32, int64(bsz)*dpDim1*dpDim2)

	for i, data := range buffers {
		parsed := first
		if i > 0 {
			parsed = styleFile{}
			if err := json.Unmarshal(data, &parsed); err != nil {
				return nil, fmt.Errorf("decode voice style %d: %w", i, err)
			}

			// The first file establishes the expected shape; a divergent file
			// is rejected instead of silently corrupting the batch.
			if err := checkDims(parsed.StyleTTL, ttlDim1, ttlDim2, i, "style_ttl"); err != nil {
				return nil, err
			}
			if err := checkDims(parsed.StyleDP, dpDim1, dpDim2, i, "style_dp"); err != nil {
				return nil, err
			}
		}

		if err := fillSlot(ttlFlat, parsed.StyleTTL, i, ttlDim1*ttlDim2, "style_ttl"); err != nil {
			return nil, err
		}
		if err := fillSlot(dpFlat, parsed.StyleDP, i, dpDim1*dpDim2, "style_dp"); err != nil {
			return nil, err
		}
	}

	ttl, err := tensor.New(ttlFlat, []int64{int64(bsz), ttlDim1, ttlDim2})
	if err != nil {
		return nil, fmt.Errorf("stack style_ttl: %w", err)
	}

	dp, err := tensor.New(dpFlat, []int64{int64(bsz), dpDim1, dpDim2})
	if err != nil {
		return nil, fmt.Errorf("stack style_dp: %w", err)
	}

	return &Style{TTL: ttl, DP: dp}, nil
}

func innerDims(c styleComponent, name string) (int64, int64, error) {
	if len(c.Dims) != 3 {
		return 0, 0, fmt.Errorf("voice style %s: expected 3 dims, got %d", name, len(c.Dims))
	}

	if c.Dims[1] < 1 || c.Dims[2] < 1 {
		return 0, 0, fmt.Errorf("voice style %s: non-positive dims %v", name, c.Dims)
	}

	return c.Dims[1], c.Dims[2], nil
}

func checkDims(c styleComponent, dim1, dim2 int64, index int, name string) error {
	d1, d2, err := innerDims(c, name)
	if err != nil {
		return err
	}

	if d1 != dim1 || d2 != dim2 {
		return fmt.Errorf("%w: %s of style %d is [%d %d], first style is [%d %d]",
			ErrStyleDimsMismatch, name, index, d1, d2, dim1, dim2)
	}

	return nil
}

// fillSlot flattens the nested component data row-major into batch slot i.
// A volume mismatch against the declared dims is a shape error.
func fillSlot(flat []float32, c styleComponent, i int, volume int64, name string) error {
	offset := int64(i) * volume
	idx := int64(0)

	for _, block := range c.Data {
		for _, row := range block {
			for _, val := range row {
				if idx >= volume {
					return fmt.Errorf("%s of style %d: %w", name, i,
						&tensor.ShapeError{Expected: c.Dims, Elements: countElements(c.Data)})
				}

				flat[offset+idx] = val
				idx++
			}
		}
	}

	if idx != volume {
		return fmt.Errorf("%s of style %d: %w", name, i,
			&tensor.ShapeError{Expected: c.Dims, Elements: int(idx)})
	}

	return nil
}

func countElements(data [][][]float32) int {
	n := 0
	for _, block := range data {
		for _, row := range block {
			n += len(row)
		}
	}

	return n
}
