package text

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/example/go-supertonic/internal/tensor"
)

// ErrIndexer is wrapped by indexer parse failures.
var ErrIndexer = errors.New("unicode indexer")

// UnknownRune is the id assigned to code points outside the indexer table.
const UnknownRune = -1

// Indexer maps Unicode code points to model token ids through a fixed lookup
// table loaded from a JSON integer array.
type Indexer struct {
	table []int64
}

// NewIndexer loads the lookup table from a JSON file.
func NewIndexer(path string) (*Indexer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unicode indexer: %w", err)
	}

	return NewIndexerBytes(data)
}

// NewIndexerBytes parses the lookup table from raw JSON bytes. Identical
// bytes produce an identical indexer regardless of source.
func NewIndexerBytes(data []byte) (*Indexer, error) {
	var table []int64
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: decode table: %w", ErrIndexer, err)
	}

	if len(table) == 0 {
		return nil, fmt.Errorf("%w: table is empty", ErrIndexer)
	}

	return &Indexer{table: table}, nil
}

// TableSize returns the number of code points the table covers.
func (ix *Indexer) TableSize() int {
	return len(ix.table)
}

// Encode normalizes each chunk and maps its runes to token ids. Rows are
// right-padded with 0 to the batch maximum; the returned mask has shape
// [B, 1, L] with 1.0 at positions holding real content. Code points beyond
// the table map to UnknownRune.
func (ix *Indexer) Encode(chunks []string) ([][]int64, *tensor.Tensor, error) {
	processed := make([]string, len(chunks))
	lengths := make([]int, len(chunks))
	maxLen := 0

	for i, chunk := range chunks {
		processed[i] = Normalize(chunk)
		lengths[i] = len([]rune(processed[i]))
		if lengths[i] > maxLen {
			maxLen = lengths[i]
		}
	}

	// Keep at least one column so downstream tensors have a valid shape even
	// for a batch of empty chunks.
	if maxLen == 0 {
		maxLen = 1
	}

	ids := make([][]int64, len(processed))
	for i, s := range processed {
		row := make([]int64, maxLen)
		for j, r := range []rune(s) {
			if int(r) < len(ix.table) {
				row[j] = ix.table[r]
			} else {
				row[j] = UnknownRune
			}
		}
		ids[i] = row
	}

	mask, err := LengthToMask(lengths, maxLen)
	if err != nil {
		return nil, nil, err
	}

	return ids, mask, nil
}

// LengthToMask builds a [B, 1, maxLen] float mask with 1.0 for positions
// below each item's length and 0.0 elsewhere.
func LengthToMask(lengths []int, maxLen int) (*tensor.Tensor, error) {
	if maxLen < 1 {
		maxLen = 1
	}

	data := make([]float32, len(lengths)*maxLen)
	for i, n := range lengths {
		if n > maxLen {
			n = maxLen
		}
		for j := range n {
			data[i*maxLen+j] = 1.0
		}
	}

	return tensor.New(data, []int64{int64(len(lengths)), 1, int64(maxLen)})
}
