package text

import (
	"encoding/json"
	"errors"
	"testing"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

// identityTable maps each code point below n to itself.
func identityTable(n int) []int64 {
	table := make([]int64, n)
	for i := range table {
		table[i] = int64(i)
	}
	return table
}

func newTestIndexer(t *testing.T, size int) *Indexer {
	t.Helper()

	ix, err := NewIndexerBytes(mustJSON(t, identityTable(size)))
	if err != nil {
		t.Fatalf("NewIndexerBytes: %v", err)
	}
	return ix
}

func TestNewIndexerBytesRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty table", data: `[]`},
		{name: "not an array", data: `{"a":1}`},
		{name: "garbage", data: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIndexerBytes([]byte(tt.data))
			if !errors.Is(err, ErrIndexer) {
				t.Errorf("error = %v, want ErrIndexer", err)
			}
		})
	}
}

func TestEncodeMapsRunesThroughTable(t *testing.T) {
	ix := newTestIndexer(t, 1000)

	ids, mask, err := ix.Encode([]string{"ab"})
	if err != nil {
		t.Fatal(err)
	}

	// Normalization appends a trailing period.
	want := []int64{'a', 'b', '.'}
	if len(ids) != 1 || len(ids[0]) != len(want) {
		t.Fatalf("ids = %v, want one row of %d", ids, len(want))
	}
	for i, id := range ids[0] {
		if id != want[i] {
			t.Errorf("ids[0][%d] = %d, want %d", i, id, want[i])
		}
	}

	maskData, err := mask.Float32s()
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range maskData {
		if v != 1.0 {
			t.Errorf("mask[%d] = %v, want 1.0", i, v)
		}
	}
}

func TestEncodeUnknownRune(t *testing.T) {
	// Table covers only ASCII; anything beyond maps to UnknownRune.
	ix := newTestIndexer(t, 128)

	ids, _, err := ix.Encode([]string{"aé"})
	if err != nil {
		t.Fatal(err)
	}

	if ids[0][0] != 'a' {
		t.Errorf("ids[0][0] = %d, want %d", ids[0][0], 'a')
	}

	// The decomposed combining acute (U+0301) is out of table range.
	foundUnknown := false
	for _, id := range ids[0] {
		if id == UnknownRune {
			foundUnknown = true
		}
	}
	if !foundUnknown {
		t.Errorf("ids = %v, expected an UnknownRune entry", ids[0])
	}
}

func TestEncodePadsToBatchMax(t *testing.T) {
	ix := newTestIndexer(t, 1000)

	ids, mask, err := ix.Encode([]string{"abcdef", "ab"})
	if err != nil {
		t.Fatal(err)
	}

	if len(ids[0]) != len(ids[1]) {
		t.Fatalf("rows have different lengths: %d vs %d", len(ids[0]), len(ids[1]))
	}

	// Shorter row is zero-padded on the right.
	row := ids[1]
	for i := 3; i < len(row); i++ { // "ab." is 3 runes
		if row[i] != 0 {
			t.Errorf("row[%d] = %d, want padding 0", i, row[i])
		}
	}

	maskData, err := mask.Float32s()
	if err != nil {
		t.Fatal(err)
	}

	cols := len(ids[0])
	if mask.Dim(0) != 2 || mask.Dim(1) != 1 || mask.Dim(2) != int64(cols) {
		t.Fatalf("mask shape = %v, want [2 1 %d]", mask.Shape(), cols)
	}

	// Second row's mask is 1 for content, 0 for padding.
	for j := range cols {
		want := float32(0)
		if j < 3 {
			want = 1
		}
		if maskData[cols+j] != want {
			t.Errorf("mask[1][%d] = %v, want %v", j, maskData[cols+j], want)
		}
	}
}

func TestEncodeAllEmptyKeepsOneColumn(t *testing.T) {
	ix := newTestIndexer(t, 128)

	ids, mask, err := ix.Encode([]string{"", ""})
	if err != nil {
		t.Fatal(err)
	}

	if len(ids[0]) != 1 || len(ids[1]) != 1 {
		t.Fatalf("ids = %v, want one padded column per row", ids)
	}
	if mask.Dim(2) != 1 {
		t.Errorf("mask shape = %v, want last dim 1", mask.Shape())
	}
}

func TestLengthToMask(t *testing.T) {
	mask, err := LengthToMask([]int{2, 4}, 4)
	if err != nil {
		t.Fatal(err)
	}

	data, err := mask.Float32s()
	if err != nil {
		t.Fatal(err)
	}

	want := []float32{1, 1, 0, 0, 1, 1, 1, 1}
	for i, v := range data {
		if v != want[i] {
			t.Errorf("mask[%d] = %v, want %v", i, v, want[i])
		}
	}
}
