package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewWriteItem(t *testing.T) {
	columns := []string{"GTIN", "ProductDescription", "SKU"}

	tests := []struct {
		name   string
		fields map[string]string
		want   map[string]string
	}{
		{
			name:   "all populated",
			fields: map[string]string{"GTIN": "123", "ProductDescription": "Widget", "SKU": "W-1"},
			want:   map[string]string{"GTIN": "123", "ProductDescription": "Widget", "SKU": "W-1"},
		},
		{
			name:   "empty values omitted",
			fields: map[string]string{"GTIN": "123", "ProductDescription": "", "SKU": ""},
			want:   map[string]string{"GTIN": "123"},
		},
		{
			name:   "whitespace is a value",
			fields: map[string]string{"GTIN": " ", "ProductDescription": "", "SKU": ""},
			want:   map[string]string{"GTIN": " "},
		},
		{
			name:   "unrecognized fields ignored",
			fields: map[string]string{"GTIN": "1", "Colour": "red"},
			want:   map[string]string{"GTIN": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := NewWriteItem(Record{Line: 7, Fields: tt.fields}, columns)
			if item.Line != 7 {
				t.Errorf("Line = %d, want 7", item.Line)
			}
			if !reflect.DeepEqual(item.Attributes, tt.want) {
				t.Errorf("Attributes = %v, want %v", item.Attributes, tt.want)
			}
		})
	}
}

func TestWriteItem_Fingerprint(t *testing.T) {
	a := WriteItem{Line: 1, Attributes: map[string]string{"GTIN": "1", "SKU": "x"}}
	b := WriteItem{Line: 9, Attributes: map[string]string{"SKU": "x", "GTIN": "1"}}
	c := WriteItem{Attributes: map[string]string{"GTIN": "1x", "SKU": ""}}

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical attributes should share a fingerprint regardless of line")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different attributes should not share a fingerprint")
	}
}

func TestWriteRequest(t *testing.T) {
	var empty WriteRequest
	if !empty.Empty() || empty.Len() != 0 {
		t.Error("nil request should be empty")
	}

	req := WriteRequest{
		"B": {{Line: 5}, {Line: 6}},
		"A": {{Line: 2}},
	}
	if req.Empty() {
		t.Error("Empty() = true for populated request")
	}
	if req.Len() != 3 {
		t.Errorf("Len() = %d, want 3", req.Len())
	}
	if got := req.Lines(); !reflect.DeepEqual(got, []int{2, 5, 6}) {
		t.Errorf("Lines() = %v, want [2 5 6]", got)
	}

	if (WriteRequest{"A": nil}).Empty() != true {
		t.Error("request with an empty table should be empty")
	}
}

func TestBatchError(t *testing.T) {
	err := &BatchError{SuperBatch: 2, Batch: 1, FirstLine: 26, LastLine: 50, Err: ErrStoreRejected}

	if !errors.Is(err, ErrStoreRejected) {
		t.Error("BatchError should unwrap to its cause")
	}
	want := "super-batch 2, batch 1 (lines 26-50): csvship: store rejected write"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
