package domain

// Batch is an ordered group of records submitted in a single store write call.
// It holds at most the configured records-per-batch and is not modified once
// the batcher seals it.
type Batch struct {
	// Records in file order
	Records []Record
}

// NewBatch creates a new empty batch with room for capacity records.
func NewBatch(capacity int) *Batch {
	return &Batch{
		Records: make([]Record, 0, capacity),
	}
}

// Add appends a record to the batch.
func (b *Batch) Add(rec Record) {
	b.Records = append(b.Records, rec)
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int {
	return len(b.Records)
}

// Empty returns true if the batch has no records.
func (b *Batch) Empty() bool {
	return len(b.Records) == 0
}

// Lines returns the line number of every record in the batch.
func (b *Batch) Lines() []int {
	lines := make([]int, len(b.Records))
	for i, r := range b.Records {
		lines[i] = r.Line
	}
	return lines
}

// LineRange returns the first and last line numbers in the batch.
// Both are zero for an empty batch.
func (b *Batch) LineRange() (first, last int) {
	if len(b.Records) == 0 {
		return 0, 0
	}
	return b.Records[0].Line, b.Records[len(b.Records)-1].Line
}

// Items converts every record into its put operation.
func (b *Batch) Items(columns []string) []WriteItem {
	items := make([]WriteItem, len(b.Records))
	for i, r := range b.Records {
		items[i] = NewWriteItem(r, columns)
	}
	return items
}

// SuperBatch is a bounded group of batches dispatched concurrently as one
// admission-controlled unit.
type SuperBatch struct {
	// Seq is the 1-based position of this super-batch in the run
	Seq int

	// Batches in creation order
	Batches []*Batch
}

// Size returns the number of batches.
func (s SuperBatch) Size() int {
	return len(s.Batches)
}

// RecordCount returns the number of records across all batches.
func (s SuperBatch) RecordCount() int {
	n := 0
	for _, b := range s.Batches {
		n += b.Size()
	}
	return n
}
