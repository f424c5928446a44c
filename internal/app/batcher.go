package app

import "github.com/bft-labs/csvship/internal/domain"

// Batcher groups records into batches of maxRecords and batches into
// super-batches of maxBatches.
// A Batcher is single-pass: once Flush has been called it accepts no more
// records.
type Batcher struct {
	maxRecords int
	maxBatches int

	batches []*domain.Batch
	idx     int
	seq     int
	flushed bool
}

// NewBatcher creates a new batcher with the given limits.
func NewBatcher(maxRecords, maxBatches int) *Batcher {
	return &Batcher{
		maxRecords: maxRecords,
		maxBatches: maxBatches,
	}
}

// Add appends a record to the accumulating super-batch.
// Returns the sealed super-batch and true when this record completes the last
// batch of a full super-batch; the accumulator then starts over from zero.
func (b *Batcher) Add(rec domain.Record) (domain.SuperBatch, bool) {
	if b.flushed {
		panic("csvship: Add called on a flushed batcher")
	}

	batchIdx := b.idx / b.maxRecords
	if b.idx%b.maxRecords == 0 && batchIdx < b.maxBatches {
		b.batches = append(b.batches, domain.NewBatch(b.maxRecords))
	}
	b.batches[batchIdx].Add(rec)

	if len(b.batches) == b.maxBatches && b.batches[b.maxBatches-1].Size() == b.maxRecords {
		return b.seal(), true
	}
	b.idx++
	return domain.SuperBatch{}, false
}

// Flush seals whatever has accumulated into a final, possibly undersized,
// super-batch. Returns false if nothing is pending.
func (b *Batcher) Flush() (domain.SuperBatch, bool) {
	b.flushed = true
	if len(b.batches) == 0 {
		return domain.SuperBatch{}, false
	}
	return b.seal(), true
}

// Emitted returns the number of super-batches sealed so far.
func (b *Batcher) Emitted() int {
	return b.seq
}

func (b *Batcher) seal() domain.SuperBatch {
	b.seq++
	sb := domain.SuperBatch{Seq: b.seq, Batches: b.batches}
	b.batches = nil
	b.idx = 0
	return sb
}
