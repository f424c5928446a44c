package csvship

import (
	"time"

	"github.com/bft-labs/csvship/internal/domain"
)

// EventHandler receives progress events from an ingestion run.
// Events are delivered synchronously. Batch events of one super-batch may
// arrive from several goroutines at once, so implementations must be safe
// for concurrent use.
type EventHandler interface {
	OnRecordParsed(RecordParsedEvent)
	OnBatchWritten(BatchWrittenEvent)
	OnRetry(RetryEvent)
	OnBatchFailed(BatchFailedEvent)
	OnSuperBatchDone(SuperBatchDoneEvent)
}

// RecordParsedEvent is emitted for every data line that produced a record.
type RecordParsedEvent struct {
	Line  int
	Bytes int
}

// BatchWrittenEvent is emitted when every item of a batch has been committed.
type BatchWrittenEvent struct {
	SuperBatch int
	Batch      int
	Items      int
	Attempts   int
	Duration   time.Duration
}

// RetryEvent is emitted before unprocessed items are resubmitted.
type RetryEvent struct {
	SuperBatch  int
	Batch       int
	Attempt     int
	Unprocessed int
}

// BatchFailedEvent is emitted when a batch ends in a hard failure.
type BatchFailedEvent struct {
	Err *BatchError
}

// SuperBatchDoneEvent is emitted when every batch of a super-batch succeeded.
type SuperBatchDoneEvent struct {
	SuperBatch int
	Batches    int
	Records    int
	Duration   time.Duration
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interface.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e eventEmitterWrapper) OnRecordParsed(line, bytes int) {
	e.handler.OnRecordParsed(RecordParsedEvent{Line: line, Bytes: bytes})
}

func (e eventEmitterWrapper) OnBatchWritten(superBatch, batch, items, attempts int, duration time.Duration) {
	e.handler.OnBatchWritten(BatchWrittenEvent{
		SuperBatch: superBatch,
		Batch:      batch,
		Items:      items,
		Attempts:   attempts,
		Duration:   duration,
	})
}

func (e eventEmitterWrapper) OnRetry(superBatch, batch, attempt, unprocessed int) {
	e.handler.OnRetry(RetryEvent{
		SuperBatch:  superBatch,
		Batch:       batch,
		Attempt:     attempt,
		Unprocessed: unprocessed,
	})
}

func (e eventEmitterWrapper) OnBatchFailed(err *domain.BatchError) {
	e.handler.OnBatchFailed(BatchFailedEvent{Err: err})
}

func (e eventEmitterWrapper) OnSuperBatchDone(superBatch, batches, records int, duration time.Duration) {
	e.handler.OnSuperBatchDone(SuperBatchDoneEvent{
		SuperBatch: superBatch,
		Batches:    batches,
		Records:    records,
		Duration:   duration,
	})
}
