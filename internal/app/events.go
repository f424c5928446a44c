package app

import (
	"time"

	"github.com/bft-labs/csvship/internal/domain"
)

// EventEmitter receives pipeline progress notifications.
// Methods are called synchronously from the pipeline goroutines; batch-level
// events may arrive concurrently from sibling batches of one super-batch.
type EventEmitter interface {
	OnRecordParsed(line, bytes int)
	OnBatchWritten(superBatch, batch, items, attempts int, duration time.Duration)
	OnRetry(superBatch, batch, attempt, unprocessed int)
	OnBatchFailed(err *domain.BatchError)
	OnSuperBatchDone(superBatch, batches, records int, duration time.Duration)
}

type noopEmitter struct{}

func (noopEmitter) OnRecordParsed(line, bytes int)                            {}
func (noopEmitter) OnBatchWritten(sb, b, items, attempts int, d time.Duration) {}
func (noopEmitter) OnRetry(sb, b, attempt, unprocessed int)                   {}
func (noopEmitter) OnBatchFailed(err *domain.BatchError)                      {}
func (noopEmitter) OnSuperBatchDone(sb, batches, records int, d time.Duration) {}

func emitterOrNoop(e EventEmitter) EventEmitter {
	if e == nil {
		return noopEmitter{}
	}
	return e
}
