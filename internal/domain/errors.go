package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the csvship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("csvship: invalid configuration")

	// ErrRetriesExhausted is returned when a batch still has unprocessed
	// items after the configured number of resubmissions.
	ErrRetriesExhausted = errors.New("csvship: retries exhausted")

	// ErrStoreRejected is returned when the store fails a write call outright.
	ErrStoreRejected = errors.New("csvship: store rejected write")

	// ErrContextCanceled is returned when the operation context is canceled.
	ErrContextCanceled = errors.New("csvship: context canceled")
)

// BatchError reports which batch of which super-batch failed, and the input
// lines it covered. It wraps the underlying cause.
type BatchError struct {
	SuperBatch int
	Batch      int
	FirstLine  int
	LastLine   int
	Err        error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("super-batch %d, batch %d (lines %d-%d): %v",
		e.SuperBatch, e.Batch, e.FirstLine, e.LastLine, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
