package ports

import (
	"context"

	"github.com/bft-labs/csvship/internal/domain"
)

// BatchWriter submits put operations to the key-value store.
// Implementations must be safe for concurrent calls; the dispatcher keeps up
// to MaxConcurrentBatches calls outstanding at once.
type BatchWriter interface {
	// BatchWrite submits every item in req in a single store call.
	// It returns the items the store did not commit, keyed like req; an empty
	// set means everything was written.
	// A non-nil error means the call failed outright and no result is known.
	BatchWrite(ctx context.Context, req domain.WriteRequest) (domain.UnprocessedSet, error)
}
