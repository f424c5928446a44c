package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/csvship/internal/domain"
	"github.com/bft-labs/csvship/internal/ports"
)

// ResolverConfig controls how a single batch is written.
type ResolverConfig struct {
	Table   string
	Columns []string

	// MaxRetries caps resubmissions of unprocessed items; 0 means unbounded.
	MaxRetries int

	// RetryBackoff is the initial delay before a resubmission; 0 resubmits
	// immediately.
	RetryBackoff time.Duration
}

// BatchOutcome describes how one batch of a super-batch settled.
type BatchOutcome struct {
	Index     int
	FirstLine int
	LastLine  int
	Items     int
	Attempts  int
	Duration  time.Duration
	Err       error
}

// Resolver writes one batch, resubmitting whatever the store reports as
// unprocessed until nothing is left or the store fails the call.
type Resolver struct {
	cfg     ResolverConfig
	writer  ports.BatchWriter
	logger  ports.Logger
	emitter EventEmitter
}

// NewResolver creates a resolver writing through w.
func NewResolver(cfg ResolverConfig, w ports.BatchWriter, logger ports.Logger, emitter EventEmitter) *Resolver {
	return &Resolver{
		cfg:     cfg,
		writer:  w,
		logger:  logger,
		emitter: emitterOrNoop(emitter),
	}
}

// BuildRequest builds the write request for a batch: one put operation per
// record, all addressed to the configured table.
func (r *Resolver) BuildRequest(batch *domain.Batch) domain.WriteRequest {
	return domain.WriteRequest{r.cfg.Table: batch.Items(r.cfg.Columns)}
}

// Resolve writes batch idx of super-batch seq.
// On failure the returned error is a *domain.BatchError wrapping
// ErrStoreRejected, ErrRetriesExhausted or ErrContextCanceled.
func (r *Resolver) Resolve(ctx context.Context, seq, idx int, batch *domain.Batch) (BatchOutcome, error) {
	first, last := batch.LineRange()
	out := BatchOutcome{
		Index:     idx,
		FirstLine: first,
		LastLine:  last,
		Items:     batch.Size(),
	}

	fail := func(err error) (BatchOutcome, error) {
		be := &domain.BatchError{
			SuperBatch: seq,
			Batch:      idx,
			FirstLine:  first,
			LastLine:   last,
			Err:        err,
		}
		out.Err = be
		r.logger.Error("batch failed",
			ports.Int("super_batch", seq),
			ports.Int("batch", idx),
			ports.Ints("lines", batch.Lines()),
			ports.Int("attempts", out.Attempts),
			ports.Err(err),
		)
		r.emitter.OnBatchFailed(be)
		return out, be
	}

	req := r.BuildRequest(batch)
	back := newBackoff(r.cfg.RetryBackoff, DefaultBackoffMax)
	start := time.Now()

	for attempt := 1; ; attempt++ {
		out.Attempts = attempt

		unprocessed, err := r.writer.BatchWrite(ctx, req)
		out.Duration = time.Since(start)
		if err != nil {
			if ctx.Err() != nil {
				return fail(fmt.Errorf("%w: %w", domain.ErrContextCanceled, err))
			}
			return fail(fmt.Errorf("%w: %w", domain.ErrStoreRejected, err))
		}

		if unprocessed.Empty() {
			r.logger.Info("batch written",
				ports.Int("super_batch", seq),
				ports.Int("batch", idx),
				ports.Int("items", out.Items),
				ports.Int("attempts", attempt),
				ports.Duration("elapsed", out.Duration),
			)
			r.emitter.OnBatchWritten(seq, idx, out.Items, attempt, out.Duration)
			return out, nil
		}

		if r.cfg.MaxRetries > 0 && attempt > r.cfg.MaxRetries {
			return fail(fmt.Errorf("%w: %d items unprocessed after %d attempts",
				domain.ErrRetriesExhausted, unprocessed.Len(), attempt))
		}

		r.logger.Info("retrying unprocessed items",
			ports.Int("super_batch", seq),
			ports.Int("batch", idx),
			ports.Int("unprocessed", unprocessed.Len()),
			ports.Ints("lines", unprocessed.Lines()),
			ports.Int("attempt", attempt),
			ports.Duration("backoff", back.Current()),
		)
		r.emitter.OnRetry(seq, idx, attempt, unprocessed.Len())

		if err := back.Wait(ctx); err != nil {
			return fail(fmt.Errorf("%w: %w", domain.ErrContextCanceled, err))
		}
		req = unprocessed
	}
}
