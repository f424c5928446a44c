package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/csvship/internal/domain"
	"github.com/bft-labs/csvship/internal/ports"
)

// DefaultBatchDelay is the pause after each successful super-batch.
const DefaultBatchDelay = 900 * time.Millisecond

// SuperBatchReport lists the outcome of every batch in a super-batch.
type SuperBatchReport struct {
	Seq      int
	Outcomes []BatchOutcome
	Duration time.Duration
}

// Failed returns the outcomes that ended in an error.
func (r SuperBatchReport) Failed() []BatchOutcome {
	var failed []BatchOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Dispatcher writes the batches of a super-batch concurrently and holds the
// caller until every one of them has settled.
type Dispatcher struct {
	resolver      *Resolver
	maxConcurrent int
	delay         time.Duration
	logger        ports.Logger
	emitter       EventEmitter
}

// NewDispatcher creates a dispatcher running at most maxConcurrent batch
// writes at once and pausing for delay after each successful super-batch.
func NewDispatcher(resolver *Resolver, maxConcurrent int, delay time.Duration, logger ports.Logger, emitter EventEmitter) *Dispatcher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Dispatcher{
		resolver:      resolver,
		maxConcurrent: maxConcurrent,
		delay:         delay,
		logger:        logger,
		emitter:       emitterOrNoop(emitter),
	}
}

// Dispatch writes every batch of sb and waits for all of them.
// A failing batch does not cancel its siblings; each settles on its own and
// its outcome is recorded in the report. If any batch failed, the first
// failure is returned and the caller must not dispatch further super-batches.
func (d *Dispatcher) Dispatch(ctx context.Context, sb domain.SuperBatch) (SuperBatchReport, error) {
	report := SuperBatchReport{
		Seq:      sb.Seq,
		Outcomes: make([]BatchOutcome, len(sb.Batches)),
	}

	d.logger.Info("super-batch dispatched",
		ports.Int("super_batch", sb.Seq),
		ports.Int("batches", sb.Size()),
		ports.Int("records", sb.RecordCount()),
	)

	start := time.Now()

	var g errgroup.Group
	g.SetLimit(d.maxConcurrent)
	for i, batch := range sb.Batches {
		g.Go(func() error {
			outcome, err := d.resolver.Resolve(ctx, sb.Seq, i, batch)
			report.Outcomes[i] = outcome
			return err
		})
	}
	err := g.Wait()
	report.Duration = time.Since(start)

	if err != nil {
		d.logger.Error("super-batch failed",
			ports.Int("super_batch", sb.Seq),
			ports.Int("failed", len(report.Failed())),
			ports.Int("batches", sb.Size()),
			ports.Err(err),
		)
		return report, err
	}

	d.logger.Info("super-batch completed",
		ports.Int("super_batch", sb.Seq),
		ports.Int("batches", sb.Size()),
		ports.Duration("elapsed", report.Duration),
	)
	d.emitter.OnSuperBatchDone(sb.Seq, sb.Size(), sb.RecordCount(), report.Duration)

	if err := sleepContext(ctx, d.delay); err != nil {
		return report, fmt.Errorf("%w: %w", domain.ErrContextCanceled, err)
	}
	d.logger.Debug("resuming input", ports.Int("super_batch", sb.Seq))

	return report, nil
}
