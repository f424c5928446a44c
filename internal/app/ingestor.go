package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/csvship/internal/domain"
	"github.com/bft-labs/csvship/internal/ports"
)

// MaxLineBytes is the longest input line the scanner accepts.
const MaxLineBytes = 1 << 20

// IngestorConfig contains configuration for one ingestion run.
type IngestorConfig struct {
	Table                string
	Columns              []string
	Delimiter            string
	MaxRecordsPerBatch   int
	MaxConcurrentBatches int
	BatchDelay           time.Duration
	MaxRetries           int
	RetryBackoff         time.Duration
}

// Report summarizes a run. It is returned whether or not the run succeeded;
// counts cover only super-batches that were dispatched.
type Report struct {
	// RunID correlates the report with the run's log lines. Set by the caller.
	RunID string

	Records      int
	Batches      int
	SuperBatches int
	ItemsWritten int
	Retries      int
	Duration     time.Duration

	// Failed holds the per-batch outcomes of the super-batch that halted the
	// run, or nil on success.
	Failed []BatchOutcome
}

// Ingestor streams delimited text into the store.
type Ingestor struct {
	config  IngestorConfig
	writer  ports.BatchWriter
	logger  ports.Logger
	emitter EventEmitter
}

// NewIngestor creates a new ingestor with the given dependencies.
func NewIngestor(config IngestorConfig, writer ports.BatchWriter, logger ports.Logger, emitter EventEmitter) *Ingestor {
	return &Ingestor{
		config:  config,
		writer:  writer,
		logger:  logger,
		emitter: emitterOrNoop(emitter),
	}
}

// Run streams r through parser, batcher and dispatcher.
// Each stage hands off through a single-slot channel, so at most one record
// and one sealed super-batch wait while a super-batch is being written.
// The first hard failure halts the run; batches already written stay written.
func (in *Ingestor) Run(ctx context.Context, r io.Reader) (Report, error) {
	var report Report
	start := time.Now()

	parser := NewParser(in.config.Columns, in.config.Delimiter, in.logger)
	batcher := NewBatcher(in.config.MaxRecordsPerBatch, in.config.MaxConcurrentBatches)
	resolver := NewResolver(ResolverConfig{
		Table:        in.config.Table,
		Columns:      in.config.Columns,
		MaxRetries:   in.config.MaxRetries,
		RetryBackoff: in.config.RetryBackoff,
	}, in.writer, in.logger, in.emitter)
	dispatcher := NewDispatcher(resolver, in.config.MaxConcurrentBatches, in.config.BatchDelay, in.logger, in.emitter)

	records := make(chan domain.Record, 1)
	supers := make(chan domain.SuperBatch, 1)

	g, gctx := errgroup.WithContext(ctx)

	// Read. This goroutine stays outside the group: a Read blocked on a
	// stalled input must not keep Wait from reporting a failure or
	// cancellation. It exits at the next line once gctx is done.
	lines := make(chan []byte)
	var readErr error
	go func() {
		defer close(lines)

		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
		for sc.Scan() {
			raw := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- raw:
			case <-gctx.Done():
				return
			}
		}
		readErr = sc.Err()
	}()

	// Parse
	g.Go(func() error {
		defer close(records)

		for {
			var raw []byte
			select {
			case l, ok := <-lines:
				if !ok {
					if readErr != nil {
						return fmt.Errorf("read input: %w", readErr)
					}
					return gctx.Err()
				}
				raw = l
			case <-gctx.Done():
				return gctx.Err()
			}

			rec, ok := parser.Parse(raw)
			if !ok {
				continue
			}
			in.emitter.OnRecordParsed(rec.Line, len(raw))

			select {
			case records <- rec:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	// Batch
	g.Go(func() error {
		defer close(supers)

		emit := func(sb domain.SuperBatch) error {
			select {
			case supers <- sb:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		}

		for rec := range records {
			if sb, ok := batcher.Add(rec); ok {
				if err := emit(sb); err != nil {
					return err
				}
			}
		}
		if gctx.Err() != nil {
			return gctx.Err()
		}
		sb, ok := batcher.Flush()
		in.logger.Debug("input exhausted",
			ports.Int("lines", parser.Lines()),
			ports.Int("super_batches", batcher.Emitted()),
		)
		if ok {
			return emit(sb)
		}
		return nil
	})

	// Dispatch, strictly one super-batch at a time
	g.Go(func() error {
		for sb := range supers {
			if err := gctx.Err(); err != nil {
				return err
			}

			sbr, err := dispatcher.Dispatch(gctx, sb)
			report.SuperBatches++
			report.Batches += sb.Size()
			for _, o := range sbr.Outcomes {
				report.Retries += max(o.Attempts-1, 0)
				if o.Err == nil {
					report.ItemsWritten += o.Items
				}
			}
			if err != nil {
				report.Failed = sbr.Failed()
				return err
			}
		}
		return nil
	})

	err := g.Wait()
	report.Records = parser.Records()
	report.Duration = time.Since(start)

	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, domain.ErrContextCanceled) {
			err = fmt.Errorf("%w: %w", domain.ErrContextCanceled, err)
		}
		in.logger.Error("ingestion halted",
			ports.Int("super_batches", report.SuperBatches),
			ports.Int("items_written", report.ItemsWritten),
			ports.Err(err),
		)
		return report, err
	}

	in.logger.Info("ingestion complete",
		ports.Int("records", report.Records),
		ports.Int("batches", report.Batches),
		ports.Int("super_batches", report.SuperBatches),
		ports.Int("retries", report.Retries),
		ports.Duration("elapsed", report.Duration),
	)
	return report, nil
}
