// Package csvship loads delimited text files into a DynamoDB table.
//
// Each line becomes one item. Items are written in batches with
// BatchWriteItem, several batches at a time, and items the table reports as
// unprocessed are resubmitted until they are accepted.
//
// Example usage:
//
//	cfg := csvship.DefaultConfig()
//	cfg.Table = "Provider"
//	cfg.Columns = []string{"GTIN", "ProductDescription", "SKU"}
//	ing, err := csvship.New(cfg, csvship.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := ing.IngestFile(ctx, "products.csv")
package csvship

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"

	"github.com/bft-labs/csvship/internal/adapters/dynamo"
	"github.com/bft-labs/csvship/internal/adapters/source"
	"github.com/bft-labs/csvship/internal/app"
	"github.com/bft-labs/csvship/internal/domain"
	"github.com/bft-labs/csvship/internal/ports"
	"github.com/bft-labs/csvship/pkg/log"
)

// Default configuration values.
const (
	DefaultTable                = "Provider"
	DefaultMaxRecordsPerBatch   = dynamo.MaxItemsPerCall
	DefaultMaxConcurrentBatches = 1
	DefaultBatchDelay           = app.DefaultBatchDelay
)

// DefaultColumns is the recognized column whitelist used when none is configured.
var DefaultColumns = []string{"GTIN", "ProductDescription", "SKU"}

// Errors returned by the ingestion pipeline. Check them with errors.Is.
var (
	ErrInvalidConfig    = domain.ErrInvalidConfig
	ErrRetriesExhausted = domain.ErrRetriesExhausted
	ErrStoreRejected    = domain.ErrStoreRejected
	ErrContextCanceled  = domain.ErrContextCanceled
	ErrSourceNotFound   = source.ErrSourceNotFound
)

// BatchError identifies the batch that halted a run. Retrieve it with errors.As.
type BatchError = domain.BatchError

// Report summarizes an ingestion run.
type Report = app.Report

// BatchOutcome is the settled state of a single batch.
type BatchOutcome = app.BatchOutcome

// Config holds the configuration for an ingestion run.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// Table is the destination DynamoDB table.
	Table string

	// Columns is the ordered whitelist of input fields, mapped by position.
	Columns []string

	// Delimiter separates fields within a line. Quoting is not supported.
	Delimiter string

	// MaxRecordsPerBatch is the number of items per BatchWriteItem call.
	MaxRecordsPerBatch int

	// MaxConcurrentBatches is the number of batch writes in flight at once.
	MaxConcurrentBatches int

	// BatchDelay is the pause after each successful super-batch, used to stay
	// under the table's provisioned write capacity. Zero disables the pause;
	// DefaultConfig sets DefaultBatchDelay.
	BatchDelay time.Duration

	// MaxRetries caps resubmissions of unprocessed items per batch; 0 is unbounded.
	MaxRetries int

	// RetryBackoff is the initial delay between resubmissions; 0 resubmits immediately.
	RetryBackoff time.Duration

	// AWS connection. Empty values use the SDK defaults.
	Region   string
	Profile  string
	Endpoint string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Table:                DefaultTable,
		Columns:              append([]string(nil), DefaultColumns...),
		Delimiter:            app.DefaultDelimiter,
		MaxRecordsPerBatch:   DefaultMaxRecordsPerBatch,
		MaxConcurrentBatches: DefaultMaxConcurrentBatches,
		BatchDelay:           DefaultBatchDelay,
	}
}

// SetDefaults fills zero-valued fields with their defaults.
// BatchDelay, MaxRetries and RetryBackoff are left alone because zero is a
// meaningful setting for each of them.
func (c *Config) SetDefaults() {
	if c.Table == "" {
		c.Table = DefaultTable
	}
	if len(c.Columns) == 0 {
		c.Columns = append([]string(nil), DefaultColumns...)
	}
	if c.Delimiter == "" {
		c.Delimiter = app.DefaultDelimiter
	}
	if c.MaxRecordsPerBatch == 0 {
		c.MaxRecordsPerBatch = DefaultMaxRecordsPerBatch
	}
	if c.MaxConcurrentBatches == 0 {
		c.MaxConcurrentBatches = DefaultMaxConcurrentBatches
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Table == "" {
		return fmt.Errorf("%w: table is required", ErrInvalidConfig)
	}
	if len(c.Columns) == 0 {
		return fmt.Errorf("%w: at least one column is required", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Columns))
	for _, col := range c.Columns {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("%w: column names must not be empty", ErrInvalidConfig)
		}
		if seen[col] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidConfig, col)
		}
		seen[col] = true
	}
	if c.Delimiter == "" {
		return fmt.Errorf("%w: delimiter must not be empty", ErrInvalidConfig)
	}
	if c.MaxRecordsPerBatch < 1 || c.MaxRecordsPerBatch > dynamo.MaxItemsPerCall {
		return fmt.Errorf("%w: max records per batch must be between 1 and %d",
			ErrInvalidConfig, dynamo.MaxItemsPerCall)
	}
	if c.MaxConcurrentBatches < 1 {
		return fmt.Errorf("%w: max concurrent batches must be positive", ErrInvalidConfig)
	}
	if c.BatchDelay < 0 {
		return fmt.Errorf("%w: batch delay must not be negative", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must not be negative", ErrInvalidConfig)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("%w: retry backoff must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Ingestor runs ingestion jobs against one table.
// An Ingestor may run several inputs one after another; each run gets its
// own parser and batcher.
type Ingestor struct {
	config  Config
	store   BatchWriter
	logger  ports.Logger
	emitter app.EventEmitter

	s3once   sync.Once
	s3client s3iface.S3API
	s3err    error
}

// New creates an Ingestor with the given configuration.
// Without WithStore, a DynamoDB client is built from the AWS settings in cfg.
func New(cfg Config, opts ...Option) (*Ingestor, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		sess, err := newSession(cfg)
		if err != nil {
			return nil, err
		}
		store = dynamo.NewWriter(dynamo.NewClient(sess, cfg.Endpoint), o.logger)
	}

	var emitter app.EventEmitter
	if o.eventHandler != nil {
		emitter = eventEmitterWrapper{handler: o.eventHandler}
	}

	return &Ingestor{
		config:   cfg,
		store:    store,
		s3client: o.s3client,
		logger:   o.logger,
		emitter:  emitter,
	}, nil
}

func newSession(cfg Config) (*session.Session, error) {
	return dynamo.NewSession(dynamo.SessionOptions{
		Region:  cfg.Region,
		Profile: cfg.Profile,
	})
}

// Config returns the validated configuration.
func (i *Ingestor) Config() Config {
	return i.config
}

// Run ingests r, whose first line is a header.
// Every log line of the run carries a fresh run_id, also set on the report.
// It blocks until the input is exhausted, a batch fails, or ctx is cancelled.
// The report is valid in every case.
func (i *Ingestor) Run(ctx context.Context, r io.Reader) (Report, error) {
	runID := uuid.NewString()
	logger := log.With(i.logger, log.String("run_id", runID))

	ing := app.NewIngestor(app.IngestorConfig{
		Table:                i.config.Table,
		Columns:              i.config.Columns,
		Delimiter:            i.config.Delimiter,
		MaxRecordsPerBatch:   i.config.MaxRecordsPerBatch,
		MaxConcurrentBatches: i.config.MaxConcurrentBatches,
		BatchDelay:           i.config.BatchDelay,
		MaxRetries:           i.config.MaxRetries,
		RetryBackoff:         i.config.RetryBackoff,
	}, i.store, logger, i.emitter)
	report, err := ing.Run(ctx, r)
	report.RunID = runID
	return report, err
}

// s3Client returns the client set with WithS3Client, or builds one from the
// AWS settings on first use.
func (i *Ingestor) s3Client() (s3iface.S3API, error) {
	i.s3once.Do(func() {
		if i.s3client != nil {
			return
		}
		sess, err := newSession(i.config)
		if err != nil {
			i.s3err = err
			return
		}
		i.s3client = s3.New(sess)
	})
	return i.s3client, i.s3err
}

// IngestFile opens name (a path, "-" for stdin, or an s3://bucket/key URL)
// and ingests it. It is safe to call concurrently.
func (i *Ingestor) IngestFile(ctx context.Context, name string) (Report, error) {
	var client s3iface.S3API
	if source.IsS3(name) {
		c, err := i.s3Client()
		if err != nil {
			return Report{}, err
		}
		client = c
	}

	rc, err := source.Open(ctx, name, client)
	if err != nil {
		return Report{}, err
	}
	defer rc.Close()

	i.logger.Info("ingesting", ports.String("source", name), ports.String("table", i.config.Table))
	return i.Run(ctx, rc)
}
