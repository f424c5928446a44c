package csvship

import (
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/bft-labs/csvship/internal/domain"
	"github.com/bft-labs/csvship/internal/ports"
	"github.com/bft-labs/csvship/pkg/log"
)

// BatchWriter is the store the pipeline writes to.
// It receives put operations keyed by table and returns the ones it did not
// commit. The DynamoDB implementation is used unless WithStore overrides it.
type BatchWriter = ports.BatchWriter

// WriteRequest maps a table to the put operations addressed to it.
type WriteRequest = domain.WriteRequest

// WriteItem is a single put operation built from one input line.
type WriteItem = domain.WriteItem

// UnprocessedSet holds the items a store call did not commit.
type UnprocessedSet = domain.UnprocessedSet

// Logger is the interface for structured logging.
type Logger = log.Logger

// Option configures optional behavior of an Ingestor.
type Option func(*options)

// options holds the optional configuration for an Ingestor.
type options struct {
	store        BatchWriter
	s3client     s3iface.S3API
	logger       Logger
	eventHandler EventHandler
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithStore replaces the DynamoDB writer, e.g. with an in-memory fake.
func WithStore(store BatchWriter) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithS3Client sets the client used to read s3:// inputs.
// If not provided, one is created on first use from the AWS settings.
func WithS3Client(client s3iface.S3API) Option {
	return func(o *options) {
		o.s3client = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventHandler sets a handler for pipeline events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}
