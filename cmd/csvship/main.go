package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/csvship"
	"github.com/bft-labs/csvship/internal/cliconfig"
	"github.com/bft-labs/csvship/internal/metrics"
	"github.com/bft-labs/csvship/internal/watch"
	"github.com/bft-labs/csvship/pkg/log"
)

const longHelp = `
Load a delimited text file into a DynamoDB table.

Each line after the header becomes one item. Fields are mapped by position
onto the configured columns; empty values are left out of the item. Items are
written with BatchWriteItem, and anything the table reports as unprocessed is
resubmitted until it is accepted.

Highlights:
  - Streams input; only one super-batch is held in memory at a time.
  - Pauses between super-batches to stay under provisioned write capacity.
  - Stops at the first hard write error and reports the failing line range.
  - Reads local files, stdin ("-") or s3://bucket/key URLs.
`

var exampleUsage = strings.TrimSpace(`
  csvship products.csv --table Provider --columns GTIN,ProductDescription,SKU
  csvship s3://uploads/products.csv --region us-east-1 --concurrency 4
  csvship products.csv --endpoint http://localhost:8000 --log-level debug
  csvship watch /srv/inbox --include-existing
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	bootLog, _ := cliconfig.NewLogger("info")

	root := &cobra.Command{
		Use:           "csvship <file>",
		Short:         "Load a delimited text file into a DynamoDB table",
		Long:          strings.TrimSpace(longHelp),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg, cfgPath)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cfg, func(ctx context.Context, ing *csvship.Ingestor, logger log.Logger) error {
				report, err := ing.IngestFile(ctx, args[0])
				logReport(logger, report, err)
				return err
			})
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Ingest every file that lands in an inbox directory",
		Long: strings.TrimSpace(`
Watch a directory and ingest each matching file once it stops changing.
Files are ingested one at a time and then moved to processed/ or failed/
inside the directory.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cfg, func(ctx context.Context, ing *csvship.Ingestor, logger log.Logger) error {
				w, err := watch.New(cfg.WatchConfig(args[0]), func(ctx context.Context, path string) error {
					report, err := ing.IngestFile(ctx, path)
					logReport(log.With(logger, log.String("file", path)), report, err)
					return err
				}, logger)
				if err != nil {
					return err
				}
				return w.Run(ctx)
			})
		},
	}

	// Flags
	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.csvship/config.toml)")
	pf.StringVar(&cfg.Table, "table", cfg.Table, "destination DynamoDB table")
	pf.StringSliceVar(&cfg.Columns, "columns", cfg.Columns, "ordered list of recognized columns, mapped by position")
	pf.StringVar(&cfg.Delimiter, "delimiter", cfg.Delimiter, `field delimiter ("\t" or "tab" for tab)`)

	pf.IntVar(&cfg.MaxRecordsPerBatch, "batch-size", cfg.MaxRecordsPerBatch, "items per BatchWriteItem call (max 25)")
	pf.IntVar(&cfg.MaxConcurrentBatches, "concurrency", cfg.MaxConcurrentBatches, "batch writes in flight at once")
	pf.DurationVar(&cfg.BatchDelay, "batch-delay", cfg.BatchDelay, "pause after each super-batch")
	pf.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "resubmissions of unprocessed items per batch (0 = unlimited)")
	pf.DurationVar(&cfg.RetryBackoff, "retry-backoff", cfg.RetryBackoff, "initial delay before resubmitting unprocessed items (0 = none)")

	pf.StringVar(&cfg.Region, "region", cfg.Region, "AWS region")
	pf.StringVar(&cfg.Profile, "profile", cfg.Profile, "AWS shared credentials profile")
	pf.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "DynamoDB endpoint override (e.g. dynamodb-local)")

	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug shows every parsed line)")
	pf.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (e.g. :9102)")

	watchCmd.Flags().StringVar(&cfg.WatchPattern, "pattern", cfg.WatchPattern, "file name pattern to ingest")
	watchCmd.Flags().DurationVar(&cfg.WatchSettle, "settle", cfg.WatchSettle, "quiet period before a file is ingested")
	watchCmd.Flags().BoolVar(&cfg.WatchIncludeExisting, "include-existing", cfg.WatchIncludeExisting, "also ingest files already in the directory")

	root.AddCommand(watchCmd)

	if err := root.Execute(); err != nil {
		bootLog.Error("csvship", log.Err(err))
		os.Exit(1)
	}
}

// loadConfig layers the config file and CSVSHIP_* environment under any flags
// set on the command line, then validates the result.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgPath != "" && !cliconfig.FileExists(cfgPath) {
		return fmt.Errorf("config file %s not found", cfgPath)
	}
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}

	return cfg.Validate()
}

// withRuntime builds the logger, metrics endpoint and ingestor, and runs fn
// under a context cancelled by SIGINT or SIGTERM.
func withRuntime(cfg cliconfig.Config, fn func(ctx context.Context, ing *csvship.Ingestor, logger log.Logger) error) error {
	logger, err := cliconfig.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.Info("configuration",
		log.String("table", cfg.Table),
		log.Any("columns", cfg.Columns),
		log.Int("batch_size", cfg.MaxRecordsPerBatch),
		log.Int("concurrency", cfg.MaxConcurrentBatches),
		log.Duration("batch_delay", cfg.BatchDelay),
		log.Int("max_retries", cfg.MaxRetries),
		log.String("region", cfg.Region),
		log.String("endpoint", cfg.Endpoint),
	)

	opts := []csvship.Option{csvship.WithLogger(logger)}

	if cfg.MetricsAddr != "" {
		collector := metrics.NewCollector()
		opts = append(opts, csvship.WithEventHandler(collector))

		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", log.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", log.String("addr", cfg.MetricsAddr))
	}

	ing, err := csvship.New(cfg.LibConfig(), opts...)
	if err != nil {
		return err
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return fn(ctx, ing, logger)
}

func logReport(logger log.Logger, report csvship.Report, err error) {
	fields := []log.Field{
		log.String("run_id", report.RunID),
		log.Int("records", report.Records),
		log.Int("batches", report.Batches),
		log.Int("super_batches", report.SuperBatches),
		log.Int("items_written", report.ItemsWritten),
		log.Int("retries", report.Retries),
		log.Duration("elapsed", report.Duration),
	}
	if err == nil {
		logger.Info("upload finished", fields...)
		return
	}

	logger.Error("upload failed", append(fields, log.Err(err))...)
	for _, o := range report.Failed {
		logger.Error("failed batch",
			log.Int("batch", o.Index),
			log.Int("first_line", o.FirstLine),
			log.Int("last_line", o.LastLine),
			log.Int("attempts", o.Attempts),
			log.Err(o.Err),
		)
	}
}
