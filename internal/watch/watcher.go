// Package watch ingests files as they appear in an inbox directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/csvship/internal/ports"
)

// Defaults for Config.
const (
	DefaultPattern      = "*.csv"
	DefaultSettle       = 2 * time.Second
	DefaultProcessedDir = "processed"
	DefaultFailedDir    = "failed"
)

// IngestFunc ingests one file. A non-nil error marks the file as failed.
type IngestFunc func(ctx context.Context, path string) error

// Config controls which files are picked up and where they go afterwards.
type Config struct {
	// Dir is the inbox directory. Subdirectories are not watched.
	Dir string

	// Pattern is a filepath.Match pattern applied to file names.
	Pattern string

	// Settle is how long a file must go without write events before it is
	// ingested.
	Settle time.Duration

	// IncludeExisting queues files already present when the watcher starts.
	IncludeExisting bool

	// ProcessedDir and FailedDir receive files after ingestion. Relative
	// paths are resolved against Dir.
	ProcessedDir string
	FailedDir    string
}

// SetDefaults fills zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	if c.Pattern == "" {
		c.Pattern = DefaultPattern
	}
	if c.Settle <= 0 {
		c.Settle = DefaultSettle
	}
	if c.ProcessedDir == "" {
		c.ProcessedDir = DefaultProcessedDir
	}
	if c.FailedDir == "" {
		c.FailedDir = DefaultFailedDir
	}
}

// Watcher monitors an inbox directory via fsnotify and ingests matching files
// one at a time, in the order they settle.
type Watcher struct {
	cfg    Config
	ingest IngestFunc
	logger ports.Logger

	queue chan string

	mu      sync.Mutex
	pending map[string]*time.Timer
	queued  map[string]bool
}

// New creates a watcher. cfg.Dir is required.
func New(cfg Config, ingest IngestFunc, logger ports.Logger) (*Watcher, error) {
	cfg.SetDefaults()
	if cfg.Dir == "" {
		return nil, errors.New("watch: inbox directory is required")
	}
	if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
		return nil, fmt.Errorf("watch: invalid pattern %q: %w", cfg.Pattern, err)
	}
	return &Watcher{
		cfg:     cfg,
		ingest:  ingest,
		logger:  logger,
		queue:   make(chan string, 64),
		pending: make(map[string]*time.Timer),
		queued:  make(map[string]bool),
	}, nil
}

// Run watches the inbox until ctx is cancelled.
// It returns nil on cancellation and an error only if watching cannot start.
func (w *Watcher) Run(ctx context.Context) error {
	for _, d := range []string{w.processedDir(), w.failedDir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("watch: create %s: %w", d, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch: watch %s: %w", w.cfg.Dir, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.work(ctx)
	}()
	defer wg.Wait()
	defer w.stopTimers()

	if w.cfg.IncludeExisting {
		w.queueExisting(ctx)
	}

	w.logger.Info("watching inbox",
		ports.String("dir", w.cfg.Dir),
		ports.String("pattern", w.cfg.Pattern),
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			w.debounce(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", ports.Err(err))
		}
	}
}

func (w *Watcher) matches(path string) bool {
	ok, _ := filepath.Match(w.cfg.Pattern, filepath.Base(path))
	return ok
}

// debounce restarts the settle timer for path; the file is queued once no
// further events arrive for cfg.Settle.
func (w *Watcher) debounce(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.cfg.Settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.enqueue(ctx, path)
	})
}

func (w *Watcher) enqueue(ctx context.Context, path string) {
	w.mu.Lock()
	if w.queued[path] {
		w.mu.Unlock()
		return
	}
	w.queued[path] = true
	w.mu.Unlock()

	select {
	case w.queue <- path:
	case <-ctx.Done():
	}
}

func (w *Watcher) queueExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		w.logger.Warn("list inbox failed", ports.String("dir", w.cfg.Dir), ports.Err(err))
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && w.matches(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		w.enqueue(ctx, filepath.Join(w.cfg.Dir, name))
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// work ingests queued files sequentially.
func (w *Watcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			w.process(ctx, path)
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	defer func() {
		w.mu.Lock()
		delete(w.queued, path)
		w.mu.Unlock()
	}()

	if _, err := os.Stat(path); err != nil {
		// Already moved or removed.
		return
	}

	start := time.Now()
	err := w.ingest(ctx, path)
	if ctx.Err() != nil {
		// Interrupted runs stay in the inbox.
		return
	}

	dest := w.processedDir()
	if err != nil {
		dest = w.failedDir()
		w.logger.Error("file ingestion failed",
			ports.String("file", path),
			ports.Duration("elapsed", time.Since(start)),
			ports.Err(err),
		)
	} else {
		w.logger.Info("file ingested",
			ports.String("file", path),
			ports.Duration("elapsed", time.Since(start)),
		)
	}

	target := filepath.Join(dest, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		w.logger.Error("move file failed",
			ports.String("file", path),
			ports.String("target", target),
			ports.Err(err),
		)
	}
}

func (w *Watcher) processedDir() string { return w.resolve(w.cfg.ProcessedDir) }
func (w *Watcher) failedDir() string    { return w.resolve(w.cfg.FailedDir) }

func (w *Watcher) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(w.cfg.Dir, dir)
}
