package app

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/bft-labs/csvship/internal/domain"
	"github.com/bft-labs/csvship/internal/ports"
)

var testColumns = []string{"GTIN", "ProductDescription", "SKU"}

const testTable = "Provider"

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// fakeWriter records every call and answers with respond, if set.
// call is 1-based across all goroutines.
type fakeWriter struct {
	mu      sync.Mutex
	calls   []domain.WriteRequest
	respond func(call int, req domain.WriteRequest) (domain.UnprocessedSet, error)
}

func (f *fakeWriter) BatchWrite(ctx context.Context, req domain.WriteRequest) (domain.UnprocessedSet, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	n := len(f.calls)
	f.mu.Unlock()

	if f.respond == nil {
		return nil, nil
	}
	return f.respond(n, req)
}

func (f *fakeWriter) Calls() []domain.WriteRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.WriteRequest{}, f.calls...)
}

// mockEmitter tracks pipeline events for testing.
type mockEmitter struct {
	mu       sync.Mutex
	parsed   int
	written  []int
	retries  []int
	failed   []*domain.BatchError
	finished []int
}

func (m *mockEmitter) OnRecordParsed(line, bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parsed++
}

func (m *mockEmitter) OnBatchWritten(sb, b, items, attempts int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, b)
}

func (m *mockEmitter) OnRetry(sb, b, attempt, unprocessed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries = append(m.retries, unprocessed)
}

func (m *mockEmitter) OnBatchFailed(err *domain.BatchError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, err)
}

func (m *mockEmitter) OnSuperBatchDone(sb, batches, records int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, sb)
}

// record builds a record whose GTIN is its line number.
func record(line int) domain.Record {
	return domain.Record{
		Line: line,
		Fields: map[string]string{
			"GTIN":               strconv.Itoa(line),
			"ProductDescription": "item " + strconv.Itoa(line),
			"SKU":                "",
		},
	}
}

// batchOf builds a batch of n records starting at line first.
func batchOf(first, n int) *domain.Batch {
	b := domain.NewBatch(n)
	for i := 0; i < n; i++ {
		b.Add(record(first + i))
	}
	return b
}

// firstLine returns the line of the first item in req.
func firstLine(req domain.WriteRequest) int {
	for _, items := range req {
		if len(items) > 0 {
			return items[0].Line
		}
	}
	return 0
}

// csvInput builds a header plus n data lines.
func csvInput(n int) string {
	s := "GTIN,ProductDescription,SKU\n"
	for i := 1; i <= n; i++ {
		s += strconv.Itoa(i) + ",item " + strconv.Itoa(i) + ",SKU-" + strconv.Itoa(i) + "\n"
	}
	return s
}
