package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerytrack/receipt-parser/constants"
	"github.com/grocerytrack/receipt-parser/internal/parser"
	"github.com/grocerytrack/receipt-parser/internal/repository"
)

type fakeOCR struct {
	texts map[string]string
}

func (f *fakeOCR) ExtractText(ctx context.Context, path string) (string, error) {
	if text, ok := f.texts[path]; ok {
		return text, nil
	}
	return "", errors.New("unreadable file")
}

type memStore struct {
	saved []repository.SaveRequest
}

func (m *memStore) Save(ctx context.Context, req repository.SaveRequest) (uuid.UUID, error) {
	m.saved = append(m.saved, req)
	return uuid.New(), nil
}

func (m *memStore) List(ctx context.Context, filter repository.ListFilter) ([]repository.StoredReceipt, error) {
	return nil, nil
}

func (m *memStore) Close() error { return nil }

const receiptText = "CORNER MARKET\nEGGS 3.49\nTOTAL 3.49"

func TestQueueProcessesAndPersists(t *testing.T) {
	ocr := &fakeOCR{texts: map[string]string{
		"a.txt": receiptText,
		"b.txt": receiptText,
	}}
	store := &memStore{}
	orch := parser.NewOrchestrator(ocr, nil, nil)

	q := NewParseQueue(orch, store, nil, WithWorkers(2), WithQueueSize(8))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "a.txt"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "b.txt"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	var results []JobResult
	for res := range q.Results() {
		results = append(results, res)
	}
	require.Len(t, results, 2)
	for _, res := range results {
		assert.NoError(t, res.Err)
		assert.True(t, res.Result.Success)
		assert.Equal(t, constants.MethodOCROnly, res.Result.Method)
		assert.NotEqual(t, uuid.Nil, res.ReceiptID)
	}
	assert.Len(t, store.saved, 2)
}

func TestQueueSurfacesParseFailures(t *testing.T) {
	orch := parser.NewOrchestrator(&fakeOCR{}, nil, nil)
	q := NewParseQueue(orch, &memStore{}, nil, WithWorkers(1))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "broken.txt"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	var results []JobResult
	for res := range q.Results() {
		results = append(results, res)
	}
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.False(t, results[0].Result.Success)
}

type blockingOCR struct {
	release chan struct{}
}

func (b *blockingOCR) ExtractText(ctx context.Context, path string) (string, error) {
	<-b.release
	return receiptText, nil
}

func TestQueueFullReturnsError(t *testing.T) {
	// One blocked worker plus a single-slot buffer: at most two of three
	// submissions can be accepted before the queue reports backpressure.
	ocr := &blockingOCR{release: make(chan struct{})}
	orch := parser.NewOrchestrator(ocr, nil, nil)
	q := NewParseQueue(orch, nil, nil, WithWorkers(1), WithQueueSize(1))

	errs := 0
	for i := 0; i < 3; i++ {
		if err := q.Enqueue(context.Background(), Job{Path: "x.txt"}); errors.Is(err, ErrQueueFull) {
			errs++
		}
	}
	assert.GreaterOrEqual(t, errs, 1)

	close(ocr.release)
	go func() {
		for range q.Results() {
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	q.Shutdown(ctx)
}

func TestQueueDeliversEveryResult(t *testing.T) {
	ocr := &fakeOCR{texts: map[string]string{"a.txt": receiptText}}
	orch := parser.NewOrchestrator(ocr, nil, nil)
	q := NewParseQueue(orch, nil, nil, WithWorkers(2), WithQueueSize(2))

	const jobs = 20
	delivered := make(chan int)
	go func() {
		n := 0
		for range q.Results() {
			n++
		}
		delivered <- n
	}()

	for i := 0; i < jobs; i++ {
		for {
			err := q.Enqueue(context.Background(), Job{Path: "a.txt"})
			if err == nil {
				break
			}
			require.ErrorIs(t, err, ErrQueueFull)
			time.Sleep(time.Millisecond)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.Equal(t, jobs, <-delivered)
}

func TestQueueAssignsJobIdentity(t *testing.T) {
	ocr := &fakeOCR{texts: map[string]string{"a.txt": receiptText}}
	orch := parser.NewOrchestrator(ocr, nil, nil)
	q := NewParseQueue(orch, nil, nil, WithWorkers(1))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "a.txt"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	res := <-q.Results()
	assert.NotEqual(t, uuid.Nil, res.Job.ID)
	assert.False(t, res.Job.SubmittedAt.IsZero())
}
