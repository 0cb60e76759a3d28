package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grocerytrack/receipt-parser/internal/parser"
	"github.com/grocerytrack/receipt-parser/internal/repository"
)

// Job is one receipt file waiting to be parsed.
type Job struct {
	ID          uuid.UUID
	Path        string
	Method      string
	SubmittedAt time.Time
}

// JobResult pairs a job with its outcome, delivered on the Results channel.
type JobResult struct {
	Job       Job
	Result    parser.Result
	ReceiptID uuid.UUID
	Err       error
}

var ErrQueueClosed = errors.New("queue closed")
var ErrQueueFull = errors.New("queue full")

// ParseQueue fans receipt files out to a fixed pool of workers, each
// running the full parse pipeline and persisting the result. Results are
// also surfaced on a channel for callers that want them.
type ParseQueue struct {
	orch   *parser.Orchestrator
	store  repository.Store
	logger *slog.Logger

	workers      int
	queueSize    int
	parseTimeout time.Duration

	jobs    chan Job
	results chan JobResult
	abort   chan struct{}
	wg      sync.WaitGroup
	closed  sync.Once
}

type Option func(*ParseQueue)

func WithWorkers(n int) Option {
	return func(q *ParseQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ParseQueue) {
		if n > 0 {
			q.queueSize = n
		}
	}
}

func WithParseTimeout(d time.Duration) Option {
	return func(q *ParseQueue) {
		if d > 0 {
			q.parseTimeout = d
		}
	}
}

// NewParseQueue starts the worker pool immediately. The store may be nil;
// parsed results are then only delivered on Results.
func NewParseQueue(orch *parser.Orchestrator, store repository.Store, logger *slog.Logger, opts ...Option) *ParseQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ParseQueue{
		orch:         orch,
		store:        store,
		logger:       logger,
		workers:      4,
		queueSize:    256,
		parseTimeout: 3 * time.Minute,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.queueSize)
	q.results = make(chan JobResult, q.queueSize)
	q.abort = make(chan struct{})

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.logger.Info("queue.started", "workers", q.workers, "queue_size", q.queueSize)
	return q
}

// Enqueue submits a job without blocking; a full queue is an error so
// callers can apply backpressure.
func (q *ParseQueue) Enqueue(ctx context.Context, job Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.jobs <- job:
		q.logger.Debug("queue.enqueued", "job_id", job.ID, "path", job.Path)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Results delivers one JobResult per processed job. The channel closes
// after Shutdown drains the pool.
func (q *ParseQueue) Results() <-chan JobResult {
	return q.results
}

// Shutdown stops intake, waits for in-flight jobs, and closes Results.
// On context expiry pending result deliveries are abandoned (each one
// logged) so the pool can still exit. Safe to call more than once.
func (q *ParseQueue) Shutdown(ctx context.Context) {
	q.closed.Do(func() {
		close(q.jobs)
		done := make(chan struct{})
		go func() {
			q.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			q.logger.Info("queue.drained")
		case <-ctx.Done():
			q.logger.Warn("queue.shutdown_timeout")
			close(q.abort)
			<-done
		}
		close(q.results)
	})
}

func (q *ParseQueue) worker(id int) {
	defer q.wg.Done()
	for job := range q.jobs {
		q.process(id, job)
	}
}

func (q *ParseQueue) process(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.parseTimeout)
	defer cancel()

	start := time.Now()
	res := q.orch.Parse(ctx, parser.Request{FilePath: job.Path, Method: job.Method})

	out := JobResult{Job: job, Result: res}
	if res.Success && q.store != nil {
		receiptID, err := q.store.Save(ctx, repository.SaveRequest{
			Record:     res.Data,
			Method:     res.Method,
			Confidence: res.Confidence,
			SourcePath: job.Path,
		})
		out.ReceiptID = receiptID
		out.Err = err
	} else if !res.Success {
		out.Err = errors.New(res.Error)
	}

	q.logger.Info("queue.job_done",
		"worker", workerID,
		"job_id", job.ID,
		"path", job.Path,
		"success", res.Success,
		"method", res.Method,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	// Delivery blocks so no result is ever lost while a consumer is
	// draining; only an abandoned shutdown releases the send.
	select {
	case q.results <- out:
	case <-q.abort:
		q.logger.Warn("queue.result_dropped", "job_id", job.ID, "path", job.Path)
	}
}
