package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/contextcat/internal/aggregate"
	"github.com/dgallion1/contextcat/internal/config"
	"github.com/dgallion1/contextcat/internal/vault"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("pipeline stopped")

// Orchestrator serializes aggregation runs. A single runner drains the
// queue, so two runs never write the same document concurrently.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	stats  *RunStats
	log    *slog.Logger
	cfg    config.Config

	mu      sync.Mutex
	pending map[string]*Job // queued jobs by active path
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to begin processing.
func NewOrchestrator(cfg config.Config, agg *aggregate.Aggregator, w vault.Writer, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		worker:  NewWorker(agg, w, log),
		stats:   NewRunStats(cfg.JobTTL),
		log:     log,
		cfg:     cfg,
		pending: make(map[string]*Job),
	}
}

// Start launches the runner goroutine.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case job, ok := <-o.queue:
				if !ok {
					return
				}
				o.run(workerCtx, job)
			}
		}
	}()

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

func (o *Orchestrator) run(ctx context.Context, job *Job) {
	o.mu.Lock()
	if o.pending[job.Request().ActivePath] == job {
		delete(o.pending, job.Request().ActivePath)
	}
	o.mu.Unlock()

	start := time.Now()
	o.worker.Process(ctx, job)
	elapsed := time.Since(start)
	job.SetDuration(elapsed)
	o.stats.Record(elapsed.Milliseconds(), job.Snapshot().Status)
}

// Stop gracefully shuts down the pipeline. Jobs still queued are failed.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()

	for job := range o.queue {
		job.SetStatus(StatusFailed, "shutdown")
	}
}

// Submit queues job. When a job for the same active document is still
// waiting, that job takes over job's request and is returned instead, so a
// burst of triggers results in a single run with the latest settings.
func (o *Orchestrator) Submit(job *Job) (*Job, error) {
	req := job.Request()

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopped {
		return nil, ErrStopped
	}
	if queued, ok := o.pending[req.ActivePath]; ok && queued.SetRequest(req) {
		return queued, nil
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.pending[req.ActivePath] = job
		return job, nil
	default:
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queue_full")
		return nil, fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the rolling run statistics.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}
