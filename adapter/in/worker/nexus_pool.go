package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"nexus_server/core/port/out"
	"nexus_server/pkg/metrics"

	"github.com/go-pkgz/pool"
	"github.com/rs/zerolog"
)

// PoolConfig holds worker pool configuration.
type PoolConfig struct {
	Workers        int           // concurrent jobs
	WorkerChanSize int           // buffered jobs per worker
	JobTimeout     time.Duration // upper bound on one job
	ReportInterval time.Duration // metrics log interval, zero disables
}

// DefaultPoolConfig returns default pool configuration.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Workers:        4,
		WorkerChanSize: 16,
		JobTimeout:     5 * time.Minute,
		ReportInterval: time.Minute,
	}
}

// Pool runs background jobs on a go-pkgz/pool worker group.
// Failed jobs are logged and counted; nothing is retried.
type Pool struct {
	handler *Handler
	config  *PoolConfig

	pool *pool.WorkerGroup[*Message]

	ctx    context.Context
	cancel context.CancelFunc

	metrics *PoolMetrics
	latency *metrics.LatencyTracker
	log     zerolog.Logger

	started bool
	mu      sync.RWMutex
	done    chan struct{}
}

var _ out.TaskQueue = (*Pool)(nil)

// PoolMetrics holds pool metrics.
type PoolMetrics struct {
	JobsSubmitted int64
	JobsProcessed int64
	JobsFailed    int64
	JobsTimedOut  int64
	InFlight      int32
	Latency       metrics.LatencyStats
}

// ToMap renders the snapshot for the health endpoint.
func (m PoolMetrics) ToMap() map[string]any {
	return map[string]any{
		"submitted": m.JobsSubmitted,
		"processed": m.JobsProcessed,
		"failed":    m.JobsFailed,
		"timed_out": m.JobsTimedOut,
		"in_flight": m.InFlight,
		"latency":   m.Latency.ToMap(),
	}
}

// messageWorker implements pool.Worker interface for Message processing.
type messageWorker struct {
	pool *Pool
}

// Do implements pool.Worker interface.
func (w *messageWorker) Do(ctx context.Context, msg *Message) error {
	return w.pool.processJob(ctx, msg)
}

// NewPool creates a worker pool. Call Start before submitting.
func NewPool(handler *Handler, config *PoolConfig, log zerolog.Logger) *Pool {
	if config == nil {
		config = DefaultPoolConfig()
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.WorkerChanSize <= 0 {
		config.WorkerChanSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		handler: handler,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		metrics: &PoolMetrics{},
		latency: metrics.NewLatencyTracker(256),
		log:     log.With().Str("component", "worker_pool").Logger(),
		done:    make(chan struct{}),
	}
}

// Start starts the worker pool.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}

	worker := &messageWorker{pool: p}
	p.pool = pool.New[*Message](p.config.Workers, worker).
		WithBatchSize(1).
		WithWorkerChanSize(p.config.WorkerChanSize).
		WithContinueOnError()

	if err := p.pool.Go(p.ctx); err != nil {
		p.log.Error().Err(err).Msg("failed to start pool")
		return err
	}
	p.started = true

	if p.config.ReportInterval > 0 {
		go p.metricsReporter()
	}

	p.log.Info().
		Int("workers", p.config.Workers).
		Dur("job_timeout", p.config.JobTimeout).
		Msg("worker pool started")
	return nil
}

// Stop stops accepting jobs and waits for in-flight ones until ctx expires,
// then cancels whatever is still running.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	p.mu.Unlock()

	p.log.Info().Msg("stopping worker pool...")

	err := p.pool.Close(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		p.log.Warn().Err(err).Msg("error closing pool")
	}
	p.cancel()
	close(p.done)

	m := p.GetMetrics()
	p.log.Info().
		Int64("processed", m.JobsProcessed).
		Int64("failed", m.JobsFailed).
		Msg("worker pool stopped")
	return err
}

// Submit queues a job. It returns false once the pool is stopped.
func (p *Pool) Submit(msg *Message) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started || p.pool == nil {
		return false
	}

	p.pool.Submit(msg)
	atomic.AddInt64(&p.metrics.JobsSubmitted, 1)
	return true
}

// EnqueueSync implements out.TaskQueue.
func (p *Pool) EnqueueSync(ctx context.Context, task out.SyncTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.Submit(syncMessage(task)) {
		return out.ErrQueueClosed
	}
	return nil
}

// processJob processes a single job with timeout.
func (p *Pool) processJob(ctx context.Context, msg *Message) error {
	start := time.Now()
	atomic.AddInt32(&p.metrics.InFlight, 1)
	defer atomic.AddInt32(&p.metrics.InFlight, -1)

	jobCtx := ctx
	if p.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, p.config.JobTimeout)
		defer cancel()
	}

	err := p.handler.Process(jobCtx, msg)
	if err == nil && errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		atomic.AddInt64(&p.metrics.JobsTimedOut, 1)
		p.log.Warn().
			Str("job_id", msg.ID).
			Str("job_type", msg.Type).
			Dur("timeout", p.config.JobTimeout).
			Msg("job timed out")
	}

	p.latency.Record(time.Since(start))

	if err != nil {
		atomic.AddInt64(&p.metrics.JobsFailed, 1)
		p.log.Error().
			Err(err).
			Str("job_id", msg.ID).
			Str("job_type", msg.Type).
			Msg("job processing failed")
		return err
	}

	atomic.AddInt64(&p.metrics.JobsProcessed, 1)
	return nil
}

// metricsReporter periodically logs metrics.
func (p *Pool) metricsReporter() {
	ticker := time.NewTicker(p.config.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			m := p.GetMetrics()
			p.log.Info().
				Int64("submitted", m.JobsSubmitted).
				Int64("processed", m.JobsProcessed).
				Int64("failed", m.JobsFailed).
				Int64("timed_out", m.JobsTimedOut).
				Dur("p95", m.Latency.P95).
				Int32("in_flight", m.InFlight).
				Msg("worker pool metrics")
		}
	}
}

// GetMetrics returns current pool metrics.
func (p *Pool) GetMetrics() PoolMetrics {
	return PoolMetrics{
		JobsSubmitted: atomic.LoadInt64(&p.metrics.JobsSubmitted),
		JobsProcessed: atomic.LoadInt64(&p.metrics.JobsProcessed),
		JobsFailed:    atomic.LoadInt64(&p.metrics.JobsFailed),
		JobsTimedOut:  atomic.LoadInt64(&p.metrics.JobsTimedOut),
		InFlight:      atomic.LoadInt32(&p.metrics.InFlight),
		Latency:       p.latency.Stats(),
	}
}
