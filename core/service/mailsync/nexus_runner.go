package mailsync

import (
	"context"
	"fmt"
	"time"

	"nexus_server/core/domain"
	"nexus_server/core/port/out"
	"nexus_server/pkg/logger"

	"github.com/google/uuid"
)

const defaultRunsLimit = 20

var ErrRunNotFound = domain.ErrSyncRunNotFound

type syncer interface {
	Sync(ctx context.Context, email string) (*domain.SyncReport, error)
}

// Runner records each sync as a run, hands it to background workers and
// stores its terminal status so callers can look it up later.
type Runner struct {
	orch  syncer
	runs  out.SyncRunRepository
	queue out.TaskQueue
	now   func() time.Time
}

func NewRunner(orch *Orchestrator, runs out.SyncRunRepository) *Runner {
	return &Runner{orch: orch, runs: runs, now: time.Now}
}

// SetQueue attaches the background queue. Start fails until one is set.
func (r *Runner) SetQueue(q out.TaskQueue) {
	r.queue = q
}

// Start records a pending run and enqueues it. It does not wait for the sync.
func (r *Runner) Start(ctx context.Context, email string) (*domain.SyncRun, error) {
	if r.queue == nil {
		return nil, out.ErrQueueClosed
	}

	run := &domain.SyncRun{
		ID:        uuid.New(),
		UserEmail: email,
		Status:    domain.SyncStatusPending,
		CreatedAt: r.now().UTC(),
	}
	if err := r.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("record sync run: %w", err)
	}

	if err := r.queue.EnqueueSync(ctx, out.SyncTask{RunID: run.ID, Email: email}); err != nil {
		r.finish(context.WithoutCancel(ctx), run, &domain.SyncReport{Status: domain.SyncStatusFailed, Reason: err.Error()})
		return nil, fmt.Errorf("enqueue sync: %w", err)
	}

	logger.WithContext(ctx).WithField("run_id", run.ID.String()).Info("[Runner.Start] sync queued for %s", email)
	return run, nil
}

// Execute runs a queued sync to completion. Errors and panics stop here:
// they are logged and recorded on the run, never returned to the worker.
func (r *Runner) Execute(ctx context.Context, task out.SyncTask) {
	log := logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":     task.RunID.String(),
		"user_email": task.Email,
	})

	run := &domain.SyncRun{ID: task.RunID, UserEmail: task.Email}
	if err := r.runs.MarkRunning(ctx, task.RunID); err != nil {
		log.WithError(err).Warn("[Runner.Execute] could not mark run as running")
	}
	started := r.now().UTC()
	run.StartedAt = &started

	report := r.safeSync(ctx, log, task.Email)
	r.finish(context.WithoutCancel(ctx), run, report)

	log = log.WithField("status", string(report.Status)).WithDuration(r.now().Sub(started))
	switch report.Status {
	case domain.SyncStatusSucceeded:
		log.Info("[Runner.Execute] sync finished")
	case domain.SyncStatusAborted:
		log.WithField("reason", report.Reason).Warn("[Runner.Execute] sync aborted")
	default:
		log.WithField("reason", report.Reason).Error("[Runner.Execute] sync failed")
	}
}

func (r *Runner) safeSync(ctx context.Context, log *logger.Logger, email string) (report *domain.SyncReport) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("[Runner.Execute] panic during sync: %v", p)
			report = &domain.SyncReport{Status: domain.SyncStatusFailed, Reason: fmt.Sprintf("panic: %v", p)}
		}
	}()

	report, err := r.orch.Sync(ctx, email)
	if report == nil {
		report = &domain.SyncReport{Status: domain.SyncStatusFailed}
	}
	if err != nil {
		report.Status = domain.SyncStatusFailed
		report.Reason = err.Error()
	}
	return report
}

func (r *Runner) finish(ctx context.Context, run *domain.SyncRun, report *domain.SyncReport) {
	run.Apply(report)
	finished := r.now().UTC()
	run.FinishedAt = &finished
	if err := r.runs.Finish(ctx, run); err != nil {
		logger.WithError(err).WithField("run_id", run.ID.String()).Error("[Runner] could not record run result")
	}
}

// Runs lists the most recent runs for email.
func (r *Runner) Runs(ctx context.Context, email string, limit int) ([]*domain.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultRunsLimit
	}
	return r.runs.ListByEmail(ctx, email, limit)
}

// Run returns one run owned by email.
func (r *Runner) Run(ctx context.Context, email string, id uuid.UUID) (*domain.SyncRun, error) {
	run, err := r.runs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil || run.UserEmail != email {
		return nil, ErrRunNotFound
	}
	return run, nil
}
