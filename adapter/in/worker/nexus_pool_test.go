package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"nexus_server/core/port/out"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecutor struct {
	mu    sync.Mutex
	tasks []out.SyncTask
	block bool
}

func (e *recordingExecutor) Execute(ctx context.Context, task out.SyncTask) {
	if e.block {
		<-ctx.Done()
	}
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	e.mu.Unlock()
}

func (e *recordingExecutor) Tasks() []out.SyncTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]out.SyncTask(nil), e.tasks...)
}

func newTestPool(t *testing.T, exec SyncExecutor, timeout time.Duration) *Pool {
	t.Helper()
	cfg := &PoolConfig{Workers: 2, WorkerChanSize: 4, JobTimeout: timeout}
	p := NewPool(NewHandler(NewSyncProcessor(exec)), cfg, zerolog.Nop())
	require.NoError(t, p.Start())
	return p
}

func stop(t *testing.T, p *Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.Stop(ctx)
}

func TestPool_EnqueueSyncRunsTask(t *testing.T) {
	exec := &recordingExecutor{}
	p := newTestPool(t, exec, time.Second)

	tasks := []out.SyncTask{
		{RunID: uuid.New(), Email: "a@example.com"},
		{RunID: uuid.New(), Email: "b@example.com"},
	}
	for _, task := range tasks {
		require.NoError(t, p.EnqueueSync(context.Background(), task))
	}
	stop(t, p)

	assert.ElementsMatch(t, tasks, exec.Tasks())
	m := p.GetMetrics()
	assert.Equal(t, int64(2), m.JobsSubmitted)
	assert.Equal(t, int64(2), m.JobsProcessed)
	assert.Equal(t, int64(0), m.JobsFailed)
	assert.Equal(t, int32(0), m.InFlight)
	assert.Equal(t, 2, m.Latency.Samples)
}

func TestPool_EnqueueAfterStop(t *testing.T) {
	p := newTestPool(t, &recordingExecutor{}, time.Second)
	stop(t, p)

	err := p.EnqueueSync(context.Background(), out.SyncTask{RunID: uuid.New(), Email: "a@example.com"})
	assert.ErrorIs(t, err, out.ErrQueueClosed)
}

func TestPool_EnqueueBeforeStart(t *testing.T) {
	p := NewPool(NewHandler(NewSyncProcessor(&recordingExecutor{})), nil, zerolog.Nop())
	err := p.EnqueueSync(context.Background(), out.SyncTask{RunID: uuid.New(), Email: "a@example.com"})
	assert.ErrorIs(t, err, out.ErrQueueClosed)
}

func TestPool_EnqueueCanceledContext(t *testing.T) {
	p := newTestPool(t, &recordingExecutor{}, time.Second)
	defer stop(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.EnqueueSync(ctx, out.SyncTask{RunID: uuid.New(), Email: "a@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_JobTimeout(t *testing.T) {
	exec := &recordingExecutor{block: true}
	p := newTestPool(t, exec, 50*time.Millisecond)

	require.NoError(t, p.EnqueueSync(context.Background(), out.SyncTask{RunID: uuid.New(), Email: "slow@example.com"}))
	stop(t, p)

	require.Len(t, exec.Tasks(), 1)
	m := p.GetMetrics()
	assert.Equal(t, int64(1), m.JobsTimedOut)
	assert.Equal(t, int64(1), m.JobsProcessed)
}

func TestPool_BadMessageCountsAsFailure(t *testing.T) {
	exec := &recordingExecutor{}
	p := newTestPool(t, exec, time.Second)

	require.True(t, p.Submit(NewMessage(JobInterviewSync, map[string]any{"run_id": "nope", "email": "a@example.com"})))
	require.True(t, p.Submit(NewMessage("mail.unknown", nil)))
	stop(t, p)

	assert.Empty(t, exec.Tasks())
	assert.Equal(t, int64(2), p.GetMetrics().JobsFailed)
}

func TestSyncProcessor_ProcessSync(t *testing.T) {
	runID := uuid.New()

	tests := []struct {
		name    string
		payload map[string]any
		wantErr bool
	}{
		{"valid", map[string]any{"run_id": runID.String(), "email": "a@example.com"}, false},
		{"bad run id", map[string]any{"run_id": "x", "email": "a@example.com"}, true},
		{"missing email", map[string]any{"run_id": runID.String()}, true},
		{"wrong type", map[string]any{"run_id": 12, "email": "a@example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &recordingExecutor{}
			err := NewSyncProcessor(exec).ProcessSync(context.Background(), NewMessage(JobInterviewSync, tt.payload))
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, exec.Tasks())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []out.SyncTask{{RunID: runID, Email: "a@example.com"}}, exec.Tasks())
		})
	}
}

func TestHandler_UnknownJob(t *testing.T) {
	h := NewHandler(NewSyncProcessor(&recordingExecutor{}))
	err := h.Process(context.Background(), NewMessage("report.generate", nil))
	assert.ErrorIs(t, err, ErrUnknownJob)
}
