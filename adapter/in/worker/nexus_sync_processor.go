package worker

import (
	"context"
	"fmt"

	"nexus_server/core/port/out"

	"github.com/google/uuid"
)

// SyncExecutor runs one recorded sync and stores its outcome.
type SyncExecutor interface {
	Execute(ctx context.Context, task out.SyncTask)
}

// SyncProcessor turns queued messages back into sync tasks.
type SyncProcessor struct {
	executor SyncExecutor
}

func NewSyncProcessor(executor SyncExecutor) *SyncProcessor {
	return &SyncProcessor{executor: executor}
}

// ProcessSync only fails on a malformed payload. Sync outcomes are recorded by the executor.
func (p *SyncProcessor) ProcessSync(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[SyncPayload](msg)
	if err != nil {
		return fmt.Errorf("invalid sync payload: %w", err)
	}

	runID, err := uuid.Parse(payload.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", payload.RunID, err)
	}
	if payload.Email == "" {
		return fmt.Errorf("sync payload for run %s has no email", runID)
	}

	p.executor.Execute(ctx, out.SyncTask{RunID: runID, Email: payload.Email})
	return nil
}

func syncMessage(task out.SyncTask) *Message {
	return NewMessage(JobInterviewSync, map[string]any{
		"run_id": task.RunID.String(),
		"email":  task.Email,
	})
}
