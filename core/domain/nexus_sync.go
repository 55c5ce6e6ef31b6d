package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSyncRunNotFound = errors.New("sync run not found")

type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusSucceeded SyncStatus = "succeeded"
	SyncStatusAborted   SyncStatus = "aborted"
	SyncStatusFailed    SyncStatus = "failed"
)

// Terminal reports whether no further transitions happen from s.
func (s SyncStatus) Terminal() bool {
	switch s {
	case SyncStatusSucceeded, SyncStatusAborted, SyncStatusFailed:
		return true
	}
	return false
}

// Abort reasons recorded on aborted runs.
const (
	ReasonUserNotFound = "user_not_found"
	ReasonTokenExpired = "token_expired"
)

// SyncReport is the outcome of one orchestrator pass.
type SyncReport struct {
	Status             SyncStatus `json:"status"`
	Reason             string     `json:"reason,omitempty"`
	MessagesScanned    int        `json:"messages_scanned"`
	InterviewsCreated  int        `json:"interviews_created"`
	DuplicatesSkipped  int        `json:"duplicates_skipped"`
	ExtractionFailures int        `json:"extraction_failures"`
	BodiesMissing      int        `json:"bodies_missing"`
}

// SyncRun is the recorded lifecycle of one detached sync.
type SyncRun struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	UserEmail          string     `json:"user_email" db:"user_email"`
	Status             SyncStatus `json:"status" db:"status"`
	Reason             string     `json:"reason,omitempty" db:"reason"`
	MessagesScanned    int        `json:"messages_scanned" db:"messages_scanned"`
	InterviewsCreated  int        `json:"interviews_created" db:"interviews_created"`
	DuplicatesSkipped  int        `json:"duplicates_skipped" db:"duplicates_skipped"`
	ExtractionFailures int        `json:"extraction_failures" db:"extraction_failures"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	StartedAt          *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// Apply copies a report's outcome onto the run.
func (r *SyncRun) Apply(rep *SyncReport) {
	r.Status = rep.Status
	r.Reason = rep.Reason
	r.MessagesScanned = rep.MessagesScanned
	r.InterviewsCreated = rep.InterviewsCreated
	r.DuplicatesSkipped = rep.DuplicatesSkipped
	r.ExtractionFailures = rep.ExtractionFailures
}
