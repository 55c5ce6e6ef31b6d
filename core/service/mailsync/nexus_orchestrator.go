package mailsync

import (
	"context"
	"errors"
	"fmt"

	"nexus_server/core/domain"
	"nexus_server/core/port/out"
	"nexus_server/pkg/logger"
)

const (
	DefaultQuery       = "subject:(interview) newer_than:14d"
	DefaultMaxMessages = 5
)

// Credentials is the part of the credential store a sync needs.
type Credentials interface {
	GetUser(ctx context.Context, email string) (*domain.User, error)
	DecryptAccessToken(u *domain.User) (string, error)
}

type Extractor interface {
	Extract(ctx context.Context, emailText string) domain.ExtractionResult
}

type Options struct {
	Query       string
	MaxMessages int64
}

// Orchestrator scans a mailbox for interview emails and stores new interviews.
type Orchestrator struct {
	creds      Credentials
	mail       out.MailProvider
	extractor  Extractor
	interviews out.InterviewRepository
	opts       Options
}

func NewOrchestrator(
	creds Credentials,
	mail out.MailProvider,
	extractor Extractor,
	interviews out.InterviewRepository,
	opts Options,
) *Orchestrator {
	if opts.Query == "" {
		opts.Query = DefaultQuery
	}
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = DefaultMaxMessages
	}
	return &Orchestrator{
		creds:      creds,
		mail:       mail,
		extractor:  extractor,
		interviews: interviews,
		opts:       opts,
	}
}

// Sync runs one pass for email. Aborts (unknown user, expired token) are
// reported in the returned report with a nil error; a non-nil error means
// the run failed and the report carries status failed.
func (o *Orchestrator) Sync(ctx context.Context, email string) (*domain.SyncReport, error) {
	log := logger.WithContext(ctx).WithField("user_email", email)
	report := &domain.SyncReport{Status: domain.SyncStatusRunning}

	user, err := o.creds.GetUser(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		log.Warn("[Orchestrator.Sync] no stored credentials, aborting")
		return abort(report, domain.ReasonUserNotFound), nil
	}
	if err != nil {
		return failRun(report, fmt.Errorf("load user: %w", err))
	}

	token, err := o.creds.DecryptAccessToken(user)
	if err != nil {
		return failRun(report, err)
	}

	ids, err := o.mail.ListMessageIDs(ctx, token, o.opts.Query, o.opts.MaxMessages)
	if err != nil {
		return o.mailError(log, report, err)
	}
	log.Info("[Orchestrator.Sync] %d candidate messages", len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return failRun(report, err)
		}

		msg, err := o.mail.GetMessage(ctx, token, id)
		if err != nil {
			return o.mailError(log.WithField("message_id", id), report, err)
		}
		report.MessagesScanned++

		if err := o.processMessage(ctx, log.WithField("message_id", id), user, msg, report); err != nil {
			return failRun(report, err)
		}
	}

	report.Status = domain.SyncStatusSucceeded
	log.WithFields(map[string]any{
		"scanned":    report.MessagesScanned,
		"created":    report.InterviewsCreated,
		"duplicates": report.DuplicatesSkipped,
		"failures":   report.ExtractionFailures,
	}).Info("[Orchestrator.Sync] completed")
	return report, nil
}

// processMessage returns an error only for storage failures.
func (o *Orchestrator) processMessage(ctx context.Context, log *logger.Logger, user *domain.User, msg *out.MailMessage, report *domain.SyncReport) error {
	body, ok := PlainTextBody(msg.Payload)
	if !ok {
		report.BodiesMissing++
		log.Debug("[Orchestrator.Sync] no plain text body, skipping")
		return nil
	}

	res := o.extractor.Extract(ctx, body)
	if !res.OK() {
		report.ExtractionFailures++
		return nil
	}
	rec := res.Record()
	if !rec.HasCompany() {
		log.Debug("[Orchestrator.Sync] no company extracted, skipping")
		return nil
	}

	iv := domain.NewInterview(user.ID, rec, msg.ID)
	created, err := o.interviews.InsertIfAbsent(ctx, iv)
	if err != nil {
		return fmt.Errorf("store interview: %w", err)
	}
	if !created {
		report.DuplicatesSkipped++
		log.WithFields(map[string]any{"company": iv.CompanyName, "role": iv.RoleTitle}).
			Info("[Orchestrator.Sync] duplicate interview, skipping")
		return nil
	}

	report.InterviewsCreated++
	log.WithFields(map[string]any{"company": iv.CompanyName, "role": iv.RoleTitle, "interview_id": iv.ID}).
		Info("[Orchestrator.Sync] interview stored")
	return nil
}

func (o *Orchestrator) mailError(log *logger.Logger, report *domain.SyncReport, err error) (*domain.SyncReport, error) {
	if out.IsTokenExpired(err) {
		log.Warn("[Orchestrator.Sync] access token rejected, aborting without refresh")
		return abort(report, domain.ReasonTokenExpired), nil
	}
	return failRun(report, fmt.Errorf("mail provider: %w", err))
}

func abort(r *domain.SyncReport, reason string) *domain.SyncReport {
	r.Status = domain.SyncStatusAborted
	r.Reason = reason
	return r
}

func failRun(r *domain.SyncReport, err error) (*domain.SyncReport, error) {
	r.Status = domain.SyncStatusFailed
	r.Reason = err.Error()
	return r, err
}
