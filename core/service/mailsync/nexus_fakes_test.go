package mailsync

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	gosync "sync"
	"time"

	"nexus_server/core/domain"
	"nexus_server/core/port/out"

	"github.com/google/uuid"
)

type fakeCreds struct {
	users      map[string]*domain.User
	decryptErr error
	lookups    int
}

func (f *fakeCreds) GetUser(_ context.Context, email string) (*domain.User, error) {
	f.lookups++
	u, ok := f.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeCreds) DecryptAccessToken(u *domain.User) (string, error) {
	if f.decryptErr != nil {
		return "", f.decryptErr
	}
	return "plain-" + u.EncryptedAccessToken, nil
}

type fakeMail struct {
	messages map[string]*out.MailMessage
	order    []string
	listErr  error
	getErr   error
	calls    int
	tokens   []string
	query    string
	max      int64
}

func (f *fakeMail) add(id, body string) {
	if f.messages == nil {
		f.messages = map[string]*out.MailMessage{}
	}
	f.messages[id] = &out.MailMessage{
		ID: id,
		Payload: &out.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*out.MessagePart{
				{MimeType: "text/html", BodyData: encode("<p>" + body + "</p>")},
				{MimeType: "text/plain", BodyData: encode(body)},
			},
		},
	}
	f.order = append(f.order, id)
}

func (f *fakeMail) ListMessageIDs(_ context.Context, token, query string, max int64) ([]string, error) {
	f.calls++
	f.tokens = append(f.tokens, token)
	f.query, f.max = query, max
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := f.order
	if int64(len(ids)) > max {
		ids = ids[:max]
	}
	return ids, nil
}

func (f *fakeMail) GetMessage(_ context.Context, _ string, id string) (*out.MailMessage, error) {
	f.calls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.messages[id]
	if !ok {
		return nil, out.NewProviderError("fake", out.ProviderErrNotFound, "missing", nil)
	}
	return m, nil
}

type fakeModel struct {
	replies map[string]string
	calls   int
}

func (f *fakeModel) Provider() string                                  { return "fake" }
func (f *fakeModel) ListModels(context.Context) ([]out.ModelInfo, error) { return nil, nil }

// Generate answers with the reply whose key appears in the prompt.
func (f *fakeModel) Generate(_ context.Context, _ string, prompt string, _ *out.GenerationConfig) (string, error) {
	f.calls++
	for k, v := range f.replies {
		if strings.Contains(prompt, k) {
			return v, nil
		}
	}
	return "", errors.New("no scripted reply")
}

type memInterviews struct {
	mu     gosync.Mutex
	rows   map[domain.DedupKey]*domain.Interview
	nextID int64
	err    error
}

func newMemInterviews() *memInterviews {
	return &memInterviews{rows: map[domain.DedupKey]*domain.Interview{}}
}

func (m *memInterviews) InsertIfAbsent(_ context.Context, iv *domain.Interview) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.rows[iv.Key()]; ok {
		return false, nil
	}
	m.nextID++
	iv.ID = m.nextID
	iv.CreatedAt = time.Now()
	cp := *iv
	m.rows[iv.Key()] = &cp
	return true, nil
}

func (m *memInterviews) ListByUser(_ context.Context, userID int64) ([]*domain.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*domain.Interview
	for _, iv := range m.rows {
		if iv.UserID == userID {
			res = append(res, iv)
		}
	}
	return res, nil
}

type memRuns struct {
	mu   gosync.Mutex
	runs map[uuid.UUID]*domain.SyncRun
}

func newMemRuns() *memRuns {
	return &memRuns{runs: map[uuid.UUID]*domain.SyncRun{}}
}

func (m *memRuns) Create(_ context.Context, run *domain.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *memRuns) MarkRunning(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return domain.ErrSyncRunNotFound
	}
	now := time.Now()
	r.Status = domain.SyncStatusRunning
	r.StartedAt = &now
	return nil
}

func (m *memRuns) Finish(_ context.Context, run *domain.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[run.ID]
	if !ok {
		return domain.ErrSyncRunNotFound
	}
	started := r.StartedAt
	*r = *run
	if r.StartedAt == nil {
		r.StartedAt = started
	}
	return nil
}

func (m *memRuns) GetByID(_ context.Context, id uuid.UUID) (*domain.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrSyncRunNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRuns) ListByEmail(_ context.Context, email string, limit int) ([]*domain.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*domain.SyncRun
	for _, r := range m.runs {
		if r.UserEmail == email && len(res) < limit {
			cp := *r
			res = append(res, &cp)
		}
	}
	return res, nil
}

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}
