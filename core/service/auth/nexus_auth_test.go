package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"nexus_server/core/domain"
	"nexus_server/core/port/out"
	"nexus_server/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIDP struct {
	token *out.IdentityToken
	err   error
	codes []string
}

func (f *fakeIDP) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (f *fakeIDP) Exchange(_ context.Context, code string) (*out.IdentityToken, error) {
	f.codes = append(f.codes, code)
	return f.token, f.err
}

type memStates map[string]bool

func (m memStates) Save(_ context.Context, state string, _ time.Duration) error {
	m[state] = true
	return nil
}

func (m memStates) Consume(_ context.Context, state string) error {
	if !m[state] {
		return out.ErrStateNotFound
	}
	delete(m, state)
	return nil
}

type recordingUsers struct {
	calls []string
	err   error
}

func (r *recordingUsers) UpsertUser(_ context.Context, email, access, refresh string) (*domain.User, error) {
	r.calls = append(r.calls, email+"|"+access+"|"+refresh)
	if r.err != nil {
		return nil, r.err
	}
	return &domain.User{ID: 1, Email: email}, nil
}

func loginState(t *testing.T, s *Service) string {
	t.Helper()
	raw, err := s.LoginURL(context.Background())
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestCallback_Success(t *testing.T) {
	idp := &fakeIDP{token: &out.IdentityToken{AccessToken: "at", RefreshToken: "rt", Email: "a@x.com", Name: "Ada"}}
	users := &recordingUsers{}
	s := NewService(idp, memStates{}, users)

	state := loginState(t, s)
	profile, err := s.Callback(context.Background(), "code-1", state)
	require.NoError(t, err)
	assert.Equal(t, &domain.SessionProfile{Email: "a@x.com", Name: "Ada"}, profile)
	assert.Equal(t, []string{"a@x.com|at|rt"}, users.calls)
	assert.Equal(t, []string{"code-1"}, idp.codes)
}

func TestCallback_StateIsSingleUse(t *testing.T) {
	idp := &fakeIDP{token: &out.IdentityToken{AccessToken: "at", Email: "a@x.com"}}
	s := NewService(idp, memStates{}, &recordingUsers{})

	state := loginState(t, s)
	_, err := s.Callback(context.Background(), "c", state)
	require.NoError(t, err)

	_, err = s.Callback(context.Background(), "c", state)
	assert.Equal(t, apperr.CodeInvalidState, apperr.AsAppError(err).Code)
}

func TestCallback_Errors(t *testing.T) {
	tests := []struct {
		name   string
		idp    *fakeIDP
		users  *recordingUsers
		code   string
		status int
	}{
		{"missing code", &fakeIDP{}, &recordingUsers{}, "", http.StatusBadRequest},
		{"exchange fails", &fakeIDP{err: errors.New("invalid_grant")}, &recordingUsers{}, "c", http.StatusBadGateway},
		{"no email", &fakeIDP{token: &out.IdentityToken{AccessToken: "at"}}, &recordingUsers{}, "c", http.StatusBadGateway},
		{"storage fails", &fakeIDP{token: &out.IdentityToken{AccessToken: "at", Email: "a@x.com"}}, &recordingUsers{err: errors.New("down")}, "c", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.idp, memStates{}, tt.users)
			state := loginState(t, s)
			_, err := s.Callback(context.Background(), tt.code, state)
			assert.Equal(t, tt.status, apperr.AsAppError(err).Status)
		})
	}
}

func TestCallback_UnknownState(t *testing.T) {
	s := NewService(&fakeIDP{}, memStates{}, &recordingUsers{})
	_, err := s.Callback(context.Background(), "c", "forged")
	assert.Equal(t, http.StatusBadRequest, apperr.AsAppError(err).Status)
}
