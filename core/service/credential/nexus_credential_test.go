package credential

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nexus_server/core/domain"
	"nexus_server/pkg/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	mu    sync.Mutex
	next  int64
	users map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*domain.User{}}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Upsert(_ context.Context, email, access string, refresh *string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		m.next++
		u = &domain.User{ID: m.next, Email: email, CreatedAt: time.Now()}
		m.users[email] = u
	}
	u.EncryptedAccessToken = access
	if refresh != nil {
		u.EncryptedRefreshToken = refresh
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func newStore(t *testing.T) (*Store, *memUsers) {
	t.Helper()
	enc, err := crypto.NewEncryptor([]byte("test-key"))
	require.NoError(t, err)
	users := newMemUsers()
	return NewStore(users, enc), users
}

func TestUpsertUser_EncryptsAndRoundTrips(t *testing.T) {
	store, users := newStore(t)
	ctx := context.Background()

	u, err := store.UpsertUser(ctx, "a@x.com", "access-1", "refresh-1")
	require.NoError(t, err)
	assert.NotEqual(t, "access-1", u.EncryptedAccessToken)
	assert.True(t, u.HasRefreshToken())

	got, err := store.GetUser(ctx, "a@x.com")
	require.NoError(t, err)
	token, err := store.DecryptAccessToken(got)
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
	assert.Len(t, users.users, 1)
}

func TestUpsertUser_KeepsRefreshTokenWhenAbsent(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	first, err := store.UpsertUser(ctx, "a@x.com", "access-1", "refresh-1")
	require.NoError(t, err)
	second, err := store.UpsertUser(ctx, "a@x.com", "access-2", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, *first.EncryptedRefreshToken, *second.EncryptedRefreshToken)
	token, err := store.DecryptAccessToken(second)
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)
}

func TestUpsertUser_Validation(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.UpsertUser(context.Background(), "", "a", "")
	assert.Error(t, err)
	_, err = store.UpsertUser(context.Background(), "a@x.com", "", "")
	assert.Error(t, err)
}

func TestGetUser_NotFound(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.GetUser(context.Background(), "missing@x.com")
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}

func TestDecryptAccessToken_WrongKey(t *testing.T) {
	store, users := newStore(t)
	ctx := context.Background()
	_, err := store.UpsertUser(ctx, "a@x.com", "access-1", "")
	require.NoError(t, err)

	other, err := crypto.NewEncryptor([]byte("another-key"))
	require.NoError(t, err)
	rotated := NewStore(users, other)

	u, err := rotated.GetUser(ctx, "a@x.com")
	require.NoError(t, err)
	_, err = rotated.DecryptAccessToken(u)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestDecryptAccessToken_Malformed(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.DecryptAccessToken(&domain.User{Email: "a@x.com", EncryptedAccessToken: "%%%"})
	assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)

	_, err = store.DecryptAccessToken(&domain.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrEmptyToken)
}
