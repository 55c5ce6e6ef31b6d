package persistence

import (
	"context"
	"testing"
	"time"

	"nexus_server/core/port/out"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOAuthStateStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOAuthStateStore()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	require.NoError(t, s.Save(ctx, "abc", time.Minute))
	require.NoError(t, s.Consume(ctx, "abc"))
	assert.ErrorIs(t, s.Consume(ctx, "abc"), out.ErrStateNotFound, "state is single use")

	require.NoError(t, s.Save(ctx, "late", time.Minute))
	clock = clock.Add(2 * time.Minute)
	assert.ErrorIs(t, s.Consume(ctx, "late"), out.ErrStateNotFound, "expired state")

	assert.ErrorIs(t, s.Consume(ctx, "never"), out.ErrStateNotFound)
	assert.Error(t, s.Save(ctx, "", time.Minute))
}
