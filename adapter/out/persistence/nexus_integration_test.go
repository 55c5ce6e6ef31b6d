//go:build integration

package persistence_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"nexus_server/adapter/out/persistence"
	"nexus_server/core/domain"
	"nexus_server/infra/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "nexus_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/nexus_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestRepositories_AgainstPostgres(t *testing.T) {
	ctx := context.Background()

	sqlxDB, err := database.NewSQLX(dsn, nil)
	for i := 0; err != nil && i < 10; i++ {
		time.Sleep(500 * time.Millisecond)
		sqlxDB, err = database.NewSQLX(dsn, nil)
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlxDB.Close() })

	require.NoError(t, database.Migrate(ctx, sqlxDB.DB))

	users := persistence.NewUserAdapter(sqlxDB)
	interviews := persistence.NewInterviewAdapter(sqlxDB)
	runs := persistence.NewSyncRunAdapter(sqlxDB)

	refresh := "enc-refresh"
	u, err := users.Upsert(ctx, "a@x.com", "enc-access-1", &refresh)
	require.NoError(t, err)
	u2, err := users.Upsert(ctx, "a@x.com", "enc-access-2", nil)
	require.NoError(t, err)
	assert.Equal(t, u.ID, u2.ID)
	require.NotNil(t, u2.EncryptedRefreshToken)
	assert.Equal(t, refresh, *u2.EncryptedRefreshToken)
	assert.Equal(t, "enc-access-2", u2.EncryptedAccessToken)

	date := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

	// concurrent inserts of the same dedup key yield exactly one row
	var wg sync.WaitGroup
	created := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := interviews.InsertIfAbsent(ctx, &domain.Interview{
				UserID: u.ID, CompanyName: "Acme", RoleTitle: "SWE",
				InterviewDate: &date, InterviewType: domain.InterviewTechnical,
			})
			assert.NoError(t, err)
			created <- ok
		}()
	}
	wg.Wait()
	close(created)
	n := 0
	for ok := range created {
		if ok {
			n++
		}
	}
	assert.Equal(t, 1, n)

	list, err := interviews.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].InterviewDate.Equal(date))

	run := &domain.SyncRun{ID: uuid.New(), UserEmail: "a@x.com", Status: domain.SyncStatusPending, CreatedAt: time.Now().UTC()}
	require.NoError(t, runs.Create(ctx, run))
	require.NoError(t, runs.MarkRunning(ctx, run.ID))
	finished := time.Now().UTC()
	run.Status, run.InterviewsCreated, run.FinishedAt = domain.SyncStatusSucceeded, 1, &finished
	require.NoError(t, runs.Finish(ctx, run))

	got, err := runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSucceeded, got.Status)
	assert.NotNil(t, got.StartedAt)
}
