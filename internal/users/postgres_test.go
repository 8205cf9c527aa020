package users

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterphenikaa/zen8labs-auth/internal/models"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Run with: GO_TEST_INTEGRATION=1 go test ./internal/users -run Integration -v
func startPostgres(t *testing.T) *PostgresUserRepository {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	var repo *PostgresUserRepository
	require.Eventually(t, func() bool {
		repo, err = NewPostgresUserRepository(ctx, dsn)
		return err == nil
	}, 30*time.Second, 500*time.Millisecond)
	t.Cleanup(repo.Close)

	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func TestIntegration_Postgres_CreateAndFind(t *testing.T) {
	repo := startPostgres(t)
	ctx := context.Background()

	u := &models.User{ID: uuid.NewString(), Email: "pg@example.com", Name: "PG", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, u))

	byEmail, err := repo.FindByEmail(ctx, "pg@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	require.Equal(t, u.ID, byEmail.ID)
	require.WithinDuration(t, u.CreatedAt, byEmail.CreatedAt, time.Second)

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "pg@example.com", byID.Email)

	missing, err := repo.FindByID(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Nil(t, missing)

	dup := &models.User{ID: uuid.NewString(), Email: "pg@example.com", PasswordHash: "hash"}
	require.ErrorIs(t, repo.Create(ctx, dup), ErrEmailTaken)
}
