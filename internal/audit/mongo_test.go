package audit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/peterphenikaa/zen8labs-auth/internal/database"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Run with: GO_TEST_INTEGRATION=1 go test ./internal/audit -run Integration -v
func TestIntegration_MongoRecorder(t *testing.T) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}
	ctx := context.Background()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "27017/tcp")
	client, err := database.ConnectMongo(ctx, fmt.Sprintf("mongodb://%s:%s", host, port.Port()), 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	rec := NewMongoRecorder(client.Database("audit_test").Collection("auth_events"))
	require.NoError(t, rec.EnsureIndexes(ctx))

	base := time.Now().UTC().Truncate(time.Millisecond)
	rec.Record(ctx, Event{Type: LoginSucceeded, UserID: "u1", At: base})
	rec.Record(ctx, Event{Type: Logout, UserID: "u1", At: base.Add(time.Second)})
	rec.Record(ctx, Event{Type: LoginFailed, UserID: "u2", At: base})

	got, err := rec.Recent(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, Logout, got[0].Type)
	require.Equal(t, LoginSucceeded, got[1].Type)
}
