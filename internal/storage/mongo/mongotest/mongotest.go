// Package mongotest starts a throwaway MongoDB container for tests and
// hands back a connected store.
package mongotest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aanand-mishra/users-api/internal/config"
	"github.com/aanand-mishra/users-api/internal/storage/mongo"
)

const image = "mongo:7"

// Available reports whether a container can be started: not in -short
// mode, and a Docker provider answers its health check.
func Available(t *testing.T) bool {
	t.Helper()
	if testing.Short() {
		return false
	}

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()

	return provider.Health(context.Background()) == nil
}

// Open starts a container and connects a store to it. Both are torn
// down when t finishes. It skips t when Available is false.
func Open(t *testing.T) *mongo.Mongo {
	t.Helper()
	if !Available(t) {
		t.Skip("mongo container unavailable: -short or no healthy Docker provider")
	}

	ctx := context.Background()
	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp"),
		},
		Started: true,
	}

	c, err := testcontainers.GenericContainer(ctx, req)
	testcontainers.CleanupContainer(t, c)
	require.NoError(t, err)

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	m, err := mongo.New(ctx, config.Mongo{
		URI:        fmt.Sprintf("mongodb://%s:%s", host, port.Port()),
		Database:   "users-api-test",
		Collection: "users",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	return m
}
