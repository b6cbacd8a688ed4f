// Package container starts throwaway infrastructure for integration tests.
package container

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongooptions "go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultMongoImage = "mongo:7"

// MongoDB is a running container with a connected client.
type MongoDB struct {
	Container        *mongodb.MongoDBContainer
	Client           *mongo.Client
	ConnectionString string
}

// StartMongoDB starts a container and pings it before returning.
func StartMongoDB(ctx context.Context, image string) (*MongoDB, error) {
	if image == "" {
		image = defaultMongoImage
	}

	c, err := mongodb.Run(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to start mongodb container: %w", err)
	}

	uri, err := c.ConnectionString(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(c)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	client, err := mongo.Connect(mongooptions.Client().ApplyURI(uri))
	if err != nil {
		_ = testcontainers.TerminateContainer(c)
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		_ = testcontainers.TerminateContainer(c)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDB{Container: c, Client: client, ConnectionString: uri}, nil
}

// MongoForTest starts a container for t, terminating it on cleanup.
// The test is skipped under -short.
func MongoForTest(t *testing.T) *MongoDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongodb integration test in short mode")
	}

	m, err := StartMongoDB(context.Background(), "")
	if err != nil {
		t.Fatalf("mongodb container: %v", err)
	}
	t.Cleanup(func() {
		if err := m.Terminate(context.Background()); err != nil {
			t.Logf("mongodb container cleanup: %v", err)
		}
	})
	return m
}

func (m *MongoDB) Database(name string) *mongo.Database {
	return m.Client.Database(name)
}

// Terminate disconnects the client and removes the container.
func (m *MongoDB) Terminate(ctx context.Context) error {
	var errs []error
	if m.Client != nil {
		if err := m.Client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect from mongodb: %w", err))
		}
	}
	if m.Container != nil {
		if err := testcontainers.TerminateContainer(m.Container); err != nil {
			errs = append(errs, fmt.Errorf("failed to terminate mongodb container: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during termination: %v", errs)
	}
	return nil
}
