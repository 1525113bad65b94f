package containers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	image      = "postgres:16.3-alpine"
	dbName     = "grubberbot"
	dbUser     = "grubber"
	dbPassword = "secret"
)

// EnvConnStr points integration tests at an existing, empty database instead of a container.
const EnvConnStr = "GRUBBERBOT_TEST_POSTGRES"

// DBContainer is an empty postgres database. Callers apply the schema with db.Migrate.
type DBContainer struct {
	container *postgres.PostgresContainer
	connStr   string
}

func Start(ctx context.Context) (*DBContainer, error) {
	if connStr := os.Getenv(EnvConnStr); connStr != "" {
		return &DBContainer{connStr: connStr}, nil
	}

	container, err := postgres.Run(ctx, image,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("error starting container: %w", err)
	}

	// explicitly set sslmode=disable because the container is not configured to use TLS
	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("error getting connection string: %w", err)
	}

	return &DBContainer{container: container, connStr: connStr}, nil
}

func (c *DBContainer) ConnectionString() string {
	return c.connStr
}

// Stop terminates the container. A database given through EnvConnStr is left alone.
func (c *DBContainer) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil
	}
	if err := c.container.Terminate(ctx); err != nil {
		return fmt.Errorf("error terminating container: %w", err)
	}
	return nil
}
