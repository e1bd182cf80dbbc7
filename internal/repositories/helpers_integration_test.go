//go:build integration

package repositories_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BradenHooton/accounts/internal/config"
	"github.com/BradenHooton/accounts/internal/database"
	"github.com/BradenHooton/accounts/internal/models"
	"gorm.io/gorm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupPostgres starts a PostgreSQL container and applies the embedded migrations
func setupPostgres(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("accounts"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := database.NewFromPool(pool, quietLogger())
	require.NoError(t, db.Migrate(ctx))

	return db
}

// setupMySQL starts a MySQL container and returns a GORM connection to it
func setupMySQL(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mysql:8.0",
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "secret",
				"MYSQL_DATABASE":      "accounts",
			},
			WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start mysql container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	db, err := database.NewGorm(&config.DatabaseConfig{
		Driver:          config.DriverMySQL,
		Host:            host,
		Port:            port.Int(),
		User:            "root",
		Password:        "secret",
		Name:            "accounts",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: time.Minute,
		MaxConnIdleTime: time.Minute,
		LogLevel:        "silent",
	}, quietLogger())
	require.NoError(t, err)

	return db
}

func newUser(i int) *models.User {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.User{
		FirstName:    fmt.Sprintf("First%d", i),
		LastName:     fmt.Sprintf("Last%d", i),
		Email:        fmt.Sprintf("user%d@example.com", i),
		PasswordHash: "$2a$04$hash",
		DateCreated:  now,
		DateUpdated:  now,
	}
}
