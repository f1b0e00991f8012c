// Package testutil starts throwaway Postgres instances for integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/Tomlord1122/family-todo/internal/database"
)

const (
	dbName     = "family_todo"
	dbUser     = "user"
	dbPassword = "password"
)

// StartPostgres runs a Postgres container, connects to it and migrates the
// schema. The returned stop func closes the pool and terminates the container.
func StartPostgres(ctx context.Context) (db database.Service, stop func(), err error) {
	// testcontainers panics instead of erroring on some hosts without docker.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("start postgres container: %v", r)
		}
	}()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("start postgres container: %w", err)
	}

	terminate := func() {
		_ = container.Terminate(context.Background())
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return nil, nil, fmt.Errorf("container connection string: %w", err)
	}

	db, err = database.Open(dsn, "silent")
	if err != nil {
		terminate()
		return nil, nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		terminate()
		return nil, nil, err
	}

	return db, func() {
		db.Close()
		terminate()
	}, nil
}

// Reset empties every table and restarts identities so each test sees a
// clean database.
func Reset(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Exec(`TRUNCATE users, families, memberships, invites, todos RESTART IDENTITY`).Error
	if err != nil {
		t.Fatalf("reset database: %v", err)
	}
}
