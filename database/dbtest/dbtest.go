// Package dbtest starts a disposable PostgreSQL for integration tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/irsalhamdi/e-learning/database"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	image    = "postgres"
	tag      = "15-alpine"
	user     = "postgres"
	password = "postgres"
	name     = "elearning_test"
)

// NewDatabase runs a postgres container, migrates it and registers its
// teardown with t. The test is skipped when running with -short or when no
// docker daemon is reachable.
func NewDatabase(t *testing.T) *sqlx.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	pool.MaxWait = 2 * time.Minute

	opts := dockertest.RunOptions{
		Repository: image,
		Tag:        tag,
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + name,
		},
	}
	resource, err := pool.RunWithOptions(&opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	_ = resource.Expire(300)

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("purging postgres container: %v", err)
		}
	})

	cfg := database.Config{
		User:         user,
		Password:     password,
		Host:         resource.GetHostPort("5432/tcp"),
		Name:         name,
		DisableTLS:   true,
		MaxIdleConns: 2,
		MaxOpenConns: 10,
	}

	var db *sqlx.DB
	err = pool.Retry(func() error {
		var err error
		db, err = database.Open(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.StatusCheck(ctx, db); err != nil {
			db.Close()
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("connecting to postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	return db
}

// Truncate empties every table and resets the id sequences, so tests that
// share one database start from a clean state.
func Truncate(t *testing.T, db *sqlx.DB) {
	t.Helper()

	const q = `TRUNCATE user_lesson_progress, lessons, sections, enrollments, reviews, orders, courses, categories, users RESTART IDENTITY CASCADE`
	if _, err := db.Exec(q); err != nil {
		t.Fatalf("truncating tables: %v", err)
	}
}
