package test

import (
	"context"
	"os"
	"testing"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/ragcontext/internal/profile"
	"github.com/hrygo/ragcontext/store"
	"github.com/hrygo/ragcontext/store/db"
)

// NewTestingStore opens a migrated store for tests.
// DRIVER=postgres runs against POSTGRES_TEST_DSN; the default is an
// in-memory SQLite database. Each store gets its own collection.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	return NewTestingStoreWithMetric(ctx, t, "cosine")
}

// NewTestingStoreWithMetric is NewTestingStore with an explicit metric.
func NewTestingStoreWithMetric(ctx context.Context, t *testing.T, metric string) *store.Store {
	t.Helper()
	profile := getTestingProfile(t)
	profile.Metric = metric

	dbDriver, err := db.NewDBDriver(profile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}
	s := store.New(dbDriver, profile)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	p := profile.Default()
	p.Mode = "dev"
	p.Data = t.TempDir()
	p.Collection = "test_" + shortuuid.New()

	switch getDriverFromEnv() {
	case "postgres":
		dsn := os.Getenv("POSTGRES_TEST_DSN")
		if dsn == "" {
			t.Skip("POSTGRES_TEST_DSN is not set")
		}
		p.Driver = "postgres"
		p.DSN = dsn
	default:
		p.Driver = "sqlite"
		p.DSN = ":memory:"
	}
	return p
}

func getDriverFromEnv() string {
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}
