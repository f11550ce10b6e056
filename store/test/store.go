package test

import (
	"context"
	"os"
	"testing"

	"github.com/hrygo/botgpt/internal/profile"
	"github.com/hrygo/botgpt/store"
	"github.com/hrygo/botgpt/store/db"
)

// NewTestingStore returns a migrated store. DRIVER=postgres runs against a
// container; anything else uses an in-memory SQLite database.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	p := getTestingProfile(t)
	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}
	t.Cleanup(func() {
		driver.Close()
	})

	s := store.New(driver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	driver := getDriverFromEnv()
	p := &profile.Profile{
		Mode:   "dev",
		Driver: driver,
	}
	switch driver {
	case "postgres":
		p.DSN = GetPostgresDSN(t)
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
