package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/ragcontext/internal/profile"
	"github.com/hrygo/ragcontext/store"
	"github.com/hrygo/ragcontext/store/db/postgres"
	"github.com/hrygo/ragcontext/store/db/sqlite"
)

// ============================================================================
// DATABASE SUPPORT POLICY
// ============================================================================
// SQLite: default, single process, brute-force ranking in Go.
// PostgreSQL: pgvector, for collections shared between processes.
// ============================================================================

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'sqlite' and 'postgres' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
